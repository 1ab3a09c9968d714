package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/oktaamyid/oktaa-links/internal/middleware"
	"github.com/oktaamyid/oktaa-links/internal/service"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	rateLimiter *middleware.RateLimiter,
	apiKeyMiddleware gin.HandlerFunc,
	baseURL string,
	logger *zap.Logger,
	withPages bool,
) *gin.Engine {
	router := gin.Default()

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	linkHandler := NewLinkHandler(linkService, baseURL, logger)

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)

		// Публичная поверхность: резолв со счётчиком кликов и создание ссылок
		api.GET("/links/:code", linkHandler.ResolveLink)
		api.POST("/shorten", linkHandler.Shorten)

		// Дашборд: CRUD и аналитика, под API key когда он настроен
		dashboard := api.Group("")
		if apiKeyMiddleware != nil {
			dashboard.Use(apiKeyMiddleware)
		}
		dashboard.GET("/links", linkHandler.ListLinks)
		dashboard.PUT("/links/:code", linkHandler.UpdateLink)
		dashboard.DELETE("/links/:code", linkHandler.DeleteLink)
		dashboard.GET("/analytics/summary", linkHandler.AnalyticsSummary)
	}

	// Страницы редиректа (корневой путь) - в тестах отключаются, чтобы не
	// зависеть от файлов шаблонов
	if withPages {
		AddPageRoutes(router)
	}

	return router
}
