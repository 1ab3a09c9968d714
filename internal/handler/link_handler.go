package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oktaamyid/oktaa-links/internal/models"
	"github.com/oktaamyid/oktaa-links/internal/service"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ShortenResponse дополняет созданную ссылку готовым коротким URL
type ShortenResponse struct {
	*models.Link
	ShortURL string `json:"short_url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ResolveLink godoc
// @Summary Resolve a short code
// @Description Resolve a short code to its destination and count the visit
// @Tags links
// @Produce json
// @Param shortCode path string true "Short code"
// @Success 200 {object} models.Resolution
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{shortCode} [get]
func (h *LinkHandler) ResolveLink(c *gin.Context) {
	// Роутер не матчит пустой сегмент пути, но контракт ответа для пустого
	// кода принадлежит обработчику
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid short URL"})
		return
	}

	meta := models.RequestMeta{
		UserAgent:    c.Request.UserAgent(),
		ForwardedFor: c.GetHeader("X-Forwarded-For"),
		RemoteIP:     c.ClientIP(),
		Referer:      c.Request.Referer(),
	}

	resolution, err := h.service.Resolve(c.Request.Context(), code, meta)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
			return
		}
		h.logger.Error("Failed to resolve link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// Shorten godoc
// @Summary Create a short link
// @Description Create a new short link with an explicit short code
// @Tags links
// @Accept json
// @Produce json
// @Param request body models.CreateLinkInput true "Link creation request"
// @Success 201 {object} ShortenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/shorten [post]
func (h *LinkHandler) Shorten(c *gin.Context) {
	var input models.CreateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &input)
	if err != nil {
		h.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ShortenResponse{
		Link:     link,
		ShortURL: h.baseURL + "/" + link.ShortCode,
	})
}

func (h *LinkHandler) writeCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingOriginalURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_field",
			Message: "originalUrl is required",
		})
	case errors.Is(err, service.ErrMissingShortCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_field",
			Message: "shortUrl is required",
		})
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "Invalid URL format",
		})
	case errors.Is(err, service.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_code",
			Message: "Short code must contain only letters, digits, '-' or '_'",
		})
	case errors.Is(err, service.ErrCodeTaken):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "code_taken",
			Message: "Short URL already taken",
		})
	default:
		h.logger.Error("Failed to create link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create link",
		})
	}
}

// ListLinks godoc
// @Summary List all links
// @Description List all links with their accumulated stats
// @Tags dashboard
// @Produce json
// @Success 200 {array} models.Link
// @Failure 500 {object} ErrorResponse
// @Router /api/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.service.ListLinks(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	c.JSON(http.StatusOK, links)
}

// UpdateLink godoc
// @Summary Update a link
// @Description Update link fields from the dashboard
// @Tags dashboard
// @Accept json
// @Produce json
// @Param code path string true "Short code"
// @Param request body models.UpdateLinkInput true "Fields to update"
// @Success 200 {object} models.Link
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{code} [put]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	code := c.Param("code")

	var input models.UpdateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	link, err := h.service.UpdateLink(c.Request.Context(), code, &input)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}

// DeleteLink godoc
// @Summary Delete a link
// @Description Delete a link by short code
// @Tags dashboard
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/links/{code} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")

	if err := h.service.DeleteLink(c.Request.Context(), code); err != nil {
		h.logger.Warn("Failed to delete link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// AnalyticsSummary godoc
// @Summary Dashboard analytics summary
// @Description Aggregate clicks and dimension distributions across all links
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.AnalyticsSummary
// @Failure 500 {object} ErrorResponse
// @Router /api/analytics/summary [get]
func (h *LinkHandler) AnalyticsSummary(c *gin.Context) {
	links, err := h.service.ListLinks(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load links for summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to build analytics summary",
		})
		return
	}

	c.JSON(http.StatusOK, service.Summarize(links))
}

// HealthCheck godoc
// @Summary Health check
// @Tags service
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "oktaa-links",
	})
}
