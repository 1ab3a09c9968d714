package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RedirectPage serves the client-side redirect/confirmation page for
// /{shortCode}. The page calls the resolve API itself: Loading ->
// Redirecting | ShowingConfirmation | Error happens in the browser, after
// the click has already been counted by the API call.
// @Summary Redirect page
// @Tags pages
// @Produce html
// @Param shortCode path string true "Short code"
// @Success 200 {string} string "Redirect page HTML"
// @Router /{shortCode} [get]
func RedirectPage(c *gin.Context) {
	c.HTML(http.StatusOK, "redirect.html", gin.H{
		"ShortCode": c.Param("code"),
	})
}

// NotFoundPage serves the static 404 page
// @Summary Not-found page
// @Tags pages
// @Produce html
// @Success 200 {string} string "404 page HTML"
// @Router /404 [get]
func NotFoundPage(c *gin.Context) {
	c.File("./web/static/404.html")
}

// AddPageRoutes регистрирует публичные страницы редиректа
func AddPageRoutes(router *gin.Engine) {
	router.LoadHTMLGlob("web/templates/*.html")
	router.GET("/404", NotFoundPage)
	router.GET("/:code", RedirectPage)
}
