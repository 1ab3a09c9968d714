package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oktaamyid/oktaa-links/internal/handler"
	"github.com/oktaamyid/oktaa-links/internal/middleware"
	"github.com/oktaamyid/oktaa-links/internal/models"
	"github.com/oktaamyid/oktaa-links/internal/service"
	"github.com/oktaamyid/oktaa-links/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv окружение handler-тестов: роутер поверх моковых репозиториев
type testEnv struct {
	router    *gin.Engine
	linkRepo  *mocks.MockLinkRepository
	processor service.VisitProcessor
}

func setupEnv(t *testing.T, apiKeys map[string]string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	linkRepo := mocks.NewMockLinkRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger := zap.NewNop()

	processor := service.NewVisitProcessor(linkRepo, logger)
	processor.Start()
	t.Cleanup(processor.Stop)

	classifier := service.NewVisitClassifier(&mocks.MockGeoResolver{}, "127.0.0.1", logger)
	linkService := service.NewLinkService(linkRepo, cacheRepo, classifier, processor, logger)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		CleanupInterval:   time.Minute,
	})

	var apiKeyMiddleware gin.HandlerFunc
	if len(apiKeys) > 0 {
		apiKeyMiddleware = middleware.RequireAPIKey(apiKeys)
	}

	router := handler.NewRouter(linkService, rateLimiter, apiKeyMiddleware, "http://localhost:8080", logger, false)
	return &testEnv{router: router, linkRepo: linkRepo, processor: processor}
}

func (env *testEnv) createLink(t *testing.T, input models.CreateLinkInput) models.Link {
	t.Helper()
	body, _ := json.Marshal(input)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/shorten", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	return link
}

// TestShorten проверяет создание ссылки через POST /api/shorten
func TestShorten(t *testing.T) {
	env := setupEnv(t, nil)

	t.Run("успешное создание", func(t *testing.T) {
		body, _ := json.Marshal(models.CreateLinkInput{
			OriginalURL: "https://example.com",
			ShortCode:   "promo",
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/shorten", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp handler.ShortenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "promo", resp.ShortCode)
		assert.Equal(t, "https://example.com", resp.OriginalURL)
		assert.Equal(t, "http://localhost:8080/promo", resp.ShortURL)
	})

	tests := []struct {
		name    string
		input   models.CreateLinkInput
		errCode string
	}{
		{"без originalUrl", models.CreateLinkInput{ShortCode: "x1"}, "missing_field"},
		{"без shortUrl", models.CreateLinkInput{OriginalURL: "https://example.com"}, "missing_field"},
		{"невалидный URL", models.CreateLinkInput{OriginalURL: "nope", ShortCode: "x2"}, "invalid_url"},
		{"занятый код", models.CreateLinkInput{OriginalURL: "https://example.com/2", ShortCode: "promo"}, "code_taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.input)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/shorten", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			env.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var errResp handler.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.Equal(t, tt.errCode, errResp.Error)
		})
	}
}

// TestResolveLink проверяет публичный резолв со счётчиком кликов
func TestResolveLink(t *testing.T) {
	env := setupEnv(t, nil)

	env.createLink(t, models.CreateLinkInput{
		OriginalURL: "https://example.com",
		ShortCode:   "promo",
	})

	t.Run("успешный резолв считает клик", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links/promo", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resolution models.Resolution
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolution))
		assert.Equal(t, "https://example.com", resolution.OriginalURL)
		assert.False(t, resolution.ShowConfirmationPage)
		assert.Equal(t, "", resolution.ConfirmationPageSettings.CustomMessage)

		// Инкремент уходит в worker pool асинхронно
		assert.Eventually(t, func() bool {
			link, err := env.linkRepo.GetByShortCode(req.Context(), "promo")
			return err == nil && link.Clicks == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("сообщение подтверждения сохраняется дословно", func(t *testing.T) {
		env.createLink(t, models.CreateLinkInput{
			OriginalURL:          "https://example.com/deal",
			ShortCode:            "deal",
			ShowConfirmationPage: true,
			ConfirmationPageSettings: &models.ConfirmationPageSettings{
				CustomMessage: "Limited offer",
			},
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links/deal", nil)
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resolution models.Resolution
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolution))
		assert.True(t, resolution.ShowConfirmationPage)
		assert.Equal(t, "Limited offer", resolution.ConfirmationPageSettings.CustomMessage)
	})

	t.Run("несуществующий код", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links/doesnotexist", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Short URL not found", body["error"])
	})
}

// TestResolveLink_EmptyCode проверяет 400 на пустой код
func TestResolveLink_EmptyCode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	linkRepo := mocks.NewMockLinkRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger := zap.NewNop()
	processor := service.NewVisitProcessor(linkRepo, logger)
	processor.Start()
	t.Cleanup(processor.Stop)
	classifier := service.NewVisitClassifier(&mocks.MockGeoResolver{}, "127.0.0.1", logger)
	linkService := service.NewLinkService(linkRepo, cacheRepo, classifier, processor, logger)
	h := handler.NewLinkHandler(linkService, "http://localhost:8080", logger)

	// Вызываем handler напрямую: роутер не матчит пустой сегмент пути
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/links/", nil)

	h.ResolveLink(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid short URL")
}

// TestDashboardRoutes_APIKey проверяет защиту роутов дашборда API ключом
func TestDashboardRoutes_APIKey(t *testing.T) {
	env := setupEnv(t, map[string]string{"secret": "dashboard"})

	t.Run("список без ключа", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links", nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("список с ключом", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links", nil)
		req.Header.Set("X-API-Key", "secret")
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("публичный резолв остаётся открытым", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links/whatever", nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestUpdateAndDeleteLink проверяет CRUD дашборда
func TestUpdateAndDeleteLink(t *testing.T) {
	env := setupEnv(t, nil)

	env.createLink(t, models.CreateLinkInput{
		OriginalURL: "https://example.com",
		ShortCode:   "edit-me",
	})

	t.Run("обновление описания", func(t *testing.T) {
		desc := "landing page"
		body, _ := json.Marshal(models.UpdateLinkInput{Description: &desc})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/links/edit-me", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var link models.Link
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
		assert.Equal(t, desc, link.Description)
	})

	t.Run("удаление", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/links/edit-me", nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("DELETE", "/api/links/edit-me", nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestAnalyticsSummaryEndpoint проверяет сводку аналитики
func TestAnalyticsSummaryEndpoint(t *testing.T) {
	env := setupEnv(t, nil)

	env.createLink(t, models.CreateLinkInput{OriginalURL: "https://example.com/a", ShortCode: "a"})
	env.createLink(t, models.CreateLinkInput{OriginalURL: "https://example.com/b", ShortCode: "b"})

	// Несколько кликов по "a"
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/links/a", nil)
		req.Header.Set("Referer", "https://news.ycombinator.com/")
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Дожидаемся применения инкрементов worker pool'ом
	require.Eventually(t, func() bool {
		link, err := env.linkRepo.GetByShortCode(context.Background(), "a")
		return err == nil && link.Clicks == 3
	}, 2*time.Second, 10*time.Millisecond)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/analytics/summary", nil)
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var summary models.AnalyticsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalLinks)
	assert.Equal(t, int64(3), summary.TotalClicks)
	require.NotEmpty(t, summary.TopLinks)
	assert.Equal(t, "a", summary.TopLinks[0].ShortCode)
	require.NotEmpty(t, summary.TopReferers)
	// Ключ реферера денормализован обратно в hostname с точками
	assert.Equal(t, "news.ycombinator.com", summary.TopReferers[0].Name)
}
