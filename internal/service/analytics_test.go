package service_test

import (
	"testing"

	"github.com/oktaamyid/oktaa-links/internal/models"
	"github.com/oktaamyid/oktaa-links/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSummarize_Empty проверяет сводку по пустому набору ссылок
func TestSummarize_Empty(t *testing.T) {
	summary := service.Summarize(nil)

	assert.Equal(t, 0, summary.TotalLinks)
	assert.Equal(t, int64(0), summary.TotalClicks)
	assert.Equal(t, 0.0, summary.AvgClicks)
	assert.Empty(t, summary.TopLinks)
	assert.Empty(t, summary.TopDevices)
}

// TestSummarize_Totals проверяет суммарные клики и среднее на ссылку
func TestSummarize_Totals(t *testing.T) {
	links := []models.Link{
		{ShortCode: "a", Clicks: 10},
		{ShortCode: "b", Clicks: 4},
		{ShortCode: "c", Clicks: 1},
	}

	summary := service.Summarize(links)

	assert.Equal(t, 3, summary.TotalLinks)
	assert.Equal(t, int64(15), summary.TotalClicks)
	assert.InDelta(t, 5.0, summary.AvgClicks, 0.0001)
}

// TestSummarize_TopLinks проверяет топ-5 по кликам со стабильными ничьими
func TestSummarize_TopLinks(t *testing.T) {
	links := []models.Link{
		{ShortCode: "one", Clicks: 5},
		{ShortCode: "two", Clicks: 9},
		{ShortCode: "three", Clicks: 5}, // ничья с "one": порядок выборки сохраняется
		{ShortCode: "four", Clicks: 1},
		{ShortCode: "five", Clicks: 7},
		{ShortCode: "six", Clicks: 2},
	}

	summary := service.Summarize(links)

	require.Len(t, summary.TopLinks, 5)
	assert.Equal(t, "two", summary.TopLinks[0].ShortCode)
	assert.Equal(t, "five", summary.TopLinks[1].ShortCode)
	assert.Equal(t, "one", summary.TopLinks[2].ShortCode)
	assert.Equal(t, "three", summary.TopLinks[3].ShortCode)
	assert.Equal(t, "six", summary.TopLinks[4].ShortCode)
}

// TestSummarize_Dimensions проверяет суммирование распределений по всем
// ссылкам и денормализацию ключей рефереров для отображения
func TestSummarize_Dimensions(t *testing.T) {
	links := []models.Link{
		{
			ShortCode: "a",
			Clicks:    6,
			DeviceStats: map[string]int64{
				models.DeviceMobile:  4,
				models.DeviceDesktop: 2,
			},
			BrowserStats: map[string]int64{"Chrome": 5, "Firefox": 1},
			GeoStats:     map[string]int64{"Jakarta, Indonesia": 6},
			RefererStats: map[string]int64{"news_ycombinator_com": 3, "Direct": 3},
		},
		{
			ShortCode: "b",
			Clicks:    3,
			DeviceStats: map[string]int64{
				models.DeviceMobile: 3,
			},
			BrowserStats: map[string]int64{"Chrome": 3},
			GeoStats:     map[string]int64{"Unknown": 3},
			RefererStats: map[string]int64{"news_ycombinator_com": 2, "Direct": 1},
		},
	}

	summary := service.Summarize(links)

	require.NotEmpty(t, summary.TopDevices)
	assert.Equal(t, models.DimensionCount{Name: models.DeviceMobile, Count: 7}, summary.TopDevices[0])
	assert.Equal(t, models.DimensionCount{Name: "Chrome", Count: 8}, summary.TopBrowsers[0])
	assert.Equal(t, models.DimensionCount{Name: "Jakarta, Indonesia", Count: 6}, summary.TopLocations[0])

	// Рефереры возвращаются с точками
	assert.Equal(t, models.DimensionCount{Name: "news.ycombinator.com", Count: 5}, summary.TopReferers[0])
	assert.Equal(t, models.DimensionCount{Name: "Direct", Count: 4}, summary.TopReferers[1])
}

// TestSummarize_TopFiveCut проверяет обрезку распределения до пяти записей
func TestSummarize_TopFiveCut(t *testing.T) {
	link := models.Link{
		ShortCode: "a",
		GeoStats: map[string]int64{
			"A": 7, "B": 6, "C": 5, "D": 4, "E": 3, "F": 2, "G": 1,
		},
	}

	summary := service.Summarize([]models.Link{link})

	require.Len(t, summary.TopLocations, 5)
	assert.Equal(t, "A", summary.TopLocations[0].Name)
	assert.Equal(t, "E", summary.TopLocations[4].Name)
}
