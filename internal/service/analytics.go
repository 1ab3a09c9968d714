package service

import (
	"sort"

	"github.com/oktaamyid/oktaa-links/internal/models"
)

const topN = 5

// Summarize сводит снапшот всех ссылок в сводку дашборда: суммарные клики,
// среднее на ссылку, топ-5 ссылок и топ-5 значений каждого измерения.
// Чистая функция без I/O; пересчитывается на каждый запрос сводки
func Summarize(links []models.Link) *models.AnalyticsSummary {
	summary := &models.AnalyticsSummary{
		TotalLinks: len(links),
	}

	devices := make(map[string]int64)
	browsers := make(map[string]int64)
	locations := make(map[string]int64)
	referers := make(map[string]int64)

	for _, link := range links {
		summary.TotalClicks += link.Clicks
		for key, count := range link.DeviceStats {
			devices[key] += count
		}
		for key, count := range link.BrowserStats {
			browsers[key] += count
		}
		for key, count := range link.GeoStats {
			locations[key] += count
		}
		for key, count := range link.RefererStats {
			referers[key] += count
		}
	}

	if len(links) > 0 {
		summary.AvgClicks = float64(summary.TotalClicks) / float64(len(links))
	}

	summary.TopLinks = topLinks(links)
	summary.TopDevices = topCounts(devices, nil)
	summary.TopBrowsers = topCounts(browsers, nil)
	summary.TopLocations = topCounts(locations, nil)
	// Ключи рефереров хранятся в нормализованном виде; для отображения
	// возвращаем точки на место
	summary.TopReferers = topCounts(referers, DenormalizeReferer)

	return summary
}

// topLinks топ-5 ссылок по кликам; при равенстве сохраняется порядок выборки
func topLinks(links []models.Link) []models.LinkClicks {
	ranked := make([]models.LinkClicks, 0, len(links))
	for _, link := range links {
		ranked = append(ranked, models.LinkClicks{
			ShortCode:   link.ShortCode,
			OriginalURL: link.OriginalURL,
			Clicks:      link.Clicks,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Clicks > ranked[j].Clicks
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// topCounts топ-5 ключей распределения по суммарному счётчику. Ключи карты
// не упорядочены, поэтому равные счётчики упорядочиваются по имени
func topCounts(counts map[string]int64, display func(string) string) []models.DimensionCount {
	ranked := make([]models.DimensionCount, 0, len(counts))
	for key, count := range counts {
		name := key
		if display != nil {
			name = display(key)
		}
		ranked = append(ranked, models.DimensionCount{Name: name, Count: count})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
