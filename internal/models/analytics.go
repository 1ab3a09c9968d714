package models

// LinkClicks represents one entry of the top-links leaderboard.
type LinkClicks struct {
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
	Clicks      int64  `json:"clicks"`
}

// DimensionCount represents a generic key-count pair of a distribution.
type DimensionCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// AnalyticsSummary is the dashboard rollup over all links.
type AnalyticsSummary struct {
	TotalLinks   int              `json:"total_links"`
	TotalClicks  int64            `json:"total_clicks"`
	AvgClicks    float64          `json:"avg_clicks"`
	TopLinks     []LinkClicks     `json:"top_links"`
	TopDevices   []DimensionCount `json:"top_devices"`
	TopBrowsers  []DimensionCount `json:"top_browsers"`
	TopLocations []DimensionCount `json:"top_locations"`
	TopReferers  []DimensionCount `json:"top_referers"`
}
