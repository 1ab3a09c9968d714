package models

// Категории устройств
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// Сентинелы для неопределимых измерений
const (
	LocationUnknown = "Unknown"
	BrowserUnknown  = "Unknown"
	RefererDirect   = "Direct"
)

// Dimension names under which per-key counters are stored.
const (
	DimensionDevice  = "device"
	DimensionBrowser = "browser"
	DimensionGeo     = "geo"
	DimensionReferer = "referer"
)

// Visit is the per-request classification of a single redirect hit. It is
// computed once, folded into the link's counters and discarded.
type Visit struct {
	DeviceCategory string
	BrowserName    string
	Location       string // "City, Country" | "Country" | "Unknown"
	Referer        string // normalized hostname or "Direct"
}

// VisitEvent carries a classified visit to the worker pool.
type VisitEvent struct {
	ShortCode string
	Visit     Visit
}

// RequestMeta is the raw request metadata the classifier works from.
type RequestMeta struct {
	UserAgent    string
	ForwardedFor string // содержимое X-Forwarded-For как есть
	RemoteIP     string
	Referer      string
}
