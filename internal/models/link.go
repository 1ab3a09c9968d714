package models

import (
	"time"
)

type Link struct {
	ID          int64  `json:"id"`
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`

	// Настройки отображения для дашборда/портала
	NameURL      string   `json:"name_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	ShowToPortal bool     `json:"show_to_portal"`
	UseMultiple  bool     `json:"use_multiple_urls"`
	MultipleURLs []AltURL `json:"multiple_urls,omitempty"`

	ShowConfirmationPage     bool                     `json:"show_confirmation_page"`
	ConfirmationPageSettings ConfirmationPageSettings `json:"confirmation_page_settings"`

	// Накопленная аналитика. Карты измерений загружаются вместе со ссылкой
	// только на путях чтения, которым они нужны
	Clicks       int64            `json:"clicks"`
	DeviceStats  map[string]int64 `json:"device_stats,omitempty"`
	BrowserStats map[string]int64 `json:"browser_stats,omitempty"`
	GeoStats     map[string]int64 `json:"geo_stats,omitempty"`
	RefererStats map[string]int64 `json:"referer_stats,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AltURL is one entry of the ordered list of alternate destinations.
type AltURL struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type ConfirmationPageSettings struct {
	CustomMessage string `json:"customMessage"`
}

type CreateLinkInput struct {
	OriginalURL              string                    `json:"originalUrl"`
	ShortCode                string                    `json:"shortUrl"`
	ShowConfirmationPage     bool                      `json:"showConfirmationPage"`
	ConfirmationPageSettings *ConfirmationPageSettings `json:"confirmationPageSettings,omitempty"`
}

type UpdateLinkInput struct {
	OriginalURL              *string                   `json:"originalUrl,omitempty"`
	ShortCode                *string                   `json:"shortUrl,omitempty"`
	NameURL                  *string                   `json:"nameUrl,omitempty"`
	Description              *string                   `json:"description,omitempty"`
	Category                 *string                   `json:"category,omitempty"`
	Price                    *float64                  `json:"price,omitempty"`
	ShowToPortal             *bool                     `json:"showToPortal,omitempty"`
	UseMultiple              *bool                     `json:"useMultipleUrls,omitempty"`
	MultipleURLs             []AltURL                  `json:"multipleUrls,omitempty"`
	ShowConfirmationPage     *bool                     `json:"showConfirmationPage,omitempty"`
	ConfirmationPageSettings *ConfirmationPageSettings `json:"confirmationPageSettings,omitempty"`
}

// Resolution is the minimal projection returned to the public redirect page.
type Resolution struct {
	OriginalURL              string                   `json:"originalUrl"`
	ShowConfirmationPage     bool                     `json:"showConfirmationPage"`
	ConfirmationPageSettings ConfirmationPageSettings `json:"confirmationPageSettings"`
}
