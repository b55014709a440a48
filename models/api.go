package models

// ScrapeRequest asks for a harvest of one listing page.
type ScrapeRequest struct {
	ListingURL string `json:"listing_url"`
}

// ScrapedImages is the acquisition response. Images is capped at 50 entries;
// TotalFound reports the uncapped harvest size.
type ScrapedImages struct {
	SessionID  string   `json:"session_id"`
	Images     []string `json:"images"`
	ListingURL string   `json:"listing_url"`
	TotalFound int      `json:"total_found"`
}

// ImageSelection is the composition request: one hero, exactly three detail
// locators (URLs or local paths) plus the property attributes.
type ImageSelection struct {
	SessionID    string             `json:"session_id"`
	HeroImageURL string             `json:"hero_image_url"`
	DetailImages []string           `json:"detail_images"`
	PropertyInfo PropertyInfoParams `json:"property_info"`
	Layout       string             `json:"layout,omitempty"` // "band" or "fullbleed"; empty = server default
}

// GeneratedContent is the composition response.
type GeneratedContent struct {
	SessionID    string   `json:"session_id"`
	ImageBase64  string   `json:"image_base64"`
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags"`
	PublishedURL string   `json:"published_url,omitempty"`
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	SessionID  string  `json:"session_id"`
	ImageCount int     `json:"image_count"`
	ListingURL string  `json:"listing_url"`
	AgeMinutes float64 `json:"age_minutes"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}
