package models

import "time"

// Page is a serializable snapshot of a fetched (and possibly rendered)
// web page, used for caching and export.
type Page struct {
	URL          string            `json:"url"`
	StatusCode   int               `json:"status_code"`
	Title        string            `json:"title,omitempty"`
	Content      string            `json:"content,omitempty"`
	HTML         string            `json:"html,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Links        []string          `json:"links,omitempty"`
	Images       []string          `json:"images,omitempty"`
	Scripts      []string          `json:"scripts,omitempty"`
	Rendered     bool              `json:"rendered,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
	ResponseTime int64             `json:"response_time_ms"`

	// Items holds elements matched by a selector query, if one ran.
	Items []Item `json:"items,omitempty"`
	// Extracted holds values produced by a projection expression.
	Extracted []interface{} `json:"extracted,omitempty"`
}

// Item is one element matched by a selector or XPath query.
type Item struct {
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// FetchMode selects how a page is obtained.
type FetchMode string

const (
	// ModeAuto fetches statically and renders only when the page looks
	// like it needs JavaScript.
	ModeAuto FetchMode = "auto"
	// ModeStatic fetches over plain HTTP without rendering.
	ModeStatic FetchMode = "static"
	// ModeRender always renders the page in a headless browser.
	ModeRender FetchMode = "render"
)
