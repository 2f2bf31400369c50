package urlutil

import (
	"fmt"
	"net/url"

	"github.com/html-makers/surf/pkg/models"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// ResolveRelativeLinks updates all link-like fields in a Page to absolute URLs
func ResolveRelativeLinks(page *models.Page) {
	resolvedLinks := make([]string, len(page.Links))
	for i, link := range page.Links {
		resolvedLinks[i] = ResolveURL(page.URL, link)
	}
	page.Links = resolvedLinks

	resolvedImages := make([]string, len(page.Images))
	for i, img := range page.Images {
		resolvedImages[i] = ResolveURL(page.URL, img)
	}
	page.Images = resolvedImages

	resolvedScripts := make([]string, len(page.Scripts))
	for i, script := range page.Scripts {
		resolvedScripts[i] = ResolveURL(page.URL, script)
	}
	page.Scripts = resolvedScripts
}
