package download

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/html-makers/surf/pkg/dom"
)

// MediaType selects which kind of media to extract from a page.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypeAll   MediaType = "all"
)

// ParseMediaType validates a user-supplied media type string.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio, MediaTypeAll:
		return MediaType(s), nil
	}
	return "", fmt.Errorf("unknown media type %q (want image, video, audio, or all)", s)
}

// ExtractMedia collects absolute media URLs of the given type from a
// parsed document, in document order and deduplicated.
func ExtractMedia(doc *dom.Document, mediaType MediaType) ([]string, error) {
	base := doc.URL()
	var urls []string

	collect := func(selector, attr string) error {
		col, err := doc.Find(selector)
		if err != nil {
			return err
		}
		for _, e := range col.Elements() {
			if v, ok := e.Attr(attr); ok {
				if resolved := resolveMediaURL(base, v); resolved != "" {
					urls = append(urls, resolved)
				}
			}
		}
		return nil
	}

	if mediaType == MediaTypeImage || mediaType == MediaTypeAll {
		if err := collect("img[src]", "src"); err != nil {
			return nil, err
		}
		if col, err := doc.Find("img[srcset]"); err == nil {
			for _, e := range col.Elements() {
				if srcset, ok := e.Attr("srcset"); ok {
					urls = append(urls, parseSrcset(srcset, base)...)
				}
			}
		}
		if err := collect(`meta[property="og:image"]`, "content"); err != nil {
			return nil, err
		}
	}

	if mediaType == MediaTypeVideo || mediaType == MediaTypeAll {
		for _, sel := range []string{"video source[src]", "video[src]"} {
			if err := collect(sel, "src"); err != nil {
				return nil, err
			}
		}
		if err := collect(`meta[property="og:video"], meta[property="og:video:url"]`, "content"); err != nil {
			return nil, err
		}
	}

	if mediaType == MediaTypeAudio || mediaType == MediaTypeAll {
		for _, sel := range []string{"audio source[src]", "audio[src]"} {
			if err := collect(sel, "src"); err != nil {
				return nil, err
			}
		}
	}

	seen := make(map[string]bool, len(urls))
	unique := []string{}
	for _, u := range urls {
		if !seen[u] && isMediaURL(u) {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique, nil
}

// resolveMediaURL makes a media reference absolute, dropping data URLs
// and unparseable values.
func resolveMediaURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "data:") {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	rel, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(rel).String()
}

// parseSrcset extracts the URL from each "url descriptor" pair.
func parseSrcset(srcset, base string) []string {
	var urls []string
	for _, part := range strings.Split(srcset, ",") {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) == 0 {
			continue
		}
		if resolved := resolveMediaURL(base, tokens[0]); resolved != "" {
			urls = append(urls, resolved)
		}
	}
	return urls
}

var mediaExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp",
	".mp4", ".webm", ".mov", ".avi", ".mkv", ".flv", ".m3u8",
	".mp3", ".wav", ".ogg", ".aac", ".flac",
}

// isMediaURL filters out links that clearly are not media files.
func isMediaURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range mediaExtensions {
		if strings.Contains(path, ext) {
			return true
		}
	}

	lower := strings.ToLower(raw)
	return strings.Contains(lower, "video") || strings.Contains(lower, "image")
}
