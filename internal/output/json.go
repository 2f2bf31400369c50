// Package output renders fetched pages as JSON, CSV, Markdown, or a
// cleaned HTML excerpt.
package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/html-makers/surf/internal/urlutil"
	"github.com/html-makers/surf/pkg/models"
)

// WriteJSON renders any value as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WritePageJSON renders a page as JSON with raw HTML stripped and
// relative links resolved against the page URL.
func WritePageJSON(w io.Writer, page *models.Page) error {
	export := *page
	export.HTML = ""
	urlutil.ResolveRelativeLinks(&export)
	return WriteJSON(w, &export)
}

// SaveJSON writes the page JSON export to a file.
func SaveJSON(page *models.Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WritePageJSON(f, page)
}
