// Package metadata assembles the page model handed to output writers.
package metadata

import (
	"github.com/html-makers/surf/pkg/dom"
	"github.com/html-makers/surf/pkg/models"
	"github.com/html-makers/surf/pkg/session"
)

// BuildPage turns a fetched response into a Page, pulling the title,
// meta tags, links, images, and script sources out of the document.
func BuildPage(resp *session.Response, doc *dom.Document) *models.Page {
	page := &models.Page{
		URL:          resp.URL,
		StatusCode:   resp.StatusCode,
		Headers:      make(map[string]string),
		Metadata:     make(map[string]string),
		Links:        []string{},
		Images:       []string{},
		Scripts:      []string{},
		Rendered:     resp.Rendered,
		FetchedAt:    resp.FetchedAt,
		ResponseTime: resp.ResponseTime.Milliseconds(),
	}

	for key := range resp.Header {
		page.Headers[key] = resp.Header.Get(key)
	}

	if doc == nil {
		return page
	}

	page.Title = doc.Title()
	page.HTML = doc.HTML()

	if metas, err := doc.Find("meta"); err == nil {
		for _, m := range metas.Elements() {
			content, _ := m.Attr("content")
			if name, ok := m.Attr("name"); ok && name != "" {
				page.Metadata[name] = content
			}
			if property, ok := m.Attr("property"); ok && property != "" {
				page.Metadata[property] = content
			}
		}
	}

	page.Links = attrValues(doc, "a[href]", "href")
	page.Images = attrValues(doc, "img[src]", "src")
	page.Scripts = attrValues(doc, "script[src]", "src")

	if body, err := doc.Find("body"); err == nil && body.Len() > 0 {
		page.Content = body.First().Text()
	}

	return page
}

// ExtractContent returns the normalized text and inner markup of the
// first match for selector, falling back to the body.
func ExtractContent(doc *dom.Document, selector string) (content, markup string) {
	if doc == nil {
		return "", ""
	}

	if selector != "" && selector != "body" {
		if col, err := doc.Find(selector); err == nil && col.Len() > 0 {
			first := col.First()
			content = first.Text()
			markup, _ = first.HTML()
			return content, markup
		}
	}

	if body, err := doc.Find("body"); err == nil && body.Len() > 0 {
		content = body.First().Text()
	}
	return content, doc.HTML()
}

func attrValues(doc *dom.Document, selector, attr string) []string {
	out := []string{}
	col, err := doc.Find(selector)
	if err != nil {
		return out
	}
	for _, e := range col.Elements() {
		if v, ok := e.Attr(attr); ok && v != "" {
			out = append(out, v)
		}
	}
	return out
}
