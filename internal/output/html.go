package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanHTML strips scripts, styles, forms, and presentational
// attributes from markup, leaving a minimal excerpt suitable for
// conversion or display.
func CleanHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var kept []html.Attribute
		for _, attr := range node.Attr {
			if keepAttr(node.Data, attr.Key) {
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	out, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// keepAttr whitelists the attributes that still matter once a page is
// reduced to content: link targets and image sources.
func keepAttr(tag, key string) bool {
	switch tag {
	case "a":
		return key == "href" || key == "title"
	case "img":
		return key == "src" || key == "alt" || key == "title"
	}
	return false
}
