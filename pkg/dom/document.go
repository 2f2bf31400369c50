// Package dom wraps a parsed HTML tree with ergonomic query and filter
// operations: CSS selection (goquery/cascadia), XPath selection
// (antchfx), and chainable Where/Select combinators over ordered
// element collections.
//
// Documents and elements are read-only views. Every query returns a new
// Collection and never mutates its inputs, so concurrent reads over the
// same Document are safe.
package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is the immutable parsed representation of one HTML page.
// Re-fetching or re-rendering a page produces a new Document.
type Document struct {
	root *html.Node
	url  string
}

// Parse reads and parses an HTML document. The parser is lenient:
// malformed markup is repaired rather than rejected, matching browser
// behavior. url is the address the page was fetched from and is used to
// resolve relative links.
func Parse(r io.Reader, url string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root, url: url}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(content, url string) (*Document, error) {
	return Parse(strings.NewReader(content), url)
}

// URL returns the address the document was fetched from.
func (d *Document) URL() string {
	return d.url
}

// Root returns the document root as an Element. Queries on the root
// element search the entire document.
func (d *Document) Root() *Element {
	return &Element{node: d.root, doc: d}
}

// Title returns the text of the document's <title> element, or "".
func (d *Document) Title() string {
	title, err := d.FindFirst("title")
	if err != nil || title == nil {
		return ""
	}
	return title.Text()
}

// HTML serializes the document back to markup.
func (d *Document) HTML() string {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return ""
	}
	return sb.String()
}

// Find returns all descendants of the document root matching the CSS
// selector, in document order. A well-formed selector that matches
// nothing yields an empty collection; a malformed selector yields a
// *SelectorError.
func (d *Document) Find(selector string) (*Collection, error) {
	return d.Root().Find(selector)
}

// FindFirst returns the first match for the CSS selector, or nil when
// the selector matches nothing.
func (d *Document) FindFirst(selector string) (*Element, error) {
	return d.Root().FindFirst(selector)
}

// XPath returns all nodes matching the XPath expression, in document
// order. A malformed expression yields a *XPathError.
func (d *Document) XPath(expression string) (*Collection, error) {
	return d.Root().XPath(expression)
}

// XPathFirst returns the first match for the XPath expression, or nil
// when the expression matches nothing.
func (d *Document) XPathFirst(expression string) (*Element, error) {
	return d.Root().XPathFirst(expression)
}

// wrap builds an Element for a node owned by this document.
func (d *Document) wrap(n *html.Node) *Element {
	return &Element{node: n, doc: d}
}

// inDocumentOrder walks the tree once and returns the members of want
// in the order they are encountered. This is how collection-level
// queries restore document order after merging per-element results.
func (d *Document) inDocumentOrder(want map[*html.Node]bool) []*Element {
	ordered := make([]*Element, 0, len(want))
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if want[n] {
			ordered = append(ordered, d.wrap(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return ordered
}
