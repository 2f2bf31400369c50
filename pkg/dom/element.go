package dom

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Element is a read-only view over one node of a Document. Elements
// keep a non-owning back-reference to the Document that owns the node;
// the query layer never mutates them.
type Element struct {
	node *html.Node
	doc  *Document
}

// Document returns the document this element belongs to.
func (e *Element) Document() *Document {
	return e.doc
}

// Tag returns the element's tag name, or "" for non-element nodes.
func (e *Element) Tag() string {
	if e.node.Type != html.ElementNode {
		return ""
	}
	return e.node.Data
}

// Attrs returns the element's attributes as a fresh map.
func (e *Element) Attrs() map[string]string {
	attrs := make(map[string]string, len(e.node.Attr))
	for _, a := range e.node.Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}

// Attr returns a single attribute value and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Classes returns the element's class attribute split on whitespace.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// Rels returns the element's rel attribute split on whitespace.
func (e *Element) Rels() []string {
	v, _ := e.Attr("rel")
	return strings.Fields(v)
}

// Text returns the element's text content with runs of whitespace
// collapsed to single spaces.
func (e *Element) Text() string {
	return strings.Join(strings.Fields(e.FullText()), " ")
}

// FullText returns the element's raw text content, whitespace intact.
func (e *Element) FullText() string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return sb.String()
}

// HTML returns the element's outer HTML.
func (e *Element) HTML() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, e.node); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

// Find returns all descendants of this element matching the CSS
// selector, in document order. Malformed selectors yield a
// *SelectorError; selectors that simply match nothing yield an empty
// collection.
func (e *Element) Find(selector string) (*Collection, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	matches := goquery.NewDocumentFromNode(e.node).FindMatcher(sel)
	elems := make([]*Element, 0, len(matches.Nodes))
	for _, n := range matches.Nodes {
		elems = append(elems, e.doc.wrap(n))
	}
	return &Collection{doc: e.doc, elems: elems}, nil
}

// FindFirst returns the first descendant matching the CSS selector, or
// nil when nothing matches.
func (e *Element) FindFirst(selector string) (*Element, error) {
	c, err := e.Find(selector)
	if err != nil {
		return nil, err
	}
	return c.First(), nil
}

// XPath evaluates the XPath expression against this element and
// returns the matching nodes in document order. Malformed expressions
// yield a *XPathError.
func (e *Element) XPath(expression string) (*Collection, error) {
	expr, err := xpath.Compile(expression)
	if err != nil {
		return nil, &XPathError{Expression: expression, Err: err}
	}
	nodes := htmlquery.QuerySelectorAll(e.node, expr)
	elems := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, e.doc.wrap(n))
	}
	return &Collection{doc: e.doc, elems: elems}, nil
}

// XPathFirst returns the first match for the XPath expression, or nil
// when nothing matches.
func (e *Element) XPathFirst(expression string) (*Element, error) {
	c, err := e.XPath(expression)
	if err != nil {
		return nil, err
	}
	return c.First(), nil
}

// Links returns the href targets of all anchors under this element, as
// written in the page. Fragment-only, javascript: and mailto: targets
// are skipped. Order follows the document; duplicates are dropped.
func (e *Element) Links() []string {
	anchors, err := e.Find("a")
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var links []string
	for _, a := range anchors.Elements() {
		href, ok := a.Attr("href")
		if !ok {
			continue
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			continue
		}
		if !seen[href] {
			seen[href] = true
			links = append(links, href)
		}
	}
	return links
}

// AbsoluteLinks returns Links resolved against the page's base URL.
func (e *Element) AbsoluteLinks() []string {
	base := e.BaseURL()
	links := e.Links()
	resolved := make([]string, 0, len(links))
	seen := make(map[string]bool)
	for _, link := range links {
		abs := resolveAgainst(base, link)
		if !seen[abs] {
			seen[abs] = true
			resolved = append(resolved, abs)
		}
	}
	return resolved
}

// BaseURL returns the base URL for the page. A <base href> tag takes
// precedence; otherwise the document URL is truncated at the last path
// segment.
func (e *Element) BaseURL() string {
	if base, err := e.doc.FindFirst("base"); err == nil && base != nil {
		if href, ok := base.Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" {
				return href
			}
		}
	}

	parsed, err := url.Parse(e.doc.url)
	if err != nil {
		return e.doc.url
	}
	if i := strings.LastIndex(parsed.Path, "/"); i >= 0 {
		parsed.Path = parsed.Path[:i+1]
	} else {
		parsed.Path = "/"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// resolveAgainst resolves href against base, tolerating bad input by
// returning the href unchanged.
func resolveAgainst(base, href string) string {
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
