package session

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/html-makers/surf/pkg/dom"
)

// Response is the outcome of a fetch. The raw body is always
// available; the parsed DOM is built on first use of HTML and cached
// until the body changes.
type Response struct {
	URL          string
	StatusCode   int
	Status       string
	Header       http.Header
	Body         []byte
	Cookies      []*http.Cookie
	Rendered     bool
	FetchedAt    time.Time
	ResponseTime time.Duration

	mu  sync.Mutex
	doc *dom.Document
}

// HTML parses the body into a queryable document. Parsing happens once;
// subsequent calls return the cached document.
func (r *Response) HTML() (*dom.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := dom.Parse(bytes.NewReader(r.Body), r.URL)
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

// SetHTML replaces the body with browser-rendered markup and drops the
// cached document so the next HTML call parses the new content.
func (r *Response) SetHTML(body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Body = body
	r.doc = nil
	r.Rendered = true
}

// ContentType returns the response's Content-Type header.
func (r *Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
