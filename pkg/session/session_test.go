package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/html-makers/surf/internal/retry"
)

func testOptions() Options {
	return Options{
		RateLimitRPS:   1000,
		RateLimitBurst: 100,
		Retry: retry.Config{
			MaxAttempts:          3,
			InitialBackoff:       time.Millisecond,
			MaxBackoff:           5 * time.Millisecond,
			Multiplier:           2.0,
			RetryableStatusCodes: []int{429, 500, 502, 503, 504},
		},
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestGet(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Hello</title></head><body><p>World</p></body></html>`)
	}))
	defer server.Close()

	s := newTestSession(t, testOptions())

	resp, err := s.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if !resp.OK() {
		t.Error("OK() = false, want true")
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}
	if resp.URL != server.URL {
		t.Errorf("URL = %q, want %q", resp.URL, server.URL)
	}
	if resp.ResponseTime <= 0 {
		t.Error("ResponseTime not recorded")
	}
	if resp.ContentType() != "text/html" {
		t.Errorf("ContentType() = %q, want text/html", resp.ContentType())
	}
}

func TestGetHeaderPrecedence(t *testing.T) {
	var gotCustom, gotShared string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCustom = r.Header.Get("X-Custom")
		gotShared = r.Header.Get("X-Shared")
	}))
	defer server.Close()

	opts := testOptions()
	opts.Headers = map[string]string{
		"X-Custom": "session",
		"X-Shared": "session",
	}
	s := newTestSession(t, opts)

	_, err := s.Get(context.Background(), server.URL, &RequestOptions{
		Headers: map[string]string{"X-Custom": "request"},
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if gotCustom != "request" {
		t.Errorf("per-request header = %q, want request override", gotCustom)
	}
	if gotShared != "session" {
		t.Errorf("session header = %q, want session", gotShared)
	}
}

func TestGetInvalidURL(t *testing.T) {
	s := newTestSession(t, testOptions())

	if _, err := s.Get(context.Background(), "not a url", nil); err == nil {
		t.Error("Get() with invalid URL should return error")
	}
	if _, err := s.Get(context.Background(), "ftp://example.com/file", nil); err == nil {
		t.Error("Get() with unsupported scheme should return error")
	}
}

func TestCookiePersistence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc123", Path: "/"})
	})
	var gotToken string
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil {
			gotToken = c.Value
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestSession(t, testOptions())
	ctx := context.Background()

	if _, err := s.Get(ctx, server.URL+"/login", nil); err != nil {
		t.Fatalf("Get(/login) error = %v", err)
	}
	if _, err := s.Get(ctx, server.URL+"/profile", nil); err != nil {
		t.Fatalf("Get(/profile) error = %v", err)
	}

	if gotToken != "abc123" {
		t.Errorf("cookie on second request = %q, want abc123", gotToken)
	}

	cs := s.CookiesFor(server.URL)
	if len(cs) != 1 || cs[0].Name != "token" {
		t.Errorf("CookiesFor() = %v, want the token cookie", cs)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "<html><body>finally</body></html>")
	}))
	defer server.Close()

	s := newTestSession(t, testOptions())

	resp, err := s.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200 after retries", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestGetReturnsLastResponseAfterExhaustion(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newTestSession(t, testOptions())

	resp, err := s.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v, want response despite exhausted retries", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestGetClientErrorNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := newTestSession(t, testOptions())

	resp, err := s.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v, HTTP 404 should not be a Go error", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestResponseHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Lazy</title></head><body><a href="/next">next</a></body></html>`)
	}))
	defer server.Close()

	s := newTestSession(t, testOptions())

	resp, err := s.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	doc, err := resp.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if doc.Title() != "Lazy" {
		t.Errorf("Title() = %q, want Lazy", doc.Title())
	}

	again, err := resp.HTML()
	if err != nil {
		t.Fatalf("HTML() second call error = %v", err)
	}
	if again != doc {
		t.Error("HTML() should return the cached document")
	}

	links := doc.Root().AbsoluteLinks()
	if len(links) != 1 || links[0] != server.URL+"/next" {
		t.Errorf("AbsoluteLinks() = %v, want [%s/next]", links, server.URL)
	}
}

func TestResponseSetHTML(t *testing.T) {
	resp := &Response{
		URL:  "https://example.com/",
		Body: []byte(`<html><head><title>Before</title></head><body></body></html>`),
	}

	doc, err := resp.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if doc.Title() != "Before" {
		t.Fatalf("Title() = %q, want Before", doc.Title())
	}

	resp.SetHTML([]byte(`<html><head><title>After</title></head><body></body></html>`))

	if !resp.Rendered {
		t.Error("Rendered = false after SetHTML")
	}
	doc, err = resp.HTML()
	if err != nil {
		t.Fatalf("HTML() after SetHTML error = %v", err)
	}
	if doc.Title() != "After" {
		t.Errorf("Title() = %q, want After", doc.Title())
	}
}

func TestGetBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body>%s</body></html>", r.URL.Path)
	}))
	defer server.Close()

	s := newTestSession(t, testOptions())

	urls := []string{
		server.URL + "/a",
		server.URL + "/b",
		server.URL + "/c",
		"not a url",
	}

	var ok, failed int
	for res := range s.GetBatch(context.Background(), urls, nil, 2) {
		if res.Err != nil {
			failed++
			continue
		}
		ok++
		if res.Response.StatusCode != http.StatusOK {
			t.Errorf("status for %s = %d", res.URL, res.Response.StatusCode)
		}
	}

	if ok != 3 || failed != 1 {
		t.Errorf("results = %d ok / %d failed, want 3/1", ok, failed)
	}
}

func TestGroupByDomain(t *testing.T) {
	groups := GroupByDomain([]string{
		"https://a.example/1",
		"https://b.example/1",
		"https://a.example/2",
	})

	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if len(groups["a.example"]) != 2 {
		t.Errorf("a.example group = %v, want 2 URLs", groups["a.example"])
	}
	if len(groups["b.example"]) != 1 {
		t.Errorf("b.example group = %v, want 1 URL", groups["b.example"])
	}
}

func TestOptimalConcurrency(t *testing.T) {
	got := OptimalConcurrency()
	if got < 1 || got > 50 {
		t.Errorf("OptimalConcurrency() = %d, want within [1, 50]", got)
	}
}
