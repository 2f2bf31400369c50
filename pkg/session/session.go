// Package session provides the HTTP side of surf: a cookie-aware
// client with per-domain rate limiting, retry with backoff, and proxy
// rotation, whose responses expose a lazily parsed DOM for querying.
package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/html-makers/surf/internal/cookies"
	"github.com/html-makers/surf/internal/proxy"
	"github.com/html-makers/surf/internal/ratelimit"
	"github.com/html-makers/surf/internal/reqctx"
	"github.com/html-makers/surf/internal/retry"
	"github.com/html-makers/surf/internal/urlutil"
)

// DefaultUserAgent identifies surf when no user agent is configured.
const DefaultUserAgent = "Surf/1.0 (https://github.com/html-makers/surf)"

// DefaultTimeout bounds a request when neither the session nor the
// request options set one.
const DefaultTimeout = 30 * time.Second

// Options configures a Session. The zero value is usable.
type Options struct {
	UserAgent string
	Headers   map[string]string // applied to every request
	Timeout   time.Duration
	Proxies   []string // rotated per request
	Retry     retry.Config

	RateLimitRPS   float64
	RateLimitBurst int

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// RequestOptions carries per-request overrides.
type RequestOptions struct {
	Headers map[string]string
	Timeout time.Duration
	// CookieSession names a stored cookie session to inject before the
	// request.
	CookieSession string
}

// Session is a cookie-aware HTTP client. It is safe for concurrent use.
type Session struct {
	client    *http.Client
	jar       *cookiejar.Jar
	userAgent string
	headers   map[string]string
	limiter   ratelimit.RateLimiter
	retryCfg  retry.Config
	proxies   *proxy.Pool
}

// New creates a Session with dependency defaults filled in.
func New(opts Options) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}

	pool := proxy.NewPool(opts.Proxies)

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			Proxy: func(*http.Request) (*url.URL, error) {
				next := pool.Next()
				if next == "" {
					return nil, nil
				}
				return url.Parse(next)
			},
		}
	}

	return &Session{
		client: &http.Client{
			Jar:       jar,
			Transport: transport,
		},
		jar:       jar,
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		limiter:   ratelimit.NewDomainLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		retryCfg:  opts.Retry,
		proxies:   pool,
	}, nil
}

// Get fetches a URL. Network failures are retried with backoff; HTTP
// error statuses are not Go errors — the response is returned for the
// caller to inspect, though retryable statuses (429, 5xx) are retried
// before giving up and returning the last response.
func (s *Session) Get(ctx context.Context, rawurl string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}
	if err := urlutil.ValidateURL(rawurl); err != nil {
		return nil, err
	}

	ctx, rc := reqctx.Tag(ctx, rawurl)

	log.Debug().
		Str("request_id", rc.ID).
		Str("url", rawurl).
		Msg("Starting fetch")

	if err := s.limiter.Wait(ctx, rawurl); err != nil {
		return nil, reqctx.Wrap(ctx, err)
	}

	headers := make(map[string]string, len(s.headers)+len(opts.Headers))
	for k, v := range s.headers {
		headers[k] = v
	}

	if opts.CookieSession != "" {
		if err := s.injectCookieSession(rawurl, opts.CookieSession, headers); err != nil {
			log.Warn().Err(err).Str("session", opts.CookieSession).Msg("Failed to load cookie session")
		}
	}

	for k, v := range opts.Headers {
		headers[k] = v
	}

	var resp *Response
	err := retry.Do(ctx, s.retryCfg, func() error {
		r, err := s.do(ctx, rawurl, headers, opts.Timeout)
		if err != nil {
			return err
		}
		resp = r
		if s.retryCfg.RetryableStatus(r.StatusCode) {
			return retry.HTTPError{StatusCode: r.StatusCode, Status: r.Status}
		}
		return nil
	})

	if resp == nil {
		return nil, reqctx.Wrap(ctx, err)
	}
	if err != nil {
		log.Warn().
			Str("request_id", rc.ID).
			Int("status", resp.StatusCode).
			Msg("Retries exhausted, returning last response")
	}

	log.Debug().
		Str("request_id", rc.ID).
		Str("url", rawurl).
		Int("status", resp.StatusCode).
		Dur("response_time", resp.ResponseTime).
		Msg("Fetch completed")

	return resp, nil
}

// do performs one HTTP exchange and snapshots the body.
func (s *Session) do(ctx context.Context, rawurl string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	finalURL := rawurl
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}

	return &Response{
		URL:          finalURL,
		StatusCode:   httpResp.StatusCode,
		Status:       httpResp.Status,
		Header:       httpResp.Header,
		Body:         body,
		Cookies:      s.CookiesFor(finalURL),
		FetchedAt:    start,
		ResponseTime: time.Since(start),
	}, nil
}

// injectCookieSession loads a named cookie session into the jar and
// merges its headers into the request headers.
func (s *Session) injectCookieSession(rawurl, name string, headers map[string]string) error {
	stored, err := cookies.Load(name)
	if err != nil {
		return err
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	s.jar.SetCookies(u, stored.HTTPCookies())
	for k, v := range stored.Headers {
		headers[k] = v
	}
	log.Debug().
		Str("session", name).
		Int("cookies", len(stored.Cookies)).
		Msg("Cookie session injected")
	return nil
}

// CookiesFor returns the jar's cookies for a URL, for hand-off to the
// browser renderer.
func (s *Session) CookiesFor(rawurl string) []*http.Cookie {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil
	}
	return s.jar.Cookies(u)
}

// SetCookies seeds the jar with cookies for a URL.
func (s *Session) SetCookies(rawurl string, cs []*http.Cookie) error {
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	s.jar.SetCookies(u, cs)
	return nil
}

// UserAgent returns the session's user agent string.
func (s *Session) UserAgent() string {
	return s.userAgent
}

// Close releases idle connections.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}
