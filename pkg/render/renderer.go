package render

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/html-makers/surf/pkg/session"
)

// DefaultRenderTimeout bounds a render when Options.Timeout is unset.
const DefaultRenderTimeout = 30 * time.Second

// Options controls a single render.
type Options struct {
	// Reload re-fetches the page in the browser instead of rendering
	// the already-downloaded body.
	Reload bool
	// Wait pauses after navigation to let scripts settle. Defaults to
	// 300ms.
	Wait time.Duration
	// WaitSelector, when set, blocks until a matching element is
	// visible.
	WaitSelector string
	// Script is JavaScript evaluated in the page after the wait; its
	// result is returned from Render.
	Script  string
	Timeout time.Duration
}

// Renderer executes JavaScript on a response's page and swaps the
// rendered markup back into the response. A nil pool makes each render
// launch its own short-lived browser.
type Renderer struct {
	pool      *BrowserPool
	headless  bool
	userAgent string
	proxy     string
}

// NewRenderer creates a Renderer backed by a pool.
func NewRenderer(pool *BrowserPool) *Renderer {
	return &Renderer{pool: pool, headless: true}
}

// NewOneShotRenderer creates a Renderer that launches a fresh browser
// for each render. Slower, but needs no pool lifecycle management.
func NewOneShotRenderer(headless bool, userAgent, proxy string) *Renderer {
	return &Renderer{headless: headless, userAgent: userAgent, proxy: proxy}
}

// Render loads the response's page in Chrome, executes JavaScript, and
// replaces the response body with the rendered markup. Session cookies
// travel with the page. The result of Options.Script, if any, is
// returned as raw JSON.
func (r *Renderer) Render(ctx context.Context, resp *session.Response, opts Options) (json.RawMessage, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	wait := opts.Wait
	if wait <= 0 {
		wait = 300 * time.Millisecond
	}

	start := time.Now()

	browserCtx, release, err := r.browser(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	tasks := []chromedp.Action{network.Enable()}
	if len(resp.Cookies) > 0 {
		tasks = append(tasks, setCookies(resp.URL, resp.Cookies))
	}

	if opts.Reload {
		tasks = append(tasks, chromedp.Navigate(resp.URL))
	} else {
		// Render the body we already fetched instead of hitting the
		// network again.
		encoded := base64.StdEncoding.EncodeToString(resp.Body)
		tasks = append(tasks, chromedp.Navigate("data:text/html;base64,"+encoded))
	}

	tasks = append(tasks, chromedp.Sleep(wait))
	if opts.WaitSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	}

	var scriptResult json.RawMessage
	if opts.Script != "" {
		tasks = append(tasks, chromedp.Evaluate(opts.Script, &scriptResult))
	}

	var rendered string
	tasks = append(tasks, chromedp.OuterHTML("html", &rendered, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}

	resp.SetHTML([]byte(rendered))

	log.Debug().
		Str("url", resp.URL).
		Bool("reload", opts.Reload).
		Dur("elapsed", time.Since(start)).
		Msg("Render completed")

	return scriptResult, nil
}

// browser hands out a chromedp context, either from the pool or from a
// one-shot allocator.
func (r *Renderer) browser(ctx context.Context) (context.Context, func(), error) {
	if r.pool != nil {
		b, err := r.pool.Acquire(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to acquire browser from pool: %w", err)
		}
		return b.Ctx, func() { r.pool.Release(b) }, nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(
		ctx,
		allocatorOptions(r.headless, r.userAgent, r.proxy)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		browserCancel()
		allocCancel()
	}, nil
}

// setCookies pushes the session's cookies into the browser so the
// rendered page sees the same authentication state the fetch did.
func setCookies(rawurl string, cs []*http.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		domain := cookieDomain(rawurl)
		for _, c := range cs {
			p := network.SetCookie(c.Name, c.Value)
			if c.Domain != "" {
				p = p.WithDomain(c.Domain)
			} else if domain != "" {
				p = p.WithDomain(domain)
			}
			if c.Path != "" {
				p = p.WithPath(c.Path)
			} else {
				p = p.WithPath("/")
			}
			p = p.WithSecure(c.Secure).WithHTTPOnly(c.HttpOnly)
			if err := p.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

func cookieDomain(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	host := u.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}
