// Package capture drives a visible browser so a user can log in by
// hand, then lifts the resulting cookies into a saved session.
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/html-makers/surf/internal/cookies"
	"github.com/html-makers/surf/pkg/render"
)

// DefaultTimeout bounds the whole interactive flow, typing included.
const DefaultTimeout = 5 * time.Minute

// Options configures an interactive capture run.
type Options struct {
	// SessionName is the name the captured session is saved under.
	SessionName string
	// URL is the login page to open.
	URL string
	// WaitSelector, when set, ends the capture once a matching element
	// becomes visible. Without it the user confirms on stdin.
	WaitSelector string
	// Timeout bounds the whole flow. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Headers are stored alongside the cookies for later requests.
	Headers map[string]string
	// RemoteDebugPort exposes Chrome DevTools on this port so remote
	// environments can forward and drive the browser.
	RemoteDebugPort int
}

// Interactive opens a visible browser at opts.URL, waits for the user
// to finish logging in, and returns the browser's cookies as a
// session. The session is not saved; the caller decides that.
func Interactive(ctx context.Context, opts Options) (*cookies.Session, error) {
	if opts.SessionName == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("interactive capture requires a display server (DISPLAY not set); " +
			"in headless environments import cookies from your browser instead: surf sessions import <name> --url <url>")
	}

	log.Info().Str("session", opts.SessionName).Str("url", opts.URL).Msg("Starting interactive capture")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 720),
	}
	if path := render.FindChrome(); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.RemoteDebugPort > 0 {
		allocOpts = append(allocOpts,
			chromedp.Flag("remote-debugging-port", fmt.Sprintf("%d", opts.RemoteDebugPort)),
			chromedp.Flag("remote-debugging-address", "0.0.0.0"),
		)
		log.Info().Int("port", opts.RemoteDebugPort).Msg("Remote debugging enabled")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(opts.URL),
	); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.URL, err)
	}

	fmt.Println("\nBrowser opened. Complete the login in the browser window.")
	if opts.WaitSelector != "" {
		fmt.Printf("Waiting for element: %s\n", opts.WaitSelector)
		if err := chromedp.Run(browserCtx,
			chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery),
		); err != nil {
			return nil, fmt.Errorf("capture timed out waiting for %q: %w", opts.WaitSelector, err)
		}
	} else {
		fmt.Println("Press Enter here once you are logged in...")
		fmt.Scanln()
	}

	var captured []*network.Cookie
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		captured, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	if len(captured) == 0 {
		return nil, fmt.Errorf("no cookies captured: login may not have completed")
	}

	log.Info().Int("cookies", len(captured)).Msg("Cookies captured")

	cs := make([]cookies.Cookie, len(captured))
	for i, c := range captured {
		cs[i] = cookies.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
	}

	sess := &cookies.Session{
		Name:      opts.SessionName,
		URL:       opts.URL,
		Cookies:   cs,
		Headers:   opts.Headers,
		CreatedAt: time.Now(),
	}
	if max := cookies.MaxExpiry(cs); max > 0 {
		sess.ExpiresAt = time.Unix(int64(max), 0)
	}
	return sess, nil
}
