package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// PoolOptions configures a BrowserPool.
type PoolOptions struct {
	Size      int
	Headless  bool
	UserAgent string
	Proxy     string
	ExtraArgs []chromedp.ExecAllocatorOption
}

// Browser is a warmed-up chromedp context checked out of a pool.
type Browser struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// ErrPoolClosed is returned by Acquire once the pool has been closed.
var ErrPoolClosed = errors.New("browser pool is closed")

// BrowserPool keeps warm browser contexts so that a render costs a
// navigation rather than a full Chrome startup.
//
// The browsers channel is never closed: Close drains it by count and
// signals via done, so Acquire and Release can never receive nil from
// or send on a closed channel.
type BrowserPool struct {
	size        int
	browsers    chan *Browser
	allocCancel context.CancelFunc
	done        chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewBrowserPool launches Chrome and pre-creates size tab contexts.
// Size is clamped to [1, 10].
func NewBrowserPool(opts PoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = 3
	}
	if opts.Size > 10 {
		opts.Size = 10
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		allocatorOptions(opts.Headless, opts.UserAgent, opts.Proxy, opts.ExtraArgs...)...,
	)

	pool := &BrowserPool{
		size:        opts.Size,
		browsers:    make(chan *Browser, opts.Size),
		allocCancel: allocCancel,
		done:        make(chan struct{}),
	}

	for i := 0; i < opts.Size; i++ {
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
			browserCancel()
			pool.Close()
			return nil, fmt.Errorf("failed to warm up browser context %d: %w", i, err)
		}
		pool.browsers <- &Browser{Ctx: browserCtx, cancel: browserCancel}
	}

	log.Info().Int("pool_size", opts.Size).Msg("Browser pool ready")
	return pool, nil
}

// Acquire checks a browser out of the pool, blocking until one is
// free, the pool is closed, or the context is done.
func (p *BrowserPool) Acquire(ctx context.Context) (*Browser, error) {
	select {
	case b := <-p.browsers:
		if b == nil {
			return nil, ErrPoolClosed
		}
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			b.cancel()
			return nil, ErrPoolClosed
		}
		return b, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for browser context: %w", ctx.Err())
	}
}

// Release returns a browser to the pool, resetting it to a blank page
// so state does not leak between renders.
func (p *BrowserPool) Release(b *Browser) {
	if b == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		b.cancel()
		return
	}

	// Best effort reset.
	_ = chromedp.Run(b.Ctx, chromedp.Navigate("about:blank"))

	// Re-check under the lock so a concurrent Close cannot strand the
	// browser in the channel after its drain pass.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		b.cancel()
		return
	}
	select {
	case p.browsers <- b:
	default:
		b.cancel()
		log.Warn().Msg("Browser pool full, discarding context")
	}
}

// Close tears down every browser context and the allocator. Idle
// browsers are drained by count; the channel itself stays open.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	for {
		select {
		case b := <-p.browsers:
			b.cancel()
		default:
			p.allocCancel()
			log.Debug().Msg("Browser pool closed")
			return nil
		}
	}
}

// Size returns the configured pool size.
func (p *BrowserPool) Size() int { return p.size }

// Available returns how many browsers are currently idle.
func (p *BrowserPool) Available() int { return len(p.browsers) }

// allocatorOptions builds the Chrome launch flags shared by pooled and
// one-shot renders.
func allocatorOptions(headless bool, userAgent, proxy string, extra ...chromedp.ExecAllocatorOption) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("disk-cache-size", "0"),
	}

	if path := FindChrome(); path != "" {
		opts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, opts...)
	}

	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}

	return append(opts, extra...)
}
