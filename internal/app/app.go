// Package app wires configuration, logging, caching, the HTTP session,
// and the browser pool into one object shared by all CLI commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/html-makers/surf/internal/cache"
	"github.com/html-makers/surf/internal/config"
	"github.com/html-makers/surf/pkg/render"
	"github.com/html-makers/surf/pkg/session"
)

// Application holds shared dependencies and manages their lifecycle.
// Create it once at startup and Close it on shutdown.
type Application struct {
	Config  *config.Config
	Logger  *zerolog.Logger
	Cache   cache.Cache
	Session *session.Session

	poolMu      sync.Mutex
	browserPool *render.BrowserPool

	startTime time.Time
}

// New initializes logging, the cache, and the HTTP session. The
// browser pool is created lazily on the first render so plain fetches
// never pay Chrome's startup cost.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Info logs stay hidden unless the user asked for verbosity.
	logLevel := zerolog.ErrorLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer = zerolog.NewConsoleWriter()
	if cfg.JSONLog {
		logWriter = os.Stderr
	}
	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	logger.Debug().
		Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
		Msg("Memory cache initialized")

	var proxies []string
	if cfg.Proxy != "" {
		proxies = strings.Split(cfg.Proxy, ",")
	}

	sess, err := session.New(session.Options{
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.HTTPTimeout,
		Proxies:        proxies,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Float64("rate_limit_rps", cfg.RateLimitRPS).
		Msg("Session initialized")

	if cfg.ChromePath != "" {
		os.Setenv("CHROME_PATH", cfg.ChromePath)
	}

	return &Application{
		Config:    cfg,
		Logger:    &logger,
		Cache:     memCache,
		Session:   sess,
		startTime: time.Now(),
	}, nil
}

// EnsureBrowserPool creates the browser pool if it does not exist yet.
func (a *Application) EnsureBrowserPool(ctx context.Context) error {
	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.browserPool != nil {
		return nil
	}

	a.Logger.Debug().Msg("Initializing browser pool on demand")
	pool, err := render.NewBrowserPool(render.PoolOptions{
		Size:      a.Config.BrowserPoolSize,
		Headless:  a.Config.BrowserHeadless,
		UserAgent: a.Config.UserAgent,
		Proxy:     a.Config.Proxy,
	})
	if err != nil {
		return fmt.Errorf("failed to create browser pool: %w", err)
	}
	a.browserPool = pool
	return nil
}

// Renderer returns a pool-backed renderer, creating the pool first if
// needed.
func (a *Application) Renderer(ctx context.Context) (*render.Renderer, error) {
	if err := a.EnsureBrowserPool(ctx); err != nil {
		return nil, err
	}
	return render.NewRenderer(a.browserPool), nil
}

// Close shuts down the browser pool, cache, and session. Shutdown
// errors are logged, not returned, so every step runs.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down")

	a.poolMu.Lock()
	if a.browserPool != nil {
		if err := a.browserPool.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser pool")
		}
		a.browserPool = nil
	}
	a.poolMu.Unlock()

	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.Session != nil {
		a.Session.Close()
	}

	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Shutdown complete")
	return nil
}

// Uptime reports how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
