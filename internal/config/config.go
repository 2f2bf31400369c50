// Package config resolves application settings from defaults,
// environment variables, and CLI flags, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values.
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string
	Proxy       string

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Browser
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string
	RenderWait      time.Duration

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64
}

// Load builds a Config from defaults, SURF_* environment variables,
// and the command's flags. Pass a nil command to skip flag lookup.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		HTTPTimeout:       DefaultHTTPTimeout,
		UserAgent:         DefaultUserAgent,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
		BrowserPoolSize:   DefaultBrowserPoolSize,
		BrowserHeadless:   DefaultBrowserHeadless,
		RenderWait:        DefaultRenderWait,
		CacheTTL:          DefaultCacheTTL,
		CacheMaxSizeBytes: DefaultCacheMaxSizeBytes,
	}

	if v := os.Getenv("SURF_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("SURF_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SURF_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("SURF_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv("SURF_RATE_LIMIT"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = rps
		}
	}
	if v := os.Getenv("SURF_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cmd != nil {
		applyFlags(cfg, cmd)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *Config, cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("user-agent"); f != nil {
		if s := f.Value.String(); s != "" {
			cfg.UserAgent = s
		}
	}
	if f := cmd.Flags().Lookup("proxy"); f != nil {
		if s := f.Value.String(); s != "" {
			cfg.Proxy = s
		}
	}
	if f := cmd.Flags().Lookup("timeout"); f != nil {
		if s := f.Value.String(); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.HTTPTimeout = d
			}
		}
	}
	if f := cmd.Flags().Lookup("json-log"); f != nil && f.Value.String() == "true" {
		cfg.JSONLog = true
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "debug"
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "error"
	}
}
