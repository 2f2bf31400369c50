package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.BrowserPoolSize != DefaultBrowserPoolSize {
		t.Errorf("BrowserPoolSize = %d", cfg.BrowserPoolSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SURF_USER_AGENT", "custom-agent")
	t.Setenv("SURF_TIMEOUT", "90s")
	t.Setenv("SURF_RATE_LIMIT", "2.5")
	t.Setenv("SURF_LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.UserAgent != "custom-agent" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.HTTPTimeout != 90*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v", cfg.RateLimitRPS)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadIgnoresBadEnv(t *testing.T) {
	t.Setenv("SURF_TIMEOUT", "not-a-duration")
	t.Setenv("SURF_RATE_LIMIT", "fast")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout || cfg.RateLimitRPS != DefaultRateLimitRPS {
		t.Errorf("malformed env values should be ignored: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		HTTPTimeout:       time.Second,
		BrowserPoolSize:   3,
		RateLimitRPS:      1,
		CacheMaxSizeBytes: 1,
	}
	if err := validate(cfg); err != nil {
		t.Errorf("validate() error = %v", err)
	}

	bad := *cfg
	bad.BrowserPoolSize = 99
	if err := validate(&bad); err == nil {
		t.Error("oversized browser pool should be rejected")
	}

	bad = *cfg
	bad.HTTPTimeout = 0
	if err := validate(&bad); err == nil {
		t.Error("zero timeout should be rejected")
	}
}
