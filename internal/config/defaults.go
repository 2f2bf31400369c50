package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel           = "info"
	DefaultJSONLog            = false
	DefaultUserAgent          = "Surf/1.0 (https://github.com/html-makers/surf)"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultRateLimitRPS       = 5.0
	DefaultRateLimitBurst     = 10
	DefaultBrowserPoolSize    = 3
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultRenderWait         = 500 * time.Millisecond
	DefaultCacheTTL           = 5 * time.Minute
	DefaultCacheMaxSizeBytes  = 100 * 1024 * 1024 // 100MB
)
