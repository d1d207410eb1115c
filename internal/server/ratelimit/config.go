package ratelimit

import (
	"time"

	"github.com/jonathan/persona-engine/internal/config"
)

// EndpointConfig is the limit for one method and path. A path ending in "/"
// matches every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	// Burst is the bucket capacity; zero means Limit.
	Burst int
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() *Config {
	return FromSettings(config.Default().RateLimit)
}

// FromSettings builds a Config from the process configuration.
func FromSettings(s config.RateLimitConfig) *Config {
	return &Config{
		Enabled:         s.Enabled,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		Whitelist:       set(s.Whitelist),
		Blacklist:       set(s.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the stricter tiers for expensive endpoints.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// model calls
		{Path: "/personas/generate", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		// embedding calls
		{Path: "/personas/evaluate", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// uploads, scraping and search
		{Path: "/api/v1/crm/parse", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/pdf/process", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/scrape", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/search/company", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		{Path: "/auth/token", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/sources/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func set(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		if item != "" {
			out[item] = true
		}
	}
	return out
}
