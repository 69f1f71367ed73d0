package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the rate limit for one endpoint. Paths ending in "/"
// match by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; <= 0 means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// Environment variables read by LoadConfig.
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// DefaultConfig is the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !getEnvBool(EnvEnabled, true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig()
	cfg.DefaultLimit = getEnvInt(EnvDefaultLimit, cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration(EnvDefaultWindow, cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration(EnvCleanupInterval, cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv(EnvWhitelist))
	cfg.Blacklist = parseIPList(os.Getenv(EnvBlacklist))
	return cfg
}

// DefaultEndpointConfigs returns the per-endpoint limits of the insights API.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Headless Chrome per request.
		{Path: "/insights/report.pdf", Method: "GET", Limit: 10, Window: time.Minute, Burst: 2},

		// One aggregates fetch per year.
		{Path: "/insights/trend", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		{Path: "/insights/export.csv", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/insights/report", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		// GET /health is unlimited, see MatchEndpoint.
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of client IDs into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
