package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig defines settings for the Redis-backed menu cache.  When
// Enabled is false or no Redis client is configured, menu reads go straight
// to MySQL.  TTL bounds how stale a cached menu may be; Prefix namespaces
// the keys so several deployments can share one Redis.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: strings.EqualFold(getenv("CACHE_ENABLED", "true"), "true"),
		TTL:     parseDur(getenv("CACHE_TTL", "5m")),
		Prefix:  getenv("CACHE_PREFIX", "cache"),
	}
}

// Helper functions reused from redis.go, ratelimit.go and events.go
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
