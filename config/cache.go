package config

import (
	"strings"
	"time"
)

// CacheConfig contains feed cache configuration (Redis-based).
type CacheConfig struct {
	Enabled bool `env:"CACHE_ENABLED" envDefault:"false"`

	// Redis connection settings for cache.
	RedisAddr     string `env:"CACHE_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"CACHE_REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"CACHE_REDIS_DB"       envDefault:"0"`
	KeyPrefix     string `env:"CACHE_KEY_PREFIX"     envDefault:"adeplanning:"`

	// FeedTTL is the TTL for cached calendar feed bodies.
	FeedTTL time.Duration `env:"CACHE_FEED_TTL" envDefault:"15m"`
}

// Sanitize disables the cache without an address and restores a positive TTL.
func (c *CacheConfig) Sanitize() {
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	if c.RedisAddr == "" {
		c.Enabled = false
	}
	if c.RedisDB < 0 {
		c.RedisDB = 0
	}
	if c.FeedTTL <= 0 {
		c.FeedTTL = 15 * time.Minute
	}
}
