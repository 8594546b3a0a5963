package server

import (
	"fmt"
	"time"
)

// Config contains configuration for the HTTP front end
type Config struct {
	Addr string

	// Per-client token bucket
	RateLimitRPS   int
	RateLimitBurst int

	// Cache-Control max-age for rendered images
	CacheMaxAge time.Duration

	// Largest accepted POST body
	MaxBodyBytes int64

	ShutdownTimeout time.Duration
	Release         bool
}

// Validate fills defaults and rejects impossible values
func (c *Config) Validate() error {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 5
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 10
	}
	if c.CacheMaxAge == 0 {
		c.CacheMaxAge = 24 * time.Hour
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("cache max age must not be negative")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max body size must not be negative")
	}
	return nil
}
