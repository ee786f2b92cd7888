package config

import (
	"strings"
	"time"
)

// Rate limit scopes.  Every bucket is also per endpoint family.
const (
	ScopeIP     = "ip"
	ScopeUser   = "user"
	ScopeClient = "client" // ip and user together
)

// RateLimitConfig configures the Redis token bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	// Scope picks who shares a bucket: ScopeIP, ScopeUser or ScopeClient.
	Scope string
	// WriteCost is the number of tokens a mutation takes; reads take one.
	WriteCost int
	Prefix    string
	Debug     bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* from the environment.
func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Scope:          envStr("RATE_LIMIT_SCOPE", ScopeClient),
		WriteCost:      envInt("RATE_LIMIT_WRITE_COST", 2),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	return def.normalize()
}

// normalize clamps values the token bucket cannot work with.
func (c RateLimitConfig) normalize() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	if c.WriteCost < 1 {
		c.WriteCost = 1
	}
	if c.WriteCost > c.Capacity {
		c.WriteCost = c.Capacity
	}
	switch c.Scope = strings.ToLower(strings.TrimSpace(c.Scope)); c.Scope {
	case ScopeIP, ScopeUser, ScopeClient:
	default:
		c.Scope = ScopeClient
	}
	return c
}
