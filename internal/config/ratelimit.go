package config

import "time"

// RateLimitConfig describes one fixed-window request ceiling. The service
// carries three of these: a permissive general API ceiling, a strict
// ceiling for credential endpoints, and a registration ceiling.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // fixed window length
	Prefix  string        // key namespace in the counter store

	// SkipSuccessful refunds requests that complete below 400, so only
	// failed attempts count against the ceiling.
	SkipSuccessful bool
}

// LoadGeneralRateLimit returns the permissive all-routes ceiling.
func LoadGeneralRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Limit:   envInt("RATE_LIMIT_MAX", 10000),
		Window:  envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl:general"),
	}
}

// LoadAuthRateLimit returns the strict ceiling applied to login, OTP and
// refresh endpoints. Successful requests are not counted.
func LoadAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Limit:          envInt("AUTH_RATE_LIMIT_MAX", 5),
		Window:         envDur("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
		Prefix:         getenv("AUTH_RATE_LIMIT_PREFIX", "rl:auth"),
		SkipSuccessful: true,
	}
}

// LoadRegisterRateLimit returns the per-IP registration ceiling.
func LoadRegisterRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Limit:   envInt("REGISTER_RATE_LIMIT_MAX", 3),
		Window:  envDur("REGISTER_RATE_LIMIT_WINDOW", time.Hour),
		Prefix:  getenv("REGISTER_RATE_LIMIT_PREFIX", "rl:register"),
	}
}
