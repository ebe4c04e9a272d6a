package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/config"
)

// Fixed-window counter. INCR creates the key at 1, the first hit in a
// window arms the expiry, and PTTL tells blocked callers how long to
// wait. Running it as a script keeps the three steps atomic.
var windowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { current, ttl }
`)

// memoryWindow is the fallback limiter used when Redis is unavailable
// at startup. Same fixed-window semantics, per-process scope.
type memoryWindow struct {
	mu     sync.Mutex
	counts map[string]int
	resets map[string]time.Time
	lastGC time.Time
}

func newMemoryWindow() *memoryWindow {
	return &memoryWindow{counts: make(map[string]int), resets: make(map[string]time.Time)}
}

func (m *memoryWindow) hit(key string, window time.Duration) (count int, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastGC) > time.Minute {
		for k, reset := range m.resets {
			if now.After(reset) {
				delete(m.counts, k)
				delete(m.resets, k)
			}
		}
		m.lastGC = now
	}

	reset, ok := m.resets[key]
	if !ok || now.After(reset) {
		reset = now.Add(window)
		m.resets[key] = reset
		m.counts[key] = 0
	}
	m.counts[key]++
	return m.counts[key], reset.Sub(now)
}

func (m *memoryWindow) refund(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[key] > 0 {
		m.counts[key]--
	}
}

// NewRateGuard returns a fixed-window rate limiter keyed by client IP
// and route. Redis backs the counters when available so limits hold
// across instances; otherwise an in-process window takes over. Redis
// errors at request time fail open.
//
// With SkipSuccessful set, a request that finishes below 400 refunds
// its slot, so the window only counts failures. The auth endpoints use
// this: five wrong passwords lock the window, a correct login never
// does.
func NewRateGuard(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	var mem *memoryWindow
	if rdb == nil {
		mem = newMemoryWindow()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := fmt.Sprintf("%s:%s:%s %s", cfg.Prefix, ip, c.Request().Method, c.Path())

			var count int64
			var ttl time.Duration

			if rdb != nil {
				ctx := c.Request().Context()
				vals, err := windowScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
				if err != nil || len(vals) != 2 {
					return next(c)
				}
				count = vals[0]
				ttl = time.Duration(vals[1]) * time.Millisecond
			} else {
				n, t := mem.hit(key, cfg.Window)
				count, ttl = int64(n), t
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if count > int64(cfg.Limit) {
				secs := int(math.Ceil(ttl.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				return apperror.NewRateLimited("too many requests, slow down", secs)
			}

			err := next(c)
			if cfg.SkipSuccessful && err == nil && c.Response().Status < 400 {
				if rdb != nil {
					_ = rdb.Decr(c.Request().Context(), key).Err()
				} else {
					mem.refund(key)
				}
			}
			return err
		}
	}
}
