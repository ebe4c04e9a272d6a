package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/config"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func hitOnce(t *testing.T, mw echo.MiddlewareFunc, status int) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/login")
	err := mw(func(c echo.Context) error { return c.NoContent(status) })(c)
	return rec, err
}

func TestRateGuardBlocksOverLimit(t *testing.T) {
	guard := NewRateGuard(config.RateLimitConfig{
		Enabled: true,
		Limit:   2,
		Window:  time.Minute,
		Prefix:  "rl:test",
	}, testRedis(t))

	for i := 0; i < 2; i++ {
		rec, err := hitOnce(t, guard, http.StatusOK)
		require.NoError(t, err)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec, err := hitOnce(t, guard, http.StatusOK)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, apperror.SafeCode(err))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateGuardRefundsSuccesses(t *testing.T) {
	guard := NewRateGuard(config.RateLimitConfig{
		Enabled:        true,
		Limit:          2,
		Window:         time.Minute,
		Prefix:         "rl:auth",
		SkipSuccessful: true,
	}, testRedis(t))

	// Successful requests refund their slot, so far more than the limit
	// pass.
	for i := 0; i < 10; i++ {
		_, err := hitOnce(t, guard, http.StatusOK)
		require.NoError(t, err)
	}

	// Failures stick and exhaust the window.
	for i := 0; i < 2; i++ {
		_, err := hitOnce(t, guard, http.StatusUnauthorized)
		require.NoError(t, err)
	}
	_, err := hitOnce(t, guard, http.StatusUnauthorized)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, apperror.SafeCode(err))
}

func TestRateGuardWindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewRateGuard(config.RateLimitConfig{
		Enabled: true,
		Limit:   1,
		Window:  time.Minute,
		Prefix:  "rl:test",
	}, rdb)

	_, err := hitOnce(t, guard, http.StatusOK)
	require.NoError(t, err)
	_, err = hitOnce(t, guard, http.StatusOK)
	require.Error(t, err)

	mr.FastForward(time.Minute + time.Second)

	_, err = hitOnce(t, guard, http.StatusOK)
	assert.NoError(t, err)
}

func TestRateGuardMemoryFallback(t *testing.T) {
	guard := NewRateGuard(config.RateLimitConfig{
		Enabled: true,
		Limit:   2,
		Window:  time.Minute,
		Prefix:  "rl:mem",
	}, nil)

	for i := 0; i < 2; i++ {
		_, err := hitOnce(t, guard, http.StatusOK)
		require.NoError(t, err)
	}
	_, err := hitOnce(t, guard, http.StatusOK)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, apperror.SafeCode(err))
}

func TestRateGuardDisabled(t *testing.T) {
	guard := NewRateGuard(config.RateLimitConfig{Enabled: false}, nil)
	for i := 0; i < 50; i++ {
		_, err := hitOnce(t, guard, http.StatusOK)
		require.NoError(t, err)
	}
}
