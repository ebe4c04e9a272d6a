package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness plus the state of the two backing
// stores. Redis being down degrades the report but not the status code;
// the API works without it.
type HealthHandler struct {
	db  *sql.DB
	rdb *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dbState := "up"
	if err := h.db.PingContext(ctx); err != nil {
		dbState = "down"
		status = http.StatusServiceUnavailable
	}

	redisState := "disabled"
	if h.rdb != nil {
		redisState = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			redisState = "down"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	return c.JSON(status, map[string]any{
		"status": state,
		"db":     dbState,
		"redis":  redisState,
	})
}
