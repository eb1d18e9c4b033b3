package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is a liveness probe.  It returns "ok" while the process serves
// requests.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyHandler reports whether the service's dependencies answer.
type ReadyHandler struct {
	DB    *sql.DB
	Redis *redis.Client // optional
}

// Ready pings the database and, when configured, Redis.  Any failure yields
// 503 with the failing dependency named.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	ready := true
	if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}
	if !ready {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "checks": checks})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready", "checks": checks})
}
