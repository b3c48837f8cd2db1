package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/lifecycle"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type HealthHTTP struct {
	State *lifecycle.State
	// Ping checks the database; nil skips the check.
	Ping func(ctx context.Context) error
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	if h.State != nil && !h.State.Accepting() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "draining"})
	}
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "status", 503, "reason", "database", "error", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "database unavailable"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
