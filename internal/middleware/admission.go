package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/lifecycle"
)

// Admission turns requests away with 503 once shutdown has begun. Liveness
// keeps answering so the orchestrator does not kill a draining process.
func Admission(state *lifecycle.State, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if state.Accepting() {
				return next(c)
			}
			for _, p := range skip {
				if c.Request().URL.Path == p {
					return next(c)
				}
			}
			c.Response().Header().Set("Connection", "close")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "server is shutting down")
		}
	}
}
