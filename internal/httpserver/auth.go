package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/middleware"
	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies CookieConfig
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: id})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return err
	}

	c.SetCookie(h.Cookies.AccessCookie(res.AccessToken))
	c.SetCookie(h.Cookies.RefreshCookie(res.RefreshToken))
	return c.JSON(http.StatusOK, transport.IDResponse{ID: res.UserID})
}

func (h *AuthHTTP) Self(c echo.Context) error {
	user, err := h.Svc.Self(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return withStatus(err, service.KindUserNotFound, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	res, err := h.Svc.Refresh(c.Request().Context(), middleware.RefreshClaims(c))
	if err != nil {
		return err
	}

	c.SetCookie(h.Cookies.AccessCookie(res.AccessToken))
	c.SetCookie(h.Cookies.RefreshCookie(res.RefreshToken))
	return c.JSON(http.StatusOK, transport.IDResponse{ID: res.UserID})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	if err := h.Svc.Logout(c.Request().Context(), middleware.UserID(c), middleware.RefreshClaims(c)); err != nil {
		return err
	}

	c.SetCookie(h.Cookies.DeleteCookie(middleware.AccessCookie))
	c.SetCookie(h.Cookies.DeleteCookie(middleware.RefreshCookie))
	return c.NoContent(http.StatusNoContent)
}
