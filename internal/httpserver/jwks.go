package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/keys"
	"github.com/Skotchmaster/auth_service/internal/service"
)

type JWKSHTTP struct {
	Keys *keys.Provider
}

func (h *JWKSHTTP) Get(c echo.Context) error {
	set, err := h.Keys.JWKS(c.Request().Context())
	if err != nil {
		return service.NewError(service.KindKeyUnavailable, service.MsgKeyUnavailable, err)
	}
	return c.JSON(http.StatusOK, set)
}
