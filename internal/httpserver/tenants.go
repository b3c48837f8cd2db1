package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/internal/util"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type TenantsHTTP struct {
	Svc *service.TenantService
}

func (h *TenantsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.TenantRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("tenant_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	t, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: t.ID.String()})
}

func (h *TenantsHTTP) List(c echo.Context) error {
	page, q := listQuery(c)
	total, list, err := h.Svc.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": list,
		"meta": util.NewMeta(page, q.Offset, q.Limit, total),
	})
}

func (h *TenantsHTTP) Get(c echo.Context) error {
	t, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return withStatus(err, service.KindTenantNotFound, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TenantsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.TenantRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("tenant_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	t, err := h.Svc.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TenantsHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
