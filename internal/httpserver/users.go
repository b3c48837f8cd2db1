package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/internal/util"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func firstQuery(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := c.QueryParam(n); v != "" {
			return v
		}
	}
	return ""
}

func listQuery(c echo.Context) (int, repo.ListQuery) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(firstQuery(c, "size", "pageSize"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	return page, repo.ListQuery{
		Q:      firstQuery(c, "q", "searchQuery"),
		Offset: offset,
		Limit:  limit,
	}
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("user_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: id})
}

func (h *UsersHTTP) List(c echo.Context) error {
	page, q := listQuery(c)
	total, users, err := h.Svc.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": util.NewMeta(page, q.Offset, q.Limit, total),
	})
}

func (h *UsersHTTP) Get(c echo.Context) error {
	user, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("user_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
