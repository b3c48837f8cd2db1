package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/auth_service/internal/lifecycle"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/middleware"
	"github.com/Skotchmaster/auth_service/internal/models"
	loggingmw "github.com/Skotchmaster/auth_service/pkg/middleware/logging"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	UsersHandler  *UsersHTTP
	TenantHandler *TenantsHTTP
	JWKSHandler   *JWKSHTTP
	Health        *HealthHTTP

	Gate    *middleware.Auth
	State   *lifecycle.State
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(loggingmw.RequestLogger(d.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	if d.State != nil {
		e.Use(middleware.Admission(d.State, "/health/live", "/health/ready"))
	}

	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.GET("/.well-known/jwks.json", d.JWKSHandler.Get)

	authn := d.Gate.Authenticate()
	refresh := d.Gate.ValidateRefresh()
	admin := d.Gate.CanAccess(models.RoleAdmin)

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/self", d.AuthHandler.Self, authn)
	auth.POST("/refresh", d.AuthHandler.Refresh, refresh)
	auth.POST("/logout", d.AuthHandler.Logout, authn, refresh)

	users := e.Group("/users", authn)
	users.POST("", d.UsersHandler.Create, admin)
	users.GET("", d.UsersHandler.List, admin)
	users.GET("/:id", d.UsersHandler.Get, d.Gate.CanAccess(models.RoleAdmin, models.RoleManager))
	users.PUT("/:id", d.UsersHandler.Update, admin)
	users.DELETE("/:id", d.UsersHandler.Delete, admin)

	tenants := e.Group("/tenants", authn, admin)
	tenants.POST("", d.TenantHandler.Create)
	tenants.GET("", d.TenantHandler.List)
	tenants.GET("/:id", d.TenantHandler.Get)
	tenants.PUT("/:id", d.TenantHandler.Update)
	tenants.DELETE("/:id", d.TenantHandler.Delete)
}
