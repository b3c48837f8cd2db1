package middleware

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/tokens"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

const (
	CtxUserID        = "user_id"
	CtxRole          = "role"
	CtxAccessClaims  = "auth"
	CtxRefreshClaims = "refresh"

	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type Ledger interface {
	FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.RefreshToken, error)
}

type Auth struct {
	Verifier *tokens.Verifier
	Ledger   Ledger
	Metrics  *metrics.Metrics
}

// Authenticate admits requests carrying a valid access token, from the
// Authorization header or else the accessToken cookie.
func (a *Auth) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxAccessClaims,
		TokenLookup: "header:Authorization:Bearer ,cookie:" + AccessCookie,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := a.Verifier.AccessClaimsFromToken(c.Request().Context(), auth)
			if err != nil {
				a.Metrics.Token("access", "invalid")
				return nil, tokenError(err)
			}
			a.Metrics.Token("access", "ok")
			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			return claims, nil
		},
		ErrorHandler: a.errorHandler("access"),
	})
}

// ValidateRefresh admits requests whose refreshToken cookie verifies and
// still has a ledger record. A ledger that cannot be queried rejects the
// token as revoked.
func (a *Auth) ValidateRefresh() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxRefreshClaims,
		TokenLookup: "cookie:" + RefreshCookie,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			ctx := c.Request().Context()
			claims, err := a.Verifier.RefreshClaimsFromToken(ctx, auth)
			if err != nil {
				a.Metrics.Token("refresh", "invalid")
				return nil, tokenError(err)
			}
			if err := a.checkLedger(ctx, claims); err != nil {
				return nil, err
			}
			a.Metrics.Token("refresh", "ok")
			return claims, nil
		},
		ErrorHandler: a.errorHandler("refresh"),
	})
}

func (a *Auth) checkLedger(ctx context.Context, claims *tokens.RefreshClaims) error {
	l := logging.FromContext(ctx)

	// both ids were checked to be uuids by the verifier
	tokenID := uuid.MustParse(claims.TokenID)
	userID := uuid.MustParse(claims.Subject)

	_, err := a.Ledger.FindByIDAndOwner(ctx, tokenID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		a.Metrics.Token("refresh", "revoked")
		return service.Unauthorized(service.KindRevokedToken, err)
	default:
		l.Error("refresh_token_lookup_failed", "token_id", tokenID, "user_id", userID, "error", err)
		a.Metrics.LedgerError()
		return service.Unauthorized(service.KindRevokedToken, err)
	}
}

func tokenError(err error) error {
	if tokens.IsKeyError(err) {
		return service.NewError(service.KindKeyUnavailable, service.MsgKeyUnavailable, err)
	}
	return service.Unauthorized(service.KindInvalidToken, err)
}

func (a *Auth) errorHandler(tokenType string) func(c echo.Context, err error) error {
	return func(c echo.Context, err error) error {
		var ae *service.AuthError
		if errors.As(err, &ae) {
			return ae
		}
		a.Metrics.Token(tokenType, "missing")
		return service.Unauthorized(service.KindInvalidToken, err)
	}
}

// CanAccess must run after Authenticate: it trusts the role Authenticate put
// into the context and nothing else.
func (a *Auth) CanAccess(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(models.Role)
			if !ok || role == "" {
				return service.Unauthorized(service.KindInvalidToken, errors.New("no verified role in context"))
			}
			if !slices.Contains(roles, role) {
				a.Metrics.Access(false)
				logging.FromContext(c.Request().Context()).Warn("access_denied", "status", 403, "role", role, "path", c.Path())
				return service.NewError(service.KindForbidden, service.MsgForbidden, nil)
			}
			a.Metrics.Access(true)
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserID).(string)
	return id
}

func RefreshClaims(c echo.Context) *tokens.RefreshClaims {
	claims, _ := c.Get(CtxRefreshClaims).(*tokens.RefreshClaims)
	return claims
}
