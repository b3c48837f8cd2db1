package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindDuplicateEmail, service.KindInvalidCredentials,
		service.KindUserNotFound, service.KindTenantNotFound:
		return http.StatusBadRequest
	case service.KindInvalidToken, service.KindRevokedToken:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// routeStatus overrides the default status of one error kind for a single route.
type routeStatus struct {
	err    error
	kind   service.Kind
	status int
}

func (r *routeStatus) Error() string { return r.err.Error() }
func (r *routeStatus) Unwrap() error { return r.err }

func withStatus(err error, kind service.Kind, status int) error {
	if err == nil || service.KindOf(err) != kind {
		return err
	}
	return &routeStatus{err: err, kind: kind, status: status}
}

func render(err error, path string) (int, transport.ErrorsResponse) {
	var ae *service.AuthError
	if errors.As(err, &ae) {
		status := statusOf(ae.Kind)
		var rs *routeStatus
		if errors.As(err, &rs) && rs.kind == ae.Kind {
			status = rs.status
		}
		if ae.Kind == service.KindValidation && len(ae.Fields) > 0 {
			return status, transport.ErrorsResponse{Errors: ae.Fields}
		}
		typ, msg := ae.Kind.String(), ae.Message
		switch {
		case status == http.StatusUnauthorized:
			// every 401 looks the same to the client
			typ, msg = service.KindInvalidToken.String(), service.MsgUnauthorized
		case status >= 500 && ae.Kind != service.KindKeyUnavailable:
			msg = service.MsgInternal
		}
		return status, single(typ, msg, path)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Code < 500 && he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, single("HttpError", msg, path)
	}

	return http.StatusInternalServerError, single(service.KindUnknown.String(), service.MsgInternal, path)
}

func single(typ, msg, path string) transport.ErrorsResponse {
	return transport.ErrorsResponse{Errors: []transport.FieldError{{Type: typ, Msg: msg, Path: path}}}
}

// ErrorHandler writes every error as {"errors": [...]}. Causes are logged,
// never sent.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := render(err, c.Request().URL.Path)

	l := logging.FromContext(c.Request().Context())
	if status >= 500 {
		l.Error("request_failed", "status", status, "error", err)
	} else {
		l.Debug("request_rejected", "status", status, "kind", service.KindOf(err).String(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if werr := c.JSON(status, body); werr != nil {
		l.Error("error_response_failed", "error", werr)
	}
}
