package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/auth_service/internal/transport"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindDuplicateEmail
	KindInvalidCredentials
	KindInvalidToken
	KindRevokedToken
	KindForbidden
	KindUserNotFound
	KindTenantNotFound
	KindKeyUnavailable
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindDuplicateEmail:
		return "DuplicateEmail"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindInvalidToken:
		return "InvalidToken"
	case KindRevokedToken:
		return "RevokedToken"
	case KindForbidden:
		return "Forbidden"
	case KindUserNotFound:
		return "UserNotFound"
	case KindTenantNotFound:
		return "TenantNotFound"
	case KindKeyUnavailable:
		return "KeyUnavailable"
	case KindPersistence:
		return "PersistenceError"
	default:
		return "InternalError"
	}
}

const (
	MsgDuplicateEmail     = "Email already exists"
	MsgInvalidCredentials = "email or password is wrong"
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "you don't have permissions to access the resource"
	MsgUserNotFound       = "user not found"
	MsgTenantNotFound     = "tenant not found"
	MsgKeyUnavailable     = "Error reading private key"
	MsgInternal           = "internal server error"
)

// AuthError is the only error type flows return. Err is for logs and never
// reaches the client.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
	Fields  []transport.FieldError
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewError(kind Kind, msg string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: msg, Err: err}
}

func ValidationError(fields []transport.FieldError) *AuthError {
	return &AuthError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func Unauthorized(kind Kind, err error) *AuthError {
	return NewError(kind, MsgUnauthorized, err)
}

func Persistence(err error) *AuthError {
	return NewError(KindPersistence, MsgInternal, err)
}

func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
