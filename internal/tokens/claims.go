package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/auth_service/internal/models"
)

const (
	AccessTTL     = time.Hour
	RefreshTTL    = 30 * 24 * time.Hour
	DefaultIssuer = "auth-service"
)

var ErrInvalidToken = errors.New("invalid token")

type Principal struct {
	Subject string
	Role    models.Role
}

type AccessClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) Principal() Principal {
	return Principal{Subject: c.Subject, Role: c.Role}
}

// RefreshClaims carries the ledger record id twice: as jti and as "id".
type RefreshClaims struct {
	Role    models.Role `json:"role"`
	TokenID string      `json:"id"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) Principal() Principal {
	return Principal{Subject: c.Subject, Role: c.Role}
}
