package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/keys"
	"github.com/Skotchmaster/auth_service/internal/models"
)

type Ledger interface {
	Persist(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (*models.RefreshToken, error)
}

type Issuer struct {
	Keys   *keys.Provider
	Ledger Ledger
	Name   string
	Now    func() time.Time
}

func NewIssuer(k *keys.Provider, ledger Ledger, name string) *Issuer {
	if name == "" {
		name = DefaultIssuer
	}
	return &Issuer{Keys: k, Ledger: ledger, Name: name, Now: time.Now}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

func (i *Issuer) IssueAccessToken(ctx context.Context, p Principal) (string, error) {
	priv, err := i.Keys.PrivateKey(ctx)
	if err != nil {
		return "", err
	}
	kid, err := keys.KeyID(&priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", keys.ErrKeyUnavailable, err)
	}

	now := i.now()
	claims := AccessClaims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    i.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken persists a ledger record for user and signs a token
// carrying the record id. The secret is resolved first so a missing secret
// does not leave an orphan record behind.
func (i *Issuer) IssueRefreshToken(ctx context.Context, p Principal, user *models.User, expiresAt time.Time) (string, error) {
	if user == nil {
		return "", errors.New("issue refresh token: nil user")
	}
	secret, err := i.Keys.SigningKey(ctx, keys.KindRefresh)
	if err != nil {
		return "", err
	}

	record, err := i.Ledger.Persist(ctx, user.ID, expiresAt)
	if err != nil {
		return "", fmt.Errorf("persist refresh token: %w", err)
	}

	id := record.ID.String()
	claims := RefreshClaims{
		Role:    p.Role,
		TokenID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   p.Subject,
			Issuer:    i.Name,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}
