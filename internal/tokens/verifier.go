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

// Verifier checks signatures and registered claims only. Ledger lookups for
// refresh tokens happen in the refresh middleware.
type Verifier struct {
	Keys *keys.Provider
	Name string
	Now  func() time.Time
}

func NewVerifier(k *keys.Provider, name string) *Verifier {
	if name == "" {
		name = DefaultIssuer
	}
	return &Verifier{Keys: k, Name: name, Now: time.Now}
}

func (v *Verifier) options(alg string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(v.Name),
		jwt.WithExpirationRequired(),
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}
	return opts
}

func (v *Verifier) AccessClaimsFromToken(ctx context.Context, raw string) (*AccessClaims, error) {
	pub, err := v.Keys.PublicKey(ctx)
	if err != nil {
		return nil, err
	}

	var claims AccessClaims
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return pub, nil
	}, v.options(jwt.SigningMethodRS256.Alg())...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := checkPrincipal(claims.Subject, &claims.Role); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (v *Verifier) RefreshClaimsFromToken(ctx context.Context, raw string) (*RefreshClaims, error) {
	secret, err := v.Keys.RefreshSecret()
	if err != nil {
		return nil, err
	}

	var claims RefreshClaims
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, v.options(jwt.SigningMethodHS256.Alg())...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := checkPrincipal(claims.Subject, &claims.Role); err != nil {
		return nil, err
	}

	if claims.TokenID == "" {
		claims.TokenID = claims.ID
	}
	if claims.ID != "" && claims.ID != claims.TokenID {
		return nil, fmt.Errorf("%w: jti and id differ", ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.TokenID); err != nil {
		return nil, fmt.Errorf("%w: bad token id", ErrInvalidToken)
	}
	return &claims, nil
}

func checkPrincipal(sub string, role *models.Role) error {
	if _, err := uuid.Parse(sub); err != nil {
		return fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	r, err := models.ParseRole(string(*role))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	*role = r
	return nil
}

// IsKeyError reports whether err came from missing key material rather than a bad token.
func IsKeyError(err error) bool {
	return errors.Is(err, keys.ErrKeyUnavailable)
}
