package keys

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
	jose "gopkg.in/square/go-jose.v2"
)

type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

var ErrKeyUnavailable = errors.New("signing key unavailable")

// Provider resolves key material on every call. Nothing is cached: a key
// file replaced on disk is picked up by the next request.
type Provider struct {
	// PrivateKeyPEM takes precedence over PrivateKeyPath when set.
	PrivateKeyPEM  string
	PrivateKeyPath string
	Secret         string

	group singleflight.Group
}

func NewProvider(privateKeyPath, privateKeyPEM, refreshSecret string) *Provider {
	return &Provider{
		PrivateKeyPath: privateKeyPath,
		PrivateKeyPEM:  privateKeyPEM,
		Secret:         refreshSecret,
	}
}

// SigningKey returns raw key bytes: the PEM-encoded private key for access
// tokens, the shared secret for refresh tokens.
func (p *Provider) SigningKey(ctx context.Context, kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return p.privatePEM(ctx)
	case KindRefresh:
		return p.RefreshSecret()
	default:
		return nil, fmt.Errorf("%w: unknown key kind %d", ErrKeyUnavailable, kind)
	}
}

func (p *Provider) RefreshSecret() ([]byte, error) {
	if strings.TrimSpace(p.Secret) == "" {
		return nil, fmt.Errorf("%w: refresh secret is not configured", ErrKeyUnavailable)
	}
	return []byte(p.Secret), nil
}

func (p *Provider) PrivateKey(ctx context.Context) (*rsa.PrivateKey, error) {
	raw, err := p.privatePEM(ctx)
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", ErrKeyUnavailable, err)
	}
	return key, nil
}

func (p *Provider) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	key, err := p.PrivateKey(ctx)
	if err != nil {
		return nil, err
	}
	return &key.PublicKey, nil
}

// KeyID is the base64url SHA-256 JWK thumbprint of pub.
func KeyID(pub *rsa.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{Key: pub}
	sum, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

func (p *Provider) JWKS(ctx context.Context) (jose.JSONWebKeySet, error) {
	pub, err := p.PublicKey(ctx)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	kid, err := KeyID(pub)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       pub,
		KeyID:     kid,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}}, nil
}

func (p *Provider) privatePEM(ctx context.Context) ([]byte, error) {
	if p.PrivateKeyPEM != "" {
		return []byte(p.PrivateKeyPEM), nil
	}
	if p.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: no private key configured", ErrKeyUnavailable)
	}

	ch := p.group.DoChan(p.PrivateKeyPath, func() (any, error) {
		return os.ReadFile(p.PrivateKeyPath)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: read private key: %v", ErrKeyUnavailable, res.Err)
		}
		raw := res.Val.([]byte)
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: private key file is empty", ErrKeyUnavailable)
		}
		return raw, nil
	}
}
