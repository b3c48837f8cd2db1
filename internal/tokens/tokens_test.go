package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/internal/keys"
	"github.com/Skotchmaster/auth_service/internal/models"
)

type memLedger struct {
	mu      sync.Mutex
	records []models.RefreshToken
	err     error
}

func (m *memLedger) Persist(_ context.Context, userID uuid.UUID, expiresAt time.Time) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec := models.RefreshToken{ID: uuid.New(), UserID: userID, ExpiresAt: expiresAt}
	m.records = append(m.records, rec)
	return &rec, nil
}

var (
	keyOnce sync.Once
	keyPEM  []byte
)

func testProvider(t *testing.T) *keys.Provider {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		keyPEM, _, err = keys.GeneratePEM(2048)
		require.NoError(t, err)
	})
	return keys.NewProvider("", string(keyPEM), "refresh-secret")
}

func TestIssueAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	p := testProvider(t)
	iss := NewIssuer(p, &memLedger{}, "")
	ver := NewVerifier(p, "")
	sub := uuid.NewString()

	raw, err := iss.IssueAccessToken(context.Background(), Principal{Subject: sub, Role: models.RoleCustomer})
	require.NoError(t, err)

	claims, err := ver.AccessClaimsFromToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(AccessTTL), claims.ExpiresAt.Time, 5*time.Second)

	tok, _, err := jwt.NewParser().ParseUnverified(raw, &AccessClaims{})
	require.NoError(t, err)
	assert.Equal(t, "RS256", tok.Method.Alg())
	assert.NotEmpty(t, tok.Header["kid"])
}

func TestIssueAccessToken_KeyUnavailable(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(keys.NewProvider("", "", "s"), &memLedger{}, "")
	_, err := iss.IssueAccessToken(context.Background(), Principal{Subject: uuid.NewString(), Role: models.RoleAdmin})
	assert.ErrorIs(t, err, keys.ErrKeyUnavailable)
}

func TestIssueRefreshToken_PersistsOnce(t *testing.T) {
	t.Parallel()

	p := testProvider(t)
	ledger := &memLedger{}
	iss := NewIssuer(p, ledger, "")
	ver := NewVerifier(p, "")
	user := &models.User{ID: uuid.New(), Role: models.RoleManager}
	exp := time.Now().Add(RefreshTTL).Truncate(time.Second)

	raw, err := iss.IssueRefreshToken(context.Background(), Principal{Subject: user.ID.String(), Role: user.Role}, user, exp)
	require.NoError(t, err)
	require.Len(t, ledger.records, 1)

	claims, err := ver.RefreshClaimsFromToken(context.Background(), raw)
	require.NoError(t, err)
	rec := ledger.records[0]
	assert.Equal(t, rec.ID.String(), claims.ID)
	assert.Equal(t, rec.ID.String(), claims.TokenID)
	assert.Equal(t, user.ID, rec.UserID)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, DefaultIssuer, claims.Issuer)

	tok, _, err := jwt.NewParser().ParseUnverified(raw, &RefreshClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", tok.Method.Alg())
}

func TestIssueRefreshToken_LedgerFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	iss := NewIssuer(testProvider(t), &memLedger{err: boom}, "")
	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	_, err := iss.IssueRefreshToken(context.Background(), Principal{Subject: user.ID.String(), Role: user.Role}, user, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, boom)
}

func TestIssueRefreshToken_NoSecretNoRecord(t *testing.T) {
	t.Parallel()

	testProvider(t)
	ledger := &memLedger{}
	iss := NewIssuer(keys.NewProvider("", string(keyPEM), ""), ledger, "")
	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}

	_, err := iss.IssueRefreshToken(context.Background(), Principal{Subject: user.ID.String(), Role: user.Role}, user, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, keys.ErrKeyUnavailable)
	assert.Empty(t, ledger.records)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	p := testProvider(t)
	ctx := context.Background()
	iss := NewIssuer(p, &memLedger{}, "")
	ver := NewVerifier(p, "")
	sub := uuid.NewString()
	user := &models.User{ID: uuid.MustParse(sub), Role: models.RoleCustomer}

	access, err := iss.IssueAccessToken(ctx, Principal{Subject: sub, Role: models.RoleCustomer})
	require.NoError(t, err)
	refresh, err := iss.IssueRefreshToken(ctx, Principal{Subject: sub, Role: models.RoleCustomer}, user, time.Now().Add(time.Hour))
	require.NoError(t, err)

	hsAccess, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: sub, Issuer: DefaultIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("refresh-secret"))
	require.NoError(t, err)

	foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		Role:    models.RoleCustomer,
		TokenID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: sub, Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("refresh-secret"))
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		Role:    "root",
		TokenID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: sub, Issuer: DefaultIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("refresh-secret"))
	require.NoError(t, err)

	t.Run("refresh token as access token", func(t *testing.T) {
		_, err := ver.AccessClaimsFromToken(ctx, refresh)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("access token as refresh token", func(t *testing.T) {
		_, err := ver.RefreshClaimsFromToken(ctx, access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("hs256 access token", func(t *testing.T) {
		_, err := ver.AccessClaimsFromToken(ctx, hsAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("tampered", func(t *testing.T) {
		_, err := ver.AccessClaimsFromToken(ctx, access[:len(access)-4]+"AAAA")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := ver.RefreshClaimsFromToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		_, err := ver.RefreshClaimsFromToken(ctx, foreignIssuer)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("unknown role", func(t *testing.T) {
		_, err := ver.RefreshClaimsFromToken(ctx, badRole)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifier_Expired(t *testing.T) {
	t.Parallel()

	p := testProvider(t)
	iss := NewIssuer(p, &memLedger{}, "")
	iss.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	ver := NewVerifier(p, "")

	raw, err := iss.IssueAccessToken(context.Background(), Principal{Subject: uuid.NewString(), Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = ver.AccessClaimsFromToken(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, IsKeyError(err))
}
