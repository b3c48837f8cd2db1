package testutil

import (
	"sync"
	"testing"

	"github.com/Skotchmaster/auth_service/internal/keys"
)

const RefreshSecret = "test-refresh-secret"

var (
	keyOnce sync.Once
	keyPEM  []byte
	keyErr  error
)

// PrivateKeyPEM returns one RSA key shared by the whole test binary.
func PrivateKeyPEM(t *testing.T) string {
	t.Helper()
	keyOnce.Do(func() {
		keyPEM, _, keyErr = keys.GeneratePEM(2048)
	})
	if keyErr != nil {
		t.Fatalf("generate key: %v", keyErr)
	}
	return string(keyPEM)
}

func KeyProvider(t *testing.T) *keys.Provider {
	return keys.NewProvider("", PrivateKeyPEM(t), RefreshSecret)
}
