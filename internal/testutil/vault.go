package testutil

import (
	"testing"

	"lai-go/internal/keystore"
	"lai-go/internal/lai"
	"lai-go/internal/vault"
)

// TestPassphrase unlocks key stores created by NewTestKeyStore.
const TestPassphrase = "correct horse battery staple"

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}

// NewTestKeyStore creates an in-memory key store already set up with TestPassphrase.
func NewTestKeyStore(t *testing.T) lai.KeyStore {
	t.Helper()

	ks := keystore.NewMemoryKeyStore()
	if err := ks.Setup(TestPassphrase); err != nil {
		t.Fatalf("failed to set up key store: %v", err)
	}
	return ks
}
