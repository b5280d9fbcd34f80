package testutil

import (
	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() hydrant.Vault {
	return vault.NewMemoryVault("test-vault")
}
