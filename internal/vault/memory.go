package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"lai-go/internal/lai"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It stores bundles in a map, making it useful for testing and one-shot verification.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name    string
	bundles map[string][]byte // bundle id -> serialized bundle
	mu      sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:    name,
		bundles: make(map[string][]byte),
	}
}

// PutBundle stores a bundle, replacing any previous bundle with the same id.
func (m *MemoryVault) PutBundle(id string, r io.Reader, size int64) error {
	if err := validateID(id); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bundles[id] = data
	return nil
}

// GetBundle writes the stored bundle to w.
func (m *MemoryVault) GetBundle(id string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.bundles[id]
	if !ok {
		return fmt.Errorf("%w: %s", lai.ErrBundleNotFound, id)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	return nil
}

// Len returns the number of stored bundles.
func (m *MemoryVault) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bundles)
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ lai.Vault = (*MemoryVault)(nil)
