package keystore

import (
	"fmt"
	"math/big"
	"sync"

	"lai-go/internal/lai"
)

// MemoryKeyStore keeps private keys in a map. The passphrase given to Setup
// must be repeated to Unlock. This implementation is safe for concurrent use.
type MemoryKeyStore struct {
	mu         sync.RWMutex
	passphrase string
	configured bool
	keys       map[string]*big.Int
}

var _ lai.KeyStore = (*MemoryKeyStore)(nil)

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]*big.Int)}
}

func (s *MemoryKeyStore) Setup(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passphrase = passphrase
	s.configured = true
	return nil
}

func (s *MemoryKeyStore) Store(id string, private *big.Int) error {
	if err := validateKeyID(id); err != nil {
		return err
	}
	if private == nil {
		return fmt.Errorf("private key is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = new(big.Int).Set(private)
	return nil
}

func (s *MemoryKeyStore) Unlock(passphrase string) (lai.KeyRing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.configured && passphrase != s.passphrase {
		return nil, fmt.Errorf("incorrect passphrase")
	}
	return &memoryKeyRing{store: s}, nil
}

func (s *MemoryKeyStore) IsConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configured
}

type memoryKeyRing struct {
	store *MemoryKeyStore
}

func (r *memoryKeyRing) Load(id string) (*big.Int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	k, ok := r.store.keys[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lai.ErrKeyNotFound, id)
	}
	return new(big.Int).Set(k), nil
}
