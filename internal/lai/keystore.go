package lai

import (
	"errors"
	"math/big"
)

// ErrKeyNotFound is returned by a KeyRing when no key has the requested id.
var ErrKeyNotFound = errors.New("private key not found")

// KeyStore keeps private keys apart from the bundles they open.
// Storing a key needs no passphrase; loading one needs the store unlocked.
type KeyStore interface {
	// Setup performs one-time initialization. Called during `lai keys init`.
	Setup(passphrase string) error

	// Store persists the private key under id.
	Store(id string, private *big.Int) error

	// Unlock opens the store with the passphrase and returns a KeyRing for the session.
	// Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (KeyRing, error)

	// IsConfigured returns true once Setup has completed.
	IsConfigured() bool
}

// KeyRing is an unlocked KeyStore. Keys it loads stay in memory only.
type KeyRing interface {
	// Load returns the private key stored under id.
	Load(id string) (*big.Int, error)
}
