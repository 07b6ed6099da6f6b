package lai

import (
	"errors"
	"io"
)

// ErrBundleNotFound is returned by a Vault when no bundle has the requested id.
var ErrBundleNotFound = errors.New("bundle not found")

// Vault stores serialized bundles.
type Vault interface {
	// PutBundle stores the bundle read from r under id, replacing any existing one.
	// size is the number of bytes that will be read from r.
	PutBundle(id string, r io.Reader, size int64) error

	// GetBundle writes the bundle stored under id to w.
	// Returns an error wrapping ErrBundleNotFound if there is none.
	GetBundle(id string, w io.Writer) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
