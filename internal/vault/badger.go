package vault

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"

	"lai-go/internal/lai"
)

const badgerBundlePrefix = "bundle:"

// BadgerVault stores bundles in an embedded Badger key-value store under
// keys of the form "bundle:<id>". It must be closed when no longer needed.
type BadgerVault struct {
	name string
	db   *badger.DB
}

var (
	_ lai.Vault = (*BadgerVault)(nil)
	_ io.Closer = (*BadgerVault)(nil)
)

// NewBadgerVault opens (or creates) a Badger store in dir. An empty dir
// opens a store that lives only in memory.
func NewBadgerVault(name, dir string) (*BadgerVault, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &BadgerVault{name: name, db: db}, nil
}

// PutBundle stores a bundle, replacing any previous bundle with the same id.
func (v *BadgerVault) PutBundle(id string, r io.Reader, size int64) error {
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

	err = v.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(id), data)
	})
	if err != nil {
		return fmt.Errorf("persist bundle: %w", err)
	}
	return nil
}

// GetBundle writes the stored bundle to w.
func (v *BadgerVault) GetBundle(id string, w io.Writer) error {
	if err := validateID(id); err != nil {
		return err
	}

	var data []byte
	err := v.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", lai.ErrBundleNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	return nil
}

// ValidateSetup checks that the store is open and readable.
func (v *BadgerVault) ValidateSetup() error {
	if v.db.IsClosed() {
		return fmt.Errorf("badger vault %s is closed", v.name)
	}
	return v.db.View(func(*badger.Txn) error { return nil })
}

// Close flushes and closes the store.
func (v *BadgerVault) Close() error {
	return v.db.Close()
}

func badgerKey(id string) []byte {
	return []byte(badgerBundlePrefix + id)
}
