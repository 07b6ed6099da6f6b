package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"lai-go/internal/lai"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// Bundles are stored as JSON files:
//
//	<root>/
//	  bundles/
//	    <id>.json
type FileSystemVault struct {
	name      string
	root      string
	bundleDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	bundleDir := filepath.Join(root, "bundles")

	if err := os.MkdirAll(bundleDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	return &FileSystemVault{
		name:      name,
		root:      root,
		bundleDir: bundleDir,
	}, nil
}

// PutBundle writes the bundle atomically, replacing any existing file.
func (v *FileSystemVault) PutBundle(id string, r io.Reader, size int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	return v.writeFile(v.bundlePath(id), r, size)
}

// GetBundle writes the stored bundle to w.
func (v *FileSystemVault) GetBundle(id string, w io.Writer) error {
	if err := validateID(id); err != nil {
		return err
	}

	f, err := os.Open(v.bundlePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", lai.ErrBundleNotFound, id)
		}
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.bundleDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

func (v *FileSystemVault) bundlePath(id string) string {
	return filepath.Join(v.bundleDir, id+".json")
}

// writeFile writes data from r to destPath using a temp file in the same
// directory and a rename, so readers never see a partial bundle.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ lai.Vault = (*FileSystemVault)(nil)
