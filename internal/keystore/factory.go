package keystore

import (
	"fmt"

	"lai-go/internal/config"
	"lai-go/internal/lai"
)

// NewKeyStoreFromConfig creates a KeyStore based on the configuration type.
func NewKeyStoreFromConfig(cfg config.KeyStoreConfig) (lai.KeyStore, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" || cfg.KeyDir == "" {
			return nil, fmt.Errorf("age key store requires public_key_path, private_key_path and key_dir")
		}
		return NewAgeKeyStore(cfg), nil
	case "memory":
		return NewMemoryKeyStore(), nil
	default:
		return nil, fmt.Errorf("unknown key store type: %q", cfg.Type)
	}
}
