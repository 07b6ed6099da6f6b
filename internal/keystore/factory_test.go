package keystore

import (
	"path/filepath"
	"testing"

	"lai-go/internal/config"
)

func TestNewKeyStoreFromConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.KeyStoreConfig
		wantErr bool
	}{
		{
			name: "age",
			cfg: config.KeyStoreConfig{
				Type:           "age",
				PublicKeyPath:  filepath.Join(dir, "lai.pub"),
				PrivateKeyPath: filepath.Join(dir, "lai.key"),
				KeyDir:         filepath.Join(dir, "bundles"),
			},
		},
		{name: "age without paths", cfg: config.KeyStoreConfig{Type: "age"}, wantErr: true},
		{name: "memory", cfg: config.KeyStoreConfig{Type: "memory"}},
		{name: "unknown", cfg: config.KeyStoreConfig{Type: "hsm"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewKeyStoreFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewKeyStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("NewKeyStoreFromConfig() returned nil key store")
			}
		})
	}
}
