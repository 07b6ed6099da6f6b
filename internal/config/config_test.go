package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/lai",
		LogDir:  "/home/user/.local/share/lai/log",
		Params: ParamsConfig{
			P:  "170141183460469231731687303715884105727",
			A:  "7",
			P0: []string{"3", "11"},
		},
		Cipher: CipherConfig{Type: "lai", Workers: 4, Trace: true},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/srv/lai/vault"},
			{Type: "s3", Name: "remote", S3Bucket: "bundles", S3Prefix: "lai", S3Endpoint: "http://localhost:9000"},
			{Type: "badger", Name: "kv", BadgerDir: "/srv/lai/badger"},
		},
		KeyStore: KeyStoreConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/lai/keys/lai.pub",
			PrivateKeyPath: "/home/user/.local/share/lai/keys/lai.key",
			KeyDir:         "/home/user/.local/share/lai/keys/bundles",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/lai/db"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Params.P != original.Params.P {
		t.Errorf("Params.P = %q, want %q", got.Params.P, original.Params.P)
	}
	if len(got.Params.P0) != 2 || got.Params.P0[1] != "11" {
		t.Errorf("Params.P0 = %v, want [3 11]", got.Params.P0)
	}
	if got.Cipher != original.Cipher {
		t.Errorf("Cipher = %+v, want %+v", got.Cipher, original.Cipher)
	}
	if len(got.Vaults) != 3 {
		t.Fatalf("len(Vaults) = %d, want 3", len(got.Vaults))
	}
	if got.Vaults[0].FSVaultRoot != "/srv/lai/vault" {
		t.Errorf("Vaults[0].FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/srv/lai/vault")
	}
	if got.Vaults[1].S3Endpoint != "http://localhost:9000" {
		t.Errorf("Vaults[1].S3Endpoint = %q, want %q", got.Vaults[1].S3Endpoint, "http://localhost:9000")
	}
	if got.Vaults[2].BadgerDir != "/srv/lai/badger" {
		t.Errorf("Vaults[2].BadgerDir = %q, want %q", got.Vaults[2].BadgerDir, "/srv/lai/badger")
	}
	if got.KeyStore != original.KeyStore {
		t.Errorf("KeyStore = %+v, want %+v", got.KeyStore, original.KeyStore)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
}

func TestManager_Read_BigIntegersAsStrings(t *testing.T) {
	input := `
base_dir = "/data/lai"

[params]
p = "115792089210356248762697446949083761122643549798226095386085302283766452957163"
a = "5"
p0 = ["1", "0"]
`
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	params, err := cfg.Params.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if params.P.BitLen() != 256 {
		t.Errorf("P.BitLen() = %d, want 256", params.P.BitLen())
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/lai")

	if cfg.BaseDir != "/data/lai" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/lai")
	}
	if cfg.LogDir != "/data/lai/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/lai/log")
	}
	if cfg.KeyStore.PublicKeyPath != "/data/lai/keys/lai.pub" {
		t.Errorf("KeyStore.PublicKeyPath = %q, want %q", cfg.KeyStore.PublicKeyPath, "/data/lai/keys/lai.pub")
	}
	if cfg.KeyStore.KeyDir != "/data/lai/keys/bundles" {
		t.Errorf("KeyStore.KeyDir = %q, want %q", cfg.KeyStore.KeyDir, "/data/lai/keys/bundles")
	}
	if cfg.Cipher.Type != "lai" || cfg.Cipher.Workers != 1 {
		t.Errorf("Cipher = %+v, want type lai with 1 worker", cfg.Cipher)
	}

	params, err := cfg.Params.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if params.P.Int64() != 10007 || params.A.Int64() != 5 {
		t.Errorf("params = p=%s a=%s, want p=10007 a=5", params.P, params.A)
	}
	if params.P0.X.Int64() != 1 || params.P0.Y.Int64() != 0 {
		t.Errorf("P0 = %s, want (1, 0)", params.P0)
	}
}

func TestParamsConfig_Parse_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  ParamsConfig
	}{
		{name: "missing p", cfg: ParamsConfig{A: "5", P0: []string{"1", "0"}}},
		{name: "non-decimal p", cfg: ParamsConfig{P: "0x2717", A: "5", P0: []string{"1", "0"}}},
		{name: "missing a", cfg: ParamsConfig{P: "10007", P0: []string{"1", "0"}}},
		{name: "short base point", cfg: ParamsConfig{P: "10007", A: "5", P0: []string{"1"}}},
		{name: "bad base point coordinate", cfg: ParamsConfig{P: "10007", A: "5", P0: []string{"1", "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Parse(); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "lai.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "lai.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "lai.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
		if got.Params.P != "10007" {
			t.Errorf("Params.P = %q, want %q", got.Params.P, "10007")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/lai.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
