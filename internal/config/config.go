package config

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"lai-go/internal/lai"
)

// Config represents the main configuration for lai.
type Config struct {
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Params   ParamsConfig   `toml:"params"`
	Cipher   CipherConfig   `toml:"cipher"`
	Vaults   []VaultConfig  `toml:"vaults"`
	KeyStore KeyStoreConfig `toml:"keystore"`
	Database DatabaseConfig `toml:"database"`
}

// ParamsConfig holds the public parameters as decimal strings, since p is
// usually far larger than any TOML integer.
type ParamsConfig struct {
	P  string   `toml:"p"`
	A  string   `toml:"a"`
	P0 []string `toml:"p0"` // [x, y]
}

// Parse converts the decimal strings into lai.Params.
func (c ParamsConfig) Parse() (lai.Params, error) {
	p, err := parseInt("p", c.P)
	if err != nil {
		return lai.Params{}, err
	}
	a, err := parseInt("a", c.A)
	if err != nil {
		return lai.Params{}, err
	}
	if len(c.P0) != 2 {
		return lai.Params{}, fmt.Errorf("p0 must have 2 coordinates, got %d", len(c.P0))
	}
	x, err := parseInt("p0[0]", c.P0[0])
	if err != nil {
		return lai.Params{}, err
	}
	y, err := parseInt("p0[1]", c.P0[1])
	if err != nil {
		return lai.Params{}, err
	}

	return lai.Params{P: p, A: a, P0: lai.Point{X: x, Y: y}}, nil
}

func parseInt(name, s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%s is not set", name)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s is not a decimal integer: %q", name, s)
	}
	return n, nil
}

// CipherConfig selects the block cipher and how blocks are processed.
type CipherConfig struct {
	Type    string `toml:"type"`    // "lai" (default) or "test"
	Workers int    `toml:"workers"` // concurrent block workers; <= 1 is sequential
	Trace   bool   `toml:"trace"`   // log every transform step at debug level
}

// VaultConfig represents configuration for a vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", "filesystem" or "badger"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // custom endpoint, enables path-style addressing
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`

	// Badger-specific fields (only used when Type == "badger")
	BadgerDir string `toml:"badger_dir,omitempty"` // empty keeps the store in memory
}

// KeyStoreConfig holds the age identity paths and the directory for
// per-bundle private keys.
type KeyStoreConfig struct {
	Type           string `toml:"type"` // "age" (default) or "memory"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	KeyDir         string `toml:"key_dir"`
}

// DatabaseConfig represents configuration for the run history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a Config rooted at baseDir with the default parameters
// p=10007, a=5, P0=(1,0) and a local filesystem vault.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Params: ParamsConfig{
			P:  "10007",
			A:  "5",
			P0: []string{"1", "0"},
		},
		Cipher: CipherConfig{Type: "lai", Workers: 1},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
		},
		KeyStore: KeyStoreConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "lai.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "lai.key"),
			KeyDir:         filepath.Join(baseDir, "keys", "bundles"),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
