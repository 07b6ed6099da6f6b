package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lai-go/internal/cipher"
	"lai-go/internal/codec"
	"lai-go/internal/config"
	"lai-go/internal/database"
	"lai-go/internal/keystore"
	"lai-go/internal/lai"
	"lai-go/internal/model"
	"lai-go/internal/vault"
)

// LaiApp is the application layer between the CLI and lai.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw paths, and records each command as a run.
type LaiApp struct {
	cfg      *config.Config
	params   lai.Params
	db       lai.Database
	vault    lai.Vault
	keystore lai.KeyStore
	cipher   lai.Cipher
	service  *lai.Service
	clock    lai.Clock
	op       *Operation
	logFile  io.Closer
}

// NewLaiApp creates a fully wired LaiApp from the given config.
// operation names the CLI command being run (e.g. "seal", "verify").
// A modulus too small for one byte per block is rejected here, before any
// storage is opened. The caller must call Close when done.
func NewLaiApp(cfg *config.Config, operation string) (*LaiApp, error) {
	params, err := cfg.Params.Parse()
	if err != nil {
		return nil, fmt.Errorf("reading parameters: %w", err)
	}
	if _, err := codec.BlockSize(params.P); err != nil {
		return nil, err
	}

	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	ks, err := keystore.NewKeyStoreFromConfig(cfg.KeyStore)
	if err != nil {
		closeVault(v)
		return nil, fmt.Errorf("creating key store: %w", err)
	}

	clock := lai.RealClock{}
	idgen := lai.UUIDGenerator{}
	op := NewOperation(idgen.New(), operation, clock.Now().UTC())

	logger, logFile, err := newLogger(cfg.LogDir, op.Run.ID, cfg.Cipher.Trace)
	if err != nil {
		closeVault(v)
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	c, err := cipher.NewCipherFromConfig(cfg.Cipher, params, adapter)
	if err != nil {
		closeVault(v)
		logFile.Close()
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	svc, err := lai.NewService(params, c, v, ks, adapter, clock, idgen, cfg.Cipher.Workers)
	if err != nil {
		closeVault(v)
		logFile.Close()
		return nil, fmt.Errorf("creating service: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		closeVault(v)
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		closeVault(v)
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	return &LaiApp{
		cfg:      cfg,
		params:   params,
		db:       db,
		vault:    v,
		keystore: ks,
		cipher:   c,
		service:  svc,
		clock:    clock,
		op:       op,
		logFile:  logFile,
	}, nil
}

// persistOperation saves the run to the database so it shows in history.
// Read-only commands never call it.
func (a *LaiApp) persistOperation(source string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Run.Source = source
	if err := a.db.CreateRun(a.op.Run); err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}
	a.op.persisted = true
	return nil
}

// record marks the run failed when err is non-nil and returns err unchanged.
func (a *LaiApp) record(err error) error {
	a.op.Fail(err)
	return err
}

// Params returns the parsed public parameters.
func (a *LaiApp) Params() lai.Params {
	return a.params
}

// BlockSize returns B for the configured modulus.
func (a *LaiApp) BlockSize() int {
	return a.service.BlockSize()
}

// CipherName returns the name of the configured cipher.
func (a *LaiApp) CipherName() string {
	return a.cipher.Name()
}

// KeysConfigured reports whether the key store has been set up.
func (a *LaiApp) KeysConfigured() bool {
	return a.keystore.IsConfigured()
}

// SetupKeys initializes the key store. It refuses to replace an existing setup,
// since that would orphan every key stored so far.
func (a *LaiApp) SetupKeys(passphrase string) error {
	if a.keystore.IsConfigured() {
		return fmt.Errorf("key store is already set up")
	}
	if err := a.keystore.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up key store: %w", err)
	}
	return nil
}

// Seal reads the file at rawPath, encrypts it into a new bundle and stores it.
func (a *LaiApp) Seal(ctx context.Context, rawPath string) (*lai.Bundle, error) {
	path, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.persistOperation(path); err != nil {
		return nil, err
	}

	if !a.keystore.IsConfigured() {
		return nil, a.record(fmt.Errorf("key store is not set up: run 'lai keys init' first"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, a.record(fmt.Errorf("reading input: %w", err))
	}

	bundle, err := a.service.Seal(ctx, data, path)
	if err != nil {
		return nil, a.record(err)
	}

	a.op.Run.BundleID = bundle.ID
	a.op.Run.Length = int64(len(data))
	a.op.Run.Blocks = len(bundle.Blocks)
	return bundle, nil
}

// Open recovers the plaintext of the bundle with the given id. passphrase
// unlocks the key store; it is ignored when no key store has been set up,
// in which case only bundles that embed their key can be opened.
func (a *LaiApp) Open(ctx context.Context, bundleID, passphrase string) ([]byte, *lai.Bundle, error) {
	if err := a.persistOperation(bundleID); err != nil {
		return nil, nil, err
	}
	a.op.Run.BundleID = bundleID

	var ring lai.KeyRing
	if a.keystore.IsConfigured() {
		r, err := a.keystore.Unlock(passphrase)
		if err != nil {
			return nil, nil, a.record(fmt.Errorf("unlocking key store: %w", err))
		}
		ring = r
	}

	data, bundle, err := a.service.Open(ctx, bundleID, ring)
	if err != nil {
		return nil, nil, a.record(err)
	}

	a.op.Run.Length = int64(len(data))
	a.op.Run.Blocks = len(bundle.Blocks)
	return data, bundle, nil
}

// Verify runs the full round trip on the file at rawPath.
func (a *LaiApp) Verify(ctx context.Context, rawPath string) (*lai.VerifyResult, error) {
	path, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.persistOperation(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, a.record(fmt.Errorf("reading input: %w", err))
	}
	a.op.Run.Length = int64(len(data))

	res, err := a.service.Verify(ctx, data, path)
	if err != nil {
		return nil, a.record(err)
	}

	a.op.Run.BundleID = res.BundleID
	a.op.Run.Blocks = res.Blocks
	return res, nil
}

// ValidateVault checks that the configured vault is reachable.
func (a *LaiApp) ValidateVault() error {
	if err := a.vault.ValidateSetup(); err != nil {
		return fmt.Errorf("vault %s: %w", a.cfg.Vaults[0].Name, err)
	}
	return nil
}

// History returns the most recent runs, newest first.
func (a *LaiApp) History(limit int) ([]*model.Run, error) {
	return a.db.ListRuns(limit)
}

// Close finishes the run record, if one was persisted, and releases resources.
func (a *LaiApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		a.op.Finish(a.clock.Now().UTC())
		if err := a.db.FinishRun(a.op.Run); err != nil {
			firstErr = fmt.Errorf("finishing run: %w", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if err := closeVault(a.vault); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing vault: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// closeVault closes vaults that hold open resources, such as the badger store.
func closeVault(v lai.Vault) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
