package keystore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"lai-go/internal/config"
	"lai-go/internal/lai"
)

// AgeKeyStore implements lai.KeyStore using filippo.io/age with an X25519
// identity. The recipient is stored in plaintext and the identity is
// encrypted with the user's passphrase using age's scrypt-based encryption.
// Each bundle's private key is age-encrypted to the recipient, so sealing
// needs no passphrase:
//
//	<key_dir>/<key id>.key
type AgeKeyStore struct {
	publicKeyPath  string
	privateKeyPath string
	keyDir         string
}

var _ lai.KeyStore = (*AgeKeyStore)(nil)

// NewAgeKeyStore creates a new AgeKeyStore from configuration.
func NewAgeKeyStore(cfg config.KeyStoreConfig) *AgeKeyStore {
	return &AgeKeyStore{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
		keyDir:         cfg.KeyDir,
	}
}

// Setup generates a new X25519 identity, stores the recipient in plaintext,
// and encrypts the identity with the passphrase.
func (s *AgeKeyStore) Setup(passphrase string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, dir := range []string{filepath.Dir(s.publicKeyPath), filepath.Dir(s.privateKeyPath), s.keyDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(s.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	privFile, err := os.OpenFile(s.privateKeyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating private key file: %w", err)
	}
	defer privFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	w, err := age.Encrypt(privFile, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing encrypted private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted private key: %w", err)
	}

	return nil
}

// Store encrypts the private key to the stored recipient. No passphrase is needed.
func (s *AgeKeyStore) Store(id string, private *big.Int) error {
	if err := validateKeyID(id); err != nil {
		return err
	}
	if private == nil {
		return fmt.Errorf("private key is nil")
	}

	recipient, err := s.loadRecipient()
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, private.String()); err != nil {
		return fmt.Errorf("encrypting private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	if err := os.MkdirAll(s.keyDir, 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(keyPath(s.keyDir, id), buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing private key %s: %w", id, err)
	}
	return nil
}

// Unlock decrypts the identity with the passphrase and returns a key ring
// that can read every stored private key for the session.
func (s *AgeKeyStore) Unlock(passphrase string) (lai.KeyRing, error) {
	privData, err := os.ReadFile(s.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(bytes.NewReader(privData), scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	identities, err := age.ParseIdentities(decReader)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in private key")
	}

	return &AgeKeyRing{identity: identities[0], keyDir: s.keyDir}, nil
}

// IsConfigured returns true if both identity files exist.
func (s *AgeKeyStore) IsConfigured() bool {
	if _, err := os.Stat(s.publicKeyPath); err != nil {
		return false
	}
	if _, err := os.Stat(s.privateKeyPath); err != nil {
		return false
	}
	return true
}

func (s *AgeKeyStore) loadRecipient() (age.Recipient, error) {
	pubData, err := os.ReadFile(s.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(pubData))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in public key file")
	}
	return recipients[0], nil
}

// AgeKeyRing holds an unlocked age identity. The identity stays in memory only.
type AgeKeyRing struct {
	identity age.Identity
	keyDir   string
}

var _ lai.KeyRing = (*AgeKeyRing)(nil)

// Load decrypts the private key stored under id.
func (r *AgeKeyRing) Load(id string) (*big.Int, error) {
	if err := validateKeyID(id); err != nil {
		return nil, err
	}

	f, err := os.Open(keyPath(r.keyDir, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", lai.ErrKeyNotFound, id)
		}
		return nil, fmt.Errorf("opening private key %s: %w", id, err)
	}
	defer f.Close()

	decReader, err := age.Decrypt(f, r.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key %s: %w", id, err)
	}

	data, err := io.ReadAll(decReader)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", id, err)
	}

	k, ok := new(big.Int).SetString(strings.TrimSpace(string(data)), 10)
	if !ok {
		return nil, fmt.Errorf("private key %s is not a decimal integer", id)
	}
	return k, nil
}

func keyPath(dir, id string) string {
	return filepath.Join(dir, id+".key")
}

func validateKeyID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid key id: %q", id)
	}
	return nil
}
