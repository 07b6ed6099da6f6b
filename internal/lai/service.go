package lai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"lai-go/internal/codec"
)

// Service is the orchestration layer: it turns plaintext into stored bundles
// and back, using the codec for block framing and the injected Cipher for
// per-block encryption.
type Service struct {
	params   Params
	codec    *codec.Codec
	cipher   Cipher
	vault    Vault
	keystore KeyStore
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	workers  int
}

// NewService creates a Service. It fails with a *codec.ConfigurationError
// when p cannot hold a single byte, so a bad modulus is rejected before any
// plaintext is read. keystore may be nil for services that only verify.
func NewService(params Params, cipher Cipher, vault Vault, keystore KeyStore, logger Logger, clock Clock, idgen IDGenerator, workers int) (*Service, error) {
	c, err := codec.New(params.P)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	return &Service{
		params:   params,
		codec:    c,
		cipher:   cipher,
		vault:    vault,
		keystore: keystore,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		workers:  workers,
	}, nil
}

// BlockSize returns B for the configured modulus.
func (s *Service) BlockSize() int {
	return s.codec.BlockSize()
}

// Params returns the parameters the service was built with.
func (s *Service) Params() Params {
	return s.params
}

// Seal encrypts data into a new bundle and stores it in the vault. The
// private key goes to the key store under the bundle's key_id.
// source is only used for logging.
func (s *Service) Seal(ctx context.Context, data []byte, source string) (*Bundle, error) {
	if s.keystore == nil {
		return nil, fmt.Errorf("no key store configured")
	}

	s.logger.Info("seal started", "source", source, "length", len(data), "cipher", s.cipher.Name())

	kp, err := s.cipher.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}

	keyID := s.idgen.New()
	if err := s.keystore.Store(keyID, kp.Private); err != nil {
		return nil, fmt.Errorf("storing private key: %w", err)
	}

	bundle, err := s.seal(ctx, data, kp)
	if err != nil {
		return nil, err
	}
	bundle.KeyID = keyID

	if err := s.putBundle(bundle); err != nil {
		return nil, err
	}

	s.logger.Info("bundle sealed", "bundle_id", bundle.ID, "key_id", keyID, "blocks", len(bundle.Blocks))
	return bundle, nil
}

// Open loads a bundle and recovers its plaintext. The private key comes from
// ring by the bundle's key_id, or from the bundle itself for legacy bundles
// that embed it. ring may be nil when only legacy bundles are opened.
func (s *Service) Open(ctx context.Context, bundleID string, ring KeyRing) ([]byte, *Bundle, error) {
	s.logger.Info("open started", "bundle_id", bundleID)

	bundle, err := s.getBundle(bundleID)
	if err != nil {
		return nil, nil, err
	}

	private, err := s.resolvePrivateKey(bundle, ring)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.unseal(ctx, bundle, private)
	if err != nil {
		return nil, nil, err
	}

	if bundle.Checksum != "" {
		if got := checksum(data); got != bundle.Checksum {
			return nil, nil, fmt.Errorf("%w: bundle %s has %s, plaintext hashes to %s", ErrChecksumMismatch, bundle.ID, bundle.Checksum, got)
		}
	}

	s.logger.Info("bundle opened", "bundle_id", bundleID, "length", len(data))
	return data, bundle, nil
}

// VerifyResult summarizes a successful round trip.
type VerifyResult struct {
	BundleID  string
	Length    int64
	Blocks    int
	BlockSize int
	Elapsed   time.Duration
}

// Verify runs the full round trip for data: generate a key pair, encode,
// encrypt, store the bundle, reload it, decrypt, decode and compare. Any
// difference is returned as a *RoundTripMismatchError. The key used for
// verification is kept in memory only, so the stored bundle is marked with
// PurposeVerify and Open refuses it.
func (s *Service) Verify(ctx context.Context, data []byte, source string) (*VerifyResult, error) {
	start := s.clock.Now()
	s.logger.Info("verify started", "source", source, "length", len(data), "cipher", s.cipher.Name())

	kp, err := s.cipher.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}

	bundle, err := s.seal(ctx, data, kp)
	if err != nil {
		return nil, err
	}
	bundle.Purpose = PurposeVerify
	if err := s.putBundle(bundle); err != nil {
		return nil, err
	}
	s.logger.Info("verification bundle kept in vault, it cannot be opened", "bundle_id", bundle.ID)

	loaded, err := s.getBundle(bundle.ID)
	if err != nil {
		return nil, err
	}

	got, err := s.unseal(ctx, loaded, kp.Private)
	if err != nil {
		return nil, err
	}

	if err := compareRoundTrip(data, got); err != nil {
		s.logger.Error("round trip mismatch", "bundle_id", bundle.ID, "error", err)
		return nil, err
	}

	result := &VerifyResult{
		BundleID:  bundle.ID,
		Length:    int64(len(data)),
		Blocks:    len(loaded.Blocks),
		BlockSize: s.codec.BlockSize(),
		Elapsed:   s.clock.Now().Sub(start),
	}
	s.logger.Info("round trip verified", "bundle_id", result.BundleID, "blocks", result.Blocks, "elapsed", result.Elapsed)
	return result, nil
}

// seal encodes and encrypts data into an unsaved bundle without a key id.
func (s *Service) seal(ctx context.Context, data []byte, kp *KeyPair) (*Bundle, error) {
	values, err := s.codec.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding plaintext: %w", err)
	}

	records, err := encryptBlocks(ctx, s.cipher, values, kp.Public, s.workers)
	if err != nil {
		return nil, fmt.Errorf("encrypting blocks: %w", err)
	}

	length := int64(len(data))
	return &Bundle{
		Version:   BundleVersion,
		ID:        s.idgen.New(),
		CreatedAt: s.clock.Now().UTC(),
		Length:    &length,
		BlockSize: s.codec.BlockSize(),
		Checksum:  checksum(data),
		Params:    s.params,
		PublicKey: kp.Public,
		Blocks:    records,
	}, nil
}

// unseal decrypts and decodes a bundle. Legacy bundles without a length are
// decoded with every block padded to B.
func (s *Service) unseal(ctx context.Context, bundle *Bundle, private *big.Int) ([]byte, error) {
	if !bundle.Params.Equal(s.params) {
		return nil, fmt.Errorf("%w: bundle uses p=%s a=%s P0=%s", ErrParamsMismatch, bundle.P, bundle.A, bundle.P0)
	}
	if bundle.BlockSize != 0 && bundle.BlockSize != s.codec.BlockSize() {
		return nil, fmt.Errorf("%w: bundle block size %d, expected %d", ErrParamsMismatch, bundle.BlockSize, s.codec.BlockSize())
	}

	values, err := decryptBlocks(ctx, s.cipher, bundle.Blocks, private, s.workers)
	if err != nil {
		return nil, fmt.Errorf("decrypting blocks: %w", err)
	}

	if !bundle.HasLength() {
		s.logger.Warn("bundle has no length, trailing padding is kept", "bundle_id", bundle.ID)
		data, err := s.codec.DecodePadded(values)
		if err != nil {
			return nil, fmt.Errorf("decoding blocks: %w", err)
		}
		return data, nil
	}

	data, err := s.codec.Decode(values, *bundle.Length)
	if err != nil {
		return nil, fmt.Errorf("decoding blocks: %w", err)
	}
	return data, nil
}

func (s *Service) resolvePrivateKey(bundle *Bundle, ring KeyRing) (*big.Int, error) {
	if bundle.Purpose == PurposeVerify {
		return nil, fmt.Errorf("%w: bundle %s", ErrVerificationBundle, bundle.ID)
	}
	if bundle.KeyID != "" && ring != nil {
		k, err := ring.Load(bundle.KeyID)
		if err != nil {
			return nil, fmt.Errorf("loading private key %s: %w", bundle.KeyID, err)
		}
		return k, nil
	}

	if bundle.LegacyKey != nil {
		s.logger.Warn("using private key embedded in bundle", "bundle_id", bundle.ID)
		return bundle.LegacyKey, nil
	}

	if bundle.KeyID != "" {
		return nil, fmt.Errorf("%w: bundle %s needs key %s and the key store is locked", ErrNoPrivateKey, bundle.ID, bundle.KeyID)
	}
	return nil, fmt.Errorf("%w: bundle %s", ErrNoPrivateKey, bundle.ID)
}

func (s *Service) putBundle(bundle *Bundle) error {
	data, err := MarshalBundle(bundle)
	if err != nil {
		return err
	}
	if err := s.vault.PutBundle(bundle.ID, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("storing bundle %s: %w", bundle.ID, err)
	}
	s.logger.Debug("bundle stored", "bundle_id", bundle.ID, "size", len(data))
	return nil
}

func (s *Service) getBundle(id string) (*Bundle, error) {
	var buf bytes.Buffer
	if err := s.vault.GetBundle(id, &buf); err != nil {
		return nil, fmt.Errorf("loading bundle %s: %w", id, err)
	}

	bundle, err := ParseBundle(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parsing bundle %s: %w", id, err)
	}
	if bundle.ID == "" {
		bundle.ID = id
	}
	return bundle, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
