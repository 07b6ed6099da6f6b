package lai

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// BundleVersion is the format version written by this package.
// Bundles without a version field are legacy bundles (version 0).
const BundleVersion = 1

// PurposeVerify marks bundles written by a round-trip verification. Their key
// is discarded once the check completes, so they can never be opened.
const PurposeVerify = "verify"

// Bundle is the persisted result of encrypting one plaintext: the public
// parameters, the public key, and one ciphertext record per block, in order.
//
// The private key is never part of a written bundle. LegacyKey is populated
// only when parsing bundles from producers that embedded it.
type Bundle struct {
	Version   int       `json:"version,omitempty"`
	ID        string    `json:"id,omitempty"`
	KeyID     string    `json:"key_id,omitempty"`
	Purpose   string    `json:"purpose,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Length    *int64    `json:"length,omitempty"`
	BlockSize int       `json:"block_size,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`

	Params

	PublicKey Point         `json:"Q"`
	Blocks    []*Ciphertext `json:"blocks"`

	LegacyKey *big.Int `json:"k,omitempty"`
}

// HasLength reports whether the bundle records the original plaintext length.
func (b *Bundle) HasLength() bool {
	return b.Length != nil
}

// MarshalBundle serializes b as indented JSON. LegacyKey is never written.
func MarshalBundle(b *Bundle) ([]byte, error) {
	out := *b
	out.LegacyKey = nil
	if out.Blocks == nil {
		out.Blocks = []*Ciphertext{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling bundle: %w", err)
	}
	return data, nil
}

// ParseBundle parses and structurally validates a bundle. Arithmetic
// consistency of the records is left to the cipher.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBundle, err)
	}

	if b.Version < 0 || b.Version > BundleVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedBundle, b.Version)
	}
	if err := b.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBundle, err)
	}
	if !b.PublicKey.Complete() {
		return nil, fmt.Errorf("%w: public key Q is missing", ErrUnsupportedBundle)
	}
	if b.Length != nil && *b.Length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrUnsupportedBundle, *b.Length)
	}
	for i, ct := range b.Blocks {
		if ct == nil || ct.R == nil || !ct.C1.Complete() || !ct.C2.Complete() {
			return nil, fmt.Errorf("%w: block %d is incomplete", ErrUnsupportedBundle, i)
		}
	}

	return &b, nil
}
