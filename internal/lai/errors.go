package lai

import (
	"errors"
	"fmt"
)

var (
	// ErrRoundTripMismatch is returned when decoded output differs from the original input.
	ErrRoundTripMismatch = errors.New("round trip mismatch")
	// ErrChecksumMismatch is returned when recovered plaintext does not hash to the bundle checksum.
	ErrChecksumMismatch = errors.New("plaintext checksum mismatch")
	// ErrParamsMismatch is returned when a bundle was produced under different parameters.
	ErrParamsMismatch = errors.New("bundle parameters do not match")
	// ErrUnsupportedBundle is returned for bundles that cannot be parsed or are of an unknown version.
	ErrUnsupportedBundle = errors.New("unsupported bundle")
	// ErrNoPrivateKey is returned when neither the key ring nor the bundle can supply a private key.
	ErrNoPrivateKey = errors.New("no private key available")
	// ErrVerificationBundle is returned when opening a bundle written by a verification run.
	ErrVerificationBundle = errors.New("verification bundle has no stored key")
)

// RoundTripMismatchError reports the first byte offset where the recovered
// plaintext differs from the original. When one buffer is a prefix of the
// other, Offset is the length of the shorter one.
type RoundTripMismatchError struct {
	Offset  int
	WantLen int
	GotLen  int
}

func (e *RoundTripMismatchError) Error() string {
	return fmt.Sprintf("%s: first difference at offset %d (want %d bytes, got %d)", ErrRoundTripMismatch, e.Offset, e.WantLen, e.GotLen)
}

func (e *RoundTripMismatchError) Unwrap() error { return ErrRoundTripMismatch }

// compareRoundTrip returns nil when got equals want, or a *RoundTripMismatchError.
func compareRoundTrip(want, got []byte) error {
	n := min(len(want), len(got))
	for i := range n {
		if want[i] != got[i] {
			return &RoundTripMismatchError{Offset: i, WantLen: len(want), GotLen: len(got)}
		}
	}
	if len(want) != len(got) {
		return &RoundTripMismatchError{Offset: n, WantLen: len(want), GotLen: len(got)}
	}
	return nil
}
