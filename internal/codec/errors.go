package codec

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrConfiguration is returned when the modulus cannot hold a single byte.
	ErrConfiguration = errors.New("modulus too small for block encoding")
	// ErrEncodingRange is returned when a plaintext chunk encodes to a value >= p.
	ErrEncodingRange = errors.New("block integer out of range")
	// ErrDecodingRange is returned when a decrypted value is outside [0, p).
	ErrDecodingRange = errors.New("decoded integer out of range")
	// ErrLengthOverflow is returned when a decoded value needs more bytes than its block holds.
	ErrLengthOverflow = errors.New("decoded integer exceeds block width")
	// ErrLengthMismatch is returned when the block count does not fit the declared plaintext length.
	ErrLengthMismatch = errors.New("block count does not match plaintext length")
)

// ConfigurationError reports a modulus whose bit length yields a block size below one byte.
type ConfigurationError struct {
	Modulus *big.Int
}

func (e *ConfigurationError) Error() string {
	if e.Modulus == nil {
		return fmt.Sprintf("%s: modulus is nil", ErrConfiguration)
	}
	return fmt.Sprintf("%s: p=%s has bit length %d", ErrConfiguration, e.Modulus, e.Modulus.BitLen())
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// EncodingRangeError reports the first plaintext block whose value reached p.
type EncodingRangeError struct {
	Index int
	Value *big.Int
}

func (e *EncodingRangeError) Error() string {
	return fmt.Sprintf("%s: block %d has value %s", ErrEncodingRange, e.Index, e.Value)
}

func (e *EncodingRangeError) Unwrap() error { return ErrEncodingRange }

// DecodingRangeError reports a block value that is nil, negative, or >= p.
type DecodingRangeError struct {
	Index int
	Value *big.Int
}

func (e *DecodingRangeError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: block %d is missing", ErrDecodingRange, e.Index)
	}
	return fmt.Sprintf("%s: block %d has value %s", ErrDecodingRange, e.Index, e.Value)
}

func (e *DecodingRangeError) Unwrap() error { return ErrDecodingRange }

// LengthOverflowError reports a block value whose minimal encoding is wider than its slot.
type LengthOverflowError struct {
	Index int
	Width int // minimal byte length of the value
	Max   int // bytes available for this block
}

func (e *LengthOverflowError) Error() string {
	return fmt.Sprintf("%s: block %d needs %d bytes, at most %d allowed", ErrLengthOverflow, e.Index, e.Width, e.Max)
}

func (e *LengthOverflowError) Unwrap() error { return ErrLengthOverflow }
