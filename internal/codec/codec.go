package codec

import (
	"fmt"
	"math/big"
)

// Codec maps byte buffers to integers below a fixed modulus and back.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	modulus   *big.Int
	blockSize int
}

// BlockSize returns the number of bytes that always fit below p:
// floor((bitlen(p) - 1) / 8). It returns a *ConfigurationError when p is nil,
// not greater than one, or too small to hold a single byte.
func BlockSize(p *big.Int) (int, error) {
	if p == nil || p.Cmp(big.NewInt(1)) <= 0 {
		return 0, &ConfigurationError{Modulus: p}
	}

	b := (p.BitLen() - 1) / 8
	if b < 1 {
		return 0, &ConfigurationError{Modulus: p}
	}
	return b, nil
}

// New creates a Codec for modulus p. The modulus is copied.
func New(p *big.Int) (*Codec, error) {
	b, err := BlockSize(p)
	if err != nil {
		return nil, err
	}
	return &Codec{
		modulus:   new(big.Int).Set(p),
		blockSize: b,
	}, nil
}

// BlockSize returns B, the maximum number of plaintext bytes per block.
func (c *Codec) BlockSize() int {
	return c.blockSize
}

// Modulus returns a copy of p.
func (c *Codec) Modulus() *big.Int {
	return new(big.Int).Set(c.modulus)
}

// BlockCount returns the number of blocks a plaintext of the given length encodes to.
func (c *Codec) BlockCount(length int64) int {
	if length <= 0 {
		return 0
	}
	b := int64(c.blockSize)
	return int((length + b - 1) / b)
}

// Encode splits data into chunks of at most B bytes and returns each chunk as
// an unsigned big-endian integer, in order. The final chunk may be shorter.
// Encoding stops at the first value that is not below p and returns an
// *EncodingRangeError naming that block.
func (c *Codec) Encode(data []byte) ([]*big.Int, error) {
	blocks := make([]*big.Int, 0, c.BlockCount(int64(len(data))))

	for i, start := 0, 0; start < len(data); i, start = i+1, start+c.blockSize {
		end := min(start+c.blockSize, len(data))

		m := new(big.Int).SetBytes(data[start:end])
		if m.Cmp(c.modulus) >= 0 {
			return nil, &EncodingRangeError{Index: i, Value: m}
		}
		blocks = append(blocks, m)
	}

	return blocks, nil
}

// Decode reverses Encode. length is the original plaintext length; it fixes
// both the number of blocks expected and the width of the final block, which
// is the only block that may be shorter than B.
func (c *Codec) Decode(values []*big.Int, length int64) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrLengthMismatch, length)
	}
	if want := c.BlockCount(length); len(values) != want {
		return nil, fmt.Errorf("%w: got %d blocks, length %d needs %d", ErrLengthMismatch, len(values), length, want)
	}

	out := make([]byte, 0, len(values)*c.blockSize)
	for i, m := range values {
		width := c.blockSize
		if i == len(values)-1 {
			width = int(length - int64(i)*int64(c.blockSize))
		}

		var err error
		out, err = c.appendBlock(out, i, m, width)
		if err != nil {
			return nil, err
		}
	}

	return out[:length], nil
}

// DecodePadded decodes values with every block padded to B bytes and no
// truncation. It is meant for bundles that do not record the plaintext
// length, so trailing zero bytes of a short final chunk cannot be told apart
// from content.
func (c *Codec) DecodePadded(values []*big.Int) ([]byte, error) {
	out := make([]byte, 0, len(values)*c.blockSize)
	for i, m := range values {
		var err error
		out, err = c.appendBlock(out, i, m, c.blockSize)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// appendBlock validates m and appends it to out as exactly width big-endian bytes.
func (c *Codec) appendBlock(out []byte, index int, m *big.Int, width int) ([]byte, error) {
	if m == nil || m.Sign() < 0 || m.Cmp(c.modulus) >= 0 {
		return nil, &DecodingRangeError{Index: index, Value: m}
	}

	// Zero still occupies a byte.
	raw := []byte{0}
	if m.Sign() > 0 {
		raw = m.Bytes()
	}

	if len(raw) > width {
		return nil, &LengthOverflowError{Index: index, Width: len(raw), Max: width}
	}

	for range width - len(raw) {
		out = append(out, 0)
	}
	return append(out, raw...), nil
}
