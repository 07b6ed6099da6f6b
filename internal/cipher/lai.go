package cipher

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"lai-go/internal/lai"
)

var (
	// ErrTransform is returned when T finds no square root within its retry window.
	ErrTransform = errors.New("transform has no square root")
	// ErrInconsistentCiphertext is returned when a record does not match the key it is decrypted with.
	ErrInconsistentCiphertext = errors.New("inconsistent ciphertext")
	// ErrMessageRange is returned when a block integer is outside [0, p).
	ErrMessageRange = errors.New("message outside [0, p)")
)

const (
	transformAttempts = 10
	keygenAttempts    = 100
	encryptAttempts   = 100
)

var one = big.NewInt(1)

// LAI is the transform cipher. Each step T hashes the current point with a
// step counter s, halves x+a+H, and takes a square root for y. PowT applies T
// for each set bit of an exponent, advancing s once per bit.
//
// Keys are k in [1, p-1] with Q = PowT(P0, 1, k). Encryption draws r and
// masks m with the x coordinate of S = PowT(Q, 1, r).
type LAI struct {
	params lai.Params
	inv2   *big.Int
	logger lai.Logger
	trace  bool

	// public keys recomputed during decryption, by decimal k
	publics sync.Map
}

var _ lai.Cipher = (*LAI)(nil)

// NewLAI creates the transform cipher. p must be an odd prime, since T
// takes modular square roots and halves modulo p.
func NewLAI(params lai.Params, logger lai.Logger, trace bool) (*LAI, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.P.Bit(0) == 0 || !params.P.ProbablyPrime(20) {
		return nil, fmt.Errorf("modulus %s is not an odd prime", params.P)
	}

	if logger == nil {
		logger = lai.NewNopLogger()
	}

	return &LAI{
		params: params,
		inv2:   new(big.Int).ModInverse(big.NewInt(2), params.P),
		logger: logger,
		trace:  trace,
	}, nil
}

func (c *LAI) Name() string { return "lai" }

func (c *LAI) GenerateKey() (*lai.KeyPair, error) {
	var lastErr error
	for range keygenAttempts {
		k, err := c.randomScalar()
		if err != nil {
			return nil, err
		}
		q, err := c.PowT(c.params.P0, one, k)
		if err != nil {
			lastErr = err
			continue
		}
		return &lai.KeyPair{Private: k, Public: q}, nil
	}
	return nil, fmt.Errorf("key generation failed after %d attempts: %w", keygenAttempts, lastErr)
}

func (c *LAI) Encrypt(m *big.Int, public lai.Point) (*lai.Ciphertext, error) {
	if m == nil || m.Sign() < 0 || m.Cmp(c.params.P) >= 0 {
		return nil, fmt.Errorf("%w: %v", ErrMessageRange, m)
	}

	var lastErr error
	for range encryptAttempts {
		r, err := c.randomScalar()
		if err != nil {
			return nil, err
		}

		c1, err := c.PowT(c.params.P0, one, r)
		if err != nil {
			lastErr = err
			continue
		}
		s, err := c.PowT(public, one, r)
		if err != nil {
			lastErr = err
			continue
		}

		x := new(big.Int).Add(m, s.X)
		x.Mod(x, c.params.P)
		return &lai.Ciphertext{
			C1: c1,
			C2: lai.Point{X: x, Y: new(big.Int).Set(s.Y)},
			R:  r,
		}, nil
	}
	return nil, fmt.Errorf("encryption failed after %d attempts: %w", encryptAttempts, lastErr)
}

func (c *LAI) Decrypt(ct *lai.Ciphertext, private *big.Int) (*big.Int, error) {
	if ct == nil || ct.R == nil || ct.C1.X == nil || ct.C2.X == nil || ct.C2.Y == nil {
		return nil, fmt.Errorf("%w: incomplete record", ErrInconsistentCiphertext)
	}
	if private == nil || private.Sign() <= 0 {
		return nil, fmt.Errorf("%w: private key must be positive", ErrInconsistentCiphertext)
	}

	q, err := c.public(private)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}

	c1, err := c.PowT(c.params.P0, one, ct.R)
	if err != nil {
		return nil, err
	}
	if !c1.Equal(ct.C1) {
		return nil, fmt.Errorf("%w: C1 does not match r", ErrInconsistentCiphertext)
	}

	s, err := c.PowT(q, one, ct.R)
	if err != nil {
		return nil, err
	}
	if s.Y.Cmp(ct.C2.Y) != 0 {
		return nil, fmt.Errorf("%w: C2 was not produced for this key", ErrInconsistentCiphertext)
	}

	m := new(big.Int).Sub(ct.C2.X, s.X)
	return m.Mod(m, c.params.P), nil
}

// PowT applies T to pt once for every set bit of e, least significant bit
// first. s starts at s0 and advances by one per bit whether or not the bit is set.
func (c *LAI) PowT(pt lai.Point, s0, e *big.Int) (lai.Point, error) {
	result := lai.Point{X: new(big.Int).Set(pt.X), Y: new(big.Int).Set(pt.Y)}
	s := new(big.Int).Set(s0)

	for i := range e.BitLen() {
		if e.Bit(i) == 1 {
			next, err := c.T(result, s)
			if err != nil {
				return lai.Point{}, err
			}
			result = next
		}
		s.Add(s, one)
	}
	return result, nil
}

// T is one transform step. When x*y+H has no square root modulo p, the step
// is retried with s+1, up to ten times.
func (c *LAI) T(pt lai.Point, s *big.Int) (lai.Point, error) {
	p := c.params.P
	cur := new(big.Int).Set(s)

	for attempt := range transformAttempts {
		h := c.H(pt.X, pt.Y, cur)

		x := new(big.Int).Add(pt.X, c.params.A)
		x.Add(x, h)
		x.Mul(x, c.inv2)
		x.Mod(x, p)

		y2 := new(big.Int).Mul(pt.X, pt.Y)
		y2.Add(y2, h)
		y2.Mod(y2, p)

		y := new(big.Int).ModSqrt(y2, p)

		if c.trace {
			c.logger.Debug("transform step", "attempt", attempt, "s", cur, "h", h, "x", x, "y2", y2, "y", y)
		}

		if y != nil {
			return lai.Point{X: x, Y: y}, nil
		}
		cur.Add(cur, one)
	}
	return lai.Point{}, fmt.Errorf("%w: point %s, s=%s", ErrTransform, pt, s)
}

// H hashes the minimal big-endian encodings of x, y and s with SHA-256 and
// reduces the digest modulo p. Zero encodes as a single zero byte.
func (c *LAI) H(x, y, s *big.Int) *big.Int {
	h := sha256.New()
	for _, v := range []*big.Int{x, y, s} {
		h.Write(minimalBytes(v))
	}
	d := new(big.Int).SetBytes(h.Sum(nil))
	return d.Mod(d, c.params.P)
}

func (c *LAI) public(private *big.Int) (lai.Point, error) {
	key := private.String()
	if q, ok := c.publics.Load(key); ok {
		return q.(lai.Point), nil
	}

	q, err := c.PowT(c.params.P0, one, private)
	if err != nil {
		return lai.Point{}, err
	}
	c.publics.Store(key, q)
	return q, nil
}

// randomScalar returns a uniform integer in [1, p-1].
func (c *LAI) randomScalar() (*big.Int, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Sub(c.params.P, one))
	if err != nil {
		return nil, fmt.Errorf("reading randomness: %w", err)
	}
	return n.Add(n, one), nil
}

func minimalBytes(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	return v.Bytes()
}
