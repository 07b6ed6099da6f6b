package cipher

import (
	"fmt"
	"math/big"

	"lai-go/internal/lai"
)

// Test is a deterministic masking cipher for tests: C2.x = m + k*r mod p with
// fixed k and r. It has no security and exists so pipeline and storage
// behavior can be checked without the cost or randomness of the transform.
type Test struct {
	params lai.Params
	k      *big.Int
	r      *big.Int
}

var _ lai.Cipher = (*Test)(nil)

// NewTest creates a test cipher. It needs only a modulus above 3.
func NewTest(params lai.Params) (*Test, error) {
	if params.P == nil || params.P.Cmp(big.NewInt(3)) <= 0 {
		return nil, fmt.Errorf("test cipher needs a modulus above 3")
	}
	return &Test{params: params, k: big.NewInt(2), r: big.NewInt(3)}, nil
}

func (c *Test) Name() string { return "test" }

func (c *Test) GenerateKey() (*lai.KeyPair, error) {
	return &lai.KeyPair{
		Private: new(big.Int).Set(c.k),
		Public:  lai.Point{X: new(big.Int).Set(c.k), Y: big.NewInt(0)},
	}, nil
}

func (c *Test) Encrypt(m *big.Int, public lai.Point) (*lai.Ciphertext, error) {
	if m == nil || m.Sign() < 0 || m.Cmp(c.params.P) >= 0 {
		return nil, fmt.Errorf("%w: %v", ErrMessageRange, m)
	}
	if public.X == nil {
		return nil, fmt.Errorf("public key is not set")
	}

	x := new(big.Int).Mul(public.X, c.r)
	x.Add(x, m)
	x.Mod(x, c.params.P)

	return &lai.Ciphertext{
		C1: lai.Point{X: new(big.Int).Set(c.r), Y: big.NewInt(0)},
		C2: lai.Point{X: x, Y: big.NewInt(0)},
		R:  new(big.Int).Set(c.r),
	}, nil
}

func (c *Test) Decrypt(ct *lai.Ciphertext, private *big.Int) (*big.Int, error) {
	if ct == nil || ct.R == nil || ct.C1.X == nil || ct.C2.X == nil {
		return nil, fmt.Errorf("%w: incomplete record", ErrInconsistentCiphertext)
	}
	if ct.C1.X.Cmp(ct.R) != 0 {
		return nil, fmt.Errorf("%w: C1 does not match r", ErrInconsistentCiphertext)
	}
	if private == nil {
		return nil, fmt.Errorf("%w: private key is not set", ErrInconsistentCiphertext)
	}

	mask := new(big.Int).Mul(private, ct.R)
	m := new(big.Int).Sub(ct.C2.X, mask)
	return m.Mod(m, c.params.P), nil
}
