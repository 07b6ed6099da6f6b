package lai

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Point is an element of the transform group, serialized as a JSON array [x, y].
type Point struct {
	X *big.Int
	Y *big.Int
}

// NewPoint builds a Point from machine integers. Convenient in tests and defaults.
func NewPoint(x, y int64) Point {
	return Point{X: big.NewInt(x), Y: big.NewInt(y)}
}

// Equal reports whether both coordinates are set and equal.
func (p Point) Equal(o Point) bool {
	if !p.Complete() || !o.Complete() {
		return false
	}
	return p.X.Cmp(o.X) == 0 && p.Y.Cmp(o.Y) == 0
}

// Complete reports whether both coordinates are set.
func (p Point) Complete() bool {
	return p.X != nil && p.Y != nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", p.X, p.Y)
}

func (p Point) MarshalJSON() ([]byte, error) {
	if !p.Complete() {
		return nil, fmt.Errorf("marshaling point: missing coordinate")
	}
	return json.Marshal([2]*big.Int{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var coords []*big.Int
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("point must be an array of two integers: %w", err)
	}
	if len(coords) != 2 {
		return fmt.Errorf("point must have 2 coordinates, got %d", len(coords))
	}
	if coords[0] == nil || coords[1] == nil {
		return fmt.Errorf("point coordinates must not be null")
	}
	p.X, p.Y = coords[0], coords[1]
	return nil
}

// Params are the public parameters every component is built from:
// the prime modulus p, the transform parameter a, and the base point P0.
// Params are treated as immutable once constructed.
type Params struct {
	P  *big.Int `json:"p"`
	A  *big.Int `json:"a"`
	P0 Point    `json:"P0"`
}

// Validate checks that every parameter is present and that the base point
// lies in [0, p) x [0, p).
func (p Params) Validate() error {
	if p.P == nil {
		return fmt.Errorf("modulus p is not set")
	}
	if p.A == nil {
		return fmt.Errorf("parameter a is not set")
	}
	if !p.P0.Complete() {
		return fmt.Errorf("base point P0 is not set")
	}
	for _, c := range []*big.Int{p.P0.X, p.P0.Y} {
		if c.Sign() < 0 || c.Cmp(p.P) >= 0 {
			return fmt.Errorf("base point %s is outside [0, p)", p.P0)
		}
	}
	return nil
}

// Equal reports whether both parameter sets are complete and identical.
func (p Params) Equal(o Params) bool {
	if p.P == nil || o.P == nil || p.A == nil || o.A == nil {
		return false
	}
	return p.P.Cmp(o.P) == 0 && p.A.Cmp(o.A) == 0 && p.P0.Equal(o.P0)
}

// KeyPair is produced by a Cipher. Private is the scalar k; Public is Q.
type KeyPair struct {
	Private *big.Int
	Public  Point
}

// Ciphertext is the encryption of one block integer.
type Ciphertext struct {
	C1 Point    `json:"C1"`
	C2 Point    `json:"C2"`
	R  *big.Int `json:"r"`
}
