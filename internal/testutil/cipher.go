package testutil

import (
	"math/big"
	"testing"

	"lai-go/internal/cipher"
	"lai-go/internal/lai"
)

// SmallParams returns p = 10007, a = 5, P0 = (1, 0). B is 1 for this modulus.
func SmallParams() lai.Params {
	return lai.Params{P: big.NewInt(10007), A: big.NewInt(5), P0: lai.NewPoint(1, 0)}
}

// WideParams returns p = 131071 (2^17 - 1), which gives B = 2.
func WideParams() lai.Params {
	return lai.Params{P: big.NewInt(131071), A: big.NewInt(5), P0: lai.NewPoint(1, 0)}
}

// NewTestCipher creates the deterministic test cipher for params.
func NewTestCipher(t *testing.T, params lai.Params) lai.Cipher {
	t.Helper()

	c, err := cipher.NewTest(params)
	if err != nil {
		t.Fatalf("failed to create test cipher: %v", err)
	}
	return c
}
