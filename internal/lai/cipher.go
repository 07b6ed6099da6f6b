package lai

import "math/big"

// Cipher encrypts and decrypts single block integers under fixed public
// parameters. Parameters are bound when the Cipher is constructed.
// Implementations must be safe for concurrent use: the block pipeline may
// call Encrypt or Decrypt from several goroutines at once.
type Cipher interface {
	// Name identifies the cipher in logs and run history.
	Name() string

	// GenerateKey produces a fresh key pair.
	GenerateKey() (*KeyPair, error)

	// Encrypt encrypts m, which must satisfy 0 <= m < p, to the public key.
	Encrypt(m *big.Int, public Point) (*Ciphertext, error)

	// Decrypt recovers the block integer from ct with the private key.
	Decrypt(ct *Ciphertext, private *big.Int) (*big.Int, error)
}
