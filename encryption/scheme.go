package encryption

import "math/big"

// Scheme defines the element-wise encryption interface driven by the
// benchmark runner
type Scheme interface {
	// Identity information
	Name() string
	SecurityParam() int

	// Core operations
	Encrypt(plaintext Plaintext, userKey *big.Int, noise *NoiseSampler) ([]Record, error)
	Decrypt(records []Record, userKey *big.Int) ([]*big.Int, error)

	// Storage accounting, in bytes
	ElementSize() int
	RecordSize() int
}
