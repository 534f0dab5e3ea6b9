package encryption

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrKeyGeneration     = errors.New("generated invalid public value with zero value")
	ErrInvalidParameters = errors.New("invalid key space parameters")
	ErrUserIndex         = errors.New("user index out of range")
)

// KeySpace holds the master secret keys and the master public values of all
// registered users.
//
// Every user shares one arithmetic modulus, taken from the public value of
// user 0. Only the public value differs per user. This coupling is part of
// the scheme and must not be replaced by per-user moduli.
type KeySpace struct {
	securityParam int
	baseModulus   *big.Int
	secretKeys    []*big.Int
	publicValues  []*big.Int
}

// Setup generates numUsers secret keys uniformly in [1, 2^securityParam - 1]
// and derives their public values 2^sk mod (2^securityParam - 1).
func Setup(numUsers, securityParam int, prng PRNG) (*KeySpace, error) {
	if numUsers < 1 {
		return nil, fmt.Errorf("%w: need at least one user, got %d", ErrInvalidParameters, numUsers)
	}
	if securityParam < 1 {
		return nil, fmt.Errorf("%w: security parameter must be positive, got %d", ErrInvalidParameters, securityParam)
	}

	base := baseModulus(securityParam)
	secretKeys := make([]*big.Int, numUsers)
	for i := range secretKeys {
		// rand.Int draws from [0, base-1], shift to [1, base]
		sk, err := rand.Int(prng, base)
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret key %d: %w", i, err)
		}
		secretKeys[i] = sk.Add(sk, big.NewInt(1))
	}

	return newKeySpace(securityParam, base, secretKeys)
}

// SetupFromKeys builds a KeySpace around caller-supplied secret keys.
func SetupFromKeys(securityParam int, secretKeys []*big.Int) (*KeySpace, error) {
	if len(secretKeys) == 0 {
		return nil, fmt.Errorf("%w: need at least one secret key", ErrInvalidParameters)
	}
	if securityParam < 1 {
		return nil, fmt.Errorf("%w: security parameter must be positive, got %d", ErrInvalidParameters, securityParam)
	}

	keys := make([]*big.Int, len(secretKeys))
	for i, sk := range secretKeys {
		if sk == nil || sk.Sign() <= 0 {
			return nil, fmt.Errorf("%w: secret key %d must be positive", ErrInvalidParameters, i)
		}
		keys[i] = new(big.Int).Set(sk)
	}

	return newKeySpace(securityParam, baseModulus(securityParam), keys)
}

func newKeySpace(securityParam int, base *big.Int, secretKeys []*big.Int) (*KeySpace, error) {
	two := big.NewInt(2)
	publicValues := make([]*big.Int, len(secretKeys))
	for i, sk := range secretKeys {
		publicValues[i] = new(big.Int).Exp(two, sk, base)
		if publicValues[i].Sign() == 0 {
			return nil, fmt.Errorf("%w: user %d", ErrKeyGeneration, i)
		}
	}

	return &KeySpace{
		securityParam: securityParam,
		baseModulus:   base,
		secretKeys:    secretKeys,
		publicValues:  publicValues,
	}, nil
}

// baseModulus returns 2^bits - 1
func baseModulus(bits int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return m.Sub(m, big.NewInt(1))
}

// SecurityParam returns the bit length the keys were generated for
func (ks *KeySpace) SecurityParam() int {
	return ks.securityParam
}

func (ks *KeySpace) NumUsers() int {
	return len(ks.secretKeys)
}

// BaseModulus returns 2^securityParam - 1.
func (ks *KeySpace) BaseModulus() *big.Int {
	return new(big.Int).Set(ks.baseModulus)
}

// Modulus returns the modulus used for all cipher arithmetic, which is the
// public value of user 0.
func (ks *KeySpace) Modulus() *big.Int {
	return new(big.Int).Set(ks.publicValues[0])
}

// PublicValues returns a copy of the master public values
func (ks *KeySpace) PublicValues() []*big.Int {
	return copyInts(ks.publicValues)
}

// SecretKeys returns a copy of the master secret keys
func (ks *KeySpace) SecretKeys() []*big.Int {
	return copyInts(ks.secretKeys)
}

// KeyDerivation returns the secret key of the user at index.
func (ks *KeySpace) KeyDerivation(index int) (*big.Int, error) {
	if index < 0 || index >= len(ks.secretKeys) {
		return nil, fmt.Errorf("%w: index %d, have %d users", ErrUserIndex, index, len(ks.secretKeys))
	}
	return new(big.Int).Set(ks.secretKeys[index]), nil
}

// Fingerprint returns a Keccak-256 digest of the public values, suitable
// for logs. Secret keys never enter the digest.
func (ks *KeySpace) Fingerprint() string {
	data := make([][]byte, len(ks.publicValues))
	for i, pv := range ks.publicValues {
		data[i] = pv.Bytes()
	}
	return hexutil.Encode(crypto.Keccak256(data...))
}

func copyInts(in []*big.Int) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, v := range in {
		out[i] = new(big.Int).Set(v)
	}
	return out
}
