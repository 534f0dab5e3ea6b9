package encryption

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	// ElementSize is the nominal width of a plaintext element in bytes.
	ElementSize = 4
	// RecordSize is the nominal width of a (cipher, noise) record in bytes.
	RecordSize = 8
)

var (
	ErrInvalidUserKey  = errors.New("user key must be positive")
	ErrMalformedRecord = errors.New("malformed encrypted record")
)

// Plaintext is an ordered sequence of non-negative integers
type Plaintext []uint64

// Record is one encrypted element. The noise is carried in the clear so
// decryption can subtract it again.
type Record struct {
	Cipher *big.Int `json:"cipher"`
	Noise  uint64   `json:"noise"`
}

// SPADE is the encrypt/decrypt transform over a KeySpace. It holds no
// mutable state and may be shared between goroutines.
type SPADE struct {
	keys    *KeySpace
	modulus *big.Int
}

func NewSPADE(keys *KeySpace) *SPADE {
	return &SPADE{
		keys:    keys,
		modulus: keys.Modulus(),
	}
}

// Name returns the name of the encryption scheme
func (s *SPADE) Name() string {
	return fmt.Sprintf("SPADE-%d", s.keys.SecurityParam())
}

func (s *SPADE) SecurityParam() int {
	return s.keys.SecurityParam()
}

func (s *SPADE) ElementSize() int {
	return ElementSize
}

func (s *SPADE) RecordSize() int {
	return RecordSize
}

// KeySpace returns the key material the cipher was built from
func (s *SPADE) KeySpace() *KeySpace {
	return s.keys
}

// Encrypt computes ((v + noise) * userKey) mod M for every element, with a
// fresh noise value drawn per element. Output position i matches input
// position i.
func (s *SPADE) Encrypt(plaintext Plaintext, userKey *big.Int, noise *NoiseSampler) ([]Record, error) {
	if userKey == nil || userKey.Sign() <= 0 {
		return nil, ErrInvalidUserKey
	}

	records := make([]Record, len(plaintext))
	for i, v := range plaintext {
		n, err := noise.Sample()
		if err != nil {
			return nil, err
		}

		c := new(big.Int).SetUint64(v)
		c.Add(c, new(big.Int).SetUint64(n))
		c.Mul(c, userKey)
		c.Mod(c, s.modulus)

		records[i] = Record{Cipher: c, Noise: n}
	}

	return records, nil
}

// Decrypt computes ((cipher div userKey) - noise) mod M for every record.
//
// The result equals the original value only if (v + noise) * userKey < M.
// Past that bound the reduction leaves a remainder that integer division
// cannot undo and the output is silently wrong.
func (s *SPADE) Decrypt(records []Record, userKey *big.Int) ([]*big.Int, error) {
	if userKey == nil || userKey.Sign() <= 0 {
		return nil, ErrInvalidUserKey
	}

	values := make([]*big.Int, len(records))
	for i, rec := range records {
		if rec.Cipher == nil || rec.Cipher.Sign() < 0 {
			return nil, fmt.Errorf("%w: record %d", ErrMalformedRecord, i)
		}

		// operands are non-negative, so truncated and floor division agree
		v := new(big.Int).Quo(rec.Cipher, userKey)
		v.Sub(v, new(big.Int).SetUint64(rec.Noise))
		v.Mod(v, s.modulus)

		values[i] = v
	}

	return values, nil
}

// Mismatches counts the positions where decrypted differs from original.
// Missing positions on either side count as mismatches.
func Mismatches(original Plaintext, decrypted []*big.Int) int {
	n := len(original)
	if len(decrypted) > n {
		n = len(decrypted)
	}

	count := 0
	for i := 0; i < n; i++ {
		if i >= len(original) || i >= len(decrypted) {
			count++
			continue
		}
		d := decrypted[i]
		if d == nil || !d.IsUint64() || d.Uint64() != original[i] {
			count++
		}
	}
	return count
}
