package encryption

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

const (
	// NoiseMin and NoiseMax bound the blinding term added to every element.
	NoiseMin = 1
	NoiseMax = 10

	prngKeySize = 32
)

// PRNG is an interface for generation of random bytes
type PRNG interface {
	io.Reader
}

// ThreadSafePRNG reads from crypto/rand and can be shared between goroutines.
type ThreadSafePRNG struct{}

// NewPRNG returns a new PRNG that is thread-safe
func NewPRNG() *ThreadSafePRNG {
	return &ThreadSafePRNG{}
}

func (prng *ThreadSafePRNG) Read(sum []byte) (n int, err error) {
	return rand.Read(sum)
}

// KeyedPRNG deterministically expands a key into a byte stream with a
// blake2b XOF. Two KeyedPRNG built from the same key produce the same stream.
// A KeyedPRNG is meant to be owned by a single task.
type KeyedPRNG struct {
	mutex sync.Mutex
	key   []byte
	xof   blake2b.XOF
}

// NewKeyedPRNG creates a new instance of KeyedPRNG. The key may be at most
// 64 bytes long.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyed PRNG: %w", err)
	}

	prng := &KeyedPRNG{
		key: make([]byte, len(key)),
		xof: xof,
	}
	copy(prng.key, key)
	return prng, nil
}

// Key returns a copy of the key used to seed the PRNG.
func (prng *KeyedPRNG) Key() []byte {
	key := make([]byte, len(prng.key))
	copy(key, prng.key)
	return key
}

func (prng *KeyedPRNG) Read(sum []byte) (n int, err error) {
	prng.mutex.Lock()
	defer prng.mutex.Unlock()
	return prng.xof.Read(sum)
}

// Reset rewinds the PRNG to the start of its stream.
func (prng *KeyedPRNG) Reset() {
	prng.mutex.Lock()
	defer prng.mutex.Unlock()
	prng.xof.Reset()
}

// DeriveKey hashes a run seed and a task label into a PRNG key, so every
// task of a run gets an independent stream.
func DeriveKey(seed []byte, label string) []byte {
	hasher := blake3.New()
	hasher.Write(seed)
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))

	sum := hasher.Sum(nil)
	return sum[:prngKeySize]
}

// NewSeed draws a fresh run seed from crypto/rand.
func NewSeed() ([]byte, error) {
	seed := make([]byte, prngKeySize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate seed: %w", err)
	}
	return seed, nil
}

// NoiseSampler draws noise uniformly from [NoiseMin, NoiseMax].
// It is not safe for concurrent use; give each task its own.
type NoiseSampler struct {
	prng PRNG
	buf  [1]byte
}

func NewNoiseSampler(prng PRNG) *NoiseSampler {
	return &NoiseSampler{prng: prng}
}

// Sample returns the next noise value.
func (s *NoiseSampler) Sample() (uint64, error) {
	const span = NoiseMax - NoiseMin + 1
	// largest multiple of span that fits in a byte, to keep the draw unbiased
	const limit = 256 - 256%span

	for {
		if _, err := io.ReadFull(s.prng, s.buf[:]); err != nil {
			return 0, fmt.Errorf("failed to sample noise: %w", err)
		}
		if b := int(s.buf[0]); b < limit {
			return uint64(NoiseMin + b%span), nil
		}
	}
}
