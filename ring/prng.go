package ring

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20"
)

// PRNG is the randomness source contract required by every sampler (spec.md §6 "RNG
// contract"): anything exposing FillBytes over a cryptographically secure (or, for
// reproducible tests, seeded) stream is acceptable.
type PRNG interface {
	FillBytes(buf []byte)
}

// systemPRNG draws directly from crypto/rand.
type systemPRNG struct{}

// NewSystemPRNG returns the default, crypto/rand-backed PRNG.
func NewSystemPRNG() PRNG { return systemPRNG{} }

func (systemPRNG) FillBytes(buf []byte) {
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		panic("ring: system entropy source failed: " + err.Error())
	}
}

// KeyedPRNG wraps a ChaCha20 keystream seeded from a fixed 256-bit key, giving
// reproducible-but-cryptographically-sound sampling for tests and for deterministic
// multiparty protocols, the way the teacher's utils/sampling layers a stream cipher
// over a seed instead of reading raw crypto/rand for every sample.
type KeyedPRNG struct {
	cipher *chacha20.Cipher
}

// NewKeyedPRNG derives a ChaCha20-based PRNG from a 32-byte key.
func NewKeyedPRNG(key [32]byte) (*KeyedPRNG, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, err
	}
	return &KeyedPRNG{cipher: c}, nil
}

func (k *KeyedPRNG) FillBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	k.cipher.XORKeyStream(buf, buf)
}

// randUint64n draws a uniform value in [0, bound) from prng via rejection sampling.
func randUint64n(prng PRNG, bound uint64) uint64 {
	if bound == 0 {
		return 0
	}
	var buf [8]byte
	limit := (^uint64(0) / bound) * bound
	for {
		prng.FillBytes(buf[:])
		v := binary.LittleEndian.Uint64(buf[:])
		if v < limit {
			return v % bound
		}
	}
}
