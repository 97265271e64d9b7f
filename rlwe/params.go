// Package rlwe implements the parameter, key, plaintext and ciphertext types shared by
// the BFV scheme, plus encryption, decryption and key generation (spec.md C5, C7).
package rlwe

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/openbfv/lattice/ring"
	"github.com/zeebo/blake3"
)

// DefaultSigma is the Gaussian noise standard deviation used throughout the literature
// and the teacher's own default parameter sets absent an application-specific override.
const DefaultSigma = 3.2

// ParametersLiteral is the plain, caller-filled description of a parameter set before
// validation and fingerprinting, mirroring the teacher's ParametersLiteral/Parameters
// split (core/rlwe/params.go).
type ParametersLiteral struct {
	LogN  int      // N = 2^LogN
	Qi    []uint64 // ciphertext modulus primes, each ≡ 1 mod 2N
	T     uint64   // plaintext modulus
	Sigma float64  // Gaussian noise standard deviation
	DBC   int      // digit-decomposition base exponent: w = 2^DBC
}

// Parameters is the frozen, validated parameter set of spec.md §3: P = (N, {qi}, t,
// sigma, r). Every key, plaintext and ciphertext carries Parameters.Fingerprint(), and
// every multi-argument operation rejects mismatched fingerprints.
type Parameters struct {
	logN  int
	qi    []uint64
	t     uint64
	sigma float64
	dbc   int

	ringQ *ring.Ring
	ringT *ring.Ring

	fingerprint [32]byte
}

// NewParametersFromLiteral validates lit and derives the rings and fingerprint needed
// by the rest of the engine. Returns InvalidParameters if N is not a power of two, a
// modulus is not ≡ 1 mod 2N, the plaintext modulus is degenerate, or sigma <= 0
// (spec.md §7).
func NewParametersFromLiteral(lit ParametersLiteral) (Parameters, error) {
	if lit.LogN <= 0 || lit.LogN > 17 {
		return Parameters{}, errInvalid("LogN=%d out of supported range", lit.LogN)
	}
	if lit.Sigma <= 0 {
		return Parameters{}, errInvalid("sigma must be positive, got %f", lit.Sigma)
	}
	if lit.T < 2 {
		return Parameters{}, errInvalid("plaintext modulus t=%d too small", lit.T)
	}
	dbc := lit.DBC
	if dbc <= 0 {
		dbc = 1
	}
	if dbc > 60 {
		return Parameters{}, errInvalid("decomposition base bit-count %d exceeds 60", dbc)
	}

	N := 1 << uint(lit.LogN)
	ringQ, err := ring.NewRing(N, lit.Qi)
	if err != nil {
		return Parameters{}, err
	}

	// The plaintext ring only needs NTT tables when t ≡ 1 (mod 2N) (batching enabled);
	// otherwise ringT stays nil and BatchingEnabled reports false.
	var ringT *ring.Ring
	if lit.T%uint64(2*N) == 1 {
		ringT, err = ring.NewRing(N, []uint64{lit.T})
		if err != nil {
			return Parameters{}, err
		}
	}

	p := Parameters{
		logN:  lit.LogN,
		qi:    append([]uint64(nil), lit.Qi...),
		t:     lit.T,
		sigma: lit.Sigma,
		dbc:   dbc,
		ringQ: ringQ,
		ringT: ringT,
	}
	p.fingerprint = computeFingerprint(N, p.qi, p.t, p.sigma, dbc)
	return p, nil
}

// computeFingerprint implements spec.md §6: a 256-bit digest over the canonical
// serialization of (N, sorted qi, t, sigma, dbc). No noise-truncation bound and no
// random-generator identifier are part of the digest. BLAKE3 is used
// in place of a hand-rolled SHA-3-style hash, reusing the teacher's existing
// github.com/zeebo/blake3 dependency.
func computeFingerprint(N int, qi []uint64, t uint64, sigma float64, dbc int) [32]byte {
	sorted := append([]uint64(nil), qi...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	h := blake3.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(N))
	h.Write(buf[:])
	for _, q := range sorted {
		binary.LittleEndian.PutUint64(buf[:], q)
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], t)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(sigma))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(dbc))
	h.Write(buf[:])

	var out [32]byte
	sum := h.Sum(nil)
	copy(out[:], sum)
	return out
}

// N returns the ring degree.
func (p Parameters) N() int { return 1 << uint(p.logN) }

// LogN returns log2(N).
func (p Parameters) LogN() int { return p.logN }

// Qi returns the ciphertext modulus prime chain.
func (p Parameters) Qi() []uint64 { return append([]uint64(nil), p.qi...) }

// T returns the plaintext modulus.
func (p Parameters) T() uint64 { return p.t }

// Sigma returns the Gaussian noise standard deviation.
func (p Parameters) Sigma() float64 { return p.sigma }

// DBC returns the digit-decomposition base exponent (w = 2^DBC).
func (p Parameters) DBC() int { return p.dbc }

// LevelCount returns the number of RNS primes in the ciphertext modulus chain.
func (p Parameters) LevelCount() int { return len(p.qi) }

// DecompLevels returns ℓ = ceil(log_w(Q)), the number of digit-decomposition pieces
// used by key-switching (spec.md §3, §4.7).
func (p Parameters) DecompLevels() int {
	qBits := p.RingQ().ModulusBigint.BitLen()
	return (qBits + p.dbc - 1) / p.dbc
}

// RingQ returns the ciphertext-modulus ring.
func (p Parameters) RingQ() *ring.Ring { return p.ringQ }

// RingT returns the plaintext-modulus ring, or nil if t is not batching-enabled
// (t not ≡ 1 mod 2N).
func (p Parameters) RingT() *ring.Ring { return p.ringT }

// BatchingEnabled reports whether t ≡ 1 (mod 2N), enabling slot rotation (spec.md
// glossary "Batching / slots").
func (p Parameters) BatchingEnabled() bool { return p.ringT != nil }

// Fingerprint returns the 256-bit digest identifying this parameter set.
func (p Parameters) Fingerprint() [32]byte { return p.fingerprint }

// Equal reports whether two parameter sets share a fingerprint.
func (p Parameters) Equal(other Parameters) bool { return p.fingerprint == other.fingerprint }

// QBigInt returns the product of the ciphertext modulus primes.
func (p Parameters) QBigInt() *big.Int { return new(big.Int).Set(p.ringQ.ModulusBigint) }

// Delta returns floor(Q/t) reduced modulo each qi, the scaling factor used by fresh
// encryption (spec.md §4.5).
func (p Parameters) Delta() []uint64 {
	delta := new(big.Int).Quo(p.ringQ.ModulusBigint, new(big.Int).SetUint64(p.t))
	out := make([]uint64, len(p.qi))
	for i, qi := range p.qi {
		out[i] = new(big.Int).Mod(delta, new(big.Int).SetUint64(qi)).Uint64()
	}
	return out
}

func errInvalid(format string, args ...interface{}) error {
	return ring.NewInvalidParametersError(format, args...)
}
