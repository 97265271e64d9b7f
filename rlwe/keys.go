package rlwe

import (
	"golang.org/x/exp/slices"

	"github.com/openbfv/lattice/ring"
)

// SecretKey is a ternary polynomial stored in NTT form per prime (spec.md §3).
type SecretKey struct {
	Value       *ring.Poly
	fingerprint [32]byte
}

// NewSecretKey allocates a zero secret key for params.
func NewSecretKey(params Parameters) *SecretKey {
	return &SecretKey{Value: ring.NewPoly(params.N(), params.LevelCount()), fingerprint: params.Fingerprint()}
}

// Fingerprint returns the parameter fingerprint this key was generated under.
func (sk *SecretKey) Fingerprint() [32]byte { return sk.fingerprint }

// PublicKey is pk = (b, a) with b = -(a*s + e) mod q, a uniform, e gaussian (spec.md §3,
// §4.5). Both components are stored in NTT form.
type PublicKey struct {
	B, A        *ring.Poly
	fingerprint [32]byte
}

// NewPublicKey allocates a zero public key for params.
func NewPublicKey(params Parameters) *PublicKey {
	return &PublicKey{
		B:           ring.NewPoly(params.N(), params.LevelCount()),
		A:           ring.NewPoly(params.N(), params.LevelCount()),
		fingerprint: params.Fingerprint(),
	}
}

// Fingerprint returns the parameter fingerprint this key was generated under.
func (pk *PublicKey) Fingerprint() [32]byte { return pk.fingerprint }

// EvaluationKeyLevel is one (b_i, a_i) pair of the digit-decomposition ladder: a fresh
// NTT-form encryption of w^i * target under the secret key (spec.md §4.7).
type EvaluationKeyLevel struct {
	B, A *ring.Poly
}

// EvaluationKey is the relinearization key: for decomposition base w = 2^dbc, ℓ =
// ceil(log_w q) pairs encrypting w^i*s^2 under s (spec.md §3, §4.7). GaloisKey reuses
// the same structure to encrypt w^i*sigma(s) instead.
type EvaluationKey struct {
	Levels      []EvaluationKeyLevel
	fingerprint [32]byte
}

// Fingerprint returns the parameter fingerprint this key was generated under.
func (evk *EvaluationKey) Fingerprint() [32]byte { return evk.fingerprint }

// GaloisKey is a key-switching key tailored to a specific ring automorphism X -> X^k
// (spec.md §3, glossary "Galois key").
type GaloisKey struct {
	EvaluationKey
	GaloisElement uint64
}

// GaloisKeySet indexes GaloisKeys by their automorphism exponent, the form
// rotate_rows/rotate_columns expect (spec.md §4.6).
type GaloisKeySet map[uint64]*GaloisKey

// Elements returns the set's automorphism exponents in ascending order, for
// deterministic iteration (e.g. serializing a key set or listing supported rotations).
func (s GaloisKeySet) Elements() []uint64 {
	out := make([]uint64, 0, len(s))
	for galEl := range s {
		out = append(out, galEl)
	}
	slices.Sort(out)
	return out
}
