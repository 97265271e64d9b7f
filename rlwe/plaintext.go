package rlwe

import "github.com/openbfv/lattice/ring"

// Plaintext is a sequence of N coefficients in [0, t) (spec.md §3), or, once
// transformed for fast plaintext multiplication, residues modulo each qi held in a
// single-limb-per-prime polynomial. It owns its storage unless constructed over
// caller-supplied memory via NewPlaintextFromSlice, in which case resize is disabled.
type Plaintext struct {
	Value       *ring.Poly
	IsNTT       bool
	fingerprint [32]byte
}

// NewPlaintext allocates a zero plaintext for params, with one limb per ciphertext
// modulus prime; coefficient-domain use only ever touches limb 0 (values stay in
// [0, t)). TransformPlainToNTT does not reuse the extra limbs: it builds a new
// polynomial.
func NewPlaintext(params Parameters) *Plaintext {
	return &Plaintext{
		Value:       ring.NewPoly(params.N(), params.LevelCount()),
		fingerprint: params.Fingerprint(),
	}
}

// NewPlaintextFromSlice wraps externally owned coefficient storage as an aliased
// plaintext (spec.md §5, §9): resize is disabled.
func NewPlaintextFromSlice(params Parameters, coeffs [][]uint64) *Plaintext {
	return &Plaintext{
		Value:       ring.NewPolyFromSlice(coeffs),
		fingerprint: params.Fingerprint(),
	}
}

// NewPlaintextFromPoly wraps an already-built polynomial (e.g. one pre-transformed to
// every ciphertext-modulus prime for multiply_plain_ntt) as a plaintext fingerprinted
// under params.
func NewPlaintextFromPoly(params Parameters, value *ring.Poly, isNTT bool) *Plaintext {
	return &Plaintext{Value: value, IsNTT: isNTT, fingerprint: params.Fingerprint()}
}

// Fingerprint returns the parameter fingerprint this plaintext was created under.
func (pt *Plaintext) Fingerprint() [32]byte { return pt.fingerprint }

// SetCoefficients copies a dense vector of plaintext-domain values (each < t) into the
// first RNS limb of the plaintext's backing polynomial.
func (pt *Plaintext) SetCoefficients(values []uint64) {
	copy(pt.Value.Coeffs[0], values)
}

// Coefficients returns a copy of the first RNS limb's residues.
func (pt *Plaintext) Coefficients() []uint64 {
	out := make([]uint64, len(pt.Value.Coeffs[0]))
	copy(out, pt.Value.Coeffs[0])
	return out
}
