package rlwe

import "github.com/openbfv/lattice/ring"

// Ciphertext is c = (c0, c1, ..., c_{s-1}), s >= 2 (spec.md §3): each element lives in
// R_q stored as one ring.Poly with one limb per modulus. Size grows with multiplication
// and shrinks with relinearization; IsNTT tracks the per-ciphertext form flag of the
// state machine in spec.md §4.6.
type Ciphertext struct {
	Value       []*ring.Poly
	IsNTT       bool
	fingerprint [32]byte
}

// NewCiphertext allocates a zero ciphertext of the given size (>= 2).
func NewCiphertext(params Parameters, size int) *Ciphertext {
	if size < 2 {
		size = 2
	}
	value := make([]*ring.Poly, size)
	for i := range value {
		value[i] = ring.NewPoly(params.N(), params.LevelCount())
	}
	return &Ciphertext{Value: value, fingerprint: params.Fingerprint()}
}

// Fingerprint returns the parameter fingerprint this ciphertext was created under.
func (ct *Ciphertext) Fingerprint() [32]byte { return ct.fingerprint }

// Degree returns s-1, the ciphertext's polynomial degree in the secret key (spec.md
// §4.6 uses "size"; the legacy evaluator convention uses "degree" = size-1).
func (ct *Ciphertext) Degree() int { return len(ct.Value) - 1 }

// Size returns s, the number of RNS polynomials making up the ciphertext.
func (ct *Ciphertext) Size() int { return len(ct.Value) }

// Resize grows or shrinks the ciphertext to the requested size, zero-filling any new
// elements. Used by relinearize (shrink) and multiply (grow).
func (ct *Ciphertext) Resize(params Parameters, size int) {
	if size == len(ct.Value) {
		return
	}
	if size < len(ct.Value) {
		ct.Value = ct.Value[:size]
		return
	}
	for i := len(ct.Value); i < size; i++ {
		ct.Value = append(ct.Value, ring.NewPoly(params.N(), params.LevelCount()))
	}
}

// CopyNew returns a deep copy of ct.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	out := &Ciphertext{
		Value:       make([]*ring.Poly, len(ct.Value)),
		IsNTT:       ct.IsNTT,
		fingerprint: ct.fingerprint,
	}
	for i, v := range ct.Value {
		out.Value[i] = v.CopyNew()
	}
	return out
}

// CheckFingerprint returns a FingerprintMismatch error unless every operand shares fp.
func CheckFingerprint(fp [32]byte, operands ...[32]byte) error {
	for _, o := range operands {
		if o != fp {
			return ring.NewFingerprintMismatchError("operand parameter fingerprints differ")
		}
	}
	return nil
}
