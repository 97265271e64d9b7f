package rlwe

import "github.com/openbfv/lattice/ring"

// Encryptor encrypts a plaintext under a public key (spec.md §4.5, C5): sample u
// ternary, e1/e2 Gaussian, output (Δm + b*u + e1, a*u + e2) where Δ = floor(q/t).
type Encryptor struct {
	params   Parameters
	ternary  *ring.TernarySampler
	gaussian *ring.GaussianSampler
}

// NewEncryptor builds an Encryptor over params, drawing randomness from prng.
func NewEncryptor(params Parameters, prng ring.PRNG) *Encryptor {
	ringQ := params.RingQ()
	return &Encryptor{
		params:   params,
		ternary:  ring.NewTernarySampler(ringQ, prng, 2.0/3.0),
		gaussian: ring.NewGaussianSampler(ringQ, prng, params.Sigma(), 6),
	}
}

// EncryptNew encrypts pt under pk, producing a fresh coefficient-domain, size-2
// ciphertext (spec.md §4.6 state machine: encrypt -> (Coeff, 2)).
func (enc *Encryptor) EncryptNew(pt *Plaintext, pk *PublicKey) (*Ciphertext, error) {
	if err := CheckFingerprint(enc.params.Fingerprint(), pt.Fingerprint(), pk.Fingerprint()); err != nil {
		return nil, err
	}
	if pt.IsNTT {
		return nil, ring.NewShapeMismatchError("encrypt requires a coefficient-domain plaintext")
	}

	ringQ := enc.params.RingQ()

	u := ringQ.NewPoly()
	enc.ternary.Read(u)
	ringQ.NTT(u)

	e1 := ringQ.NewPoly()
	enc.gaussian.Read(e1)
	ringQ.NTT(e1)

	e2 := ringQ.NewPoly()
	enc.gaussian.Read(e2)
	ringQ.NTT(e2)

	c0NTT := ringQ.NewPoly()
	ringQ.MulCoeffs(pk.B, u, c0NTT)
	ringQ.Add(c0NTT, e1, c0NTT)

	c1NTT := ringQ.NewPoly()
	ringQ.MulCoeffs(pk.A, u, c1NTT)
	ringQ.Add(c1NTT, e2, c1NTT)

	ringQ.InvNTT(c0NTT)
	ringQ.InvNTT(c1NTT)

	ct := NewCiphertext(enc.params, 2)
	ct.Value[0].Copy(c0NTT)
	ct.Value[1].Copy(c1NTT)

	scaled := ringQ.NewPoly()
	ringQ.ScaleByConstants(pt.Coefficients(), enc.params.Delta(), scaled)
	ringQ.Add(ct.Value[0], scaled, ct.Value[0])

	ct.IsNTT = false
	return ct, nil
}
