package rlwe

import (
	"math/big"

	"github.com/openbfv/lattice/ring"
)

// Decryptor recovers a plaintext from a ciphertext under the matching secret key
// (spec.md §4.5, C5).
type Decryptor struct {
	params Parameters
}

// NewDecryptor builds a Decryptor over params.
func NewDecryptor(params Parameters) *Decryptor {
	return &Decryptor{params: params}
}

// dotProduct computes c0 + c1*s + c2*s^2 + ... in R_q (NTT domain internally), returning
// the result in coefficient domain. Shared by DecryptNew and NoiseBudget.
func (dec *Decryptor) dotProduct(ct *Ciphertext, sk *SecretKey) *ring.Poly {
	ringQ := dec.params.RingQ()

	acc := ct.Value[0].CopyNew()
	ringQ.NTT(acc)

	sPow := sk.Value.CopyNew()
	for i := 1; i < ct.Size(); i++ {
		term := ct.Value[i].CopyNew()
		ringQ.NTT(term)
		ringQ.MulCoeffs(term, sPow, term)
		ringQ.Add(acc, term, acc)
		if i+1 < ct.Size() {
			ringQ.MulCoeffs(sPow, sk.Value, sPow)
		}
	}
	ringQ.InvNTT(acc)
	return acc
}

// DecryptNew recovers the plaintext encrypted by ct under sk: compute
// c0 + c1*s + c2*s^2 + ... in R_q, then scale-and-round by t/q (spec.md §4.5).
func (dec *Decryptor) DecryptNew(ct *Ciphertext, sk *SecretKey) (*Plaintext, error) {
	if err := CheckFingerprint(dec.params.Fingerprint(), ct.Fingerprint(), sk.Fingerprint()); err != nil {
		return nil, err
	}
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("decrypt requires a coefficient-domain ciphertext")
	}

	ringQ := dec.params.RingQ()
	acc := dec.dotProduct(ct, sk)

	xs := ringQ.PolyToBigint(acc)
	Q := ringQ.ModulusBigint
	t := new(big.Int).SetUint64(dec.params.T())

	out := make([]uint64, ringQ.N)
	for n, x := range xs {
		out[n] = roundScale(x, t, Q)
	}

	pt := NewPlaintext(dec.params)
	pt.SetCoefficients(out)
	return pt, nil
}

// TryDecrypt converts a decryption failure into a boolean, for callers that want to
// probe without handling an error value (spec.md §7 "try_* style variants").
func (dec *Decryptor) TryDecrypt(ct *Ciphertext, sk *SecretKey) (*Plaintext, bool) {
	pt, err := dec.DecryptNew(ct, sk)
	return pt, err == nil
}

// NoiseBudget reports the invariant noise budget remaining in ct (spec.md §4.5, §4.8):
// bitlen(q) - bitlen(||t*(c0+c1s+...) mod q - t*m||_inf) - 1, clamped at zero.
func (dec *Decryptor) NoiseBudget(ct *Ciphertext, sk *SecretKey) (int, error) {
	pt, err := dec.DecryptNew(ct, sk)
	if err != nil {
		return 0, err
	}

	ringQ := dec.params.RingQ()
	acc := dec.dotProduct(ct, sk)

	xs := ringQ.PolyToBigint(acc)
	Q := ringQ.ModulusBigint
	t := new(big.Int).SetUint64(dec.params.T())
	m := pt.Coefficients()

	half := new(big.Int).Rsh(Q, 1)
	maxNorm := new(big.Int)
	for n, x := range xs {
		val := new(big.Int).Mul(t, x)
		val.Sub(val, new(big.Int).Mul(new(big.Int).SetUint64(m[n]), Q))
		val.Mod(val, Q)
		if val.Cmp(half) > 0 {
			val.Sub(val, Q)
		}
		val.Abs(val)
		if val.Cmp(maxNorm) > 0 {
			maxNorm.Set(val)
		}
	}

	qBits := Q.BitLen()
	if maxNorm.Sign() == 0 {
		return qBits, nil
	}
	budget := qBits - maxNorm.BitLen() - 1
	if budget < 0 {
		budget = 0
	}
	return budget, nil
}

// Decrypts reports whether ct is expected to decrypt correctly, i.e. whether its noise
// budget exceeds zero.
func (dec *Decryptor) Decrypts(ct *Ciphertext, sk *SecretKey) (bool, error) {
	budget, err := dec.NoiseBudget(ct, sk)
	if err != nil {
		return false, err
	}
	return budget > 0, nil
}

// roundScale returns round(t*x/Q) mod t, for x a non-negative representative in [0,Q),
// using round-half-up (spec.md §4.5 "scale-and-round").
func roundScale(x, t, Q *big.Int) uint64 {
	num := new(big.Int).Mul(x, t)
	num.Lsh(num, 1)
	num.Add(num, Q)
	denom := new(big.Int).Lsh(Q, 1)
	num.Quo(num, denom)
	num.Mod(num, t)
	return num.Uint64()
}
