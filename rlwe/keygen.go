package rlwe

import (
	"math/big"

	"github.com/openbfv/lattice/ring"
)

// KeyGenerator samples secret keys and derives public, evaluation and Galois keys
// (spec.md §4.7, C7). It owns the samplers needed to draw secrets, public-key noise,
// and evaluation/Galois-key noise.
type KeyGenerator struct {
	params   Parameters
	prng     ring.PRNG
	ternary  *ring.TernarySampler
	gaussian *ring.GaussianSampler
	uniform  *ring.UniformSampler
}

// NewKeyGenerator builds a KeyGenerator over params, drawing randomness from prng.
func NewKeyGenerator(params Parameters, prng ring.PRNG) *KeyGenerator {
	ringQ := params.RingQ()
	return &KeyGenerator{
		params:   params,
		prng:     prng,
		ternary:  ring.NewTernarySampler(ringQ, prng, 2.0/3.0),
		gaussian: ring.NewGaussianSampler(ringQ, prng, params.Sigma(), 6),
		uniform:  ring.NewUniformSampler(ringQ, prng),
	}
}

// GenSecretKey samples a fresh ternary secret key and stores it in NTT form
// (spec.md §3, §4.7).
func (kg *KeyGenerator) GenSecretKey() *SecretKey {
	sk := NewSecretKey(kg.params)
	kg.ternary.Read(sk.Value)
	kg.params.RingQ().NTT(sk.Value)
	return sk
}

// GenPublicKey derives pk = (b, a) = (-(a*s+e), a) from sk, with a uniform and e
// Gaussian, both in NTT form (spec.md §3, §4.5).
func (kg *KeyGenerator) GenPublicKey(sk *SecretKey) *PublicKey {
	ringQ := kg.params.RingQ()
	pk := NewPublicKey(kg.params)

	kg.uniform.Read(pk.A)

	e := ringQ.NewPoly()
	kg.gaussian.Read(e)
	ringQ.NTT(e)

	tmp := ringQ.NewPoly()
	ringQ.MulCoeffs(pk.A, sk.Value, tmp)
	ringQ.Add(tmp, e, tmp)
	ringQ.Neg(tmp, pk.B)
	return pk
}

// GenKeyPair samples a secret key and its corresponding public key.
func (kg *KeyGenerator) GenKeyPair() (*SecretKey, *PublicKey) {
	sk := kg.GenSecretKey()
	return sk, kg.GenPublicKey(sk)
}

// genLadder builds the shared digit-decomposition ladder structure: ℓ = DecompLevels()
// fresh NTT-form encryptions of w^i*target under sk, for w = 2^DBC (spec.md §4.7). Both
// GenRelinearizationKey (target = s^2) and GenGaloisKey (target = sigma(s)) delegate here.
func (kg *KeyGenerator) genLadder(target *ring.Poly, sk *SecretKey) *EvaluationKey {
	ringQ := kg.params.RingQ()
	levels := kg.params.DecompLevels()

	evk := &EvaluationKey{Levels: make([]EvaluationKeyLevel, levels), fingerprint: kg.params.Fingerprint()}

	wPow := big.NewInt(1)
	w := new(big.Int).Lsh(big.NewInt(1), uint(kg.params.DBC()))
	for l := 0; l < levels; l++ {
		a := ringQ.NewPoly()
		kg.uniform.Read(a)

		e := ringQ.NewPoly()
		kg.gaussian.Read(e)
		ringQ.NTT(e)

		scaledTarget := ringQ.NewPoly()
		ringQ.MulScalarBigint(target, wPow, scaledTarget)

		b := ringQ.NewPoly()
		ringQ.MulCoeffs(a, sk.Value, b)
		ringQ.Add(b, e, b)
		ringQ.Neg(b, b)
		ringQ.Add(b, scaledTarget, b)

		evk.Levels[l] = EvaluationKeyLevel{B: b, A: a}
		wPow.Mul(wPow, w)
	}
	return evk
}

// GenRelinearizationKey derives the evaluation key used to relinearize a size-3+
// ciphertext product back down to size 2 (spec.md §3, §4.6, §4.7): ℓ pairs encrypting
// w^i*s^2 under s.
func (kg *KeyGenerator) GenRelinearizationKey(sk *SecretKey) *EvaluationKey {
	ringQ := kg.params.RingQ()
	s2 := ringQ.NewPoly()
	ringQ.MulCoeffs(sk.Value, sk.Value, s2)
	return kg.genLadder(s2, sk)
}

// GenGaloisKey derives the key-switching key for automorphism X -> X^galEl
// (spec.md §3, §4.7): ℓ pairs encrypting w^i*sigma(s) under s, where sigma is the
// automorphism applied to the secret key itself.
func (kg *KeyGenerator) GenGaloisKey(galEl uint64, sk *SecretKey) *GaloisKey {
	ringQ := kg.params.RingQ()
	sigma := ringQ.NewPoly()
	ringQ.PermuteNTT(sk.Value, galEl, sigma)
	evk := kg.genLadder(sigma, sk)
	return &GaloisKey{EvaluationKey: *evk, GaloisElement: galEl}
}

// GenGaloisKeys derives one GaloisKey per requested automorphism element.
func (kg *KeyGenerator) GenGaloisKeys(galEls []uint64, sk *SecretKey) GaloisKeySet {
	set := make(GaloisKeySet, len(galEls))
	for _, galEl := range galEls {
		set[galEl] = kg.GenGaloisKey(galEl, sk)
	}
	return set
}
