// Package ring implements the RNS-accelerated modular arithmetic layer of the BFV
// engine: single-word modular primitives over 62-bit primes (C1), negacyclic NTT
// tables and transforms (C2), RNS polynomial arithmetic and sampling (C3), and the
// BEHZ-style fast basis converter used by ciphertext multiplication (C4).
package ring

import "math/big"

// Ring holds the precomputed per-prime tables needed to do RNS arithmetic and NTTs
// over R = Z[X]/(X^N+1) modulo a product of primes Moduli, each congruent to 1 mod 2N.
type Ring struct {
	N      int
	Moduli []uint64

	bredParams [][]uint64 // Barrett reduction constants, one pair per modulus
	mredParams []uint64   // Montgomery -qInv mod 2^64, one per modulus

	nttPsi    [][]uint64 // bit-reversed powers of psi (Montgomery form), per modulus
	nttPsiInv [][]uint64 // bit-reversed powers of psi^-1 (Montgomery form), per modulus
	nInv      []uint64   // N^-1 mod qi, Montgomery form, per modulus

	ModulusBigint *big.Int
}

// NewRing constructs a Ring for the given degree and modulus chain, generating NTT
// tables for each modulus. N must be a power of two and every modulus must be
// congruent to 1 mod 2N (spec.md §3, §4.1, §4.2); otherwise InvalidParameters is
// returned.
func NewRing(N int, moduli []uint64) (*Ring, error) {
	if N <= 0 || N&(N-1) != 0 {
		return nil, errInvalidParameters("N=%d is not a power of two", N)
	}
	if len(moduli) == 0 {
		return nil, errInvalidParameters("at least one modulus is required")
	}

	seen := make(map[uint64]bool, len(moduli))
	r := &Ring{N: N, Moduli: append([]uint64(nil), moduli...)}
	r.bredParams = make([][]uint64, len(moduli))
	r.mredParams = make([]uint64, len(moduli))
	r.nttPsi = make([][]uint64, len(moduli))
	r.nttPsiInv = make([][]uint64, len(moduli))
	r.nInv = make([]uint64, len(moduli))
	r.ModulusBigint = big.NewInt(1)

	twoN := uint64(2 * N)
	for i, qi := range moduli {
		if qi >= 1<<62 {
			return nil, errInvalidParameters("modulus qi=%d exceeds 62 bits", qi)
		}
		if qi%twoN != 1 {
			return nil, errInvalidParameters("modulus qi=%d is not congruent to 1 mod 2N", qi)
		}
		if !isPrime(qi) {
			return nil, errInvalidParameters("modulus qi=%d is not prime", qi)
		}
		if seen[qi] {
			return nil, errInvalidParameters("modulus qi=%d is repeated", qi)
		}
		seen[qi] = true

		r.bredParams[i] = BRedParams(qi)
		r.mredParams[i] = MRedParams(qi)
		r.ModulusBigint.Mul(r.ModulusBigint, new(big.Int).SetUint64(qi))

		r.genNTTTable(i, qi)
	}
	return r, nil
}

// genNTTTable fills the bit-reversed psi-power tables for modulus index i, following
// the Cooley-Tukey forward / Gentleman-Sande inverse convention of spec.md §4.2:
// natural order in the coefficient domain, bit-reversed in the NTT domain.
func (r *Ring) genNTTTable(i int, qi uint64) {
	N := r.N
	psi := primitive2NthRoot(qi, uint64(N))
	psiInv := ModExp(psi, uint64(2*N)-1, qi)

	bred := r.bredParams[i]
	psiPow := make([]uint64, N)
	psiInvPow := make([]uint64, N)
	p, pInv := uint64(1), uint64(1)
	for k := 0; k < N; k++ {
		psiPow[k] = p
		psiInvPow[k] = pInv
		p = BRed(p, psi, qi, bred)
		pInv = BRed(pInv, psiInv, qi, bred)
	}

	logN := bitLen(N) - 1
	r.nttPsi[i] = make([]uint64, N)
	r.nttPsiInv[i] = make([]uint64, N)
	for k := 0; k < N; k++ {
		br := bitReverse(k, logN)
		r.nttPsi[i][k] = MForm(psiPow[br], qi, bred)
		r.nttPsiInv[i][k] = MForm(psiInvPow[br], qi, bred)
	}

	nInv := ModExp(uint64(N), qi-2, qi)
	r.nInv[i] = MForm(nInv, qi, bred)
}

func bitLen(n int) int {
	l := 0
	for n > 0 {
		l++
		n >>= 1
	}
	return l
}

func bitReverse(x, bits int) int {
	r := 0
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// NewPoly allocates a zero polynomial with one RNS limb per modulus of r.
func (r *Ring) NewPoly() *Poly {
	return NewPoly(r.N, len(r.Moduli))
}

// Level returns the number of RNS limbs of r (i.e. len(r.Moduli)).
func (r *Ring) Level() int {
	return len(r.Moduli)
}
