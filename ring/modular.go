package ring

import "math/bits"

// MForm switches a to the Montgomery domain by computing a*2^64 mod q.
func MForm(a, q uint64, bredParams []uint64) (r uint64) {
	mhi, _ := bits.Mul64(a, bredParams[1])
	r = -(a*bredParams[0] + mhi) * q
	if r >= q {
		r -= q
	}
	return
}

// InvMForm switches a from the Montgomery domain back to the standard domain.
func InvMForm(a, q, qInvMont uint64) (r uint64) {
	return MRed(a, 1, q, qInvMont)
}

// MRedParams computes qInv = (-q)^-1 mod 2^64, required by MRed.
func MRedParams(q uint64) (qInv uint64) {
	qInv = 1
	x := q
	for i := 0; i < 63; i++ {
		qInv *= x
		x *= x
	}
	return -qInv
}

// MRed computes x*y*(1/2^64) mod q using Montgomery reduction.
// Inputs x must already be in Montgomery form for the product to represent x*y mod q
// once reduced; used throughout the evaluator for NTT-domain multiplication.
func MRed(x, y, q, qInvNeg uint64) (r uint64) {
	hi, lo := bits.Mul64(x, y)
	m := lo * qInvNeg
	mhi, mlo := bits.Mul64(m, q)
	_, carry := bits.Add64(lo, mlo, 0)
	r = hi + mhi + carry
	if r >= q {
		r -= q
	}
	return
}

// BRedParams precomputes floor(2^128/q) split into high/low 64-bit words, used by BRed/BRedAdd.
func BRedParams(q uint64) []uint64 {
	// floor(2^128/q): compute via repeated 64-bit division since q fits in 62 bits.
	var hi, lo uint64
	rem := uint64(1)
	for i := 0; i < 128; i++ {
		hi = (hi << 1) | (lo >> 63)
		lo <<= 1
		carry := rem>>63 != 0
		rem <<= 1
		if carry || rem >= q {
			rem -= q
			lo |= 1
		}
	}
	return []uint64{hi, lo}
}

// BRedAdd reduces x (up to 64 bits) modulo q using Barrett reduction.
func BRedAdd(x, q uint64, params []uint64) (r uint64) {
	hi, _ := bits.Mul64(x, params[0])
	r = x - hi*q
	if r >= q {
		r -= q
	}
	return
}

// BRed computes x*y mod q for full 128-bit products using Barrett reduction.
func BRed(x, y, q uint64, params []uint64) (r uint64) {
	hi, lo := bits.Mul64(x, y)
	// approximate quotient = floor((hi:lo) * floor(2^128/q) / 2^128), keeping the top word.
	t1, _ := bits.Mul64(lo, params[1])
	m2hi, m2lo := bits.Mul64(lo, params[0])
	m3hi, m3lo := bits.Mul64(hi, params[1])
	s0, c0 := bits.Add64(m2lo, t1, 0)
	s1 := m2hi + c0
	s2, c1 := bits.Add64(m3lo, s0, 0)
	_ = s2
	quotHi := hi*params[0] + s1 + m3hi + c1
	r = lo - quotHi*q
	for r >= q {
		r -= q
	}
	return
}

// CRed reduces a value known to lie in [0, 2q) modulo q.
func CRed(a, q uint64) uint64 {
	if a >= q {
		return a - q
	}
	return a
}

// AddMod returns a+b mod q.
func AddMod(a, b, q uint64) uint64 {
	r := a + b
	if r >= q {
		r -= q
	}
	return r
}

// SubMod returns a-b mod q.
func SubMod(a, b, q uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + q - b
}

// NegMod returns q-a mod q (0 maps to 0).
func NegMod(a, q uint64) uint64 {
	if a == 0 {
		return 0
	}
	return q - a
}

// ModExp computes base^exp mod q via square-and-multiply, using Barrett reduction.
func ModExp(base, exp, q uint64) uint64 {
	params := BRedParams(q)
	result := uint64(1)
	b := base % q
	for exp > 0 {
		if exp&1 == 1 {
			result = BRed(result, b, q, params)
		}
		b = BRed(b, b, q, params)
		exp >>= 1
	}
	return result
}
