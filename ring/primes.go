package ring

import "math/big"

// isPrime reports whether n is prime using big.Int's probabilistic Miller-Rabin test.
func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	return new(big.Int).SetUint64(n).ProbablyPrime(30)
}

// GenerateNTTPrimes returns count distinct primes qᵢ of approximately logQi bits each,
// congruent to 1 mod 2N (the condition required for a primitive 2N-th root of unity to
// exist mod qᵢ, which in turn is required for the negacyclic NTT of C2). Search proceeds
// downward from the largest value of the requested bit-length, exactly as parameter
// generation in the teacher's ring package searches a moduli chain.
func GenerateNTTPrimes(logQi int, N uint64, count int) ([]uint64, error) {
	return GenerateNTTPrimesExcluding(logQi, N, count, nil)
}

// GenerateNTTPrimesExcluding behaves like GenerateNTTPrimes but skips any candidate
// present in exclude, letting callers build an auxiliary basis (spec.md §4.4) disjoint
// from an existing modulus chain.
func GenerateNTTPrimesExcluding(logQi int, N uint64, count int, exclude map[uint64]bool) ([]uint64, error) {
	if logQi < 2 || logQi > 62 {
		return nil, errInvalidParameters("modulus bit-size out of range: %d", logQi)
	}
	mod := 2 * N
	upper := (uint64(1) << uint(logQi)) - 1
	// align upper down to the largest candidate ≡ 1 mod 2N
	upper -= upper % mod
	upper += 1

	primes := make([]uint64, 0, count)
	for candidate := upper; candidate > mod; candidate -= mod {
		if exclude[candidate] {
			continue
		}
		if isPrime(candidate) {
			primes = append(primes, candidate)
			if len(primes) == count {
				return primes, nil
			}
		}
	}
	return nil, errInvalidParameters("could not find %d NTT-friendly primes of %d bits for N=%d", count, logQi, N)
}

// MaxBitLen returns the bit length of the largest modulus in moduli, used to size an
// auxiliary basis one bit wider than the chain it must dominate (spec.md §4.4).
func MaxBitLen(moduli []uint64) int {
	max := 0
	for _, qi := range moduli {
		if l := bitLenU64(qi); l > max {
			max = l
		}
	}
	return max
}

func bitLenU64(x uint64) int {
	l := 0
	for x > 0 {
		l++
		x >>= 1
	}
	return l
}

// primitive2NthRoot finds a generator of the multiplicative group of Z_q restricted to a
// primitive 2N-th root of unity, used to seed the NTT tables of C2.
func primitive2NthRoot(q, N uint64) uint64 {
	mod := 2 * N
	qm1 := q - 1
	// factor qm1/mod candidates by trial exponentiation: any non-residue g raised to
	// (q-1)/(2N) is a candidate primitive 2N-th root; verify its order is exactly 2N.
	exp := qm1 / mod
	for g := uint64(2); g < q; g++ {
		psi := ModExp(g, exp, q)
		if isPrimitive2Nth(psi, q, N) {
			return psi
		}
	}
	panic("ring: no primitive 2N-th root of unity found; modulus was not generated NTT-friendly")
}

func isPrimitive2Nth(psi, q, N uint64) bool {
	if ModExp(psi, N, q) != q-1 {
		return false
	}
	// ψ^N = -1 mod q implies ψ has order exactly 2N, since N is a power of two and any
	// smaller order dividing N would force ψ^N = 1.
	return true
}
