package ring

// Permute applies the ring automorphism X -> X^galEl to p (coefficient-domain),
// storing the result in out. galEl must be odd and taken mod 2N. Used by
// rotate_rows/rotate_columns (spec.md §4.6) before key-switching.
func (r *Ring) Permute(p *Poly, galEl uint64, out *Poly) {
	N := uint64(r.N)
	mask := 2*N - 1
	galEl &= mask

	for i, qi := range r.Moduli {
		a, c := p.Coeffs[i], out.Coeffs[i]
		tmp := make([]uint64, N)
		for j := uint64(0); j < N; j++ {
			// X^j -> X^(j*galEl); reduce exponent mod 2N and fold the sign flip from
			// X^N = -1 into the coefficient when the reduced exponent exceeds N-1.
			idx := (j * galEl) & mask
			if idx < N {
				tmp[idx] = AddMod(tmp[idx], a[j], qi)
			} else {
				tmp[idx-N] = SubMod(tmp[idx-N], a[j], qi)
			}
		}
		copy(c, tmp)
	}
}

// PermuteNTT applies the same automorphism directly to a bit-reversed NTT-domain
// polynomial by permuting the index of each NTT slot, avoiding a round trip through
// the coefficient domain. Slot k of the NTT-domain representation corresponds to
// evaluation at psi^(2*br(k)+1); the automorphism X -> X^galEl maps that evaluation
// point's index multiplicatively by galEl mod 2N.
func (r *Ring) PermuteNTT(p *Poly, galEl uint64, out *Poly) {
	N := r.N
	logN := bitLen(N) - 1
	mask := uint64(2*N - 1)
	galEl &= mask

	perm := make([]int, N)
	for k := 0; k < N; k++ {
		br := bitReverse(k, logN)
		idx := ((uint64(2*br+1) * galEl) & mask)
		newBr := int((idx - 1) / 2)
		perm[k] = bitReverse(newBr, logN)
	}

	for i := range r.Moduli {
		a, c := p.Coeffs[i], out.Coeffs[i]
		tmp := make([]uint64, N)
		for k := 0; k < N; k++ {
			tmp[k] = a[perm[k]]
		}
		copy(c, tmp)
	}
}
