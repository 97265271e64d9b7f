package ring

// NTT applies the forward negacyclic number-theoretic transform to p in place, for
// every RNS limb, using the Cooley-Tukey butterfly and bit-reversed psi-power tables
// generated in ring.go (spec.md §4.2). p must be in natural (coefficient) order on
// entry; it is left in bit-reversed (NTT-domain) order.
func (r *Ring) NTT(p *Poly) {
	for level := 0; level < len(r.Moduli); level++ {
		r.nttLevel(p.Coeffs[level], level)
	}
}

// NTTLvl behaves like NTT but restricts the transform to the first levels+1 RNS limbs,
// matching the teacher's "Lvl" variants used once a ciphertext has been mod-switched
// down to fewer primes.
func (r *Ring) NTTLvl(levels int, p *Poly) {
	for level := 0; level <= levels; level++ {
		r.nttLevel(p.Coeffs[level], level)
	}
}

func ctButterfly(coeffs []uint64, j int, t int, w, q, qInv uint64) {
	u := coeffs[j]
	v := MRed(coeffs[j+t], w, q, qInv)
	coeffs[j] = AddMod(u, v, q)
	coeffs[j+t] = SubMod(u, v, q)
}

func (r *Ring) nttLevel(coeffs []uint64, level int) {
	N := r.N
	q := r.Moduli[level]
	qInv := r.mredParams[level]
	psi := r.nttPsi[level]
	stride := nttUnroll

	t := N
	for m := 1; m < N; m <<= 1 {
		t >>= 1
		for i := 0; i < m; i++ {
			j1 := 2 * i * t
			j2 := j1 + t
			w := psi[m+i]

			j := j1
			for ; j+stride <= j2; j += stride {
				for s := 0; s < stride; s++ {
					ctButterfly(coeffs, j+s, t, w, q, qInv)
				}
			}
			for ; j < j2; j++ {
				ctButterfly(coeffs, j, t, w, q, qInv)
			}
		}
	}
}

// InvNTT applies the inverse negacyclic NTT to p in place, for every RNS limb, using
// the Gentleman-Sande butterfly. p must be in bit-reversed (NTT-domain) order on
// entry; it is left in natural (coefficient) order, scaled by N^-1 mod qi.
func (r *Ring) InvNTT(p *Poly) {
	for level := 0; level < len(r.Moduli); level++ {
		r.invNTTLevel(p.Coeffs[level], level)
	}
}

// InvNTTLvl is the level-bounded counterpart of InvNTT.
func (r *Ring) InvNTTLvl(levels int, p *Poly) {
	for level := 0; level <= levels; level++ {
		r.invNTTLevel(p.Coeffs[level], level)
	}
}

func gsButterfly(coeffs []uint64, j int, t int, w, q, qInv uint64) {
	u := coeffs[j]
	v := coeffs[j+t]
	coeffs[j] = AddMod(u, v, q)
	coeffs[j+t] = MRed(SubMod(u, v, q), w, q, qInv)
}

func (r *Ring) invNTTLevel(coeffs []uint64, level int) {
	N := r.N
	q := r.Moduli[level]
	qInv := r.mredParams[level]
	psiInv := r.nttPsiInv[level]
	stride := nttUnroll

	t := 1
	for m := N; m > 1; m >>= 1 {
		j1 := 0
		h := m >> 1
		for i := 0; i < h; i++ {
			j2 := j1 + t
			w := psiInv[h+i]

			j := j1
			for ; j+stride <= j2; j += stride {
				for s := 0; s < stride; s++ {
					gsButterfly(coeffs, j+s, t, w, q, qInv)
				}
			}
			for ; j < j2; j++ {
				gsButterfly(coeffs, j, t, w, q, qInv)
			}

			j1 += 2 * t
		}
		t <<= 1
	}

	nInv := r.nInv[level]
	for i := 0; i < N; i++ {
		coeffs[i] = MRed(coeffs[i], nInv, q, qInv)
	}
}
