package ring

import "math/big"

// Add computes p1+p2 mod qi residue-wise, prime-by-prime, storing the result in out
// (spec.md §4.3). p1, p2 and out must share the same level.
func (r *Ring) Add(p1, p2, out *Poly) {
	for i := range p1.Coeffs {
		q := r.Moduli[i]
		a, b, c := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = AddMod(a[j], b[j], q)
		}
	}
}

// Sub computes p1-p2 mod qi residue-wise, storing the result in out.
//
// This is the spec's fix for the source's SlotEvaluator asymmetry (spec.md §9): sub is
// always "first operand minus second operand", with no implicit operand swap.
func (r *Ring) Sub(p1, p2, out *Poly) {
	for i := range p1.Coeffs {
		q := r.Moduli[i]
		a, b, c := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = SubMod(a[j], b[j], q)
		}
	}
}

// Neg computes -p mod qi residue-wise, storing the result in out.
func (r *Ring) Neg(p, out *Poly) {
	for i := range p.Coeffs {
		q := r.Moduli[i]
		a, c := p.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = NegMod(a[j], q)
		}
	}
}

// MulCoeffs computes the coefficient-wise (NTT-domain) product p1*p2 mod qi, storing
// the result in out. Callers in coefficient domain must transform first (spec.md §4.3).
func (r *Ring) MulCoeffs(p1, p2, out *Poly) {
	for i := range p1.Coeffs {
		q := r.Moduli[i]
		bred := r.bredParams[i]
		a, b, c := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = BRed(a[j], b[j], q, bred)
		}
	}
}

// MulCoeffsAndAdd computes out += p1*p2 mod qi, coefficient-wise.
func (r *Ring) MulCoeffsAndAdd(p1, p2, out *Poly) {
	for i := range p1.Coeffs {
		q := r.Moduli[i]
		bred := r.bredParams[i]
		a, b, c := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = AddMod(c[j], BRed(a[j], b[j], q, bred), q)
		}
	}
}

// MulScalar multiplies p by a uint64 scalar reduced modulo each qi, storing the result
// in out.
func (r *Ring) MulScalar(p *Poly, scalar uint64, out *Poly) {
	for i := range p.Coeffs {
		q := r.Moduli[i]
		bred := r.bredParams[i]
		s := BRedAdd(scalar, q, bred)
		a, c := p.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = BRed(a[j], s, q, bred)
		}
	}
}

// ScaleByConstants multiplies the dense coefficient vector src (each entry reduced
// modulo the relevant limb) by a different per-limb constant scalars[i], writing the
// qi-reduced products into out's limb i. Used to lift a plaintext — meaningful only in
// limb 0 — scaled by Delta into every ciphertext-modulus limb (spec.md §4.5 fresh
// encryption, §4.6 add_plain/sub_plain).
func (r *Ring) ScaleByConstants(src []uint64, scalars []uint64, out *Poly) {
	for i, qi := range r.Moduli {
		bred := r.bredParams[i]
		s := BRedAdd(scalars[i], qi, bred)
		o := out.Coeffs[i]
		for n, v := range src {
			o[n] = BRed(BRedAdd(v, qi, bred), s, qi, bred)
		}
	}
}

// MulScalarBigint multiplies p by an arbitrary-precision scalar, reducing the scalar
// modulo each qi before the per-limb multiply. Used by key generation's digit-ladder
// construction (spec.md §4.7), where w^i quickly exceeds 64 bits.
func (r *Ring) MulScalarBigint(p *Poly, scalar *big.Int, out *Poly) {
	for i, qi := range r.Moduli {
		bred := r.bredParams[i]
		s := new(big.Int).Mod(scalar, new(big.Int).SetUint64(qi)).Uint64()
		a, c := p.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = BRed(a[j], s, qi, bred)
		}
	}
}

// DigitDecompose reconstructs each coefficient of p (via CRT across every limb) as a
// big integer and re-expresses it in base w = 2^dbc using `levels` digits, lifting each
// digit back into the same k-limb RNS representation. This is the "digit-decompose each
// residue with base w into ℓ pieces" step of relinearize and the Galois key-switch
// ladder (spec.md §4.6, §4.7); ℓ = levels is Parameters.DecompLevels().
func (r *Ring) DigitDecompose(p *Poly, dbc, levels int) []*Poly {
	N := r.N
	digits := make([]*Poly, levels)
	for l := range digits {
		digits[l] = NewPoly(N, len(r.Moduli))
	}

	w := new(big.Int).Lsh(big.NewInt(1), uint(dbc))
	xs := r.PolyToBigint(p)
	for n := 0; n < N; n++ {
		x := new(big.Int).Set(xs[n])
		for l := 0; l < levels; l++ {
			digit := new(big.Int).Mod(x, w)
			x.Rsh(x, uint(dbc))
			dVal := digit.Uint64()
			for i, qi := range r.Moduli {
				digits[l].Coeffs[i][n] = dVal % qi
			}
		}
	}
	return digits
}

// Reduce canonically reduces every residue of p (e.g. after a NoMod accumulation that
// allowed values up to 2q) into [0, qi), storing the result in out.
func (r *Ring) Reduce(p, out *Poly) {
	for i := range p.Coeffs {
		q := r.Moduli[i]
		a, c := p.Coeffs[i], out.Coeffs[i]
		for j := range a {
			c[j] = CRed(CRed(a[j], q), q)
		}
	}
}

// Equal reports whether p1 and p2 hold identical residues.
func (r *Ring) Equal(p1, p2 *Poly) bool {
	return p1.Equal(p2)
}

// ModSwitchDown drops the last RNS limb of p, rounding the remaining residues to
// preserve the represented integer as closely as possible (spec.md §4.3):
//
//	x ↦ round(x / q_{k-1}) = (x - [x]_{q_{k-1}}) / q_{k-1}  lifted to each remaining qi,
//
// where [x]_{q_{k-1}} is the centered remainder in (-q_{k-1}/2, q_{k-1}/2],
//
// using the precomputed inverse of the dropped prime modulo each surviving prime. out
// must have one fewer level than p.
func (r *Ring) ModSwitchDown(p, out *Poly) error {
	k := p.Level()
	if k < 2 {
		return errOutOfRange("cannot mod-switch down a polynomial with fewer than 2 limbs")
	}
	if out.Level() != k-1 {
		return errShapeMismatch("mod-switch output must have %d limbs, has %d", k-1, out.Level())
	}

	qLast := r.Moduli[k-1]
	half := qLast >> 1
	last := p.Coeffs[k-1]

	// Center the last limb's residues around zero so the rounding error introduced by
	// integer division is bounded by 1/2, then reduce that centered remainder modulo
	// each surviving prime.
	for i := 0; i < k-1; i++ {
		qi := r.Moduli[i]
		bred := r.bredParams[i]
		qInv := r.mredParams[i]
		lastInvModQi := MForm(ModExp(qLast%qi, qi-2, qi), qi, bred)

		a, c := p.Coeffs[i], out.Coeffs[i]
		for j := range a {
			lj := last[j]
			centered := lj
			sign := int64(1)
			if lj > half {
				centered = qLast - lj
				sign = -1
			}
			centeredModQi := centered % qi
			diff := a[j]
			if sign > 0 {
				diff = SubMod(diff, centeredModQi, qi)
			} else {
				diff = AddMod(diff, centeredModQi, qi)
			}
			c[j] = MRed(diff, lastInvModQi, qi, qInv)
		}
	}
	return nil
}

// PolyToBigint reconstructs the big.Int coefficients represented by p's RNS residues
// via CRT, used by decryption's final round/extract step and by tests.
func (r *Ring) PolyToBigint(p *Poly) []*big.Int {
	N := r.N
	out := make([]*big.Int, N)
	Q := r.ModulusBigint

	qDivQi := make([]*big.Int, len(r.Moduli))
	qDivQiInv := make([]uint64, len(r.Moduli))
	for i, qi := range r.Moduli {
		qDivQi[i] = new(big.Int).Quo(Q, new(big.Int).SetUint64(qi))
		inv := new(big.Int).Mod(qDivQi[i], new(big.Int).SetUint64(qi)).Uint64()
		qDivQiInv[i] = ModExp(inv, qi-2, qi)
	}

	for j := 0; j < N; j++ {
		acc := new(big.Int)
		for i, qi := range r.Moduli {
			xi := BRed(p.Coeffs[i][j], qDivQiInv[i], qi, r.bredParams[i])
			term := new(big.Int).Mul(qDivQi[i], new(big.Int).SetUint64(xi))
			acc.Add(acc, term)
		}
		acc.Mod(acc, Q)
		out[j] = acc
	}
	return out
}

func errShapeMismatch(format string, args ...interface{}) error {
	return newErr(KindShapeMismatch, format, args...)
}
