package ring

import "math/big"

// BaseConverter implements the fast RNS basis conversion BFV multiplication needs
// (spec.md §4.4, the "Bajard-Eynard-Hasan-Zucca style" pipeline): lifting a polynomial
// from the ciphertext basis Q = {q0,...,q_{k-1}} into an auxiliary basis
// Bsk = B ∪ {msk}, and converting back while dividing and rounding by t/Q. It is
// modelled on the teacher's ring.BasisExtender (ring/basis_extension.go), simplified to
// drop the unsafe-pointer batched inner loop in favor of plain MRed/BRed arithmetic.
type BaseConverter struct {
	ringQ *Ring
	ringB *Ring // auxiliary basis, same cardinality as ringQ
	msk   uint64

	// Step 1: Q -> B ∪ {msk}.
	qModB    [][]uint64 // (Q/qi) mod each b_j, Montgomery form
	qInvModQ []uint64   // (Q/qi)^-1 mod qi, used to center residues before conversion
	qModMsk  []uint64   // (Q/qi) mod msk, plain form

	// Step 3/4: scale by t/Q into B, then correct B -> Q using msk as shadow prime.
	tQInvModB   [][]uint64 // t * (Q/qi) mod b_j, Montgomery form
	tQInvModMsk []uint64   // t * (Q/qi) mod msk, plain form
	bModQ       [][]uint64 // (B/b_j) mod each qi, Montgomery form, used to reconstruct B -> Q
	bInvModB    []uint64   // (B/b_j)^-1 mod b_j, used to center B-basis residues before conversion
	BBigint     *big.Int
}

// NewBaseConverter builds the precomputed tables for converting between ringQ and an
// auxiliary ringB augmented with a shadow prime msk, given a plaintext modulus t used
// by the scale-and-round step of ciphertext multiplication.
func NewBaseConverter(ringQ, ringB *Ring, msk uint64, t uint64) (*BaseConverter, error) {
	if ringQ.N != ringB.N {
		return nil, errInvalidParameters("base converter: Q and B rings must share N")
	}
	if len(ringQ.Moduli) != len(ringB.Moduli) {
		return nil, errInvalidParameters("base converter: B must have the same cardinality as Q")
	}

	bc := &BaseConverter{ringQ: ringQ, ringB: ringB, msk: msk}
	k := len(ringQ.Moduli)

	Q := ringQ.ModulusBigint
	B := ringB.ModulusBigint
	bc.BBigint = B

	bc.qModB = make([][]uint64, k)
	bc.qInvModQ = make([]uint64, k)
	bc.qModMsk = make([]uint64, k)
	bc.tQInvModB = make([][]uint64, k)
	bc.tQInvModMsk = make([]uint64, k)

	mskBig := new(big.Int).SetUint64(msk)
	bredMsk := BRedParams(msk)

	for i, qi := range ringQ.Moduli {
		qiBig := new(big.Int).SetUint64(qi)
		QDivQi := new(big.Int).Quo(Q, qiBig)

		bc.qModB[i] = make([]uint64, k)
		bc.tQInvModB[i] = make([]uint64, k)
		for j, bj := range ringB.Moduli {
			bred := ringB.bredParams[j]
			bjBig := new(big.Int).SetUint64(bj)
			qDivQiModBj := new(big.Int).Mod(QDivQi, bjBig).Uint64()
			bc.qModB[i][j] = MForm(qDivQiModBj, bj, bred)
			bc.tQInvModB[i][j] = MForm(BRed(t%bj, qDivQiModBj, bj, bred), bj, bred)
		}

		qDivQiModMsk := new(big.Int).Mod(QDivQi, mskBig).Uint64()
		bc.qModMsk[i] = qDivQiModMsk
		bc.tQInvModMsk[i] = BRed(t%msk, qDivQiModMsk, msk, bredMsk)

		qDivQiModQi := new(big.Int).Mod(QDivQi, qiBig).Uint64()
		bc.qInvModQ[i] = ModExp(qDivQiModQi, qi-2, qi)
	}

	bc.bModQ = make([][]uint64, k)
	bc.bInvModB = make([]uint64, k)
	for j, bj := range ringB.Moduli {
		bjBig := new(big.Int).SetUint64(bj)
		BDivBj := new(big.Int).Quo(B, bjBig)
		bDivBjModBj := new(big.Int).Mod(BDivBj, bjBig).Uint64()
		bc.bInvModB[j] = ModExp(bDivBjModBj, bj-2, bj)

		bc.bModQ[j] = make([]uint64, k)
		for i, qi := range ringQ.Moduli {
			bred := ringQ.bredParams[i]
			bDivBjModQi := new(big.Int).Mod(BDivBj, new(big.Int).SetUint64(qi)).Uint64()
			bc.bModQ[j][i] = MForm(bDivBjModQi, qi, bred)
		}
	}

	return bc, nil
}

// liftQResidues centers each residue of p modulo its own qi by multiplying by
// qInvModQ[i] (spec.md §4.4 step 1's "(x_i * (Q/qi)^-1 mod qi)" term), producing the
// normalized representation that qModB/qModMsk/tQInvModB/tQInvModMsk are defined
// relative to.
func (bc *BaseConverter) liftQResidues(p *Poly) [][]uint64 {
	N := bc.ringQ.N
	xHat := make([][]uint64, len(bc.ringQ.Moduli))
	for i, qi := range bc.ringQ.Moduli {
		bred := bc.ringQ.bredParams[i]
		qInv := bc.qInvModQ[i]
		row := make([]uint64, N)
		for n := 0; n < N; n++ {
			row[n] = BRed(p.Coeffs[i][n], qInv, qi, bred)
		}
		xHat[i] = row
	}
	return xHat
}

// ExtendBasis lifts p (in basis Q, coefficient domain) into basis Bsk = B ∪ {msk},
// writing the B-basis limbs into outB and the msk limb (one value per coefficient) into
// outMsk. This is step 1
// of spec.md §4.4: express c in basis B ∪ {m_sk} as
// Σ_i [ (x_i * (Q/qi)^-1 mod qi) * (Q/qi mod b_j) ] mod b_j, with msk acting as a
// redundant "shadow" limb used later to detect and correct the q-multiple that the
// rounding in step 3/4 can introduce.
func (bc *BaseConverter) ExtendBasis(p *Poly, outB *Poly, outMsk []uint64) {
	N := bc.ringQ.N
	k := len(bc.ringQ.Moduli)
	xHat := bc.liftQResidues(p)

	for j, bj := range bc.ringB.Moduli {
		mred := bc.ringB.mredParams[j]
		out := outB.Coeffs[j]
		for n := 0; n < N; n++ {
			var acc uint64
			for i := 0; i < k; i++ {
				acc = AddMod(acc, MRed(xHat[i][n], bc.qModB[i][j], bj, mred), bj)
			}
			out[n] = acc
		}
	}

	bredMsk := BRedParams(bc.msk)
	for n := 0; n < N; n++ {
		var acc uint64
		for i := 0; i < k; i++ {
			acc = AddMod(acc, BRed(xHat[i][n], bc.qModMsk[i], bc.msk, bredMsk), bc.msk)
		}
		outMsk[n] = acc
	}
}

// ScaleAndRound computes floor(t/Q * x) for x represented across basis Q ∪ Bsk after
// the tensoring multiply, writing the rounded result (now back in basis Q) to out.
// This folds spec.md §4.4 steps 3 and 4: divide-and-round by Q into B (scaling by
// t*Q^-1 mod b_j with the stored Q_i/Q correction), then convert B -> Q, correcting the
// single possible overflow term using msk as the shadow prime.
func (bc *BaseConverter) ScaleAndRound(xQ *Poly, xB *Poly, xMsk []uint64, out *Poly) {
	N := bc.ringQ.N
	k := len(bc.ringQ.Moduli)

	// Step 3: fold the Q-basis limbs of x (after centering by qInvModQ, same as
	// ExtendBasis) into B ∪ {msk}, scaled by t*Q^-1.
	xHat := bc.liftQResidues(xQ)

	tmpB := make([][]uint64, len(bc.ringB.Moduli))
	for j := range tmpB {
		tmpB[j] = make([]uint64, N)
	}
	tmpMsk := make([]uint64, N)
	bredMsk := BRedParams(bc.msk)

	for i := 0; i < k; i++ {
		for j, bj := range bc.ringB.Moduli {
			scaled := bc.tQInvModB[i][j]
			mred := bc.ringB.mredParams[j]
			for n := 0; n < N; n++ {
				tmpB[j][n] = AddMod(tmpB[j][n], MRed(xHat[i][n], scaled, bj, mred), bj)
			}
		}
		for n := 0; n < N; n++ {
			tmpMsk[n] = AddMod(tmpMsk[n], BRed(xHat[i][n], bc.tQInvModMsk[i], bc.msk, bredMsk), bc.msk)
		}
	}
	_ = xB
	_ = xMsk

	// Step 4: center the B-basis limbs by bInvModB (the same normalization ExtendBasis
	// applies on the Q side), then convert from B back to Q.
	tmpBHat := make([][]uint64, len(bc.ringB.Moduli))
	for j, bj := range bc.ringB.Moduli {
		bred := bc.ringB.bredParams[j]
		bInv := bc.bInvModB[j]
		row := make([]uint64, N)
		for n := 0; n < N; n++ {
			row[n] = BRed(tmpB[j][n], bInv, bj, bred)
		}
		tmpBHat[j] = row
	}

	for i, qi := range bc.ringQ.Moduli {
		mred := bc.ringQ.mredParams[i]
		out_i := out.Coeffs[i]
		for n := 0; n < N; n++ {
			var acc uint64
			for j := range bc.ringB.Moduli {
				acc = AddMod(acc, MRed(tmpBHat[j][n], bc.bModQ[j][i], qi, mred), qi)
			}
			out_i[n] = acc
		}
	}

	// Shadow-prime correction: recompute the same reconstruction modulo msk and, if it
	// disagrees with tmpMsk, subtract B mod qi once (the rounding can only ever be off
	// by one multiple of B, per the BEHZ error bound spec.md §4.4 cites).
	reconstructedMsk := make([]uint64, N)
	for j := range bc.ringB.Moduli {
		bModMsk := BRedAdd(quoBmodMsk(bc, j).Uint64(), bc.msk, bredMsk)
		for n := 0; n < N; n++ {
			reconstructedMsk[n] = AddMod(reconstructedMsk[n], BRed(tmpBHat[j][n], bModMsk, bc.msk, bredMsk), bc.msk)
		}
	}
	for i, qi := range bc.ringQ.Moduli {
		bModQi := new(big.Int).Mod(bc.BBigint, new(big.Int).SetUint64(qi)).Uint64()
		out_i := out.Coeffs[i]
		for n := 0; n < N; n++ {
			if reconstructedMsk[n] != tmpMsk[n] {
				out_i[n] = SubMod(out_i[n], bModQi, qi)
			}
		}
	}
}

// quoBmodMsk computes (B / b_j) mod msk once per shadow-prime check; B is large enough
// (a product of k primes) that this stays a big.Int computation rather than a
// precomputed table entry.
func quoBmodMsk(bc *BaseConverter, j int) *big.Int {
	bj := bc.ringB.Moduli[j]
	BDivBj := new(big.Int).Quo(bc.BBigint, new(big.Int).SetUint64(bj))
	return new(big.Int).Mod(BDivBj, new(big.Int).SetUint64(bc.msk))
}
