package bfv

import (
	"sync"

	"github.com/openbfv/lattice/ring"
	"github.com/openbfv/lattice/rlwe"
)

// Evaluator dispatches every homomorphic operation of spec.md §4.6 (C6): it owns the
// ciphertext-modulus ring, the BEHZ auxiliary basis (C4) needed by multiply, and a
// bounded worker pool for multiply_many/add_many.
type Evaluator struct {
	params rlwe.Parameters

	ringQ   *ring.Ring
	ringB   *ring.Ring // auxiliary basis B
	ringMsk *ring.Ring // single-limb ring over the shadow prime msk
	msk     uint64
	bconv   *ring.BaseConverter

	pool *EvaluatorPool
}

// NewEvaluator builds an Evaluator for params, generating a BEHZ-style auxiliary basis
// B ∪ {msk} one bit wider than Q and disjoint from it (spec.md §4.4).
func NewEvaluator(params rlwe.Parameters) (*Evaluator, error) {
	ringQ := params.RingQ()
	N := params.N()
	k := ringQ.Level()

	exclude := make(map[uint64]bool, 2*k+1)
	for _, qi := range ringQ.Moduli {
		exclude[qi] = true
	}

	logAux := ring.MaxBitLen(ringQ.Moduli) + 1
	auxPrimes, err := ring.GenerateNTTPrimesExcluding(logAux, uint64(N), k, exclude)
	if err != nil {
		return nil, err
	}
	for _, p := range auxPrimes {
		exclude[p] = true
	}
	mskPrimes, err := ring.GenerateNTTPrimesExcluding(logAux, uint64(N), 1, exclude)
	if err != nil {
		return nil, err
	}
	msk := mskPrimes[0]

	ringB, err := ring.NewRing(N, auxPrimes)
	if err != nil {
		return nil, err
	}
	ringMsk, err := ring.NewRing(N, []uint64{msk})
	if err != nil {
		return nil, err
	}

	bconv, err := ring.NewBaseConverter(ringQ, ringB, msk, params.T())
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		params:  params,
		ringQ:   ringQ,
		ringB:   ringB,
		ringMsk: ringMsk,
		msk:     msk,
		bconv:   bconv,
		pool:    NewEvaluatorPool(0),
	}, nil
}

// Negate computes -c coefficient-wise; size and NTT form are unchanged (spec.md §4.6).
func (ev *Evaluator) Negate(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	out := ct.CopyNew()
	for _, p := range out.Value {
		ev.ringQ.Neg(p, p)
	}
	return out, nil
}

// Add computes c+d, zero-padding the shorter operand to the longer's size (spec.md
// §4.6). Both operands must share the same NTT-form flag.
func (ev *Evaluator) Add(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), a.Fingerprint(), b.Fingerprint()); err != nil {
		return nil, err
	}
	if a.IsNTT != b.IsNTT {
		return nil, ring.NewShapeMismatchError("add: operands have mismatched NTT-form flags")
	}
	size := maxInt(a.Size(), b.Size())
	out := rlwe.NewCiphertext(ev.params, size)
	out.IsNTT = a.IsNTT
	for i := 0; i < size; i++ {
		switch {
		case i < a.Size() && i < b.Size():
			ev.ringQ.Add(a.Value[i], b.Value[i], out.Value[i])
		case i < a.Size():
			out.Value[i].Copy(a.Value[i])
		default:
			out.Value[i].Copy(b.Value[i])
		}
	}
	return out, nil
}

// Sub computes a-b (spec.md §9: no implicit operand swap — a is always "minuend"),
// zero-padding the shorter operand to the longer's size.
func (ev *Evaluator) Sub(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), a.Fingerprint(), b.Fingerprint()); err != nil {
		return nil, err
	}
	if a.IsNTT != b.IsNTT {
		return nil, ring.NewShapeMismatchError("sub: operands have mismatched NTT-form flags")
	}
	size := maxInt(a.Size(), b.Size())
	out := rlwe.NewCiphertext(ev.params, size)
	out.IsNTT = a.IsNTT
	for i := 0; i < size; i++ {
		switch {
		case i < a.Size() && i < b.Size():
			ev.ringQ.Sub(a.Value[i], b.Value[i], out.Value[i])
		case i < a.Size():
			out.Value[i].Copy(a.Value[i])
		default:
			ev.ringQ.Neg(b.Value[i], out.Value[i])
		}
	}
	return out, nil
}

// AddPlain adds Δ*m into c0, where Δ = floor(q/t) (spec.md §4.6); requires c in
// coefficient form.
func (ev *Evaluator) AddPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), ct.Fingerprint(), pt.Fingerprint()); err != nil {
		return nil, err
	}
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("add_plain requires a coefficient-domain ciphertext")
	}
	out := ct.CopyNew()
	scaled := ev.ringQ.NewPoly()
	ev.ringQ.ScaleByConstants(pt.Coefficients(), ev.params.Delta(), scaled)
	ev.ringQ.Add(out.Value[0], scaled, out.Value[0])
	return out, nil
}

// SubPlain subtracts Δ*m from c0 (spec.md §4.6); requires c in coefficient form.
func (ev *Evaluator) SubPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), ct.Fingerprint(), pt.Fingerprint()); err != nil {
		return nil, err
	}
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("sub_plain requires a coefficient-domain ciphertext")
	}
	out := ct.CopyNew()
	scaled := ev.ringQ.NewPoly()
	ev.ringQ.ScaleByConstants(pt.Coefficients(), ev.params.Delta(), scaled)
	ev.ringQ.Sub(out.Value[0], scaled, out.Value[0])
	return out, nil
}

// liftedPoly is a single RNS polynomial lifted into the combined basis Q ∪ B ∪ {msk}
// and transformed to the NTT domain in every component, ready for the tensor product
// step of multiply/square (spec.md §4.4, §4.6).
type liftedPoly struct {
	q, b *ring.Poly
	msk  []uint64
}

func (ev *Evaluator) liftOperand(p *ring.Poly) liftedPoly {
	N := ev.params.N()
	qPart := p.CopyNew()
	bPart := ev.ringB.NewPoly()
	mskVal := make([]uint64, N)
	ev.bconv.ExtendBasis(p, bPart, mskVal)

	ev.ringQ.NTT(qPart)
	ev.ringB.NTT(bPart)
	ev.ringMsk.NTT(&ring.Poly{Coeffs: [][]uint64{mskVal}})
	return liftedPoly{q: qPart, b: bPart, msk: mskVal}
}

// accumulate adds weight copies of a*b (one multiplication, weight additions) into the
// (outQ, outB, outMsk) accumulator. square() passes weight=2 for cross terms to avoid a
// second multiplication, halving the NTT-domain multiply count relative to multiply()
// (spec.md §4.6 "square... uses symmetry to halve the NTT-domain multiplications").
func (ev *Evaluator) accumulate(outQ, outB *ring.Poly, outMsk []uint64, a, b liftedPoly, weight int) {
	tmpQ := ev.ringQ.NewPoly()
	ev.ringQ.MulCoeffs(a.q, b.q, tmpQ)
	tmpB := ev.ringB.NewPoly()
	ev.ringB.MulCoeffs(a.b, b.b, tmpB)

	bredMsk := ring.BRedParams(ev.msk)
	tmpMsk := make([]uint64, len(outMsk))
	for n := range tmpMsk {
		tmpMsk[n] = ring.BRed(a.msk[n], b.msk[n], ev.msk, bredMsk)
	}

	for w := 0; w < weight; w++ {
		ev.ringQ.Add(outQ, tmpQ, outQ)
		ev.ringB.Add(outB, tmpB, outB)
		for n := range outMsk {
			outMsk[n] = ring.AddMod(outMsk[n], tmpMsk[n], ev.msk)
		}
	}
}

func (ev *Evaluator) finishTensorTerm(outQ, outB *ring.Poly, outMsk []uint64, dst *ring.Poly) {
	ev.ringQ.InvNTT(outQ)
	ev.ringB.InvNTT(outB)
	ev.ringMsk.InvNTT(&ring.Poly{Coeffs: [][]uint64{outMsk}})
	ev.bconv.ScaleAndRound(outQ, outB, outMsk, dst)
}

// Multiply computes the tensor product of a and d: output size s_a+s_d-1, term j is
// sum over a+b=j of c_a*d_b, each term lifted to Q ∪ B via base extension, multiplied
// in the NTT domain, and scaled back to Q by t/Q via the base converter (spec.md §4.4,
// §4.6). Both operands must be in coefficient form.
func (ev *Evaluator) Multiply(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), a.Fingerprint(), b.Fingerprint()); err != nil {
		return nil, err
	}
	if a.IsNTT || b.IsNTT {
		return nil, ring.NewShapeMismatchError("multiply requires coefficient-domain operands")
	}

	sizeA, sizeB := a.Size(), b.Size()
	sizeOut := sizeA + sizeB - 1
	N := ev.params.N()

	la := make([]liftedPoly, sizeA)
	for i, p := range a.Value {
		la[i] = ev.liftOperand(p)
	}
	lb := make([]liftedPoly, sizeB)
	for i, p := range b.Value {
		lb[i] = ev.liftOperand(p)
	}

	outQ := make([]*ring.Poly, sizeOut)
	outB := make([]*ring.Poly, sizeOut)
	outMsk := make([][]uint64, sizeOut)
	for j := range outQ {
		outQ[j] = ev.ringQ.NewPoly()
		outB[j] = ev.ringB.NewPoly()
		outMsk[j] = make([]uint64, N)
	}

	for i := 0; i < sizeA; i++ {
		for j := 0; j < sizeB; j++ {
			ev.accumulate(outQ[i+j], outB[i+j], outMsk[i+j], la[i], lb[j], 1)
		}
	}

	out := rlwe.NewCiphertext(ev.params, sizeOut)
	for j := 0; j < sizeOut; j++ {
		ev.finishTensorTerm(outQ[j], outB[j], outMsk[j], out.Value[j])
	}
	out.IsNTT = false
	return out, nil
}

// Square is equivalent to Multiply(c, c) but computes each distinct cross-term product
// once and adds it in twice, instead of multiplying it twice (spec.md §4.6).
func (ev *Evaluator) Square(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("square requires a coefficient-domain ciphertext")
	}
	size := ct.Size()
	sizeOut := 2*size - 1
	N := ev.params.N()

	la := make([]liftedPoly, size)
	for i, p := range ct.Value {
		la[i] = ev.liftOperand(p)
	}

	outQ := make([]*ring.Poly, sizeOut)
	outB := make([]*ring.Poly, sizeOut)
	outMsk := make([][]uint64, sizeOut)
	for j := range outQ {
		outQ[j] = ev.ringQ.NewPoly()
		outB[j] = ev.ringB.NewPoly()
		outMsk[j] = make([]uint64, N)
	}

	for i := 0; i < size; i++ {
		ev.accumulate(outQ[2*i], outB[2*i], outMsk[2*i], la[i], la[i], 1)
		for j := i + 1; j < size; j++ {
			ev.accumulate(outQ[i+j], outB[i+j], outMsk[i+j], la[i], la[j], 2)
		}
	}

	out := rlwe.NewCiphertext(ev.params, sizeOut)
	for j := 0; j < sizeOut; j++ {
		ev.finishTensorTerm(outQ[j], outB[j], outMsk[j], out.Value[j])
	}
	out.IsNTT = false
	return out, nil
}

// extendPlainToQ lifts a plaintext's limb-0 coefficients (each < t) into a full k-limb
// polynomial with residues reduced modulo every ciphertext-modulus prime.
func (ev *Evaluator) extendPlainToQ(pt *rlwe.Plaintext) *ring.Poly {
	out := ev.ringQ.NewPoly()
	coeffs := pt.Coefficients()
	for i, qi := range ev.ringQ.Moduli {
		dst := out.Coeffs[i]
		for n, v := range coeffs {
			dst[n] = v % qi
		}
	}
	return out
}

// MultiplyPlain performs scale-free plaintext multiplication: transform m (extended to
// every qi) to NTT form, coefficient-wise multiply each c_j, inverse NTT (spec.md §4.6).
// Requires c in coefficient form; keeps it coefficient-form and the same size.
func (ev *Evaluator) MultiplyPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), ct.Fingerprint(), pt.Fingerprint()); err != nil {
		return nil, err
	}
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("multiply_plain requires a coefficient-domain ciphertext")
	}

	mQ := ev.extendPlainToQ(pt)
	ev.ringQ.NTT(mQ)

	out := rlwe.NewCiphertext(ev.params, ct.Size())
	for i, cj := range ct.Value {
		tmp := cj.CopyNew()
		ev.ringQ.NTT(tmp)
		ev.ringQ.MulCoeffs(tmp, mQ, tmp)
		ev.ringQ.InvNTT(tmp)
		out.Value[i] = tmp
	}
	out.IsNTT = false
	return out, nil
}

// TransformPlainToNTT extends pt to every qi and NTT-transforms it, returning a new
// plaintext flagged IsNTT for use with MultiplyPlainNTT.
func (ev *Evaluator) TransformPlainToNTT(pt *rlwe.Plaintext) *rlwe.Plaintext {
	mQ := ev.extendPlainToQ(pt)
	ev.ringQ.NTT(mQ)
	return rlwe.NewPlaintextFromPoly(ev.params, mQ, true)
}

// MultiplyPlainNTT is the shortcut multiply_plain_ntt: both ct and ptNTT must already
// be pre-transformed to NTT form (spec.md §4.6).
func (ev *Evaluator) MultiplyPlainNTT(ct *rlwe.Ciphertext, ptNTT *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), ct.Fingerprint(), ptNTT.Fingerprint()); err != nil {
		return nil, err
	}
	if !ct.IsNTT || !ptNTT.IsNTT {
		return nil, ring.NewShapeMismatchError("multiply_plain_ntt requires both operands pre-transformed")
	}
	out := ct.CopyNew()
	for _, p := range out.Value {
		ev.ringQ.MulCoeffs(p, ptNTT.Value, p)
	}
	return out, nil
}

// TransformToNTT applies the forward NTT to every polynomial of ct and flips its form
// flag Coeff -> NTT (spec.md §4.6).
func (ev *Evaluator) TransformToNTT(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("transform_to_ntt requires a coefficient-domain ciphertext")
	}
	out := ct.CopyNew()
	for _, p := range out.Value {
		ev.ringQ.NTT(p)
	}
	out.IsNTT = true
	return out, nil
}

// TransformFromNTT applies the inverse NTT to every polynomial of ct and flips its form
// flag NTT -> Coeff (spec.md §4.6).
func (ev *Evaluator) TransformFromNTT(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if !ct.IsNTT {
		return nil, ring.NewShapeMismatchError("transform_from_ntt requires an NTT-domain ciphertext")
	}
	out := ct.CopyNew()
	for _, p := range out.Value {
		ev.ringQ.InvNTT(p)
	}
	out.IsNTT = false
	return out, nil
}

// relinearizeOnce drops the highest-degree element of ct by digit-decomposing it with
// base w into evk's ℓ levels, multiplying each digit by the matching evk pair, and
// folding the result into (c0, c1) (spec.md §4.6, §4.7).
func (ev *Evaluator) relinearizeOnce(ct *rlwe.Ciphertext, evk *rlwe.EvaluationKey) {
	last := ct.Value[ct.Size()-1]
	digits := ev.ringQ.DigitDecompose(last, ev.params.DBC(), len(evk.Levels))

	accB := ev.ringQ.NewPoly()
	accA := ev.ringQ.NewPoly()
	for l, d := range digits {
		ev.ringQ.NTT(d)
		tmp := ev.ringQ.NewPoly()
		ev.ringQ.MulCoeffs(d, evk.Levels[l].B, tmp)
		ev.ringQ.Add(accB, tmp, accB)
		ev.ringQ.MulCoeffs(d, evk.Levels[l].A, tmp)
		ev.ringQ.Add(accA, tmp, accA)
	}
	ev.ringQ.InvNTT(accB)
	ev.ringQ.InvNTT(accA)

	ct.Value = ct.Value[:ct.Size()-1]
	ev.ringQ.Add(ct.Value[0], accB, ct.Value[0])
	ev.ringQ.Add(ct.Value[1], accA, ct.Value[1])
}

// Relinearize shrinks ct to targetSize (spec.md §4.6), targetSize ∈ [2, ct.Size()],
// repeatedly dropping the highest-degree element via the evaluation-key digit ladder.
func (ev *Evaluator) Relinearize(ct *rlwe.Ciphertext, evk *rlwe.EvaluationKey, targetSize int) (*rlwe.Ciphertext, error) {
	if err := rlwe.CheckFingerprint(ev.params.Fingerprint(), ct.Fingerprint(), evk.Fingerprint()); err != nil {
		return nil, err
	}
	if ct.IsNTT {
		return nil, ring.NewShapeMismatchError("relinearize requires a coefficient-domain ciphertext")
	}
	if targetSize < 2 || targetSize > ct.Size() {
		return nil, ring.NewOutOfRangeError("relinearize target size %d out of [2,%d]", targetSize, ct.Size())
	}

	out := ct.CopyNew()
	for out.Size() > targetSize {
		ev.relinearizeOnce(out, evk)
	}
	return out, nil
}

// TryRelinearize converts a Relinearize failure (shape/fingerprint mismatch, bad
// target size) into a boolean, for callers that want to probe without handling an
// error value (spec.md §7 "try_* style variants").
func (ev *Evaluator) TryRelinearize(ct *rlwe.Ciphertext, evk *rlwe.EvaluationKey, targetSize int) (*rlwe.Ciphertext, bool) {
	out, err := ev.Relinearize(ct, evk, targetSize)
	return out, err == nil
}

func bitsAfterLeading(e int) []int {
	bits := make([]int, 0)
	for b := 31; b >= 0; b-- {
		if e&(1<<uint(b)) != 0 {
			for b--; b >= 0; b-- {
				bits = append(bits, (e>>uint(b))&1)
			}
			break
		}
	}
	return bits
}

// Exponentiate computes c^e via O(log e) square-and-multiply, relinearizing back to
// size 2 after every multiplication (spec.md §4.6); fails if e == 0.
func (ev *Evaluator) Exponentiate(ct *rlwe.Ciphertext, e int, evk *rlwe.EvaluationKey) (*rlwe.Ciphertext, error) {
	if e <= 0 {
		return nil, ring.NewOutOfRangeError("exponentiate requires a positive exponent, got %d", e)
	}
	result := ct.CopyNew()
	for _, bit := range bitsAfterLeading(e) {
		sq, err := ev.Square(result)
		if err != nil {
			return nil, err
		}
		result, err = ev.Relinearize(sq, evk, 2)
		if err != nil {
			return nil, err
		}
		if bit == 1 {
			prod, err := ev.Multiply(result, ct)
			if err != nil {
				return nil, err
			}
			result, err = ev.Relinearize(prod, evk, 2)
			if err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// AddMany reduces cts with a balanced binary tree of Add calls, running independent
// pairwise adds on the evaluator's worker pool (spec.md §4.6, §9 supplemented feature:
// concurrent balanced-tree reduction). Fails if cts is empty.
func (ev *Evaluator) AddMany(cts []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if len(cts) == 0 {
		return nil, ring.NewOutOfRangeError("add_many requires a non-empty input")
	}
	level := append([]*rlwe.Ciphertext(nil), cts...)
	var firstErr error
	for len(level) > 1 {
		next := make([]*rlwe.Ciphertext, (len(level)+1)/2)
		var wg sync.WaitGroup
		var mu sync.Mutex
		for i := range next {
			i := i
			wg.Add(1)
			ev.pool.Submit(func() {
				defer wg.Done()
				if 2*i+1 < len(level) {
					sum, err := ev.Add(level[2*i], level[2*i+1])
					if err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						return
					}
					next[i] = sum
				} else {
					next[i] = level[2*i]
				}
			})
		}
		wg.Wait()
		if firstErr != nil {
			return nil, firstErr
		}
		level = next
	}
	return level[0], nil
}

// MultiplyMany reduces cts with a balanced binary tree of Multiply+Relinearize calls,
// running independent subtree products on the evaluator's worker pool (spec.md §4.6,
// §9). Fails if cts is empty.
func (ev *Evaluator) MultiplyMany(cts []*rlwe.Ciphertext, evk *rlwe.EvaluationKey) (*rlwe.Ciphertext, error) {
	if len(cts) == 0 {
		return nil, ring.NewOutOfRangeError("multiply_many requires a non-empty input")
	}
	level := append([]*rlwe.Ciphertext(nil), cts...)
	var firstErr error
	for len(level) > 1 {
		next := make([]*rlwe.Ciphertext, (len(level)+1)/2)
		var wg sync.WaitGroup
		var mu sync.Mutex
		for i := range next {
			i := i
			wg.Add(1)
			ev.pool.Submit(func() {
				defer wg.Done()
				if 2*i+1 < len(level) {
					prod, err := ev.Multiply(level[2*i], level[2*i+1])
					if err == nil {
						prod, err = ev.Relinearize(prod, evk, 2)
					}
					if err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						return
					}
					next[i] = prod
				} else {
					next[i] = level[2*i]
				}
			})
		}
		wg.Wait()
		if firstErr != nil {
			return nil, firstErr
		}
		level = next
	}
	return level[0], nil
}

// GaloisElementForRowRotation returns the automorphism exponent X -> X^g implementing a
// cyclic shift of k slots within each batching row, using generator g=3 of the Galois
// group (Z/2N)*'s order-N/2 subgroup (spec.md glossary "Batching / slots").
func GaloisElementForRowRotation(N, k int) uint64 {
	n2 := uint64(2 * N)
	half := N / 2
	step := ((k % half) + half) % half
	return ring.ModExp(3, uint64(step), n2)
}

// GaloisElementForColumnRotation returns the automorphism exponent X -> X^-1 that swaps
// the two batching rows (spec.md §4.6 rotate_columns).
func GaloisElementForColumnRotation(N int) uint64 {
	return uint64(2*N - 1)
}

// applyGalois permutes ct's two polynomials by the automorphism X -> X^galEl, then
// key-switches the permuted c1 back onto the original secret key using the same
// digit-ladder as relinearize (spec.md §4.6 rotate_rows/rotate_columns).
func (ev *Evaluator) applyGalois(ct *rlwe.Ciphertext, galEl uint64, evk *rlwe.EvaluationKey) (*rlwe.Ciphertext, error) {
	permuted := rlwe.NewCiphertext(ev.params, 2)
	ev.ringQ.Permute(ct.Value[0], galEl, permuted.Value[0])
	ev.ringQ.Permute(ct.Value[1], galEl, permuted.Value[1])

	digits := ev.ringQ.DigitDecompose(permuted.Value[1], ev.params.DBC(), len(evk.Levels))
	accB := ev.ringQ.NewPoly()
	accA := ev.ringQ.NewPoly()
	for l, d := range digits {
		ev.ringQ.NTT(d)
		tmp := ev.ringQ.NewPoly()
		ev.ringQ.MulCoeffs(d, evk.Levels[l].B, tmp)
		ev.ringQ.Add(accB, tmp, accB)
		ev.ringQ.MulCoeffs(d, evk.Levels[l].A, tmp)
		ev.ringQ.Add(accA, tmp, accA)
	}
	ev.ringQ.InvNTT(accB)
	ev.ringQ.InvNTT(accA)

	out := rlwe.NewCiphertext(ev.params, 2)
	ev.ringQ.Add(permuted.Value[0], accB, out.Value[0])
	out.Value[1].Copy(accA)
	out.IsNTT = false
	return out, nil
}

// RotateRows cyclically shifts each batching row by k slots (spec.md §4.6); only
// defined when batching is enabled, on a coefficient-domain, size-2 ciphertext.
func (ev *Evaluator) RotateRows(ct *rlwe.Ciphertext, k int, gks rlwe.GaloisKeySet) (*rlwe.Ciphertext, error) {
	if !ev.params.BatchingEnabled() {
		return nil, ring.NewShapeMismatchError("rotate_rows requires batching (t ≡ 1 mod 2N)")
	}
	if ct.IsNTT || ct.Size() != 2 {
		return nil, ring.NewShapeMismatchError("rotate_rows requires a coefficient-domain, size-2 ciphertext")
	}
	galEl := GaloisElementForRowRotation(ev.params.N(), k)
	gk, ok := gks[galEl]
	if !ok {
		return nil, ring.NewOutOfRangeError("no galois key registered for rotation step %d", k)
	}
	return ev.applyGalois(ct, galEl, &gk.EvaluationKey)
}

// RotateColumns swaps the two batching rows (spec.md §4.6); only defined when batching
// is enabled, on a coefficient-domain, size-2 ciphertext.
func (ev *Evaluator) RotateColumns(ct *rlwe.Ciphertext, gks rlwe.GaloisKeySet) (*rlwe.Ciphertext, error) {
	if !ev.params.BatchingEnabled() {
		return nil, ring.NewShapeMismatchError("rotate_columns requires batching (t ≡ 1 mod 2N)")
	}
	if ct.IsNTT || ct.Size() != 2 {
		return nil, ring.NewShapeMismatchError("rotate_columns requires a coefficient-domain, size-2 ciphertext")
	}
	galEl := GaloisElementForColumnRotation(ev.params.N())
	gk, ok := gks[galEl]
	if !ok {
		return nil, ring.NewOutOfRangeError("no galois key registered for column rotation")
	}
	return ev.applyGalois(ct, galEl, &gk.EvaluationKey)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
