package simulator

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/openbfv/lattice/rlwe"
)

const floatPrec = 200

// BudgetEstimator evaluates a Computation graph into a Simulation by post-order folding
// the closed-form noise-growth bounds of spec.md §4.8, using github.com/ALTree/bigfloat
// for the transcendental terms (√(2π), log2) that plain math.Float64 cannot carry at
// the precision a multi-hundred-bit modulus needs.
type BudgetEstimator struct {
	params rlwe.Parameters
}

// NewBudgetEstimator builds an estimator over params.
func NewBudgetEstimator(params rlwe.Parameters) *BudgetEstimator {
	return &BudgetEstimator{params: params}
}

func newFloat(v float64) *big.Float {
	return new(big.Float).SetPrec(floatPrec).SetFloat64(v)
}

func (be *BudgetEstimator) qFloat() *big.Float {
	return new(big.Float).SetPrec(floatPrec).SetInt(be.params.QBigInt())
}

// freshNoise computes ν_fresh = N·t·(4σ·√(2π) + a_m·n_m) / q (spec.md §4.8).
func (be *BudgetEstimator) freshNoise(nm, am float64) *big.Float {
	N := newFloat(float64(be.params.N()))
	t := newFloat(float64(be.params.T()))
	sigma := newFloat(be.params.Sigma())
	twoPi := bigfloat.Sqrt(newFloat(2 * math.Pi))

	term := new(big.Float).Mul(newFloat(4), sigma)
	term.Mul(term, twoPi)
	term.Add(term, new(big.Float).Mul(newFloat(nm), newFloat(am)))

	nu := new(big.Float).Mul(N, t)
	nu.Mul(nu, term)
	nu.Quo(nu, be.qFloat())
	return nu
}

// relinOverhead computes ℓ·N·σ·w / q, the noise bump (as a fraction of q) a single digit-decomposition
// key-switch adds (spec.md §4.8 relinearize, reused by multiply's relin_overhead(P)).
func (be *BudgetEstimator) relinOverhead() *big.Float {
	levels := newFloat(float64(be.params.DecompLevels()))
	N := newFloat(float64(be.params.N()))
	sigma := newFloat(be.params.Sigma())
	w := newFloat(math.Ldexp(1, be.params.DBC()))

	out := new(big.Float).Mul(levels, N)
	out.Mul(out, sigma)
	out.Mul(out, w)
	out.Quo(out, be.qFloat())
	return out
}

// multiplyNoise computes
// ν' = N·t·(ν1+ν2)·k + N·t²·ν1·ν2 + relin_overhead(P),
// where k (the RNS limb count) stands in for the "parameter-specific" scaling factor
// spec.md §4.8 leaves unspecified — the BEHZ base-conversion error term it represents
// grows with the number of auxiliary-basis primes, which in this engine tracks k.
func (be *BudgetEstimator) multiplyNoise(nu1, nu2 *big.Float) *big.Float {
	N := newFloat(float64(be.params.N()))
	t := newFloat(float64(be.params.T()))
	k := newFloat(float64(be.params.LevelCount()))

	sum := new(big.Float).Add(nu1, nu2)
	first := new(big.Float).Mul(N, t)
	first.Mul(first, sum)
	first.Mul(first, k)

	t2 := new(big.Float).Mul(t, t)
	second := new(big.Float).Mul(N, t2)
	second.Mul(second, nu1)
	second.Mul(second, nu2)

	out := new(big.Float).Add(first, second)
	out.Add(out, be.relinOverhead())
	return out
}

func (be *BudgetEstimator) multiplyPlainNoise(nu *big.Float, nm, am float64) *big.Float {
	N := newFloat(float64(be.params.N()))
	out := new(big.Float).Mul(nu, N)
	out.Mul(out, newFloat(nm))
	out.Mul(out, newFloat(am))
	return out
}

func (be *BudgetEstimator) plainShift(nm, am float64) *big.Float {
	N := newFloat(float64(be.params.N()))
	out := new(big.Float).Mul(N, newFloat(nm))
	out.Mul(out, newFloat(am))
	return out
}

func (be *BudgetEstimator) relinearizeNoise(nu *big.Float) *big.Float {
	return new(big.Float).Add(nu, be.relinOverhead())
}

// Evaluate folds c into a Simulation via a post-order walk, dispatching on Kind exactly
// the way bfv.Evaluator dispatches on a real ciphertext.
func (be *BudgetEstimator) Evaluate(c *Computation) Simulation {
	switch c.Kind {
	case Fresh:
		return Simulation{Size: 2, Noise: be.freshNoise(c.NM, c.AM), P: be.params}

	case Negate:
		child := be.Evaluate(c.Children[0])
		return Simulation{Size: child.Size, Noise: child.Noise, P: be.params}

	case Add, Sub:
		left := be.Evaluate(c.Children[0])
		right := be.Evaluate(c.Children[1])
		size := left.Size
		if right.Size > size {
			size = right.Size
		}
		return Simulation{Size: size, Noise: new(big.Float).Add(left.Noise, right.Noise), P: be.params}

	case Mul:
		left := be.Evaluate(c.Children[0])
		right := be.Evaluate(c.Children[1])
		return Simulation{Size: left.Size + right.Size - 1, Noise: be.multiplyNoise(left.Noise, right.Noise), P: be.params}

	case MulPlain:
		left := be.Evaluate(c.Children[0])
		return Simulation{Size: left.Size, Noise: be.multiplyPlainNoise(left.Noise, c.NM, c.AM), P: be.params}

	case AddPlain, SubPlain:
		left := be.Evaluate(c.Children[0])
		noise := new(big.Float).Add(left.Noise, be.plainShift(c.NM, c.AM))
		return Simulation{Size: left.Size, Noise: noise, P: be.params}

	case Relin:
		child := be.Evaluate(c.Children[0])
		return Simulation{Size: 2, Noise: be.relinearizeNoise(child.Noise), P: be.params}

	case Exp:
		return be.evaluateExp(c)

	case MulMany:
		return be.evaluateMulMany(c.Children)

	case AddMany:
		return be.evaluateAddMany(c.Children)

	default:
		return Simulation{Size: 2, Noise: new(big.Float).SetPrec(floatPrec), P: be.params}
	}
}

// bitsAfterLeading returns the bits of e below its leading 1, most-significant first,
// the same square-and-multiply schedule bfv.Evaluator.Exponentiate walks.
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

func (be *BudgetEstimator) evaluateExp(c *Computation) Simulation {
	base := be.Evaluate(c.Children[0])
	result := base
	for _, bit := range bitsAfterLeading(c.Exponent) {
		sqNoise := be.multiplyNoise(result.Noise, result.Noise)
		result = Simulation{Size: 2, Noise: be.relinearizeNoise(sqNoise), P: be.params}
		if bit == 1 {
			mulNoise := be.multiplyNoise(result.Noise, base.Noise)
			result = Simulation{Size: 2, Noise: be.relinearizeNoise(mulNoise), P: be.params}
		}
	}
	return result
}

func (be *BudgetEstimator) evaluateAddMany(children []*Computation) Simulation {
	level := make([]Simulation, len(children))
	for i, ch := range children {
		level[i] = be.Evaluate(ch)
	}
	for len(level) > 1 {
		next := make([]Simulation, (len(level)+1)/2)
		for i := range next {
			if 2*i+1 < len(level) {
				a, b := level[2*i], level[2*i+1]
				size := a.Size
				if b.Size > size {
					size = b.Size
				}
				next[i] = Simulation{Size: size, Noise: new(big.Float).Add(a.Noise, b.Noise), P: be.params}
			} else {
				next[i] = level[2*i]
			}
		}
		level = next
	}
	return level[0]
}

func (be *BudgetEstimator) evaluateMulMany(children []*Computation) Simulation {
	level := make([]Simulation, len(children))
	for i, ch := range children {
		level[i] = be.Evaluate(ch)
	}
	for len(level) > 1 {
		next := make([]Simulation, (len(level)+1)/2)
		for i := range next {
			if 2*i+1 < len(level) {
				a, b := level[2*i], level[2*i+1]
				noise := be.multiplyNoise(a.Noise, b.Noise)
				next[i] = Simulation{Size: 2, Noise: be.relinearizeNoise(noise), P: be.params}
			} else {
				next[i] = level[2*i]
			}
		}
		level = next
	}
	return level[0]
}

// Decrypts folds c and reports whether the resulting simulation's budget exceeds
// budgetGap.
func (be *BudgetEstimator) Decrypts(c *Computation, budgetGap int) bool {
	return be.Evaluate(c).Decrypts(budgetGap)
}

// ParameterCandidate is one entry of the ascending-security-cost table select_parameters
// searches.
type ParameterCandidate struct {
	Literal  rlwe.ParametersLiteral
	Security int // relative security cost, ascending
}

// SelectParameters iterates candidates in ascending security cost, simulating c under
// each, and returns the first (cheapest) parameter set whose predicted budget leaves at
// least budgetGap bits spare (spec.md §4.8 select_parameters).
func SelectParameters(candidates []ParameterCandidate, c *Computation, budgetGap int) (rlwe.Parameters, bool, error) {
	sorted := append([]ParameterCandidate(nil), candidates...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Security > sorted[j].Security; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	for _, cand := range sorted {
		params, err := rlwe.NewParametersFromLiteral(cand.Literal)
		if err != nil {
			continue
		}
		est := NewBudgetEstimator(params)
		if est.Decrypts(c, budgetGap) {
			return params, true, nil
		}
	}
	return rlwe.Parameters{}, false, nil
}
