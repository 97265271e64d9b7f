package simulator

import (
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/openbfv/lattice/rlwe"
)

// Simulation is the non-secret bookkeeping object a BudgetEstimator produces for one
// Computation node: ciphertext size, accumulated noise, and the parameter set it was
// simulated under. Noise is tracked as a dimensionless fraction ν of q — "an integer
// scaled by q" per the ciphertext-noise relationship, so the absolute magnitude is
// ν·q and the remaining budget is bitlen(q) - bitlen(ν·q) - 1 ≈ -log2(2ν).
type Simulation struct {
	Size  int
	Noise *big.Float
	P     rlwe.Parameters
}

// InvariantNoiseBudget returns max(0, bitlen(q) - bitlen(noise) - 1) in bits, computed
// from the tracked fraction ν via -log2(2ν) since bitlen(ν·q) - bitlen(q) ≈ log2(ν).
func (s Simulation) InvariantNoiseBudget() int {
	if s.Noise.Sign() <= 0 {
		return s.P.QBigInt().BitLen()
	}
	two := new(big.Float).SetPrec(s.Noise.Prec()).SetInt64(2)
	twoNu := new(big.Float).Mul(two, s.Noise)
	logTwoNu := bigfloat.Log2(twoNu)
	budget := new(big.Float).Neg(logTwoNu)
	b, _ := budget.Int64()
	if b < 0 {
		return 0
	}
	return int(b)
}

// Decrypts reports whether this simulation's remaining budget exceeds budgetGap,
// i.e. whether the computation it represents is predicted to decrypt correctly with
// budgetGap bits to spare.
func (s Simulation) Decrypts(budgetGap int) bool {
	return s.InvariantNoiseBudget() > budgetGap
}
