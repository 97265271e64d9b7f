package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbfv/lattice/ring"
	"github.com/openbfv/lattice/rlwe"
)

func testParams(t *testing.T, logN int, tMod uint64, bits int, count int) rlwe.Parameters {
	N := 1 << uint(logN)
	qi, err := ring.GenerateNTTPrimes(bits, uint64(N), count)
	require.NoError(t, err)
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:  logN,
		Qi:    qi,
		T:     tMod,
		Sigma: 3.2,
		DBC:   20,
	})
	require.NoError(t, err)
	return params
}

func TestFreshNoiseBudgetIsPositive(t *testing.T) {
	params := testParams(t, 10, 64, 40, 2)
	est := NewBudgetEstimator(params)

	fresh := NewFresh(1, float64(params.N()))
	sim := est.Evaluate(fresh)
	assert.Greater(t, sim.InvariantNoiseBudget(), 0)
	assert.True(t, sim.Decrypts(0))
}

func TestBudgetDecreasesAcrossMultiplications(t *testing.T) {
	params := testParams(t, 10, 64, 40, 2)
	est := NewBudgetEstimator(params)

	c := NewFresh(1, float64(params.N()))
	budgets := make([]int, 0, 5)
	budgets = append(budgets, est.Evaluate(c).InvariantNoiseBudget())

	for i := 0; i < 4; i++ {
		mul := NewBinary(Mul, c, NewFresh(1, float64(params.N())), 0, 0)
		relin := NewUnary(Relin, mul)
		c = relin
		budgets = append(budgets, est.Evaluate(c).InvariantNoiseBudget())
	}

	for i := 1; i < len(budgets); i++ {
		assert.LessOrEqual(t, budgets[i], budgets[i-1])
	}
}

func TestSimulatorMatchesFourMultiplicationChain(t *testing.T) {
	params := testParams(t, 10, 64, 62, 2)
	est := NewBudgetEstimator(params)

	c := NewFresh(1, float64(params.N()))
	for i := 0; i < 3; i++ {
		mul := NewBinary(Mul, c, NewFresh(1, float64(params.N())), 0, 0)
		c = NewUnary(Relin, mul)
	}
	final := NewUnary(Relin, NewBinary(Mul, c, NewFresh(1, float64(params.N())), 0, 0))

	assert.True(t, est.Decrypts(final, 0))
}

func TestExponentiateMatchesRepeatedSquareAndMultiply(t *testing.T) {
	params := testParams(t, 10, 64, 60, 3)
	est := NewBudgetEstimator(params)

	base := NewFresh(1, float64(params.N()))
	direct := est.Evaluate(NewExp(base, 5))

	manual := base
	manual = NewUnary(Relin, NewBinary(Mul, manual, manual, 0, 0)) // ^2
	manual = NewUnary(Relin, NewBinary(Mul, manual, manual, 0, 0)) // ^4
	manual = NewUnary(Relin, NewBinary(Mul, manual, base, 0, 0))   // ^5
	viaTree := est.Evaluate(manual)

	directF, _ := direct.Noise.Float64()
	viaTreeF, _ := viaTree.Noise.Float64()
	assert.InEpsilon(t, directF, viaTreeF, 1e-9)
}

func TestSelectParametersReturnsCheapestThatDecrypts(t *testing.T) {
	small := rlwe.ParametersLiteral{}
	smallQi, err := ring.GenerateNTTPrimes(30, 1<<10, 1)
	require.NoError(t, err)
	small.LogN, small.Qi, small.T, small.Sigma, small.DBC = 10, smallQi, 64, 3.2, 20

	large := rlwe.ParametersLiteral{}
	largeQi, err := ring.GenerateNTTPrimes(55, 1<<10, 4)
	require.NoError(t, err)
	large.LogN, large.Qi, large.T, large.Sigma, large.DBC = 10, largeQi, 64, 3.2, 20

	candidates := []ParameterCandidate{
		{Literal: small, Security: 1},
		{Literal: large, Security: 2},
	}

	c := NewFresh(1, 1024)
	params, ok, err := SelectParameters(candidates, c, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, large.Qi, params.Qi())
}
