package simulator

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbfv/lattice/bfv"
	"github.com/openbfv/lattice/ring"
	"github.com/openbfv/lattice/rlwe"
)

// TestNoiseGrowthMatchesPrediction runs several independent fresh-multiply-relinearize
// chains, compares the simulator's predicted noise budget at each step against the
// measured budget from a live Decryptor, and summarizes the gap with
// github.com/montanaflynn/stats the way the teacher's ckks/bgv noise-regression tests
// summarize measured vs. predicted precision across randomized trials.
func TestNoiseGrowthMatchesPrediction(t *testing.T) {
	const trials = 5

	N := 1 << 7
	qi, err := ring.GenerateNTTPrimes(40, uint64(N), 3)
	require.NoError(t, err)
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN: 7, Qi: qi, T: 65537, Sigma: rlwe.DefaultSigma, DBC: 20,
	})
	require.NoError(t, err)

	prng := ring.NewSystemPRNG()
	kg := rlwe.NewKeyGenerator(params, prng)
	sk, pk := kg.GenKeyPair()
	evk := kg.GenRelinearizationKey(sk)
	enc := rlwe.NewEncryptor(params, prng)
	dec := rlwe.NewDecryptor(params)
	ev, err := bfv.NewEvaluator(params)
	require.NoError(t, err)
	est := NewBudgetEstimator(params)

	gaps := make(stats.Float64Data, 0, trials)
	for trial := 0; trial < trials; trial++ {
		pt := rlwe.NewPlaintext(params)
		pt.SetCoefficients(make([]uint64, N))
		ct, err := enc.EncryptNew(pt, pk)
		require.NoError(t, err)

		c := NewFresh(1, float64(N))
		for i := 0; i < trial+1; i++ {
			other, err := enc.EncryptNew(pt, pk)
			require.NoError(t, err)
			prod, err := ev.Multiply(ct, other)
			require.NoError(t, err)
			ct, err = ev.Relinearize(prod, evk, 2)
			require.NoError(t, err)

			c = NewUnary(Relin, NewBinary(Mul, c, NewFresh(1, float64(N)), 0, 0))
		}

		measured, err := dec.NoiseBudget(ct, sk)
		require.NoError(t, err)
		predicted := est.Evaluate(c).InvariantNoiseBudget()

		// The simulator is a conservative upper bound: predicted budget must never
		// exceed the measured one by more than a small slack.
		gaps = append(gaps, float64(measured-predicted))
	}

	mean, err := stats.Mean(gaps)
	require.NoError(t, err)
	stddev, err := stats.StandardDeviation(gaps)
	require.NoError(t, err)

	t.Logf("measured-predicted budget gap: mean=%.2f stddev=%.2f", mean, stddev)
	assert.GreaterOrEqual(t, mean, -1.0, "simulator should not systematically over-predict budget")
}
