package rlwe

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbfv/lattice/ring"
)

func testParams(t *testing.T) Parameters {
	qi, err := ring.GenerateNTTPrimes(30, 256, 2)
	require.NoError(t, err)
	params, err := NewParametersFromLiteral(ParametersLiteral{
		LogN:  8,
		Qi:    qi,
		T:     65537,
		Sigma: 3.2,
		DBC:   20,
	})
	require.NoError(t, err)
	return params
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	params := testParams(t)
	prng := ring.NewSystemPRNG()

	kg := NewKeyGenerator(params, prng)
	sk, pk := kg.GenKeyPair()

	pt := NewPlaintext(params)
	values := make([]uint64, params.N())
	for i := range values {
		values[i] = uint64(i) % params.T()
	}
	pt.SetCoefficients(values)

	enc := NewEncryptor(params, prng)
	ct, err := enc.EncryptNew(pt, pk)
	require.NoError(t, err)

	dec := NewDecryptor(params)
	out, err := dec.DecryptNew(ct, sk)
	require.NoError(t, err)

	assert.Equal(t, values, out.Coefficients())
}

func TestNoiseBudgetPositiveOnFreshCiphertext(t *testing.T) {
	params := testParams(t)
	prng := ring.NewSystemPRNG()

	kg := NewKeyGenerator(params, prng)
	sk, pk := kg.GenKeyPair()

	pt := NewPlaintext(params)
	pt.SetCoefficients(make([]uint64, params.N()))

	enc := NewEncryptor(params, prng)
	ct, err := enc.EncryptNew(pt, pk)
	require.NoError(t, err)

	dec := NewDecryptor(params)
	budget, err := dec.NoiseBudget(ct, sk)
	require.NoError(t, err)
	assert.Greater(t, budget, 0)

	ok, err := dec.Decrypts(ct, sk)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFingerprintMismatchRejected(t *testing.T) {
	params := testParams(t)
	other, err := NewParametersFromLiteral(ParametersLiteral{
		LogN:  params.LogN(),
		Qi:    params.Qi(),
		T:     257,
		Sigma: params.Sigma(),
		DBC:   params.DBC(),
	})
	require.NoError(t, err)
	prng := ring.NewSystemPRNG()

	_, pk := NewKeyGenerator(params, prng).GenKeyPair()
	pt := NewPlaintext(other)
	pt.SetCoefficients(make([]uint64, other.N()))

	enc := NewEncryptor(params, prng)
	_, err = enc.EncryptNew(pt, pk)
	require.Error(t, err)
	kind, ok := ring.ErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, ring.KindFingerprintMismatch, kind)
}

func TestCiphertextSerializationRoundTrip(t *testing.T) {
	params := testParams(t)
	prng := ring.NewSystemPRNG()

	_, pk := NewKeyGenerator(params, prng).GenKeyPair()
	pt := NewPlaintext(params)
	pt.SetCoefficients(make([]uint64, params.N()))

	enc := NewEncryptor(params, prng)
	ct, err := enc.EncryptNew(pt, pk)
	require.NoError(t, err)

	data, err := ct.MarshalBinary()
	require.NoError(t, err)

	var out Ciphertext
	require.NoError(t, out.UnmarshalBinary(data, params))

	assert.Equal(t, ct.Fingerprint(), out.Fingerprint())
	assert.Equal(t, ct.Size(), out.Size())
	assert.Equal(t, ct.IsNTT, out.IsNTT)
	if diff := cmp.Diff(ct.Value, out.Value, cmpopts.IgnoreUnexported(ring.Poly{})); diff != "" {
		t.Errorf("ciphertext polynomials differ after round-trip (-want +got):\n%s", diff)
	}
}

func TestRelinearizationKeySerializationRoundTrip(t *testing.T) {
	params := testParams(t)
	prng := ring.NewSystemPRNG()
	kg := NewKeyGenerator(params, prng)
	sk := kg.GenSecretKey()
	evk := kg.GenRelinearizationKey(sk)

	data, err := evk.MarshalBinary()
	require.NoError(t, err)

	var out EvaluationKey
	require.NoError(t, out.UnmarshalBinary(data, params))
	assert.Equal(t, evk.Fingerprint(), out.Fingerprint())
	require.Len(t, out.Levels, len(evk.Levels))
	for i := range evk.Levels {
		assert.True(t, evk.Levels[i].B.Equal(out.Levels[i].B))
		assert.True(t, evk.Levels[i].A.Equal(out.Levels[i].A))
	}
}
