package bfv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbfv/lattice/ring"
	"github.com/openbfv/lattice/rlwe"
)

func testSetup(t *testing.T, logN int, t64 uint64) (rlwe.Parameters, *rlwe.Encryptor, *rlwe.Decryptor, *rlwe.SecretKey, *rlwe.PublicKey) {
	N := 1 << uint(logN)
	qi, err := ring.GenerateNTTPrimes(40, uint64(N), 3)
	require.NoError(t, err)
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:  logN,
		Qi:    qi,
		T:     t64,
		Sigma: 3.2,
		DBC:   20,
	})
	require.NoError(t, err)

	prng := ring.NewSystemPRNG()
	kg := rlwe.NewKeyGenerator(params, prng)
	sk, pk := kg.GenKeyPair()
	enc := rlwe.NewEncryptor(params, prng)
	dec := rlwe.NewDecryptor(params)
	return params, enc, dec, sk, pk
}

func encryptInts(t *testing.T, params rlwe.Parameters, enc *rlwe.Encryptor, pk *rlwe.PublicKey, values []uint64) *rlwe.Ciphertext {
	pt := rlwe.NewPlaintext(params)
	padded := make([]uint64, params.N())
	copy(padded, values)
	pt.SetCoefficients(padded)
	ct, err := enc.EncryptNew(pt, pk)
	require.NoError(t, err)
	return ct
}

func TestEvaluatorAddHomomorphism(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)

	a := encryptInts(t, params, enc, pk, []uint64{3})
	b := encryptInts(t, params, enc, pk, []uint64{5})

	sum, err := ev.Add(a, b)
	require.NoError(t, err)

	pt, err := dec.DecryptNew(sum, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 8, pt.Coefficients()[0])
}

func TestEvaluatorSubHomomorphism(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)

	a := encryptInts(t, params, enc, pk, []uint64{7})
	b := encryptInts(t, params, enc, pk, []uint64{5})

	diff, err := ev.Sub(a, b)
	require.NoError(t, err)

	pt, err := dec.DecryptNew(diff, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pt.Coefficients()[0])
}

func TestEvaluatorMultiplyAndRelinearize(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)

	kg := rlwe.NewKeyGenerator(params, ring.NewSystemPRNG())
	evk := kg.GenRelinearizationKey(sk)

	a := encryptInts(t, params, enc, pk, []uint64{6})
	b := encryptInts(t, params, enc, pk, []uint64{7})

	prod, err := ev.Multiply(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, prod.Size())

	relin, err := ev.Relinearize(prod, evk, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, relin.Size())

	pt, err := dec.DecryptNew(relin, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 42, pt.Coefficients()[0])

	// Relinearize invariance: same plaintext recovered regardless of relinearization.
	ptNoRelin, err := dec.DecryptNew(prod, sk)
	require.NoError(t, err)
	assert.Equal(t, ptNoRelin.Coefficients()[0], pt.Coefficients()[0])
}

func TestEvaluatorSquare(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)
	kg := rlwe.NewKeyGenerator(params, ring.NewSystemPRNG())
	evk := kg.GenRelinearizationKey(sk)

	a := encryptInts(t, params, enc, pk, []uint64{9})
	sq, err := ev.Square(a)
	require.NoError(t, err)

	relin, err := ev.Relinearize(sq, evk, 2)
	require.NoError(t, err)

	pt, err := dec.DecryptNew(relin, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 81, pt.Coefficients()[0])
}

func TestEvaluatorAddPlainSubPlain(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)

	a := encryptInts(t, params, enc, pk, []uint64{10})
	pt := rlwe.NewPlaintext(params)
	padded := make([]uint64, params.N())
	padded[0] = 4
	pt.SetCoefficients(padded)

	added, err := ev.AddPlain(a, pt)
	require.NoError(t, err)
	out, err := dec.DecryptNew(added, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 14, out.Coefficients()[0])

	subbed, err := ev.SubPlain(a, pt)
	require.NoError(t, err)
	out2, err := dec.DecryptNew(subbed, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 6, out2.Coefficients()[0])
}

func TestEvaluatorExponentiate(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)
	kg := rlwe.NewKeyGenerator(params, ring.NewSystemPRNG())
	evk := kg.GenRelinearizationKey(sk)

	a := encryptInts(t, params, enc, pk, []uint64{2})
	out, err := ev.Exponentiate(a, 5, evk)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Size())

	pt, err := dec.DecryptNew(out, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 32, pt.Coefficients()[0])
}

func TestEvaluatorAddManyMultiplyMany(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)
	kg := rlwe.NewKeyGenerator(params, ring.NewSystemPRNG())
	evk := kg.GenRelinearizationKey(sk)

	cts := make([]*rlwe.Ciphertext, 4)
	for i := range cts {
		cts[i] = encryptInts(t, params, enc, pk, []uint64{uint64(i + 1)})
	}

	summed, err := ev.AddMany(cts)
	require.NoError(t, err)
	sumPt, err := dec.DecryptNew(summed, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 10, sumPt.Coefficients()[0])

	multiplied, err := ev.MultiplyMany(cts, evk)
	require.NoError(t, err)
	assert.Equal(t, 2, multiplied.Size())
	prodPt, err := dec.DecryptNew(multiplied, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 24, prodPt.Coefficients()[0])
}

func TestEvaluatorTransformNTTRoundTrip(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 7, 65537)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)

	a := encryptInts(t, params, enc, pk, []uint64{11})
	nttForm, err := ev.TransformToNTT(a)
	require.NoError(t, err)
	assert.True(t, nttForm.IsNTT)

	back, err := ev.TransformFromNTT(nttForm)
	require.NoError(t, err)
	assert.False(t, back.IsNTT)

	pt, err := dec.DecryptNew(back, sk)
	require.NoError(t, err)
	assert.EqualValues(t, 11, pt.Coefficients()[0])
}

func TestBatchEncoderRotateRowsAndColumns(t *testing.T) {
	params, enc, dec, sk, pk := testSetup(t, 3, 97)
	ev, err := NewEvaluator(params)
	require.NoError(t, err)
	require.True(t, params.BatchingEnabled())

	be, err := NewBatchEncoder(params)
	require.NoError(t, err)

	N := params.N()
	half := N / 2
	values := make([]uint64, N)
	for i := 0; i < half; i++ {
		values[i] = uint64(i + 1)
		values[i+half] = uint64(half + i + 1)
	}

	pt, err := be.Encode(values)
	require.NoError(t, err)
	ct, err := enc.EncryptNew(pt, pk)
	require.NoError(t, err)

	kg := rlwe.NewKeyGenerator(params, ring.NewSystemPRNG())
	rowGalEl := GaloisElementForRowRotation(N, 1)
	colGalEl := GaloisElementForColumnRotation(N)
	gks := kg.GenGaloisKeys([]uint64{rowGalEl, colGalEl}, sk)

	rotated, err := ev.RotateRows(ct, 1, gks)
	require.NoError(t, err)
	rotPt, err := dec.DecryptNew(rotated, sk)
	require.NoError(t, err)
	rotValues := be.Decode(rotPt)

	for i := 0; i < half; i++ {
		assert.EqualValues(t, values[(i+1)%half], rotValues[i])
	}

	swapped, err := ev.RotateColumns(ct, gks)
	require.NoError(t, err)
	swapPt, err := dec.DecryptNew(swapped, sk)
	require.NoError(t, err)
	swapValues := be.Decode(swapPt)
	for i := 0; i < half; i++ {
		assert.EqualValues(t, values[i+half], swapValues[i])
		assert.EqualValues(t, values[i], swapValues[i+half])
	}
}
