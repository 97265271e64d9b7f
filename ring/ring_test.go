package ring

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModuli(t *testing.T, N int, count int, bits int) []uint64 {
	moduli, err := GenerateNTTPrimes(bits, uint64(N), count)
	require.NoError(t, err)
	return moduli
}

func TestNTTRoundTrip(t *testing.T) {
	N := 64
	r, err := NewRing(N, testModuli(t, N, 2, 30))
	require.NoError(t, err)

	p := NewPoly(N, r.Level())
	for i, limb := range p.Coeffs {
		for n := range limb {
			limb[n] = uint64(n + i)
		}
	}

	got := p.CopyNew()
	r.NTT(got)
	r.InvNTT(got)

	assert.True(t, p.Equal(got))
}

func TestAddSubNeg(t *testing.T) {
	N := 32
	r, err := NewRing(N, testModuli(t, N, 1, 30))
	require.NoError(t, err)

	a := NewPoly(N, 1)
	b := NewPoly(N, 1)
	for n := 0; n < N; n++ {
		a.Coeffs[0][n] = uint64(n)
		b.Coeffs[0][n] = uint64(2 * n)
	}

	sum := r.NewPoly()
	r.Add(a, b, sum)
	diff := r.NewPoly()
	r.Sub(sum, b, diff)
	assert.True(t, a.Equal(diff))

	negB := r.NewPoly()
	r.Neg(b, negB)
	reconstructed := r.NewPoly()
	r.Add(sum, negB, reconstructed)
	assert.True(t, a.Equal(reconstructed))
}

func TestSubHasNoOperandSwap(t *testing.T) {
	N := 16
	r, err := NewRing(N, testModuli(t, N, 1, 30))
	require.NoError(t, err)

	a := r.NewPoly()
	a.Coeffs[0][0] = 5
	b := r.NewPoly()
	b.Coeffs[0][0] = 3

	out := r.NewPoly()
	r.Sub(a, b, out)
	assert.EqualValues(t, 2, out.Coeffs[0][0])

	r.Sub(b, a, out)
	assert.EqualValues(t, r.Moduli[0]-2, out.Coeffs[0][0])
}

func TestMulCoeffsIsNTTDomainProduct(t *testing.T) {
	N := 32
	r, err := NewRing(N, testModuli(t, N, 1, 30))
	require.NoError(t, err)

	a := r.NewPoly()
	a.Coeffs[0][1] = 1 // a(X) = X
	b := r.NewPoly()
	b.Coeffs[0][0] = 1
	b.Coeffs[0][1] = 1 // b(X) = 1 + X

	aNTT, bNTT := a.CopyNew(), b.CopyNew()
	r.NTT(aNTT)
	r.NTT(bNTT)

	prodNTT := r.NewPoly()
	r.MulCoeffs(aNTT, bNTT, prodNTT)
	r.InvNTT(prodNTT)

	// X*(1+X) = X + X^2
	want := r.NewPoly()
	want.Coeffs[0][1] = 1
	want.Coeffs[0][2] = 1
	assert.True(t, want.Equal(prodNTT))
}

func TestNegacyclicWraparound(t *testing.T) {
	N := 16
	r, err := NewRing(N, testModuli(t, N, 1, 30))
	require.NoError(t, err)
	q := r.Moduli[0]

	a := r.NewPoly()
	a.Coeffs[0][N-1] = 1 // a(X) = X^(N-1)
	b := r.NewPoly()
	b.Coeffs[0][1] = 1 // b(X) = X

	aNTT, bNTT := a.CopyNew(), b.CopyNew()
	r.NTT(aNTT)
	r.NTT(bNTT)
	prodNTT := r.NewPoly()
	r.MulCoeffs(aNTT, bNTT, prodNTT)
	r.InvNTT(prodNTT)

	// X^(N-1) * X = X^N = -1 (mod X^N+1)
	want := r.NewPoly()
	want.Coeffs[0][0] = q - 1
	assert.True(t, want.Equal(prodNTT))
}

func TestDigitDecomposeReconstructs(t *testing.T) {
	N := 16
	r, err := NewRing(N, testModuli(t, N, 2, 30))
	require.NoError(t, err)

	p := r.NewPoly()
	for n := 0; n < N; n++ {
		for i := range r.Moduli {
			p.Coeffs[i][n] = uint64(n*7+3) % r.Moduli[i]
		}
	}

	dbc := 10
	levels := (r.ModulusBigint.BitLen() + dbc - 1) / dbc
	digits := r.DigitDecompose(p, dbc, levels)
	require.Len(t, digits, levels)

	xs := r.PolyToBigint(p)
	digitXs := make([][]*big.Int, levels)
	for l, d := range digits {
		digitXs[l] = r.PolyToBigint(d)
	}

	w := big.NewInt(1 << uint(dbc))
	for n := 0; n < N; n++ {
		acc := big.NewInt(0)
		wPow := big.NewInt(1)
		for l := 0; l < levels; l++ {
			term := new(big.Int).Mul(digitXs[l][n], wPow)
			acc.Add(acc, term)
			wPow.Mul(wPow, w)
		}
		acc.Mod(acc, r.ModulusBigint)
		assert.Equal(t, xs[n].String(), acc.String())
	}
}
