package bfv

import (
	"github.com/openbfv/lattice/ring"
	"github.com/openbfv/lattice/rlwe"
)

// BatchEncoder packs N/2 x 2 plaintext slots into a single polynomial via the CRT
// isomorphism Z_t[X]/(X^N+1) = prod_i Z_t[X]/(X - root_i), available whenever t ≡ 1
// mod 2N (rlwe.Parameters.BatchingEnabled). The slot ordering follows the classical
// two-row layout: row 0 holds slots permuted by powers of the order-N/2 subgroup
// generator 3, row 1 holds the same permutation of their conjugates.
type BatchEncoder struct {
	params  rlwe.Parameters
	ringT   *ring.Ring
	slotIdx []int // slotIdx[slot] = coefficient position of that slot's NTT-domain value
}

// NewBatchEncoder builds a BatchEncoder over params, failing with ShapeMismatch if
// batching is not enabled for this parameter set.
func NewBatchEncoder(params rlwe.Parameters) (*BatchEncoder, error) {
	ringT := params.RingT()
	if ringT == nil {
		return nil, ring.NewShapeMismatchError("batch encoder requires t ≡ 1 (mod 2N)")
	}

	N := params.N()
	t := params.T()
	half := N / 2
	twoN := uint64(2 * N)

	idx := make([]int, N)
	pos := uint64(1)
	for j := 0; j < half; j++ {
		idx[j] = bitReverseIndex(int(pos-1)/2, N)
		idx[j+half] = bitReverseIndex(int((twoN-pos)-1)/2, N)
		pos = (pos * 3) % twoN
		_ = t
	}

	return &BatchEncoder{params: params, ringT: ringT, slotIdx: idx}, nil
}

func bitReverseIndex(x, N int) int {
	logN := 0
	for n := N; n > 1; n >>= 1 {
		logN++
	}
	r := 0
	for i := 0; i < logN; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// Encode packs len(values) <= N slots (each < t) into a fresh plaintext, zero-padding
// unused slots, by placing them at their NTT-domain position and inverse-transforming.
func (be *BatchEncoder) Encode(values []uint64) (*rlwe.Plaintext, error) {
	N := be.params.N()
	if len(values) > N {
		return nil, ring.NewOutOfRangeError("encode: %d values exceed %d slots", len(values), N)
	}

	ntt := be.ringT.NewPoly()
	for slot, v := range values {
		ntt.Coeffs[0][be.slotIdx[slot]] = v
	}
	be.ringT.InvNTT(ntt)

	pt := rlwe.NewPlaintext(be.params)
	pt.SetCoefficients(ntt.Coeffs[0])
	return pt, nil
}

// Decode recovers the N batching slots packed into pt by pt's encoder.
func (be *BatchEncoder) Decode(pt *rlwe.Plaintext) []uint64 {
	N := be.params.N()
	p := be.ringT.NewPoly()
	copy(p.Coeffs[0], pt.Coefficients())
	be.ringT.NTT(p)

	out := make([]uint64, N)
	for slot := range out {
		out[slot] = p.Coeffs[0][be.slotIdx[slot]]
	}
	return out
}
