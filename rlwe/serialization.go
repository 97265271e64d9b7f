package rlwe

import (
	"encoding/binary"
	"fmt"

	"github.com/openbfv/lattice/ring"
)

// marshalPoly appends p's residues to buf in natural limb order, N uint64s per limb,
// little-endian (spec.md §6).
func marshalPoly(buf []byte, p *ring.Poly) []byte {
	for _, limb := range p.Coeffs {
		for _, v := range limb {
			buf = binary.LittleEndian.AppendUint64(buf, v)
		}
	}
	return buf
}

func unmarshalPoly(data []byte, N, levels int) (*ring.Poly, []byte, error) {
	need := 8 * N * levels
	if len(data) < need {
		return nil, nil, fmt.Errorf("rlwe: truncated polynomial payload: need %d bytes, have %d", need, len(data))
	}
	p := ring.NewPoly(N, levels)
	off := 0
	for i := 0; i < levels; i++ {
		for n := 0; n < N; n++ {
			p.Coeffs[i][n] = binary.LittleEndian.Uint64(data[off:])
			off += 8
		}
	}
	return p, data[off:], nil
}

// MarshalBinary serializes ct as
// [fingerprint(32)] [size(4,LE)] [is_ntt(1)] [s×k×N uint64 LE] (spec.md §6).
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	size := len(ct.Value)
	buf := make([]byte, 0, 37+8*size*ct.Value[0].Level()*ct.Value[0].N())
	buf = append(buf, ct.fingerprint[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	if ct.IsNTT {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for _, p := range ct.Value {
		buf = marshalPoly(buf, p)
	}
	return buf, nil
}

// UnmarshalBinary parses a ciphertext serialized by MarshalBinary, shaping the result
// according to params.
func (ct *Ciphertext) UnmarshalBinary(data []byte, params Parameters) error {
	if len(data) < 37 {
		return fmt.Errorf("rlwe: ciphertext payload too short: %d bytes", len(data))
	}
	var fp [32]byte
	copy(fp[:], data[:32])
	size := int(binary.LittleEndian.Uint32(data[32:36]))
	isNTT := data[36] != 0
	rest := data[37:]

	N, k := params.N(), params.LevelCount()
	value := make([]*ring.Poly, size)
	for i := 0; i < size; i++ {
		var err error
		value[i], rest, err = unmarshalPoly(rest, N, k)
		if err != nil {
			return err
		}
	}
	ct.fingerprint = fp
	ct.Value = value
	ct.IsNTT = isNTT
	return nil
}

// MarshalBinary serializes pt as [coeff_count(4)] [coeff_count × uint64 LE] over the
// plaintext's meaningful (limb-0) coefficients (spec.md §6).
func (pt *Plaintext) MarshalBinary() ([]byte, error) {
	coeffs := pt.Value.Coeffs[0]
	buf := make([]byte, 0, 4+8*len(coeffs))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(coeffs)))
	for _, v := range coeffs {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return buf, nil
}

// UnmarshalBinary parses a plaintext serialized by MarshalBinary into pt, which must
// already be allocated over the target parameter set (so its limb count is known).
func (pt *Plaintext) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("rlwe: plaintext payload too short")
	}
	count := int(binary.LittleEndian.Uint32(data[:4]))
	rest := data[4:]
	if len(rest) < 8*count {
		return fmt.Errorf("rlwe: truncated plaintext payload: need %d coefficients, have %d bytes", count, len(rest))
	}
	coeffs := make([]uint64, count)
	for i := range coeffs {
		coeffs[i] = binary.LittleEndian.Uint64(rest[8*i:])
	}
	pt.SetCoefficients(coeffs)
	return nil
}

// keyTag distinguishes the tagged union of key serialization payloads (spec.md §6 "Key
// serialization: fingerprint + tagged union of component polynomials").
type keyTag byte

const (
	tagSecretKey     keyTag = 1
	tagPublicKey     keyTag = 2
	tagEvaluationKey keyTag = 3
	tagGaloisKey     keyTag = 4
)

// MarshalBinary serializes sk as [fingerprint(32)] [tag=1] [poly].
func (sk *SecretKey) MarshalBinary() ([]byte, error) {
	buf := append([]byte(nil), sk.fingerprint[:]...)
	buf = append(buf, byte(tagSecretKey))
	buf = marshalPoly(buf, sk.Value)
	return buf, nil
}

// UnmarshalBinary parses a secret key serialized by MarshalBinary.
func (sk *SecretKey) UnmarshalBinary(data []byte, params Parameters) error {
	fp, tag, rest, err := splitKeyHeader(data)
	if err != nil {
		return err
	}
	if tag != tagSecretKey {
		return fmt.Errorf("rlwe: expected secret-key tag, got %d", tag)
	}
	poly, _, err := unmarshalPoly(rest, params.N(), params.LevelCount())
	if err != nil {
		return err
	}
	sk.Value = poly
	sk.fingerprint = fp
	return nil
}

// MarshalBinary serializes pk as [fingerprint(32)] [tag=2] [poly B] [poly A].
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	buf := append([]byte(nil), pk.fingerprint[:]...)
	buf = append(buf, byte(tagPublicKey))
	buf = marshalPoly(buf, pk.B)
	buf = marshalPoly(buf, pk.A)
	return buf, nil
}

// UnmarshalBinary parses a public key serialized by MarshalBinary.
func (pk *PublicKey) UnmarshalBinary(data []byte, params Parameters) error {
	fp, tag, rest, err := splitKeyHeader(data)
	if err != nil {
		return err
	}
	if tag != tagPublicKey {
		return fmt.Errorf("rlwe: expected public-key tag, got %d", tag)
	}
	b, rest, err := unmarshalPoly(rest, params.N(), params.LevelCount())
	if err != nil {
		return err
	}
	a, _, err := unmarshalPoly(rest, params.N(), params.LevelCount())
	if err != nil {
		return err
	}
	pk.B, pk.A, pk.fingerprint = b, a, fp
	return nil
}

// MarshalBinary serializes evk as [fingerprint(32)] [tag=3] [levels(4)] [poly B, poly A]*levels.
func (evk *EvaluationKey) MarshalBinary() ([]byte, error) {
	buf := append([]byte(nil), evk.fingerprint[:]...)
	buf = append(buf, byte(tagEvaluationKey))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(evk.Levels)))
	for _, lvl := range evk.Levels {
		buf = marshalPoly(buf, lvl.B)
		buf = marshalPoly(buf, lvl.A)
	}
	return buf, nil
}

// UnmarshalBinary parses an evaluation key serialized by MarshalBinary.
func (evk *EvaluationKey) UnmarshalBinary(data []byte, params Parameters) error {
	fp, tag, rest, err := splitKeyHeader(data)
	if err != nil {
		return err
	}
	if tag != tagEvaluationKey {
		return fmt.Errorf("rlwe: expected evaluation-key tag, got %d", tag)
	}
	if len(rest) < 4 {
		return fmt.Errorf("rlwe: truncated evaluation-key level count")
	}
	levels := int(binary.LittleEndian.Uint32(rest[:4]))
	rest = rest[4:]

	out := make([]EvaluationKeyLevel, levels)
	for i := 0; i < levels; i++ {
		var b, a *ring.Poly
		b, rest, err = unmarshalPoly(rest, params.N(), params.LevelCount())
		if err != nil {
			return err
		}
		a, rest, err = unmarshalPoly(rest, params.N(), params.LevelCount())
		if err != nil {
			return err
		}
		out[i] = EvaluationKeyLevel{B: b, A: a}
	}
	evk.Levels = out
	evk.fingerprint = fp
	return nil
}

// MarshalBinary serializes gk as [fingerprint(32)] [tag=4] [galois_element(8)] [evk levels].
func (gk *GaloisKey) MarshalBinary() ([]byte, error) {
	buf := append([]byte(nil), gk.fingerprint[:]...)
	buf = append(buf, byte(tagGaloisKey))
	buf = binary.LittleEndian.AppendUint64(buf, gk.GaloisElement)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(gk.Levels)))
	for _, lvl := range gk.Levels {
		buf = marshalPoly(buf, lvl.B)
		buf = marshalPoly(buf, lvl.A)
	}
	return buf, nil
}

// UnmarshalBinary parses a Galois key serialized by MarshalBinary.
func (gk *GaloisKey) UnmarshalBinary(data []byte, params Parameters) error {
	fp, tag, rest, err := splitKeyHeader(data)
	if err != nil {
		return err
	}
	if tag != tagGaloisKey {
		return fmt.Errorf("rlwe: expected galois-key tag, got %d", tag)
	}
	if len(rest) < 12 {
		return fmt.Errorf("rlwe: truncated galois-key header")
	}
	galEl := binary.LittleEndian.Uint64(rest[:8])
	levels := int(binary.LittleEndian.Uint32(rest[8:12]))
	rest = rest[12:]

	out := make([]EvaluationKeyLevel, levels)
	for i := 0; i < levels; i++ {
		var b, a *ring.Poly
		b, rest, err = unmarshalPoly(rest, params.N(), params.LevelCount())
		if err != nil {
			return err
		}
		a, rest, err = unmarshalPoly(rest, params.N(), params.LevelCount())
		if err != nil {
			return err
		}
		out[i] = EvaluationKeyLevel{B: b, A: a}
	}
	gk.Levels = out
	gk.fingerprint = fp
	gk.GaloisElement = galEl
	return nil
}

func splitKeyHeader(data []byte) (fp [32]byte, tag keyTag, rest []byte, err error) {
	if len(data) < 33 {
		return fp, 0, nil, fmt.Errorf("rlwe: key payload too short")
	}
	copy(fp[:], data[:32])
	tag = keyTag(data[32])
	return fp, tag, data[33:], nil
}
