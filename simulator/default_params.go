package simulator

import (
	"github.com/openbfv/lattice/ring"
	"github.com/openbfv/lattice/rlwe"
)

// defaultCandidateSpec is one row of the built-in ascending-security-cost table
// SelectParameters searches when the caller has no parameter table of its own, grounded
// on the teacher's named default parameter sets (ckks.PN12QP109, PN13QP218, PN14QP438,
// ...): increasing LogN paired with a modulus chain whose total bit-width tracks the
// security level, cheapest first.
type defaultCandidateSpec struct {
	name     string
	logN     int
	qiBits   []int
	security int
}

var defaultCandidateSpecs = []defaultCandidateSpec{
	{name: "PN11QP54", logN: 11, qiBits: []int{27, 27}, security: 1},
	{name: "PN12QP109", logN: 12, qiBits: []int{37, 36, 36}, security: 2},
	{name: "PN13QP218", logN: 13, qiBits: []int{36, 36, 36, 36, 36, 36}, security: 3},
	{name: "PN14QP438", logN: 14, qiBits: []int{44, 44, 44, 44, 44, 44, 44, 44, 44, 44}, security: 4},
}

// DefaultCandidates builds the built-in ParameterCandidate table (spec.md §4.8
// select_parameters "a preconfigured table of (N, {qi}) in ascending security cost"),
// generating NTT-friendly primes for each row and filling in the plaintext modulus t and
// digit base dbc supplied by the caller; the prime search does not depend on t.
// Candidates whose prime search fails are skipped rather than failing the whole call.
func DefaultCandidates(t uint64, dbc int) []ParameterCandidate {
	out := make([]ParameterCandidate, 0, len(defaultCandidateSpecs))
	for _, spec := range defaultCandidateSpecs {
		N := uint64(1) << uint(spec.logN)
		exclude := make(map[uint64]bool)
		qi := make([]uint64, 0, len(spec.qiBits))
		ok := true
		for _, bits := range spec.qiBits {
			primes, err := ring.GenerateNTTPrimesExcluding(bits, N, 1, exclude)
			if err != nil {
				ok = false
				break
			}
			qi = append(qi, primes[0])
			exclude[primes[0]] = true
		}
		if !ok {
			continue
		}
		out = append(out, ParameterCandidate{
			Literal: rlwe.ParametersLiteral{
				LogN:  spec.logN,
				Qi:    qi,
				T:     t,
				Sigma: rlwe.DefaultSigma,
				DBC:   dbc,
			},
			Security: spec.security,
		})
	}
	return out
}
