package ring

import "math"

// UniformSampler fills a polynomial with residues drawn uniformly from [0, qi) per
// limb, used to sample the public key's "a" component and the "a" components of the
// key-switching keys.
type UniformSampler struct {
	r    *Ring
	prng PRNG
}

func NewUniformSampler(r *Ring, prng PRNG) *UniformSampler {
	return &UniformSampler{r: r, prng: prng}
}

func (s *UniformSampler) Read(p *Poly) {
	for i, qi := range s.r.Moduli {
		c := p.Coeffs[i]
		for j := range c {
			c[j] = randUint64n(s.prng, qi)
		}
	}
}

// TernarySampler draws coefficients from {-1, 0, 1} (spec.md §3 secret-key sampling)
// with the given Hamming-weight-style probability of a nonzero coefficient, then lifts
// the single set of {-1,0,1} coefficients to every RNS limb.
type TernarySampler struct {
	r    *Ring
	prng PRNG
	p    float64 // P(coefficient != 0)
}

// NewTernarySampler builds a sampler with P(nonzero)=density, matching the "centered
// binomial distribution"-flavored ternary secret sampling spec.md §4.7 calls for.
func NewTernarySampler(r *Ring, prng PRNG, density float64) *TernarySampler {
	return &TernarySampler{r: r, prng: prng, p: density}
}

func (s *TernarySampler) Read(p *Poly) {
	N := s.r.N
	signs := make([]int8, N)
	var buf [1]byte
	threshNonzero := uint32(s.p * 256)
	for i := 0; i < N; i++ {
		s.prng.FillBytes(buf[:])
		if uint32(buf[0]) >= threshNonzero {
			signs[i] = 0
			continue
		}
		s.prng.FillBytes(buf[:])
		if buf[0]&1 == 0 {
			signs[i] = 1
		} else {
			signs[i] = -1
		}
	}

	for i, qi := range s.r.Moduli {
		c := p.Coeffs[i]
		for j, sgn := range signs {
			switch {
			case sgn == 1:
				c[j] = 1
			case sgn == -1:
				c[j] = qi - 1
			default:
				c[j] = 0
			}
		}
	}
}

// GaussianSampler draws integer coefficients from a discrete Gaussian of standard
// deviation sigma (spec.md §3, §4.5 encryption noise e1/e2), truncated at boundStdDevs
// standard deviations as is standard practice (the teacher's KYSampler truncates at
// 6*sigma), then lifts the shared set of small integer coefficients to every RNS limb.
type GaussianSampler struct {
	r         *Ring
	prng      PRNG
	sigma     float64
	boundAbs  int64
	cdfTable  []float64 // cumulative P(|x| <= k) for k = 0..boundAbs, used for inverse-CDF sampling
}

func NewGaussianSampler(r *Ring, prng PRNG, sigma float64, boundStdDevs float64) *GaussianSampler {
	bound := int64(math.Ceil(sigma * boundStdDevs))
	cdf := make([]float64, bound+1)
	total := gaussWeight(0, sigma)
	cdf[0] = total
	for k := int64(1); k <= bound; k++ {
		total += 2 * gaussWeight(float64(k), sigma)
		cdf[k] = total
	}
	for i := range cdf {
		cdf[i] /= total
	}
	return &GaussianSampler{r: r, prng: prng, sigma: sigma, boundAbs: bound, cdfTable: cdf}
}

func gaussWeight(x, sigma float64) float64 {
	return math.Exp(-x * x / (2 * sigma * sigma))
}

func (s *GaussianSampler) sampleOne() int64 {
	var buf [8]byte
	s.prng.FillBytes(buf[:])
	u := float64(uint64(buf[0])<<56|uint64(buf[1])<<48|uint64(buf[2])<<40|uint64(buf[3])<<32|
		uint64(buf[4])<<24|uint64(buf[5])<<16|uint64(buf[6])<<8|uint64(buf[7])) / float64(^uint64(0))

	for k, c := range s.cdfTable {
		if u <= c {
			if k == 0 {
				return 0
			}
			s.prng.FillBytes(buf[:1])
			if buf[0]&1 == 0 {
				return int64(k)
			}
			return -int64(k)
		}
	}
	return s.boundAbs
}

func (s *GaussianSampler) Read(p *Poly) {
	N := s.r.N
	vals := make([]int64, N)
	for i := range vals {
		vals[i] = s.sampleOne()
	}
	for i, qi := range s.r.Moduli {
		c := p.Coeffs[i]
		for j, v := range vals {
			if v >= 0 {
				c[j] = uint64(v) % qi
			} else {
				c[j] = qi - (uint64(-v) % qi)
				if c[j] == qi {
					c[j] = 0
				}
			}
		}
	}
}
