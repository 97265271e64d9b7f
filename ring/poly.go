package ring

// Poly is a ring element stored in RNS form: one []uint64 of length N per modulus. It
// corresponds to spec.md's "k arrays of N residues" (C3). A Poly has no opinion of its
// own about whether it currently holds coefficient- or NTT-domain values; that flag is
// tracked by the owning Plaintext/Ciphertext (spec.md §3, §4.6 state machine).
type Poly struct {
	Coeffs [][]uint64

	// aliased marks a Poly backed by caller-supplied storage (spec.md §5 "Aliased
	// buffers"); operations that would need to resize it must fail instead.
	aliased bool
}

// NewPoly allocates a zero Poly of degree N over the given number of RNS levels.
func NewPoly(N, levels int) *Poly {
	coeffs := make([][]uint64, levels)
	for i := range coeffs {
		coeffs[i] = make([]uint64, N)
	}
	return &Poly{Coeffs: coeffs}
}

// NewPolyFromSlice wraps an externally owned [][]uint64 as an aliased Poly (spec.md §5,
// §9 "owned vs borrowed"). Resizing an aliased Poly is an AliasViolation.
func NewPolyFromSlice(coeffs [][]uint64) *Poly {
	return &Poly{Coeffs: coeffs, aliased: true}
}

// N returns the ring degree of p.
func (p *Poly) N() int {
	if len(p.Coeffs) == 0 {
		return 0
	}
	return len(p.Coeffs[0])
}

// Level returns the number of RNS limbs (moduli) currently backing p.
func (p *Poly) Level() int {
	return len(p.Coeffs)
}

// IsAliased reports whether p wraps externally owned storage.
func (p *Poly) IsAliased() bool {
	return p.aliased
}

// Zero sets every coefficient of p to zero.
func (p *Poly) Zero() {
	for _, c := range p.Coeffs {
		for i := range c {
			c[i] = 0
		}
	}
}

// CopyNew returns a deep, owned (non-aliased) copy of p.
func (p *Poly) CopyNew() *Poly {
	q := NewPoly(p.N(), p.Level())
	q.Copy(p)
	return q
}

// Copy overwrites the receiver's coefficients with other's. Resizing is required when
// the level counts differ; an aliased receiver rejects that with AliasViolation.
func (p *Poly) Copy(other *Poly) error {
	if p.Level() != other.Level() {
		if p.aliased {
			return errAliasViolation("cannot resize an aliased polynomial during copy")
		}
		p.Coeffs = make([][]uint64, other.Level())
		for i := range p.Coeffs {
			p.Coeffs[i] = make([]uint64, other.N())
		}
	}
	for i := range other.Coeffs {
		copy(p.Coeffs[i], other.Coeffs[i])
	}
	return nil
}

// Resize truncates or extends p to levels RNS limbs, keeping existing residues and
// zero-filling any new ones. Fails on an aliased Poly (spec.md §5, §7 AliasViolation).
func (p *Poly) Resize(levels int) error {
	if levels == len(p.Coeffs) {
		return nil
	}
	if p.aliased {
		return errAliasViolation("cannot resize an aliased polynomial")
	}
	n := p.N()
	newCoeffs := make([][]uint64, levels)
	for i := range newCoeffs {
		if i < len(p.Coeffs) {
			newCoeffs[i] = p.Coeffs[i]
		} else {
			newCoeffs[i] = make([]uint64, n)
		}
	}
	p.Coeffs = newCoeffs
	return nil
}

// Equal reports whether p and other hold identical residues at every level.
func (p *Poly) Equal(other *Poly) bool {
	if p.Level() != other.Level() || p.N() != other.N() {
		return false
	}
	for i := range p.Coeffs {
		for j := range p.Coeffs[i] {
			if p.Coeffs[i][j] != other.Coeffs[i][j] {
				return false
			}
		}
	}
	return true
}

func errAliasViolation(format string, args ...interface{}) error {
	return newErr(KindAliasViolation, format, args...)
}
