package cosmology

import (
	"fmt"
	"math"
)

// DefaultKPivot is the pivot scale of the primordial spectrum in 1/Mpc.
const DefaultKPivot = 0.05

// Mode is the power-law spectrum of one initial condition.
type Mode struct {
	As float64 // amplitude at the pivot
	Ns float64 // spectral index
}

// PowerLawPrimordial is a set of power-law initial conditions with a
// constant correlation matrix. Cross spectra are corr_ij √(P_ii P_jj).
type PowerLawPrimordial struct {
	modes  []Mode
	corr   [][]float64
	kPivot float64
}

// NewPowerLawPrimordial builds the spectrum. corr may be nil for
// uncorrelated modes; otherwise it must be a symmetric n×n matrix with unit
// diagonal and entries in [-1, 1].
func NewPowerLawPrimordial(modes []Mode, corr [][]float64, kPivot float64) (*PowerLawPrimordial, error) {
	n := len(modes)
	if n == 0 {
		return nil, fmt.Errorf("cosmology: at least one primordial mode required")
	}

	if kPivot <= 0 {
		return nil, fmt.Errorf("cosmology: pivot scale must be positive, got %g", kPivot)
	}

	for i, m := range modes {
		if m.As <= 0 {
			return nil, fmt.Errorf("cosmology: mode %d amplitude must be positive, got %g", i, m.As)
		}
	}

	c := make([][]float64, n)
	for i := range c {
		c[i] = make([]float64, n)
		c[i][i] = 1
	}

	if corr != nil {
		if len(corr) != n {
			return nil, fmt.Errorf("cosmology: correlation matrix has %d rows, want %d", len(corr), n)
		}

		for i := range n {
			if len(corr[i]) != n {
				return nil, fmt.Errorf("cosmology: correlation row %d has %d entries, want %d", i, len(corr[i]), n)
			}

			for j := range n {
				if i == j {
					continue
				}

				v := corr[i][j]
				if v != corr[j][i] || v < -1 || v > 1 {
					return nil, fmt.Errorf("cosmology: invalid correlation %g at (%d,%d)", v, i, j)
				}

				c[i][j] = v
			}
		}
	}

	return &PowerLawPrimordial{modes: append([]Mode(nil), modes...), corr: c, kPivot: kPivot}, nil
}

// NewAdiabatic returns a single adiabatic mode at the default pivot.
func NewAdiabatic(as, ns float64) (*PowerLawPrimordial, error) {
	return NewPowerLawPrimordial([]Mode{{As: as, Ns: ns}}, nil, DefaultKPivot)
}

// ICSize returns the number of initial conditions.
func (p *PowerLawPrimordial) ICSize() int { return len(p.modes) }

// Correlated reports whether ic1 and ic2 have a non-zero cross spectrum.
func (p *PowerLawPrimordial) Correlated(ic1, ic2 int) bool {
	if ic1 < 0 || ic2 < 0 || ic1 >= len(p.modes) || ic2 >= len(p.modes) {
		return false
	}

	return ic1 == ic2 || p.corr[ic1][ic2] != 0
}

// Spectrum returns the dimensionless spectrum of (ic1, ic2) at k.
func (p *PowerLawPrimordial) Spectrum(k float64, ic1, ic2 int) (float64, error) {
	n := len(p.modes)
	if ic1 < 0 || ic2 < 0 || ic1 >= n || ic2 >= n {
		return 0, fmt.Errorf("cosmology: initial condition (%d,%d) out of range [0,%d)", ic1, ic2, n)
	}

	if k <= 0 {
		return 0, fmt.Errorf("cosmology: non-positive wavenumber %g", k)
	}

	if ic1 == ic2 {
		return p.auto(k, ic1), nil
	}

	return p.corr[ic1][ic2] * math.Sqrt(p.auto(k, ic1)*p.auto(k, ic2)), nil
}

func (p *PowerLawPrimordial) auto(k float64, ic int) float64 {
	m := p.modes[ic]
	return m.As * math.Pow(k/p.kPivot, m.Ns-1)
}
