package sigma

import (
	"math"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// Moments are the Gaussian-filtered sums of Δ²(k) at one radius, with
// x = kR:
//
//	S1 = ∫ Δ² e^{-x²} dln k
//	S2 = ∫ Δ² 2x² e^{-x²} dln k
//	S3 = ∫ Δ² 4x²(1-x²) e^{-x²} dln k
type Moments struct {
	S1, S2, S3 float64
}

// Sigma returns √S1.
func (m Moments) Sigma() float64 { return math.Sqrt(m.S1) }

// NEff returns the effective spectral index -3 + S2/S1.
func (m Moments) NEff() float64 { return -3 + m.S2/m.S1 }

// Curvature returns (S2/S1)² + S3/S1.
func (m Moments) Curvature() float64 {
	r := m.S2 / m.S1
	return r*r + m.S3/m.S1
}

// GaussianMoments integrates the three sums at radius r.
func GaussianMoments(s Spectrum, r, kPerDecade float64) (Moments, error) {
	const op = "sigma.GaussianMoments"

	if !(r > 0) || math.IsInf(r, 0) {
		return Moments{}, core.Errorf(core.KindInvalidArgument, op, "radius must be > 0, got %g", r)
	}

	if err := s.validate(op); err != nil {
		return Moments{}, err
	}

	if !(kPerDecade > 0) {
		kPerDecade = DefaultKPerDecade
	}

	var m Moments

	s.visit(kPerDecade, func(k, pk, weight float64) {
		x2 := k * r * k * r
		d2 := weight * k * k * k * pk / (2 * math.Pi * math.Pi) * math.Exp(-x2)

		m.S1 += d2
		m.S2 += d2 * 2 * x2
		m.S3 += d2 * 4 * x2 * (1 - x2)
	})

	return m, nil
}
