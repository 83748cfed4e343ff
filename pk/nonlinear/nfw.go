package nonlinear

import (
	"math"

	"github.com/cwbudde/algo-cosmo/internal/trig"
)

// nfwSmall is the ks below which the normalised transform is taken as 1.
const nfwSmall = 1e-4

// nfwTransform returns the Fourier transform of an NFW profile truncated at
// the virial radius, normalised to 1 at k=0. ks is k times the scale radius
// and c the concentration.
func nfwTransform(ks, c float64) float64 {
	if ks < nfwSmall {
		return 1
	}

	si1, ci1 := trig.SiCi(ks)
	si2, ci2 := trig.SiCi((1 + c) * ks)
	s, co := math.Sincos(ks)

	num := s*(si2-si1) - math.Sin(c*ks)/((1+c)*ks) + co*(ci2-ci1)

	return num / (math.Log1p(c) - c/(1+c))
}

// shethTormen is the Sheth-Tormen multiplicity g(ν), normalised so that
// ∫ g dν = 1.
func shethTormen(nu float64) float64 {
	const (
		amp = 0.21616
		q   = 0.707
		p   = 0.3
	)

	qnu2 := q * nu * nu

	return amp * (1 + math.Pow(qnu2, -p)) * math.Exp(-qnu2/2)
}
