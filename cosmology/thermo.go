package cosmology

import "math"

// FittedThermo provides the recombination redshift from the Hu & Sugiyama
// (1996) fit.
type FittedThermo struct {
	zRec float64
}

// NewFittedThermo evaluates the fit for p.
func NewFittedThermo(p BackgroundParams) *FittedThermo {
	hh := p.H * p.H
	obhh := p.OmegaB * hh
	omhh := p.OmegaM() * hh

	g1 := 0.0783 * math.Pow(obhh, -0.238) / (1 + 39.5*math.Pow(obhh, 0.763))
	g2 := 0.560 / (1 + 21.1*math.Pow(obhh, 1.81))

	return &FittedThermo{
		zRec: 1048 * (1 + 0.00124*math.Pow(obhh, -0.738)) * (1 + g1*math.Pow(omhh, g2)),
	}
}

// ZRec returns the redshift of recombination.
func (t *FittedThermo) ZRec() float64 { return t.zRec }
