package nowiggle

import (
	"math"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/interp"
	"github.com/cwbudde/algo-cosmo/pk/linear"
)

// Curve is a log power spectrum along ln k with its spline.
type Curve struct {
	LnK  []float64
	LnPk []float64
	DD   []float64
}

// Eval returns ln P at ln k.
func (c *Curve) Eval(lnK float64) (float64, error) {
	return interp.Eval(c.LnK, c.LnPk, c.DD, lnK)
}

// AnalyticInput collects what [Analytic] reads.
type AnalyticInput struct {
	Params     cosmology.BackgroundParams
	Primordial cosmology.Primordial
	LnK        []float64
	// Growth is the linear growth factor to normalize with, D(τ0) for the
	// spectrum today.
	Growth float64
}

// Analytic returns the zero-baryon-oscillation spectrum of the adiabatic
// initial condition over lnK.
func Analytic(in AnalyticInput) (*Curve, error) {
	const op = "nowiggle.Analytic"

	if in.Primordial == nil || len(in.LnK) < interp.MinPoints {
		return nil, core.Errorf(core.KindInvalidArgument, op, "need a primordial spectrum and at least %d wavenumbers", interp.MinPoints)
	}

	if !(in.Growth > 0) {
		return nil, core.Errorf(core.KindInvalidArgument, op, "growth factor must be > 0, got %g", in.Growth)
	}

	p := in.Params
	hh := p.H * p.H
	eh := cosmology.NewEH98(p.OmegaM()*hh, p.OmegaB*hh, p.TCMB)
	norm := 0.4 * in.Growth / (p.OmegaM() * p.H0() * p.H0())

	c := &Curve{LnK: append([]float64(nil), in.LnK...), LnPk: make([]float64, len(in.LnK))}

	for i, lnk := range in.LnK {
		k := math.Exp(lnk)

		pr, err := in.Primordial.Spectrum(k, 0, 0)
		if err != nil {
			return nil, core.Wrap(core.KindInvalidArgument, op, err)
		}

		delta := norm * k * k * eh.NoWiggle(k)
		c.LnPk[i] = math.Log(linear.PowerFromTransfer(k, delta, pr))
	}

	dd, err := interp.SecondDerivatives(c.LnK, c.LnPk)
	if err != nil {
		return nil, err
	}

	c.DD = dd

	return c, nil
}
