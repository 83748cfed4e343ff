package nowiggle

import (
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/table"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

// NumericalInput collects what [Numerical] reads.
type NumericalInput struct {
	LnK  []float64
	LnPk *table.Table
	// Type is the spectrum index of LnPk to de-wiggle.
	Type int
	// Reference is the broadband shape the wiggles are measured against.
	Reference *Curve
	// Smoothing is the Gaussian width in ln k; zero selects DefaultSmoothing.
	Smoothing float64
	// Points is the uniform resampling size; zero selects twice len(LnK).
	Points int
	// Taper blends the FFT pad; the zero value is a Hann taper.
	Taper window.Taper
}

// Numerical returns the de-wiggled log spectrum for every time of the
// table, shaped (1, taus, len(LnK)).
func Numerical(in NumericalInput) (*table.Table, error) {
	const op = "nowiggle.Numerical"

	if in.LnPk == nil || in.Reference == nil {
		return nil, core.Errorf(core.KindInvalidArgument, op, "missing linear table or reference")
	}

	types, taus, nk := in.LnPk.Dims()
	if nk != len(in.LnK) {
		return nil, core.Errorf(core.KindInvalidArgument, op, "table has %d wavenumbers, grid %d", nk, len(in.LnK))
	}

	if in.Type < 0 || in.Type >= types {
		return nil, core.Errorf(core.KindInvalidArgument, op, "spectrum index %d outside [0,%d)", in.Type, types)
	}

	sigma := in.Smoothing
	if sigma == 0 {
		sigma = DefaultSmoothing
	}

	points := in.Points
	if points == 0 {
		points = 2 * nk
	}

	sm, err := NewSmoother(in.LnK[0], in.LnK[nk-1], points, sigma, WithTaper(in.Taper))
	if err != nil {
		return nil, err
	}

	ref := make([]float64, nk)
	for i, lnk := range in.LnK {
		v, err := in.Reference.Eval(lnk)
		if err != nil {
			return nil, core.Wrap(core.KindOutOfRange, op, err)
		}

		ref[i] = v
	}

	out, err := table.New(1, taus, nk)
	if err != nil {
		return nil, err
	}

	ratio := make([]float64, nk)

	for it := range taus {
		row := in.LnPk.Row(in.Type, it)
		for i := range ratio {
			ratio[i] = row[i] - ref[i]
		}

		dst := out.Row(0, it)
		if err := sm.Smooth(in.LnK, ratio, dst); err != nil {
			return nil, err
		}

		for i := range dst {
			dst[i] += ref[i]
		}
	}

	return out, nil
}
