package nowiggle_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/internal/testutil"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/linear"
	"github.com/cwbudde/algo-cosmo/pk/nowiggle"
	"github.com/cwbudde/algo-cosmo/pk/table"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

func TestSmootherConstant(t *testing.T) {
	t.Parallel()

	x := testutil.Uniform(-5, 2, 100)
	y := testutil.DC(3.5, len(x))

	sm, err := nowiggle.NewSmoother(x[0], x[len(x)-1], 128, 0.25)
	require.NoError(t, err)

	out := make([]float64, len(x))
	require.NoError(t, sm.Smooth(x, y, out))

	for i := range out {
		require.InDelta(t, 3.5, out[i], 1e-9)
	}
}

func TestSmootherRemovesOscillation(t *testing.T) {
	t.Parallel()

	x := testutil.Uniform(-8, 2, 400)
	y := testutil.WigglyLine(x, 0.3, 0.1, 0.4)

	tapers := []window.Taper{
		{Shape: window.ShapeHann},
		{Shape: window.ShapeTukey, Alpha: 0.5},
		{Shape: window.ShapeWelch},
	}

	for _, tp := range tapers {
		sm, err := nowiggle.NewSmoother(x[0], x[len(x)-1], 512, 0.25, nowiggle.WithTaper(tp))
		require.NoError(t, err)

		out := make([]float64, len(x))
		require.NoError(t, sm.Smooth(x, y, out))

		// away from the edges only the trend survives
		for i, xi := range x {
			if xi < -6 || xi > 0 {
				continue
			}

			require.InDelta(t, 0.3*xi, out[i], 0.01, "%v x=%g", tp.Shape, xi)
		}

		// reusable
		require.NoError(t, sm.Smooth(x, y, out))
	}
}

func TestSmootherDampsNoise(t *testing.T) {
	t.Parallel()

	x := testutil.Uniform(-6, 1, 300)
	trend := testutil.WigglyLine(x, -1.2, 0, 1)
	noise := testutil.DeterministicNoise(7, 0.02, len(x))

	y := make([]float64, len(x))
	for i := range y {
		y[i] = trend[i] + noise[i]
	}

	sm, err := nowiggle.NewSmoother(x[0], x[len(x)-1], 512, 0.25)
	require.NoError(t, err)

	out := make([]float64, len(x))
	require.NoError(t, sm.Smooth(x, y, out))

	lo, hi := math.Exp(-5.0), math.Exp(0.0)
	require.Less(t,
		testutil.WiggleEnergy(x, out, trend, lo, hi),
		0.01*testutil.WiggleEnergy(x, y, trend, lo, hi))
}

func TestSmootherErrors(t *testing.T) {
	t.Parallel()

	_, err := nowiggle.NewSmoother(0, 1, 2, 0.25)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = nowiggle.NewSmoother(1, 0, 64, 0.25)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = nowiggle.NewSmoother(0, 1, 64, 0)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = nowiggle.NewSmoother(0, 1, 64, 0.1, nowiggle.WithTaper(window.Taper{Shape: window.ShapeTukey}))
	require.ErrorIs(t, err, core.ErrInconsistentConfig)
	require.ErrorIs(t, err, window.ErrInvalidTaper)

	sm, err := nowiggle.NewSmoother(0, 1, 64, 0.1)
	require.NoError(t, err)
	require.Error(t, sm.Smooth([]float64{0, 0.5, 1}, []float64{1, 2, 3}, make([]float64, 2)))
}

func referenceSetup(t *testing.T) (cosmology.BackgroundParams, cosmology.Primordial, []float64) {
	t.Helper()

	pm, err := cosmology.NewAdiabatic(2.1e-9, 0.965)
	require.NoError(t, err)

	return cosmology.DefaultParams(), pm, core.Log(core.LogSpace(1e-4, 10, 300))
}

func TestAnalytic(t *testing.T) {
	t.Parallel()

	p, pm, lnK := referenceSetup(t)

	c, err := nowiggle.Analytic(nowiggle.AnalyticInput{Params: p, Primordial: pm, LnK: lnK, Growth: 0.8})
	require.NoError(t, err)
	require.Len(t, c.LnPk, len(lnK))

	hh := p.H * p.H
	eh := cosmology.NewEH98(p.OmegaM()*hh, p.OmegaB*hh, p.TCMB)

	k := 0.1
	pr, _ := pm.Spectrum(k, 0, 0)
	delta := 0.4 * 0.8 * k * k * eh.NoWiggle(k) / (p.OmegaM() * p.H0() * p.H0())

	got, err := c.Eval(math.Log(k))
	require.NoError(t, err)
	require.InDelta(t, math.Log(linear.PowerFromTransfer(k, delta, pr)), got, 1e-5)

	// growth enters squared
	c2, err := nowiggle.Analytic(nowiggle.AnalyticInput{Params: p, Primordial: pm, LnK: lnK, Growth: 0.4})
	require.NoError(t, err)
	require.InDelta(t, 2*math.Ln2, c.LnPk[10]-c2.LnPk[10], 1e-12)

	_, err = c.Eval(math.Log(100))
	require.ErrorIs(t, err, core.ErrOutOfRange)

	_, err = nowiggle.Analytic(nowiggle.AnalyticInput{Params: p, Primordial: pm, LnK: lnK})
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestNumericalRemovesWiggles(t *testing.T) {
	t.Parallel()

	p, pm, lnK := referenceSetup(t)

	ref, err := nowiggle.Analytic(nowiggle.AnalyticInput{Params: p, Primordial: pm, LnK: lnK, Growth: 1})
	require.NoError(t, err)

	hh := p.H * p.H
	eh := cosmology.NewEH98(p.OmegaM()*hh, p.OmegaB*hh, p.TCMB)

	lnPk, err := table.New(1, 2, len(lnK))
	require.NoError(t, err)

	for it := range 2 {
		growth := 0.5 * float64(it+1)
		for i, lnk := range lnK {
			k := math.Exp(lnk)
			pr, _ := pm.Spectrum(k, 0, 0)
			delta := 0.4 * growth * k * k * eh.Transfer(k) / (p.OmegaM() * p.H0() * p.H0())
			lnPk.Set(0, it, i, math.Log(linear.PowerFromTransfer(k, delta, pr)))
		}
	}

	nw, err := nowiggle.Numerical(nowiggle.NumericalInput{LnK: lnK, LnPk: lnPk, Reference: ref})
	require.NoError(t, err)

	types, taus, nk := nw.Dims()
	require.Equal(t, 1, types)
	require.Equal(t, 2, taus)
	require.Equal(t, len(lnK), nk)

	for it := range 2 {
		full := lnPk.Row(0, it)
		smooth := nw.Row(0, it)

		require.Less(t,
			testutil.WiggleEnergy(lnK, smooth, ref.LnPk, 0.02, 0.5),
			testutil.WiggleEnergy(lnK, full, ref.LnPk, 0.02, 0.5))

		for i, lnk := range lnK {
			if k := math.Exp(lnk); k > 1e-3 && k < 1 {
				require.InDelta(t, full[i], smooth[i], 0.1, "k=%g", k)
			}
		}
	}
}

func TestNumericalErrors(t *testing.T) {
	t.Parallel()

	p, pm, lnK := referenceSetup(t)

	ref, err := nowiggle.Analytic(nowiggle.AnalyticInput{Params: p, Primordial: pm, LnK: lnK, Growth: 1})
	require.NoError(t, err)

	lnPk, _ := table.New(1, 1, len(lnK))

	_, err = nowiggle.Numerical(nowiggle.NumericalInput{LnK: lnK, LnPk: lnPk})
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = nowiggle.Numerical(nowiggle.NumericalInput{LnK: lnK[:10], LnPk: lnPk, Reference: ref})
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = nowiggle.Numerical(nowiggle.NumericalInput{LnK: lnK, LnPk: lnPk, Reference: ref, Type: 1})
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}
