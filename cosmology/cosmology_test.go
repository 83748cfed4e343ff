package cosmology_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-cosmo/cosmology"
)

func newBackground(t *testing.T, p cosmology.BackgroundParams) *cosmology.FlatBackground {
	t.Helper()

	bg, err := cosmology.NewFlatBackground(p)
	require.NoError(t, err)

	return bg
}

func TestFlatBackgroundTimes(t *testing.T) {
	t.Parallel()

	bg := newBackground(t, cosmology.DefaultParams())

	tau0, err := bg.TauOfZ(0)
	require.NoError(t, err)
	require.InDelta(t, 14100, tau0, 700, "conformal age")

	for _, z := range []float64{0, 0.5, 2, 10, 1100} {
		tau, err := bg.TauOfZ(z)
		require.NoError(t, err)

		back, err := bg.ZOfTau(tau)
		require.NoError(t, err)
		require.InDelta(t, z, back, 1e-6*(1+z))
	}

	tauEarly, _ := bg.TauOfZ(3)
	require.Less(t, tauEarly, tau0)

	_, err = bg.TauOfZ(-1)
	require.Error(t, err)

	_, err = bg.ZOfTau(2 * tau0)
	require.Error(t, err)
}

func TestFlatBackgroundGrowth(t *testing.T) {
	t.Parallel()

	p := cosmology.DefaultParams()
	bg := newBackground(t, p)

	tau0, _ := bg.TauOfZ(0)
	st, err := bg.At(tau0)
	require.NoError(t, err)

	require.InDelta(t, 1, st.A, 1e-9)
	require.InDelta(t, 0, st.Z, 1e-9)
	require.InDelta(t, p.H0(), st.H, 1e-9)
	require.InDelta(t, p.OmegaM(), st.OmegaM, 1e-6)
	require.InDelta(t, 0.78, st.D, 0.03)
	require.InDelta(t, math.Pow(p.OmegaM(), 0.55), st.F, 0.02)

	lcdm, err := bg.GrowthLCDM(0)
	require.NoError(t, err)
	require.InDelta(t, st.D, lcdm, 1e-12)

	tau10, _ := bg.TauOfZ(10)
	early, err := bg.At(tau10)
	require.NoError(t, err)
	require.InDelta(t, early.A, early.D, 0.01*early.A)
}

func TestFlatBackgroundDarkEnergy(t *testing.T) {
	t.Parallel()

	p := cosmology.DefaultParams()
	p.W0, p.Wa = -0.9, 0.3

	bg := newBackground(t, p)

	tau0, _ := bg.TauOfZ(0)
	st, err := bg.At(tau0)
	require.NoError(t, err)
	require.InDelta(t, -0.9, st.W, 1e-12)

	lcdm, err := bg.GrowthLCDM(0)
	require.NoError(t, err)
	require.NotEqual(t, lcdm, st.D)
}

func TestFlatBackgroundErrors(t *testing.T) {
	t.Parallel()

	p := cosmology.DefaultParams()
	p.H = 0
	_, err := cosmology.NewFlatBackground(p)
	require.Error(t, err)

	p = cosmology.DefaultParams()
	p.OmegaCDM = 2
	_, err = cosmology.NewFlatBackground(p)
	require.Error(t, err)
}

func TestConformalDistance(t *testing.T) {
	t.Parallel()

	p := cosmology.DefaultParams()
	bg := newBackground(t, p)

	tau0, _ := bg.TauOfZ(0)
	tau2, _ := bg.TauOfZ(2)

	require.InDelta(t, tau0-tau2, cosmology.ConformalDistance(p, 0, 2), 1e-3*(tau0-tau2))
	require.Zero(t, cosmology.ConformalDistance(p, 2, 1))
}

func TestFittedThermo(t *testing.T) {
	t.Parallel()

	th := cosmology.NewFittedThermo(cosmology.DefaultParams())
	require.InDelta(t, 1090, th.ZRec(), 15)
}

func TestPowerLawPrimordial(t *testing.T) {
	t.Parallel()

	pm, err := cosmology.NewPowerLawPrimordial(
		[]cosmology.Mode{{As: 2e-9, Ns: 0.96}, {As: 1e-10, Ns: 1}},
		[][]float64{{1, -0.5}, {-0.5, 1}},
		cosmology.DefaultKPivot,
	)
	require.NoError(t, err)
	require.Equal(t, 2, pm.ICSize())
	require.True(t, pm.Correlated(0, 1))

	p00, err := pm.Spectrum(cosmology.DefaultKPivot, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 2e-9, p00, 1e-21)

	p01, err := pm.Spectrum(0.1, 0, 1)
	require.NoError(t, err)

	p10, _ := pm.Spectrum(0.1, 1, 0)
	require.Equal(t, p01, p10)
	require.Less(t, p01, 0.0)

	_, err = pm.Spectrum(0.1, 0, 2)
	require.Error(t, err)

	_, err = pm.Spectrum(0, 0, 0)
	require.Error(t, err)
}

func TestPowerLawPrimordialErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		modes []cosmology.Mode
		corr  [][]float64
	}{
		{name: "empty"},
		{name: "amplitude", modes: []cosmology.Mode{{As: 0, Ns: 1}}},
		{name: "rows", modes: []cosmology.Mode{{As: 1, Ns: 1}}, corr: [][]float64{{1}, {0}}},
		{name: "asymmetric", modes: []cosmology.Mode{{As: 1, Ns: 1}, {As: 1, Ns: 1}}, corr: [][]float64{{1, 0.2}, {0.3, 1}}},
		{name: "bounds", modes: []cosmology.Mode{{As: 1, Ns: 1}, {As: 1, Ns: 1}}, corr: [][]float64{{1, 2}, {2, 1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := cosmology.NewPowerLawPrimordial(tc.modes, tc.corr, cosmology.DefaultKPivot)
			require.Error(t, err)
		})
	}

	uncorrelated, err := cosmology.NewPowerLawPrimordial([]cosmology.Mode{{As: 1, Ns: 1}, {As: 1, Ns: 1}}, nil, 1)
	require.NoError(t, err)
	require.False(t, uncorrelated.Correlated(0, 1))
}

func TestEH98(t *testing.T) {
	t.Parallel()

	p := cosmology.DefaultParams()
	hh := p.H * p.H
	eh := cosmology.NewEH98(p.OmegaM()*hh, p.OmegaB*hh, p.TCMB)

	require.InDelta(t, 148, eh.SoundHorizon(), 6)
	require.InDelta(t, 1, eh.Transfer(1e-5), 1e-3)
	require.InDelta(t, 1, eh.NoWiggle(1e-5), 1e-3)

	prev := eh.NoWiggle(1e-4)
	for _, k := range []float64{1e-3, 1e-2, 0.1, 1, 10} {
		nw := eh.NoWiggle(k)
		require.Less(t, nw, prev)
		require.Positive(t, nw)
		require.InDelta(t, 1, eh.Transfer(k)/nw, 0.2, "k=%g", k)

		prev = nw
	}
}

func TestEHPerturbations(t *testing.T) {
	t.Parallel()

	p := cosmology.DefaultParams()
	p.OmegaCDM -= 0.0014
	p.OmegaNu = 0.0014
	p.MNu = 0.06

	bg := newBackground(t, p)

	pt, err := cosmology.NewEHPerturbations(bg, cosmology.WithTimeSampling(10, 6), cosmology.WithExtraIC(0.5))
	require.NoError(t, err)
	require.Len(t, pt.Tau(), 6)
	require.Equal(t, 2, pt.ICSize())
	require.True(t, pt.HasSource(cosmology.SourceDeltaCB))

	last := len(pt.K()) - 1
	for ik := range pt.K() {
		m, err := pt.Source(cosmology.SourceDeltaM, 0, 5, ik)
		require.NoError(t, err)

		cb, err := pt.Source(cosmology.SourceDeltaCB, 0, 5, ik)
		require.NoError(t, err)

		require.Positive(t, m)
		require.LessOrEqual(t, m, cb)
	}

	early, _ := pt.Source(cosmology.SourceDeltaCB, 0, 0, last)
	today, _ := pt.Source(cosmology.SourceDeltaCB, 0, 5, last)
	require.Less(t, early, today)

	extra, _ := pt.Source(cosmology.SourceDeltaCB, 1, 5, last)
	require.Less(t, extra, today)

	_, err = pt.Source(cosmology.SourceDeltaM, 2, 0, 0)
	require.Error(t, err)
}

func TestEHPerturbationsWithoutNeutrinos(t *testing.T) {
	t.Parallel()

	bg := newBackground(t, cosmology.DefaultParams())

	pt, err := cosmology.NewEHPerturbations(bg)
	require.NoError(t, err)
	require.False(t, pt.HasSource(cosmology.SourceDeltaCB))

	_, err = pt.Source(cosmology.SourceDeltaCB, 0, 0, 0)
	require.Error(t, err)

	_, err = cosmology.NewEHPerturbations(bg, cosmology.WithKRange(1, 0.1, 10))
	require.Error(t, err)
}
