package fourier_test

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/internal/testutil"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/extrap"
	"github.com/cwbudde/algo-cosmo/pk/fourier"
	"github.com/cwbudde/algo-cosmo/pk/interp"
	"github.com/cwbudde/algo-cosmo/pk/nonlinear"
	"github.com/cwbudde/algo-cosmo/pk/sigma"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

func quiet() fourier.Option {
	return fourier.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func collaborators(ref *testutil.Reference) fourier.Collaborators {
	return fourier.Collaborators{
		Background:    ref.Background,
		Thermo:        ref.Thermo,
		Perturbations: ref.Perturbations,
		Primordial:    ref.Primordial,
	}
}

func newContext(t *testing.T, ref *testutil.Reference, opts ...fourier.Option) *fourier.Context {
	t.Helper()

	ctx, err := fourier.New(collaborators(ref), append([]fourier.Option{quiet()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(ctx.Close)

	return ctx
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := fourier.DefaultOptions()
	require.Equal(t, nonlinear.MethodNone, cfg.Method)
	require.Equal(t, extrap.MaxScaled, cfg.Extrapolation)
	require.True(t, math.IsInf(cfg.ZMaxNonlinear, 1))
	require.Equal(t, 50.0, cfg.KMaxExtraFactor)
	require.Equal(t, fourier.PkEqAuto, cfg.PkEq)

	cfg = fourier.ApplyOptions(
		nil,
		fourier.WithMethod(nonlinear.MethodHMcode),
		fourier.WithHMcodeVersion(nonlinear.Version2020),
		fourier.WithFeedback(nonlinear.FeedbackUserDefined, 3, 0.6),
		fourier.WithNoWiggleSmoothing(-1),
		fourier.WithSigmaKPerDecade(0),
		fourier.WithKMaxExtra(10, 0),
		fourier.WithNoWiggleTaper(window.Taper{Shape: window.ShapeWelch}),
		fourier.WithNoWiggleTaper(window.Taper{Shape: window.ShapeTukey, Alpha: 2}),
	)
	require.Equal(t, nonlinear.MethodHMcode, cfg.Method)
	require.Equal(t, nonlinear.Version2020, cfg.HMcode.Version)
	require.Equal(t, 3.0, cfg.HMcode.CMin)
	require.Equal(t, 0.6, cfg.HMcode.Eta0)
	require.Equal(t, fourier.DefaultOptions().NoWiggleSmoothing, cfg.NoWiggleSmoothing)
	require.Equal(t, fourier.DefaultOptions().SigmaKPerDecade, cfg.SigmaKPerDecade)
	require.Equal(t, 10.0, cfg.KMaxExtraFactor)
	require.Equal(t, fourier.DefaultOptions().MaxExtrapolationPoints, cfg.MaxExtrapolationPoints)
	require.Equal(t, window.Taper{Shape: window.ShapeWelch}, cfg.NoWiggleTaper)

	for _, m := range []fourier.PkEqMode{fourier.PkEqAuto, fourier.PkEqOn, fourier.PkEqOff} {
		got, err := fourier.ParsePkEqMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}

	_, err := fourier.ParsePkEqMode("sometimes")
	require.ErrorIs(t, err, core.ErrInconsistentConfig)
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)

	_, err := fourier.New(fourier.Collaborators{}, quiet())
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	tests := []struct {
		name string
		opts []fourier.Option
	}{
		{"user feedback without parameters", []fourier.Option{
			fourier.WithMethod(nonlinear.MethodHMcode),
			fourier.WithFeedback(nonlinear.FeedbackUserDefined, 0, 0),
		}},
		{"hmcode with flat tail", []fourier.Option{
			fourier.WithMethod(nonlinear.MethodHMcode),
			fourier.WithExtrapolation(extrap.OnlyMax, nil),
		}},
		{"user law without shape", []fourier.Option{
			fourier.WithExtrapolation(extrap.UserDefined, nil),
		}},
		{"extension too dense", []fourier.Option{
			fourier.WithKMaxExtra(1e6, 10),
		}},
	}

	for _, tt := range tests {
		ctx, err := fourier.New(collaborators(ref), append([]fourier.Option{quiet()}, tt.opts...)...)
		require.ErrorIs(t, err, core.ErrInconsistentConfig, tt.name)
		require.Nil(t, ctx, tt.name)
	}

	_, err = fourier.New(collaborators(ref), quiet(), fourier.WithZMax(50))
	require.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestLinearQueries(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithZMax(1))

	kg := ctx.KGrid()
	typ := ctx.Indices().PkM

	require.Equal(t, -1, ctx.Indices().PkCB)
	require.Equal(t, typ, ctx.Indices().PkCluster)

	for _, z := range []float64{0, 0.37, 1} {
		lin, err := ctx.PkAtZ(fourier.Linear, fourier.PkLinear, z, typ)
		require.NoError(t, err)
		require.Len(t, lin.Pk, kg.NativeSize)
		require.Len(t, lin.PkIC, 1)

		logs, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkLinear, z, typ)
		require.NoError(t, err)

		for i := 0; i < kg.NativeSize; i += 7 {
			require.Positive(t, lin.Pk[i])
			require.InDelta(t, math.Log(lin.Pk[i]), logs.Pk[i], 1e-12)
			testutil.RequireRelativeClose(t, lin.PkIC[0][i], lin.Pk[i], 1e-12)

			// interpolation reproduces the knots
			pk, pkIC, err := ctx.PkAtKAndZ(fourier.PkLinear, kg.K[i], z, typ)
			require.NoError(t, err)
			testutil.RequireRelativeClose(t, pk, lin.Pk[i], 1e-9)
			testutil.RequireRelativeClose(t, pkIC[0], pk, 1e-12)
		}
	}

	// growth between the stored times
	p0, _, err := ctx.PkAtKAndZ(fourier.PkLinear, 1e-3, 0, typ)
	require.NoError(t, err)
	p1, _, err := ctx.PkAtKAndZ(fourier.PkLinear, 1e-3, 1, typ)
	require.NoError(t, err)
	require.Less(t, p1, p0)

	m, cb, err := ctx.PksAtKAndZ(fourier.PkLinear, 0.1, 0.5)
	require.NoError(t, err)
	require.Positive(t, m)
	require.True(t, math.IsNaN(cb))
}

func TestRangeChecks(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithZMax(1), fourier.WithMethod(nonlinear.MethodHalofit))

	kg := ctx.KGrid()
	typ := ctx.Indices().PkM

	for _, z := range []float64{-0.1, 1.5, math.NaN()} {
		_, err := ctx.PkAtZ(fourier.Linear, fourier.PkLinear, z, typ)
		require.ErrorIs(t, err, core.ErrOutOfRange)
	}

	_, err := ctx.PkAtZ(fourier.Linear, fourier.PkLinear, 0, 7)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = ctx.PkAtKAndZ(fourier.PkLinear, -1, 0, typ)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	// linear output reads the extension, nonlinear output does not
	k := 10 * kg.KMax()
	pk, _, err := ctx.PkAtKAndZ(fourier.PkLinear, k, 0, typ)
	require.NoError(t, err)
	require.Positive(t, pk)

	_, _, err = ctx.PkAtKAndZ(fourier.PkNonlinear, k, 0, typ)
	require.ErrorIs(t, err, core.ErrOutOfRange)

	_, _, err = ctx.PkAtKAndZ(fourier.PkLinear, 1.1*kg.KMaxExtra(), 0, typ)
	require.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestRedshiftLimitIsConfiguredMaximum(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)

	for _, zMax := range []float64{0.05, 1} {
		ctx := newContext(t, ref, fourier.WithZMax(zMax), fourier.WithMethod(nonlinear.MethodHalofit))
		tg := ctx.TauGrid()
		typ := ctx.Indices().PkM

		require.Equal(t, zMax, tg.ZMax())
		// the bracketing time lies beyond the served range
		require.Greater(t, tg.ZSpan(), zMax)

		_, err := ctx.PkAtZ(fourier.Linear, fourier.PkLinear, zMax, typ)
		require.NoError(t, err)
		_, _, err = ctx.PkAtKAndZ(fourier.PkNonlinear, 0.1, zMax, typ)
		require.NoError(t, err)

		beyond := 0.5 * (zMax + tg.ZSpan())

		_, err = ctx.PkAtZ(fourier.Linear, fourier.PkLinear, beyond, typ)
		require.ErrorIs(t, err, core.ErrOutOfRange, "z_max=%g", zMax)
		_, _, err = ctx.PkAtKAndZ(fourier.PkLinear, 0.1, beyond, typ)
		require.ErrorIs(t, err, core.ErrOutOfRange)
		_, _, err = ctx.PkAtKAndZ(fourier.PkNonlinear, 0.1, beyond, typ)
		require.ErrorIs(t, err, core.ErrOutOfRange)
		_, err = ctx.SigmaAtZ(8, beyond, typ)
		require.ErrorIs(t, err, core.ErrOutOfRange)
		_, _, err = ctx.KNLAtZ(beyond)
		require.ErrorIs(t, err, core.ErrOutOfRange)
	}
}

func TestLowKFollowsPrimordialSlope(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref)

	typ := ctx.Indices().PkM
	kMin := ctx.KGrid().KMin()

	p1, _, err := ctx.PkAtKAndZ(fourier.PkLinear, kMin/100, 0, typ)
	require.NoError(t, err)
	p2, _, err := ctx.PkAtKAndZ(fourier.PkLinear, kMin/10, 0, typ)
	require.NoError(t, err)

	// P ∝ k·P_R(k) ∝ k^n_s
	require.InDelta(t, testutil.ReferenceNs, math.Log10(p2/p1), 1e-9)

	pMin, _, err := ctx.PkAtKAndZ(fourier.PkLinear, kMin, 0, typ)
	require.NoError(t, err)
	testutil.RequireRelativeClose(t, pMin*math.Pow(0.1, testutil.ReferenceNs), p2, 1e-9)

	tilt, err := ctx.PkTiltAtKAndZ(fourier.PkLinear, kMin/10, 0, typ)
	require.NoError(t, err)
	require.InDelta(t, testutil.ReferenceNs, tilt, 1e-6)
}

func TestTilt(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref)

	typ := ctx.Indices().PkM
	const h = 1e-3

	for _, k := range []float64{2e-3, 0.05, 0.7} {
		tilt, err := ctx.PkTiltAtKAndZ(fourier.PkLinear, k, 0, typ)
		require.NoError(t, err)

		lo, _, err := ctx.PkAtKAndZ(fourier.PkLinear, k*math.Exp(-h), 0, typ)
		require.NoError(t, err)
		hi, _, err := ctx.PkAtKAndZ(fourier.PkLinear, k*math.Exp(h), 0, typ)
		require.NoError(t, err)

		require.InDelta(t, math.Log(hi/lo)/(2*h), tilt, 1e-3, "k=%g", k)
	}

	small, err := ctx.PkTiltAtKAndZ(fourier.PkLinear, 1, 0, typ)
	require.NoError(t, err)
	require.Less(t, small, -1.0)
}

func TestNoneKeepsLinear(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithZMax(1))
	typ := ctx.Indices().PkM

	for _, z := range []float64{0, 0.6} {
		lin, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkLinear, z, typ)
		require.NoError(t, err)
		nl, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkNonlinear, z, typ)
		require.NoError(t, err)
		require.Nil(t, nl.PkIC)

		for i := range lin.Pk {
			require.InDelta(t, lin.Pk[i], nl.Pk[i], 1e-12)
		}

		m, cb, err := ctx.KNLAtZ(z)
		require.NoError(t, err)
		require.True(t, math.IsInf(m, 1))
		require.True(t, math.IsNaN(cb))
	}
}

func TestHalofitContext(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref,
		fourier.WithMethod(nonlinear.MethodHalofit),
		fourier.WithZMax(2),
		fourier.WithZMaxNonlinear(0.5),
	)

	kg, tg := ctx.KGrid(), ctx.TauGrid()
	typ := ctx.Indices().PkM

	require.Positive(t, tg.NLStart)

	knl, _, err := ctx.KNLAtZ(0)
	require.NoError(t, err)
	require.Greater(t, knl, kg.KMin())
	require.Less(t, knl, kg.KMax())

	lin, _, err := ctx.PkAtKAndZ(fourier.PkLinear, 1, 0, typ)
	require.NoError(t, err)
	nl, _, err := ctx.PkAtKAndZ(fourier.PkNonlinear, 1, 0, typ)
	require.NoError(t, err)
	require.Greater(t, nl/lin, 2.0)

	lin, _, err = ctx.PkAtKAndZ(fourier.PkLinear, 1e-3, 0, typ)
	require.NoError(t, err)
	nl, _, err = ctx.PkAtKAndZ(fourier.PkNonlinear, 1e-3, 0, typ)
	require.NoError(t, err)
	require.InEpsilon(t, lin, nl, 1e-2)

	// before the nonlinear start only linear output exists
	_, err = ctx.PkAtZ(fourier.Linear, fourier.PkNonlinear, 1.5, typ)
	require.ErrorIs(t, err, core.ErrOutOfRange)
	_, _, err = ctx.KNLAtZ(1.5)
	require.ErrorIs(t, err, core.ErrOutOfRange)
	_, err = ctx.PkAtZ(fourier.Linear, fourier.PkLinear, 1.5, typ)
	require.NoError(t, err)
}

func TestStoredSplinesMatchFreshSplines(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithZMax(1), fourier.WithMethod(nonlinear.MethodHalofit))
	typ := ctx.Indices().PkM

	// z sits between stored times, k between stored wavenumbers
	const z = 0.37

	for _, out := range []fourier.Output{fourier.PkLinear, fourier.PkNonlinear} {
		s, err := ctx.PkAtZ(fourier.Logarithmic, out, z, typ)
		require.NoError(t, err)

		lnK := make([]float64, len(s.K))
		for i, k := range s.K {
			lnK[i] = math.Log(k)
		}

		dd, err := interp.SecondDerivatives(lnK, s.Pk)
		require.NoError(t, err)

		for _, i := range []int{len(lnK) / 4, len(lnK) / 2, len(lnK) / 3} {
			lnk := 0.5 * (lnK[i] + lnK[i+1])
			want, err := interp.Eval(lnK, s.Pk, dd, lnk)
			require.NoError(t, err)

			got, _, err := ctx.PkAtKAndZ(out, math.Exp(lnk), z, typ)
			require.NoError(t, err)
			require.InEpsilon(t, math.Exp(want), got, 1e-6, "%v k=%g", out, math.Exp(lnk))
		}
	}
}

func TestColdBaryonSpectra(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil, cosmology.WithColdSource(true))
	ctx := newContext(t, ref, fourier.WithZMax(1), fourier.WithMethod(nonlinear.MethodHalofit))

	idx := ctx.Indices()
	require.GreaterOrEqual(t, idx.PkCB, 0)
	require.Equal(t, idx.PkCB, idx.PkCluster)

	m, cb, err := ctx.PksAtZ(fourier.Linear, fourier.PkNonlinear, 0.2)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, cb)

	ks := []float64{1e-5, 1e-3, 0.1, 1}
	zs := []float64{0, 0.5, 1}

	gm, gcb, err := ctx.PksAtKVecAndZVec(fourier.PkNonlinear, ks, zs)
	require.NoError(t, err)
	require.Len(t, gm, len(zs))
	require.Len(t, gcb, len(zs))

	for iz, z := range zs {
		require.Len(t, gm[iz], len(ks))

		for ik, k := range ks {
			pm, pcb, err := ctx.PksAtKAndZ(fourier.PkNonlinear, k, z)
			require.NoError(t, err)
			require.Equal(t, pm, gm[iz][ik])
			require.Equal(t, pcb, gcb[iz][ik])
		}
	}

	knl, knlCB, err := ctx.KNLAtZ(0)
	require.NoError(t, err)
	require.False(t, math.IsNaN(knlCB))
	require.InEpsilon(t, knl, knlCB, 1e-6)

	_, _, err = ctx.PksAtKVecAndZVec(fourier.PkNonlinear, []float64{100}, zs)
	require.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestSigma(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithZMax(1))
	typ := ctx.Indices().PkM

	s8, err := ctx.Sigma8(typ)
	require.NoError(t, err)
	require.Greater(t, s8, 0.75)
	require.Less(t, s8, 0.92)

	same, err := ctx.SigmaAtZ(8/ref.Params.H, 0, typ)
	require.NoError(t, err)
	require.Equal(t, s8, same)

	prev := math.Inf(1)
	for _, r := range []float64{1, 4, 16, 64} {
		s, err := ctx.SigmaAtZ(r, 0, typ)
		require.NoError(t, err)
		require.Positive(t, s)
		require.Less(t, s, prev)
		prev = s

		ds, err := ctx.SigmasAtZ(r, 0, typ, sigma.SigmaPrime)
		require.NoError(t, err)
		require.Negative(t, ds)
	}

	// vanishing on very large scales, finite on very small ones
	huge, err := ctx.SigmaAtZ(1e4, 0, typ)
	require.NoError(t, err)
	require.GreaterOrEqual(t, huge, 0.0)
	require.Less(t, huge, 1e-3*s8)

	tiny, err := ctx.SigmaAtZ(1e-3, 0, typ)
	require.NoError(t, err)
	require.False(t, math.IsInf(tiny, 0) || math.IsNaN(tiny))
	one, err := ctx.SigmaAtZ(1, 0, typ)
	require.NoError(t, err)
	require.Greater(t, tiny, one)

	early, err := ctx.SigmaAtZ(8/ref.Params.H, 1, typ)
	require.NoError(t, err)
	require.Less(t, early, s8)

	disp, err := ctx.SigmasAtZ(1, 0, typ, sigma.SigmaDisp)
	require.NoError(t, err)
	require.Positive(t, disp)

	_, err = ctx.SigmaAtZ(0, 0, typ)
	require.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = ctx.SigmaAtZ(8, 3, typ)
	require.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestNoWiggle(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)

	plain := newContext(t, ref)
	_, err := plain.PkAtZ(fourier.Linear, fourier.PkAnalyticNoWiggle, 0, 0)
	require.ErrorIs(t, err, core.ErrInconsistentConfig)

	only := newContext(t, ref, fourier.WithNoWiggle(true, false))
	_, err = only.PkAtZ(fourier.Linear, fourier.PkNumericalNoWiggle, 0, 0)
	require.ErrorIs(t, err, core.ErrInconsistentConfig)

	ctx := newContext(t, ref, fourier.WithZMax(1), fourier.WithNoWiggle(true, true))
	typ := ctx.Indices().PkCluster

	lin, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkLinear, 0, typ)
	require.NoError(t, err)
	an, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkAnalyticNoWiggle, 0, typ)
	require.NoError(t, err)
	num, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkNumericalNoWiggle, 0, typ)
	require.NoError(t, err)

	wLin := testutil.WiggleEnergy(testutil.Log(lin.K), lin.Pk, an.Pk, 0.02, 0.4)
	wNum := testutil.WiggleEnergy(testutil.Log(num.K), num.Pk, an.Pk, 0.02, 0.4)
	require.Positive(t, wLin)
	require.Less(t, wNum, wLin)

	// the analytic curve scales with the growth factor
	a0, _, err := ctx.PkAtKAndZ(fourier.PkAnalyticNoWiggle, 1e-3, 0, typ)
	require.NoError(t, err)
	a1, _, err := ctx.PkAtKAndZ(fourier.PkAnalyticNoWiggle, 1e-3, 0.5, typ)
	require.NoError(t, err)
	l0, _, err := ctx.PkAtKAndZ(fourier.PkLinear, 1e-3, 0, typ)
	require.NoError(t, err)
	l1, _, err := ctx.PkAtKAndZ(fourier.PkLinear, 1e-3, 0.5, typ)
	require.NoError(t, err)
	require.InEpsilon(t, l1/l0, a1/a0, 1e-3)

	m, cb, err := ctx.PksAtZ(fourier.Linear, fourier.PkNumericalNoWiggle, 0.5)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Nil(t, cb)
}

func TestZeroTailVanishes(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithExtrapolation(extrap.Zero, nil))

	kg := ctx.KGrid()
	require.Zero(t, kg.ExtraSize())

	pk, pkIC, err := ctx.PkAtKAndZ(fourier.PkLinear, 2*kg.KMax(), 0, 0)
	require.NoError(t, err)
	require.Zero(t, pk)
	require.Zero(t, pkIC[0])

	_, _, err = ctx.PkAtKAndZ(fourier.PkLinear, 100*kg.KMax(), 0, 0)
	require.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestCorrelatedInitialConditions(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil, cosmology.WithExtraIC(0.3))

	prim, err := cosmology.NewPowerLawPrimordial(
		[]cosmology.Mode{{As: testutil.ReferenceAs, Ns: testutil.ReferenceNs}, {As: 0.5 * testutil.ReferenceAs, Ns: 1.1}},
		[][]float64{{1, 0.4}, {0.4, 1}},
		cosmology.DefaultKPivot,
	)
	require.NoError(t, err)

	c := collaborators(ref)
	c.Primordial = prim

	ctx, err := fourier.New(c, quiet())
	require.NoError(t, err)
	t.Cleanup(ctx.Close)

	idx := ctx.Indices()
	require.Equal(t, 2, idx.ICSize)
	require.Len(t, idx.Pairs, 3)

	p11, p22, p12 := idx.PairIndex(0, 0), idx.PairIndex(1, 1), idx.PairIndex(0, 1)

	for _, k := range []float64{1e-6, 1e-3, 0.2, 20} {
		pk, pkIC, err := ctx.PkAtKAndZ(fourier.PkLinear, k, 0, idx.PkM)
		require.NoError(t, err)
		require.Len(t, pkIC, 3)
		testutil.RequireRelativeClose(t, pkIC[p11]+pkIC[p22]+2*pkIC[p12], pk, 1e-3)
	}

	s, err := ctx.PkAtZ(fourier.Logarithmic, fourier.PkLinear, 0, idx.PkM)
	require.NoError(t, err)

	for i := range s.K {
		require.GreaterOrEqual(t, s.PkIC[p12][i], -1.0)
		require.LessOrEqual(t, s.PkIC[p12][i], 1.0)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)

	ctx, err := fourier.New(collaborators(ref), quiet())
	require.NoError(t, err)

	_, err = ctx.Sigma8(0)
	require.NoError(t, err)

	ctx.Close()
	ctx.Close()

	_, err = ctx.PkAtZ(fourier.Linear, fourier.PkLinear, 0, 0)
	require.ErrorIs(t, err, fourier.ErrClosed)
	require.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = ctx.KNLAtZ(0)
	require.ErrorIs(t, err, fourier.ErrClosed)
	_, err = ctx.Sigma8(0)
	require.ErrorIs(t, err, fourier.ErrClosed)
}

func TestConcurrentQueries(t *testing.T) {
	t.Parallel()

	ref := testutil.ReferenceCosmology(t, nil)
	ctx := newContext(t, ref, fourier.WithZMax(1), fourier.WithMethod(nonlinear.MethodHalofit))

	ks := []float64{1e-3, 0.01, 0.1, 1}

	want := make([]float64, len(ks))
	for i, k := range ks {
		p, _, err := ctx.PkAtKAndZ(fourier.PkNonlinear, k, 0.3, 0)
		require.NoError(t, err)
		want[i] = p
	}

	const workers = 8

	got := make([][]float64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got[w] = make([]float64, len(ks))
			for i, k := range ks {
				p, _, err := ctx.PkAtKAndZ(fourier.PkNonlinear, k, 0.3, 0)
				if err != nil {
					errs[w] = err
					return
				}

				got[w][i] = p
			}
		}()
	}

	wg.Wait()

	for w := range workers {
		require.NoError(t, errs[w])
		require.Equal(t, want, got[w])
	}
}
