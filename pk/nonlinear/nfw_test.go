package nonlinear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// simpson integrates f over [a, b] with n (even) intervals.
func simpson(f func(float64) float64, a, b float64, n int) float64 {
	h := (b - a) / float64(n)
	sum := f(a) + f(b)

	for i := 1; i < n; i++ {
		w := 2.0
		if i%2 == 1 {
			w = 4
		}

		sum += w * f(a+float64(i)*h)
	}

	return sum * h / 3
}

func TestNFWTransformMatchesProfileIntegral(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ ks, c float64 }{
		{0.5, 5},
		{3, 5},
		{10, 5},
		{1, 12},
		{0.05, 4},
	} {
		norm := math.Log1p(tc.c) - tc.c/(1+tc.c)
		want := simpson(func(x float64) float64 {
			if x == 0 {
				return 0
			}

			return x / ((1 + x) * (1 + x)) * math.Sin(tc.ks*x) / (tc.ks * x)
		}, 0, tc.c, 20000) / norm

		require.InDelta(t, want, nfwTransform(tc.ks, tc.c), 2e-5, "ks=%g c=%g", tc.ks, tc.c)
	}
}

func TestNFWTransformLimits(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1.0, nfwTransform(0, 4))
	require.InDelta(t, 1, nfwTransform(2e-4, 4), 1e-5)

	prev := 1.0
	for _, ks := range []float64{0.1, 0.3, 1, 3} {
		w := nfwTransform(ks, 6)
		require.Less(t, w, prev)

		prev = w
	}
}

func TestShethTormenNormalisation(t *testing.T) {
	t.Parallel()

	// ν = u^2.5 removes the ν^-0.6 behaviour at the origin
	got := simpson(func(u float64) float64 {
		if u == 0 {
			return 0
		}

		return shethTormen(math.Pow(u, 2.5)) * 2.5 * math.Pow(u, 1.5)
	}, 0, math.Pow(12, 0.4), 20000)

	require.InDelta(t, 1, got, 2e-3)
}

func TestMassQuadratureConverges(t *testing.T) {
	t.Parallel()

	n := quadBaseIntervals<<quadMaxLevel + 1
	step := 10.0 / float64(n-1)

	q := &massQuadrature{
		step:    step,
		weight:  make([]float64, n),
		bloat:   make([]float64, n),
		rs:      make([]float64, n),
		conc:    make([]float64, n),
		nfwFrac: make([]float64, n),
	}

	// at ks < nfwSmall the transform is 1 and the integral is ∫ e^{-x²}
	for i := range n {
		x := -5 + float64(i)*step
		q.weight[i] = math.Exp(-x * x)
		q.nfwFrac[i] = 1
		q.conc[i] = 4
	}

	got, err := q.integrate(0, 1e-8, 1)
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(math.Pi), got, 1e-8)
}

func TestGrowthTableInverse(t *testing.T) {
	t.Parallel()

	g := &growthTable{
		lnOPZ:     []float64{0, 1, 2},
		d:         []float64{1, 0.5, 0.25},
		dAsc:      []float64{0.25, 0.5, 1},
		lnOPZDesc: []float64{2, 1, 0},
	}

	z, err := g.redshiftOf(0.75)
	require.NoError(t, err)
	require.InDelta(t, math.Expm1(0.5), z, 1e-12)

	z, err = g.redshiftOf(0.01)
	require.NoError(t, err)
	require.InDelta(t, math.Expm1(2), z, 1e-12)

	d, err := g.at(math.Expm1(1.5))
	require.NoError(t, err)
	require.InDelta(t, 0.375, d, 1e-12)
}
