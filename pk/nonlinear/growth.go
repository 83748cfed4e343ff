package nonlinear

import (
	"math"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/interp"
)

// growthTable samples the linear growth factor on a uniform ln(1+z) grid.
type growthTable struct {
	lnOPZ []float64
	d     []float64
	// dAsc and lnOPZDesc hold the same samples ordered by increasing D.
	dAsc      []float64
	lnOPZDesc []float64
}

func newGrowthTable(bg cosmology.Background, zMax float64, n int) (*growthTable, error) {
	const op = "nonlinear.growthTable"

	g := &growthTable{
		lnOPZ:     make([]float64, n),
		d:         make([]float64, n),
		dAsc:      make([]float64, n),
		lnOPZDesc: make([]float64, n),
	}

	hi := math.Log1p(zMax)

	for i := range n {
		x := hi * float64(i) / float64(n-1)

		tau, err := bg.TauOfZ(math.Expm1(x))
		if err != nil {
			return nil, core.Wrap(core.KindOutOfRange, op, err)
		}

		st, err := bg.At(tau)
		if err != nil {
			return nil, core.Wrap(core.KindOutOfRange, op, err)
		}

		g.lnOPZ[i], g.d[i] = x, st.D
		g.dAsc[n-1-i], g.lnOPZDesc[n-1-i] = st.D, x
	}

	if ok, i := core.StrictlyIncreasing(g.dAsc); !ok {
		return nil, core.Errorf(core.KindInvalidArgument, op, "growth factor not monotonic at sample %d", n-1-i)
	}

	return g, nil
}

// at returns D(z).
func (g *growthTable) at(z float64) (float64, error) {
	return interp.Linear(g.lnOPZ, g.d, math.Log1p(z))
}

// redshiftOf returns the redshift at which the growth factor equals d,
// clamped to the tabulated range.
func (g *growthTable) redshiftOf(d float64) (float64, error) {
	d = core.Clamp(d, g.dAsc[0], g.dAsc[len(g.dAsc)-1])

	x, err := interp.Linear(g.dAsc, g.lnOPZDesc, d)
	if err != nil {
		return 0, err
	}

	return math.Expm1(x), nil
}
