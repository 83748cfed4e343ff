package grid

import (
	"math"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// TauGrid holds the late-time conformal times at which spectra are tabulated.
type TauGrid struct {
	Tau   []float64
	LnTau []float64
	Z     []float64
	// Offset is the index of Tau[0] in the collaborator's time sampling.
	Offset int
	// ZLimit is the largest redshift served. Z[0] may exceed it when a
	// bracketing time was kept for interpolation.
	ZLimit float64
	// NLStart counts the earliest times without a trustworthy nonlinear
	// correction; nonlinear tables are valid from index NLStart on.
	NLStart int
}

// BuildTau selects the times of tau whose redshift is at most zMax. One
// earlier time is kept so that z_max lies inside the grid, and the grid is
// widened to at least three times unless zMax is zero, which keeps today
// only. Times with z > zMaxNL are counted in NLStart.
func BuildTau(tau []float64, zOfTau func(float64) (float64, error), zMax, zMaxNL float64) (*TauGrid, error) {
	const op = "grid.BuildTau"

	n := len(tau)
	if n == 0 {
		return nil, core.Errorf(core.KindInvalidArgument, op, "empty time sampling")
	}

	if ok, i := core.StrictlyIncreasing(tau); !ok {
		return nil, core.Errorf(core.KindInvalidArgument, op, "time sampling not strictly increasing at index %d", i)
	}

	if zMax < 0 || math.IsNaN(zMax) {
		return nil, core.Errorf(core.KindInvalidArgument, op, "z_max must be >= 0, got %g", zMax)
	}

	z := make([]float64, n)
	for i, t := range tau {
		zi, err := zOfTau(t)
		if err != nil {
			return nil, core.Wrap(core.KindInvalidArgument, op, err)
		}

		z[i] = zi
	}

	start := n - 1
	if zMax > 0 {
		if z[0] < zMax {
			return nil, core.Errorf(core.KindOutOfRange, op,
				"z_max=%g beyond the earliest available time (z=%g)", zMax, z[0])
		}

		first := n - 1
		for i := 0; i < n; i++ {
			if z[i] <= zMax {
				first = i
				break
			}
		}

		start = first
		if z[first] < zMax && first > 0 {
			start = first - 1
		}

		for n-start < 3 && start > 0 {
			start--
		}

		if n-start < 3 {
			return nil, core.Errorf(core.KindOutOfRange, op,
				"only %d times available up to z_max=%g, need at least 3", n-start, zMax)
		}
	}

	g := &TauGrid{
		Tau:    append([]float64(nil), tau[start:]...),
		Z:      append([]float64(nil), z[start:]...),
		Offset: start,
		ZLimit: zMax,
	}

	g.LnTau = make([]float64, len(g.Tau))
	for i, t := range g.Tau {
		if t <= 0 {
			return nil, core.Errorf(core.KindInvalidArgument, op, "conformal time must be > 0, got %g", t)
		}

		g.LnTau[i] = math.Log(t)
	}

	for _, zi := range g.Z {
		if zi > zMaxNL {
			g.NLStart++
		}
	}

	return g, nil
}

// Size returns the number of times.
func (g *TauGrid) Size() int { return len(g.Tau) }

// NLSize returns the number of times with a valid nonlinear correction slot.
func (g *TauGrid) NLSize() int { return len(g.Tau) - g.NLStart }

// ZMax returns the largest redshift served.
func (g *TauGrid) ZMax() float64 { return g.ZLimit }

// ZSpan returns the redshift of the earliest stored time.
func (g *TauGrid) ZSpan() float64 { return g.Z[0] }
