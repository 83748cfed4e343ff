// Package grid builds the wavenumber and time grids of the power-spectrum
// tables.
package grid

import (
	"math"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// DefaultMaxExtrapolationPoints bounds the high-k extension.
const DefaultMaxExtrapolationPoints = 100000

// KGrid is the wavenumber grid: the native sampling of the perturbation
// collaborator followed by a log-spaced high-k extension.
type KGrid struct {
	K          []float64
	LnK        []float64
	NativeSize int
}

// BuildK copies native and appends a log-spaced extension up to
// factor*k_max using the last native ln-k step. factor <= 1 disables the
// extension.
func BuildK(native []float64, factor float64, maxExtra int) (*KGrid, error) {
	const op = "grid.BuildK"

	n := len(native)
	if n < 2 {
		return nil, core.Errorf(core.KindInvalidArgument, op, "native k grid needs at least 2 points, got %d", n)
	}

	if native[0] <= 0 {
		return nil, core.Errorf(core.KindInvalidArgument, op, "wavenumbers must be > 0, got %g", native[0])
	}

	if ok, i := core.StrictlyIncreasing(native); !ok {
		return nil, core.Errorf(core.KindInvalidArgument, op, "native k grid not strictly increasing at index %d", i)
	}

	extra := 0
	step := 0.0

	if factor > 1 {
		lastStep := math.Log(native[n-1] / native[n-2])
		span := math.Log(factor)
		extra = int(math.Ceil(span / lastStep))

		if maxExtra <= 0 {
			maxExtra = DefaultMaxExtrapolationPoints
		}

		if extra > maxExtra {
			return nil, core.Errorf(core.KindInconsistentConfig, op,
				"extension to %g x k_max needs %d points, more than the allowed %d", factor, extra, maxExtra)
		}

		step = span / float64(extra)
	}

	g := &KGrid{
		K:          make([]float64, n+extra),
		LnK:        make([]float64, n+extra),
		NativeSize: n,
	}

	copy(g.K, native)
	for i := 0; i < n; i++ {
		g.LnK[i] = math.Log(native[i])
	}

	lnMax := g.LnK[n-1]
	for i := 1; i <= extra; i++ {
		g.LnK[n-1+i] = lnMax + float64(i)*step
		g.K[n-1+i] = math.Exp(g.LnK[n-1+i])
	}

	return g, nil
}

// Size returns the total number of wavenumbers.
func (g *KGrid) Size() int { return len(g.K) }

// ExtraSize returns the number of extension points.
func (g *KGrid) ExtraSize() int { return len(g.K) - g.NativeSize }

// Native returns the native sub-range.
func (g *KGrid) Native() []float64 { return g.K[:g.NativeSize:g.NativeSize] }

// NativeLn returns ln(k) of the native sub-range.
func (g *KGrid) NativeLn() []float64 { return g.LnK[:g.NativeSize:g.NativeSize] }

// KMin returns the smallest wavenumber.
func (g *KGrid) KMin() float64 { return g.K[0] }

// KMax returns the largest native wavenumber.
func (g *KGrid) KMax() float64 { return g.K[g.NativeSize-1] }

// KMaxExtra returns the largest extended wavenumber.
func (g *KGrid) KMaxExtra() float64 { return g.K[len(g.K)-1] }
