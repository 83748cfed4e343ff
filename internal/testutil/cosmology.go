package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/extrap"
	"github.com/cwbudde/algo-cosmo/pk/grid"
	"github.com/cwbudde/algo-cosmo/pk/index"
	"github.com/cwbudde/algo-cosmo/pk/linear"
)

// Reference primordial amplitude and tilt.
const (
	ReferenceAs = 2.1e-9
	ReferenceNs = 0.9649
)

// Reference bundles the collaborators of a flat reference cosmology.
type Reference struct {
	Params        cosmology.BackgroundParams
	Background    *cosmology.FlatBackground
	Thermo        *cosmology.FittedThermo
	Perturbations *cosmology.EHPerturbations
	Primordial    *cosmology.PowerLawPrimordial
}

// ReferenceCosmology builds the collaborators for p, or for
// cosmology.DefaultParams when p is nil. Perturbations sample k in
// [1e-4, 5] at 20 points per decade and 16 times from z=5 unless opts say
// otherwise.
func ReferenceCosmology(tb testing.TB, p *cosmology.BackgroundParams, opts ...cosmology.PerturbationOption) *Reference {
	tb.Helper()

	params := cosmology.DefaultParams()
	if p != nil {
		params = *p
	}

	bg, err := cosmology.NewFlatBackground(params)
	if err != nil {
		tb.Fatalf("background: %v", err)
	}

	base := []cosmology.PerturbationOption{
		cosmology.WithKRange(1e-4, 5, 20),
		cosmology.WithTimeSampling(5, 16),
	}

	pt, err := cosmology.NewEHPerturbations(bg, append(base, opts...)...)
	if err != nil {
		tb.Fatalf("perturbations: %v", err)
	}

	prim, err := cosmology.NewAdiabatic(ReferenceAs, ReferenceNs)
	if err != nil {
		tb.Fatalf("primordial: %v", err)
	}

	return &Reference{
		Params:        params,
		Background:    bg,
		Thermo:        cosmology.NewFittedThermo(params),
		Perturbations: pt,
		Primordial:    prim,
	}
}

// LinearTables are the linear stages run on a [Reference].
type LinearTables struct {
	Indices  *index.Indices
	KGrid    *grid.KGrid
	TauGrid  *grid.TauGrid
	Native   *linear.Result
	Extended *linear.Result
}

// Linear assembles the linear spectra up to zMax and extends them to
// kFactor*k_max with the max_scaled law. zMaxNL bounds the nonlinear
// slots; pass math.Inf(1) for all times.
func (r *Reference) Linear(tb testing.TB, zMax, zMaxNL, kFactor float64) *LinearTables {
	tb.Helper()

	idx, err := index.Build(index.Request{
		HasPkM:     true,
		HasPkCB:    r.Perturbations.HasSource(cosmology.SourceDeltaCB),
		ICSize:     r.Primordial.ICSize(),
		Correlated: r.Primordial.Correlated,
	})
	if err != nil {
		tb.Fatalf("indices: %v", err)
	}

	kg, err := grid.BuildK(r.Perturbations.K(), kFactor, 0)
	if err != nil {
		tb.Fatalf("k grid: %v", err)
	}

	if math.IsNaN(zMaxNL) {
		zMaxNL = math.Inf(1)
	}

	tg, err := grid.BuildTau(r.Perturbations.Tau(), r.Background.ZOfTau, zMax, zMaxNL)
	if err != nil {
		tb.Fatalf("tau grid: %v", err)
	}

	native, err := linear.Assemble(linear.Input{
		Perturbations: r.Perturbations,
		Primordial:    r.Primordial,
		Indices:       idx,
		KGrid:         kg,
		TauGrid:       tg,
	})
	if err != nil {
		tb.Fatalf("linear: %v", err)
	}

	law, err := extrap.Config{Method: extrap.MaxScaled}.Law()
	if err != nil {
		tb.Fatalf("law: %v", err)
	}

	ext, err := extrap.Extend(extrap.Input{
		Linear:     native,
		Indices:    idx,
		KGrid:      kg,
		Primordial: r.Primordial,
		Law:        law,
	})
	if err != nil {
		tb.Fatalf("extend: %v", err)
	}

	return &LinearTables{Indices: idx, KGrid: kg, TauGrid: tg, Native: native, Extended: ext}
}
