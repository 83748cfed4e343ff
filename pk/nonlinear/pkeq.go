package nonlinear

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/internal/rootfind"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/interp"
)

const (
	pkEqWMin         = -4.0
	pkEqWMax         = 0.0
	pkEqTolerance    = 1e-8
	pkEqMaxIter      = 100
	// pkEqBracketSteps bounds the widening of [pkEqWMin, pkEqWMax].
	pkEqBracketSteps = 4
)

// PkEq maps each time to the constant-w cosmology that has the same
// conformal distance to recombination and the same Ω_m and h.
type PkEq struct {
	lnTau  []float64
	w      []float64
	omegaM []float64
	ddW    []float64
	ddOm   []float64
}

// NewPkEq tabulates w_eff and Ω_m,eff(z) at the given times. tau and z must
// describe the same times in increasing tau.
func NewPkEq(p cosmology.BackgroundParams, zRec float64, tau, z []float64) (*PkEq, error) {
	const op = "nonlinear.NewPkEq"

	n := len(tau)
	if n == 0 || len(z) != n {
		return nil, core.Errorf(core.KindInvalidArgument, op, "need matching tau and z, got %d and %d", n, len(z))
	}

	if !(zRec > 0) {
		return nil, core.Errorf(core.KindInvalidArgument, op, "recombination redshift must be > 0, got %g", zRec)
	}

	e := &PkEq{
		lnTau:  make([]float64, n),
		w:      make([]float64, n),
		omegaM: make([]float64, n),
	}

	for i := range n {
		if !(tau[i] > 0) || z[i] >= zRec {
			return nil, core.Errorf(core.KindInvalidArgument, op, "time %d (tau=%g, z=%g) outside (0, z_rec)", i, tau[i], z[i])
		}

		e.lnTau[i] = math.Log(tau[i])

		w, err := effectiveW(p, z[i], zRec)
		if err != nil {
			return nil, err
		}

		eq := p
		eq.W0, eq.Wa = w, 0

		ez := eq.E(1 / (1 + z[i]))
		e.w[i] = w
		e.omegaM[i] = p.OmegaM() * math.Pow(1+z[i], 3) / (ez * ez)
	}

	if n >= interp.MinPoints {
		var err error

		if e.ddW, err = interp.SecondDerivatives(e.lnTau, e.w); err != nil {
			return nil, err
		}

		if e.ddOm, err = interp.SecondDerivatives(e.lnTau, e.omegaM); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// effectiveW solves for the constant w matching the distance from z to zRec.
func effectiveW(p cosmology.BackgroundParams, z, zRec float64) (float64, error) {
	const op = "nonlinear.NewPkEq"

	target := cosmology.ConformalDistance(p, z, zRec)

	f := func(w float64) float64 {
		eq := p
		eq.W0, eq.Wa = w, 0

		return cosmology.ConformalDistance(eq, z, zRec) - target
	}

	lo, hi, err := rootfind.Bracket(f, pkEqWMin, pkEqWMax, pkEqBracketSteps)
	if err != nil {
		return 0, core.Wrap(core.KindNonConvergence, op, fmt.Errorf("w_eff at z=%g outside [%g, %g]: %w", z, lo, hi, err))
	}

	root, err := rootfind.Bisect(f, lo, hi, pkEqTolerance, pkEqMaxIter)
	if err != nil {
		return 0, core.Wrap(core.KindNonConvergence, op, err)
	}

	return root.X, nil
}

// At returns w_eff and Ω_m,eff at conformal time tau.
func (e *PkEq) At(tau float64) (w, omegaM float64, err error) {
	const op = "nonlinear.PkEq.At"

	lnTau := math.Log(tau)

	if len(e.lnTau) == 1 {
		if math.Abs(lnTau-e.lnTau[0]) > 1e-10 {
			return 0, 0, core.Errorf(core.KindOutOfRange, op, "tau=%g not tabulated", tau)
		}

		return e.w[0], e.omegaM[0], nil
	}

	if e.ddW == nil {
		if w, err = interp.Linear(e.lnTau, e.w, lnTau); err != nil {
			return 0, 0, err
		}

		omegaM, err = interp.Linear(e.lnTau, e.omegaM, lnTau)

		return w, omegaM, err
	}

	if w, err = interp.Eval(e.lnTau, e.w, e.ddW, lnTau); err != nil {
		return 0, 0, err
	}

	omegaM, err = interp.Eval(e.lnTau, e.omegaM, e.ddOm, lnTau)

	return w, omegaM, err
}
