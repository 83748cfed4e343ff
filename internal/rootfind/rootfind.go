// Package rootfind provides bounded bracketing root finders used by the
// nonlinear corrections.
package rootfind

import (
	"errors"
	"math"
)

var (
	// ErrNoBracket is returned when f has the same sign at both ends.
	ErrNoBracket = errors.New("rootfind: root not bracketed")
	// ErrMaxIterations is returned when the tolerance is not reached.
	ErrMaxIterations = errors.New("rootfind: maximum iterations exceeded")
)

// Result describes a finished search.
type Result struct {
	X          float64
	Iterations int
	// Width is the final bracket width.
	Width float64
}

// Bisect finds a root of f in [lo, hi] to within tol in x, using at most
// maxIter halvings. On ErrMaxIterations the returned Result holds the last
// midpoint.
func Bisect(f func(float64) float64, lo, hi, tol float64, maxIter int) (Result, error) {
	if lo > hi {
		lo, hi = hi, lo
	}

	flo, fhi := f(lo), f(hi)

	switch {
	case flo == 0:
		return Result{X: lo}, nil
	case fhi == 0:
		return Result{X: hi}, nil
	case math.IsNaN(flo) || math.IsNaN(fhi) || (flo > 0) == (fhi > 0):
		return Result{}, ErrNoBracket
	}

	var res Result

	for res.Iterations = 1; res.Iterations <= maxIter; res.Iterations++ {
		mid := 0.5 * (lo + hi)
		fmid := f(mid)

		if fmid == 0 {
			return Result{X: mid, Iterations: res.Iterations}, nil
		}

		if (fmid > 0) == (flo > 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}

		res.X, res.Width = 0.5*(lo+hi), hi-lo
		if res.Width <= tol {
			return res, nil
		}
	}

	res.Iterations = maxIter

	return res, ErrMaxIterations
}

// Bracket widens [lo, hi] geometrically around its centre until f changes
// sign, at most maxSteps times.
func Bracket(f func(float64) float64, lo, hi float64, maxSteps int) (float64, float64, error) {
	for range maxSteps + 1 {
		flo, fhi := f(lo), f(hi)
		if !math.IsNaN(flo) && !math.IsNaN(fhi) && (flo > 0) != (fhi > 0) {
			return lo, hi, nil
		}

		w := hi - lo
		lo -= 0.5 * w
		hi += 0.5 * w
	}

	return lo, hi, ErrNoBracket
}
