package interp

import (
	"sort"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// MinPoints is the smallest grid a spline can be built on.
const MinPoints = 3

// edgeTolerance is the relative slack accepted when a query sits on a grid end.
const edgeTolerance = 1e-10

// SecondDerivatives returns the natural cubic spline second derivatives of y(x).
func SecondDerivatives(x, y []float64) ([]float64, error) {
	dd := make([]float64, len(x))
	if err := SecondDerivativesTo(dd, x, y, nil); err != nil {
		return nil, err
	}

	return dd, nil
}

// SecondDerivativesTo writes the natural spline second derivatives of y(x)
// into dd. scratch, when at least len(x) long, avoids an allocation.
func SecondDerivativesTo(dd, x, y, scratch []float64) error {
	const op = "interp.SecondDerivatives"

	n := len(x)
	if n < MinPoints {
		return core.Errorf(core.KindInvalidArgument, op, "spline needs at least %d points, got %d", MinPoints, n)
	}

	if len(y) != n || len(dd) != n {
		return core.Errorf(core.KindInvalidArgument, op, "length mismatch: x=%d y=%d dd=%d", n, len(y), len(dd))
	}

	if ok, i := core.StrictlyIncreasing(x); !ok {
		return core.Errorf(core.KindInvalidArgument, op, "abscissa not strictly increasing at index %d", i)
	}

	u := scratch
	if len(u) < n {
		u = make([]float64, n)
	}

	dd[0] = 0
	u[0] = 0

	for i := 1; i < n-1; i++ {
		sig := (x[i] - x[i-1]) / (x[i+1] - x[i-1])
		p := sig*dd[i-1] + 2
		dd[i] = (sig - 1) / p
		slope := (y[i+1]-y[i])/(x[i+1]-x[i]) - (y[i]-y[i-1])/(x[i]-x[i-1])
		u[i] = (6*slope/(x[i+1]-x[i-1]) - sig*u[i-1]) / p
	}

	dd[n-1] = 0
	for i := n - 2; i >= 0; i-- {
		dd[i] = dd[i]*dd[i+1] + u[i]
	}

	return nil
}

// Locate returns i such that x[i] <= xq <= x[i+1]. Queries outside the grid
// return an out-of-range error.
func Locate(x []float64, xq float64) (int, error) {
	n := len(x)
	if n < 2 {
		return 0, core.Errorf(core.KindInvalidArgument, "interp.Locate", "grid needs at least 2 points, got %d", n)
	}

	slack := edgeTolerance * (x[n-1] - x[0])
	if xq < x[0]-slack || xq > x[n-1]+slack {
		return 0, core.Errorf(core.KindOutOfRange, "interp.Locate", "%g outside [%g, %g]", xq, x[0], x[n-1])
	}

	i := sort.SearchFloat64s(x, xq) - 1
	if i < 0 {
		i = 0
	}

	if i > n-2 {
		i = n - 2
	}

	return i, nil
}

// EvalAt evaluates the spline on interval i at xq.
func EvalAt(x, y, dd []float64, i int, xq float64) float64 {
	h := x[i+1] - x[i]
	a := (x[i+1] - xq) / h
	b := (xq - x[i]) / h

	return a*y[i] + b*y[i+1] + ((a*a*a-a)*dd[i]+(b*b*b-b)*dd[i+1])*h*h/6
}

// Eval evaluates the spline at xq.
func Eval(x, y, dd []float64, xq float64) (float64, error) {
	i, err := Locate(x, xq)
	if err != nil {
		return 0, err
	}

	return EvalAt(x, y, dd, i, xq), nil
}

// Derivative returns dy/dx of the spline at xq.
func Derivative(x, y, dd []float64, xq float64) (float64, error) {
	i, err := Locate(x, xq)
	if err != nil {
		return 0, err
	}

	h := x[i+1] - x[i]
	a := (x[i+1] - xq) / h
	b := (xq - x[i]) / h

	return (y[i+1]-y[i])/h - (3*a*a-1)/6*h*dd[i] + (3*b*b-1)/6*h*dd[i+1], nil
}

// Linear interpolates y(x) linearly at xq.
func Linear(x, y []float64, xq float64) (float64, error) {
	i, err := Locate(x, xq)
	if err != nil {
		return 0, err
	}

	frac := (xq - x[i]) / (x[i+1] - x[i])

	return y[i] + frac*(y[i+1]-y[i]), nil
}
