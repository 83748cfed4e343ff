package core

import "math"

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// StrictlyIncreasing reports whether xs is strictly increasing.
// It returns the first offending index, or -1.
func StrictlyIncreasing(xs []float64) (bool, int) {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false, i
		}
	}

	return true, -1
}

// Log returns the natural logarithm of every element of xs.
func Log(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log(x)
	}

	return out
}

// LogSpace returns n values spaced uniformly in ln between lo and hi (both > 0).
func LogSpace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	if n == 1 {
		return []float64{lo}
	}

	out := make([]float64, n)
	lnLo := math.Log(lo)
	step := (math.Log(hi) - lnLo) / float64(n-1)

	for i := range out {
		out[i] = math.Exp(lnLo + float64(i)*step)
	}

	out[n-1] = hi

	return out
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
