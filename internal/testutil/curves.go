package testutil

import (
	"math"
	"math/rand"
)

// Uniform returns n equally spaced points from lo to hi inclusive.
func Uniform(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}

	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}

	return out
}

// DC generates a constant curve.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// WigglyLine samples slope*x + amp*sin(2πx/period), a linear trend carrying
// an oscillation of fixed period in x.
func WigglyLine(x []float64, slope, amp, period float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = slope*xi + amp*math.Sin(2*math.Pi*xi/period)
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Log returns the natural logarithm of every element of x.
func Log(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Log(v)
	}

	return out
}

// WiggleEnergy sums the squared second differences of y-ref over the
// interior samples whose wavenumber exp(lnK) lies in [kLo, kHi].
func WiggleEnergy(lnK, y, ref []float64, kLo, kHi float64) float64 {
	var sum float64

	for i := 1; i+1 < len(lnK); i++ {
		if k := math.Exp(lnK[i]); k < kLo || k > kHi {
			continue
		}

		dd := (y[i+1] - ref[i+1]) - 2*(y[i]-ref[i]) + (y[i-1] - ref[i-1])
		sum += dd * dd
	}

	return sum
}
