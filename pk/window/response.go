package window

import (
	"fmt"
	"math"
)

// GaussianResponse returns the transfer function exp(-ω²σ²/2) of a Gaussian
// kernel of width sigma, evaluated on the n FFT bins of a uniform grid with
// the given spacing. Bins above n/2 carry negative frequencies.
func GaussianResponse(n int, spacing, sigma float64) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLength, n)
	}

	if !(spacing > 0) {
		return nil, ErrSpacing
	}

	out := make([]float64, n)
	base := 2 * math.Pi / (float64(n) * spacing)

	for i := range out {
		j := i
		if j > n/2 {
			j -= n
		}

		w := float64(j) * base * sigma
		out[i] = math.Exp(-0.5 * w * w)
	}

	return out, nil
}
