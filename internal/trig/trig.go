// Package trig provides the sine and cosine integrals
//
//	Si(x) = ∫_0^x sin t/t dt
//	Ci(x) = γ + ln x + ∫_0^x (cos t - 1)/t dt
//
// used by the Fourier transform of truncated NFW profiles.
package trig

import "math"

// eulerGamma is the Euler–Mascheroni constant.
const eulerGamma = 0.57721566490153286061

// seriesLimit separates the power series from the asymptotic rational
// approximations.
const seriesLimit = 4.0

// Si returns the sine integral. Si is odd.
func Si(x float64) float64 {
	if x < 0 {
		return -Si(-x)
	}

	if x <= seriesLimit {
		return siSeries(x)
	}

	f, g := auxiliary(x)
	s, c := math.Sincos(x)

	return math.Pi/2 - f*c - g*s
}

// Ci returns the cosine integral for x > 0 and NaN otherwise.
func Ci(x float64) float64 {
	if !(x > 0) {
		return math.NaN()
	}

	if x <= seriesLimit {
		return ciSeries(x)
	}

	f, g := auxiliary(x)
	s, c := math.Sincos(x)

	return f*s - g*c
}

// SiCi returns both integrals.
func SiCi(x float64) (si, ci float64) { return Si(x), Ci(x) }

func siSeries(x float64) float64 {
	x2 := x * x
	term := x
	sum := x

	for n := 1; n < 40; n++ {
		term *= -x2 / float64((2*n)*(2*n+1))
		d := term / float64(2*n+1)
		sum += d

		if math.Abs(d) < 1e-17*math.Abs(sum) {
			break
		}
	}

	return sum
}

func ciSeries(x float64) float64 {
	x2 := x * x
	term := 1.0
	sum := 0.0

	for n := 1; n < 40; n++ {
		term *= -x2 / float64((2*n-1)*(2*n))
		d := term / float64(2*n)
		sum += d

		if math.Abs(d) < 1e-17*math.Max(math.Abs(sum), 1) {
			break
		}
	}

	return eulerGamma + math.Log(x) + sum
}

// auxiliary returns the rational approximations of the auxiliary functions
// f and g, Abramowitz & Stegun 5.2.38 and 5.2.39, accurate to a few 1e-7
// for x >= 1.
func auxiliary(x float64) (f, g float64) {
	x2 := x * x
	x4 := x2 * x2
	x6 := x4 * x2
	x8 := x4 * x4

	f = (x8 + 38.027264*x6 + 265.187033*x4 + 335.677320*x2 + 38.102495) /
		(x8 + 40.021433*x6 + 322.624911*x4 + 570.236280*x2 + 157.105423) / x
	g = (x8 + 42.242855*x6 + 302.757865*x4 + 352.018498*x2 + 21.821899) /
		(x8 + 48.196927*x6 + 482.485984*x4 + 1114.978885*x2 + 449.690326) / x2

	return f, g
}
