package sigma

import (
	"math"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/interp"
)

// DefaultKPerDecade is the default quadrature density.
const DefaultKPerDecade = 80

// Output selects the integral.
type Output int

const (
	// Sigma is the rms density fluctuation σ(R).
	Sigma Output = iota
	// SigmaPrime is dσ/dR.
	SigmaPrime
	// SigmaDisp is the rms linear displacement.
	SigmaDisp
)

func (o Output) String() string {
	switch o {
	case Sigma:
		return "sigma"
	case SigmaPrime:
		return "sigma_prime"
	case SigmaDisp:
		return "sigma_disp"
	default:
		return "unknown"
	}
}

// Window is a filter shape.
type Window int

const (
	// DefaultWindow picks the default window of the output.
	DefaultWindow Window = iota
	TopHat
	Gaussian
)

// Spectrum is ln P along ln k with its spline second derivatives.
type Spectrum struct {
	LnK  []float64
	LnPk []float64
	DD   []float64
}

// NewSpectrum builds the spline of lnPk(lnK).
func NewSpectrum(lnK, lnPk []float64) (Spectrum, error) {
	dd, err := interp.SecondDerivatives(lnK, lnPk)
	if err != nil {
		return Spectrum{}, err
	}

	return Spectrum{LnK: lnK, LnPk: lnPk, DD: dd}, nil
}

// Option configures [Compute].
type Option func(*config)

type config struct {
	kPerDecade float64
	window     Window
}

// WithKPerDecade sets the quadrature density.
func WithKPerDecade(n float64) Option {
	return func(c *config) {
		if n > 0 {
			c.kPerDecade = n
		}
	}
}

// WithWindow overrides the window of the output.
func WithWindow(w Window) Option {
	return func(c *config) {
		c.window = w
	}
}

// Compute returns the requested integral at radius r in Mpc.
func Compute(s Spectrum, r float64, out Output, opts ...Option) (float64, error) {
	const op = "sigma.Compute"

	cfg := config{kPerDecade: DefaultKPerDecade}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !(r > 0) || math.IsInf(r, 0) {
		return 0, core.Errorf(core.KindInvalidArgument, op, "radius must be > 0, got %g", r)
	}

	if err := s.validate(op); err != nil {
		return 0, err
	}

	win := cfg.window
	if win == DefaultWindow {
		win = TopHat
		if out == SigmaDisp {
			win = Gaussian
		}
	}

	w, dw := windowFuncs(win)

	switch out {
	case Sigma:
		v := s.integrate(cfg.kPerDecade, func(k, pk float64) float64 {
			x := w(k * r)
			return k * k * k * pk * x * x / (2 * math.Pi * math.Pi)
		})

		return math.Sqrt(math.Max(v, 0)), nil
	case SigmaPrime:
		var sig2, cross float64

		s.visit(cfg.kPerDecade, func(k, pk, weight float64) {
			d2 := weight * k * k * k * pk / (2 * math.Pi * math.Pi)
			x := w(k * r)

			sig2 += d2 * x * x
			cross += d2 * x * dw(k*r) * k
		})

		if !(sig2 > 0) {
			return 0, nil
		}

		return cross / math.Sqrt(sig2), nil
	case SigmaDisp:
		v := s.integrate(cfg.kPerDecade, func(k, pk float64) float64 {
			x := w(k * r)
			return k * pk * x * x / (6 * math.Pi * math.Pi)
		})

		return math.Sqrt(math.Max(v, 0)), nil
	default:
		return 0, core.Errorf(core.KindInvalidArgument, op, "unknown output %d", int(out))
	}
}

func (s Spectrum) validate(op string) error {
	n := len(s.LnK)
	if n < interp.MinPoints || len(s.LnPk) != n || len(s.DD) != n {
		return core.Errorf(core.KindInvalidArgument, op, "spectrum needs at least %d matching samples", interp.MinPoints)
	}

	return nil
}

// integrate applies the trapezoid rule in ln k to f(k, P(k)).
func (s Spectrum) integrate(kPerDecade float64, f func(k, pk float64) float64) float64 {
	var sum float64

	s.visit(kPerDecade, func(k, pk, weight float64) {
		sum += weight * f(k, pk)
	})

	return sum
}

// visit calls fn at the trapezoid nodes in ln k with their quadrature
// weights.
func (s Spectrum) visit(kPerDecade float64, fn func(k, pk, weight float64)) {
	lo, hi := s.LnK[0], s.LnK[len(s.LnK)-1]

	n := int(math.Ceil((hi-lo)/math.Ln10*kPerDecade)) + 1
	if n < 2 {
		n = 2
	}

	step := (hi - lo) / float64(n-1)

	j := 0
	for i := range n {
		lnk := lo + float64(i)*step
		if i == n-1 {
			lnk = hi
		}

		for j < len(s.LnK)-2 && s.LnK[j+1] < lnk {
			j++
		}

		weight := step
		if i == 0 || i == n-1 {
			weight *= 0.5
		}

		fn(math.Exp(lnk), math.Exp(interp.EvalAt(s.LnK, s.LnPk, s.DD, j, lnk)), weight)
	}
}

func windowFuncs(w Window) (value, slope func(float64) float64) {
	if w == Gaussian {
		return gaussian, gaussianPrime
	}

	return topHat, topHatPrime
}

func topHat(x float64) float64 {
	if x < 1e-2 {
		x2 := x * x
		return 1 - x2/10 + x2*x2/280
	}

	return 3 * (math.Sin(x) - x*math.Cos(x)) / (x * x * x)
}

func topHatPrime(x float64) float64 {
	if x < 1e-2 {
		return -x/5 + x*x*x/70
	}

	s, c := math.Sincos(x)
	x2 := x * x

	return 3*s/x2 - 9*(s-x*c)/(x2*x2)
}

func gaussian(x float64) float64 { return math.Exp(-0.5 * x * x) }

func gaussianPrime(x float64) float64 { return -x * math.Exp(-0.5*x*x) }
