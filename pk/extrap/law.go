package extrap

import (
	"math"
	"strings"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// Method selects an extrapolation law.
type Method int

const (
	Zero Method = iota
	OnlyMax
	OnlyMaxUnits
	MaxScaled
	HMcode
	UserDefined
)

var methodNames = [...]string{
	Zero:         "zero",
	OnlyMax:      "only_max",
	OnlyMaxUnits: "only_max_units",
	MaxScaled:    "max_scaled",
	HMcode:       "hmcode",
	UserDefined:  "user_defined",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}

	return methodNames[m]
}

// ParseMethod returns the method with the given configuration name.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}

	return 0, core.Errorf(core.KindInconsistentConfig, "extrap.ParseMethod", "unknown extrapolation method %q", s)
}

// DecayingTail reports whether the law keeps the small-scale variance
// finite, which the halo model requires.
func (m Method) DecayingTail() bool {
	return m == MaxScaled || m == HMcode || m == UserDefined
}

// Boundary describes the transfer amplitude at the last native wavenumber.
type Boundary struct {
	KMax  float64
	Delta float64
	// Slope is dδ/dln k at KMax.
	Slope float64
}

// Law continues the transfer amplitude beyond KMax.
type Law interface {
	Method() Method
	Extend(b Boundary, k float64) float64
}

// ShapeFunc is a transfer-amplitude shape used by value-matched laws.
type ShapeFunc func(k float64) float64

// Config selects and parametrizes a law.
type Config struct {
	Method Method
	// QScale normalizes the shape parameter q = k/QScale of the HMcode law,
	// in 1/Mpc; Ω_m h²/Θ² for the zero-baryon fit.
	QScale float64
	// Shape is the user-defined shape.
	Shape ShapeFunc
}

// Law returns the law for c.
func (c Config) Law() (Law, error) {
	const op = "extrap.Config.Law"

	switch c.Method {
	case Zero:
		return zeroLaw{}, nil
	case OnlyMax:
		return onlyMaxLaw{}, nil
	case OnlyMaxUnits:
		return onlyMaxUnitsLaw{}, nil
	case MaxScaled:
		return maxScaledLaw{}, nil
	case HMcode:
		if !(c.QScale > 0) {
			return nil, core.Errorf(core.KindInconsistentConfig, op, "hmcode law needs a positive q scale, got %g", c.QScale)
		}

		q := c.QScale
		return shapeLaw{method: HMcode, shape: func(k float64) float64 { return cdmShape(k / q) }}, nil
	case UserDefined:
		if c.Shape == nil {
			return nil, core.Errorf(core.KindInconsistentConfig, op, "user-defined law needs a shape function")
		}

		return shapeLaw{method: UserDefined, shape: c.Shape}, nil
	default:
		return nil, core.Errorf(core.KindInconsistentConfig, op, "unknown extrapolation method %d", int(c.Method))
	}
}

type zeroLaw struct{}

func (zeroLaw) Method() Method                   { return Zero }
func (zeroLaw) Extend(Boundary, float64) float64 { return 0 }

type onlyMaxLaw struct{}

func (onlyMaxLaw) Method() Method                       { return OnlyMax }
func (onlyMaxLaw) Extend(b Boundary, _ float64) float64 { return b.Delta }

type onlyMaxUnitsLaw struct{}

func (onlyMaxUnitsLaw) Method() Method { return OnlyMaxUnits }

func (onlyMaxUnitsLaw) Extend(b Boundary, k float64) float64 {
	r := k / b.KMax
	return b.Delta * r * r
}

type maxScaledLaw struct{}

func (maxScaledLaw) Method() Method { return MaxScaled }

func (maxScaledLaw) Extend(b Boundary, k float64) float64 {
	if !(b.Slope > 0) {
		return b.Delta
	}

	return b.Delta + b.Slope*math.Log(k/b.KMax)
}

type shapeLaw struct {
	method Method
	shape  ShapeFunc
}

func (l shapeLaw) Method() Method { return l.method }

func (l shapeLaw) Extend(b Boundary, k float64) float64 {
	ref := l.shape(b.KMax)
	if ref == 0 {
		return b.Delta
	}

	return b.Delta * l.shape(k) / ref
}

// cdmShape is k² T(k) of the zero-baryon fit up to a constant, as a
// function of q.
func cdmShape(q float64) float64 {
	l := math.Log(2*math.E + 1.8*q)
	c := 14.2 + 731/(1+62.5*q)

	return l * q * q / (l + c*q*q)
}
