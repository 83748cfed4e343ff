package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Shape identifies the profile of a pad taper.
type Shape int

const (
	// ShapeHann blends with a raised cosine over the whole pad.
	ShapeHann Shape = iota
	// ShapeTukey blends with cosine flanks over a fraction alpha of the pad
	// and holds the mean in between.
	ShapeTukey
	// ShapeWelch blends with a parabola over the whole pad.
	ShapeWelch
)

var shapeNames = map[Shape]string{
	ShapeHann:  "hann",
	ShapeTukey: "tukey",
	ShapeWelch: "welch",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape returns the shape named s.
func ParseShape(s string) (Shape, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for shape, n := range shapeNames {
		if n == name {
			return shape, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

// Taper describes how a padded region blends from the data at both of its
// ends towards the curve mean in its middle. The zero value is a Hann taper.
type Taper struct {
	Shape Shape
	// Alpha is the fraction of the pad covered by the Tukey flanks.
	Alpha float64
}

// Validate reports whether t describes a usable taper.
func (t Taper) Validate() error {
	switch t.Shape {
	case ShapeHann, ShapeWelch:
		return nil
	case ShapeTukey:
		if !(t.Alpha > 0 && t.Alpha <= 1) {
			return fmt.Errorf("%w: tukey alpha %g outside (0, 1]", ErrInvalidTaper, t.Alpha)
		}

		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnknownShape, t.Shape)
	}
}

// Blend returns n weights for a pad of length n: 1 next to the data at
// either end, falling to 0 in the middle.
func (t Taper) Blend(n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLength, n)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	if n == 1 {
		return out, nil
	}

	for i := range out {
		out[i] = 1 - t.bump(float64(i)/float64(n-1))
	}

	return out, nil
}

// bump is the window profile on [0, 1]: 0 at the ends, 1 at the centre.
func (t Taper) bump(x float64) float64 {
	switch t.Shape {
	case ShapeTukey:
		a := t.Alpha / 2
		switch {
		case x < a:
			return 0.5 - 0.5*math.Cos(math.Pi*x/a)
		case x > 1-a:
			return 0.5 - 0.5*math.Cos(math.Pi*(1-x)/a)
		default:
			return 1
		}
	case ShapeWelch:
		d := 2*x - 1
		return 1 - d*d
	default:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	}
}

// ApplyInPlace multiplies samples with coefficients in place.
func ApplyInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return fmt.Errorf("%w: samples %d, coefficients %d", ErrLength, len(samples), len(coeffs))
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}
