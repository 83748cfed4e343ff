package nowiggle

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/interp"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

// DefaultSmoothing is the Gaussian width in ln k of the low-pass filter.
const DefaultSmoothing = 0.25

// Smoother applies a Gaussian low-pass filter in ln k to curves sampled on
// an arbitrary increasing grid inside [lnKMin, lnKMax]. A Smoother holds
// scratch buffers and is not safe for concurrent use.
type Smoother struct {
	step    float64
	points  int
	fftSize int

	plan     *algofft.Plan[complex128]
	response []float64
	taper    []float64

	grid     []float64
	uniform  []float64
	smoothed []float64
	dd       []float64
	scratch  []float64
	timeBuf  []complex128
	freqBuf  []complex128
	re, im   []float64
	pad      []float64
}

// SmootherOption configures [NewSmoother].
type SmootherOption func(*smootherConfig)

type smootherConfig struct {
	taper window.Taper
}

// WithTaper selects the taper blending the FFT pad towards the curve mean.
func WithTaper(t window.Taper) SmootherOption {
	return func(c *smootherConfig) {
		c.taper = t
	}
}

// NewSmoother prepares a filter of width sigma over points uniform samples.
func NewSmoother(lnKMin, lnKMax float64, points int, sigma float64, opts ...SmootherOption) (*Smoother, error) {
	const op = "nowiggle.NewSmoother"

	var cfg smootherConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if points < interp.MinPoints || !(lnKMax > lnKMin) {
		return nil, core.Errorf(core.KindInvalidArgument, op, "invalid sampling of [%g, %g] with %d points", lnKMin, lnKMax, points)
	}

	if !(sigma > 0) {
		return nil, core.Errorf(core.KindInvalidArgument, op, "smoothing width must be > 0, got %g", sigma)
	}

	s := &Smoother{
		step:    (lnKMax - lnKMin) / float64(points-1),
		points:  points,
		fftSize: nextPowerOf2(2 * points),
	}

	plan, err := algofft.NewPlan64(s.fftSize)
	if err != nil {
		return nil, fmt.Errorf("nowiggle: failed to create FFT plan: %w", err)
	}

	s.plan = plan

	s.response, err = window.GaussianResponse(s.fftSize, s.step, sigma)
	if err != nil {
		return nil, core.Wrap(core.KindInvalidArgument, op, err)
	}

	if s.taper, err = cfg.taper.Blend(s.fftSize - points); err != nil {
		return nil, core.Wrap(core.KindInconsistentConfig, op, err)
	}

	s.grid = make([]float64, points)
	for i := range s.grid {
		s.grid[i] = lnKMin + float64(i)*s.step
	}

	s.grid[points-1] = lnKMax

	s.uniform = make([]float64, points)
	s.smoothed = make([]float64, points)
	s.dd = make([]float64, points)
	s.scratch = make([]float64, points)
	s.timeBuf = make([]complex128, s.fftSize)
	s.freqBuf = make([]complex128, s.fftSize)
	s.re = make([]float64, s.fftSize)
	s.im = make([]float64, s.fftSize)
	s.pad = make([]float64, s.fftSize-points)

	return s, nil
}

// Smooth filters y(lnK) and writes the result at the same abscissae to out.
func (s *Smoother) Smooth(lnK, y, out []float64) error {
	const op = "nowiggle.Smooth"

	if len(lnK) != len(y) || len(out) != len(y) {
		return core.Errorf(core.KindInvalidArgument, op, "length mismatch: x %d, y %d, out %d", len(lnK), len(y), len(out))
	}

	dd, err := interp.SecondDerivatives(lnK, y)
	if err != nil {
		return err
	}

	for i := range s.uniform {
		v, err := interp.Eval(lnK, y, dd, s.grid[i])
		if err != nil {
			return err
		}

		s.uniform[i] = v
	}

	if err := s.fillPadded(); err != nil {
		return core.Wrap(core.KindInvalidArgument, op, err)
	}

	if err := s.plan.Forward(s.freqBuf, s.timeBuf); err != nil {
		return fmt.Errorf("nowiggle: forward FFT: %w", err)
	}

	for i, c := range s.freqBuf {
		s.re[i], s.im[i] = real(c), imag(c)
	}

	vecmath.MulBlockInPlace(s.re, s.response)
	vecmath.MulBlockInPlace(s.im, s.response)

	for i := range s.freqBuf {
		s.freqBuf[i] = complex(s.re[i], s.im[i])
	}

	if err := s.plan.Inverse(s.timeBuf, s.freqBuf); err != nil {
		return fmt.Errorf("nowiggle: inverse FFT: %w", err)
	}

	for i := range s.smoothed {
		s.smoothed[i] = real(s.timeBuf[i])
	}

	if err := interp.SecondDerivativesTo(s.dd, s.grid, s.smoothed, s.scratch); err != nil {
		return err
	}

	for i, x := range lnK {
		v, err := interp.Eval(s.grid, s.smoothed, s.dd, x)
		if err != nil {
			return err
		}

		out[i] = v
	}

	return nil
}

// fillPadded copies the uniform samples into the FFT buffer followed by
// reflections of both ends, blended towards the mean in the middle of the
// pad so the periodic signal stays continuous.
func (s *Smoother) fillPadded() error {
	m, p := s.points, len(s.pad)

	mean := 0.0
	for _, v := range s.uniform {
		mean += v
	}

	mean /= float64(m)

	for j := range p {
		var v float64
		if j < p/2 {
			v = s.uniform[max(m-1-j, 0)]
		} else {
			v = s.uniform[min(p-1-j, m-1)]
		}

		s.pad[j] = v - mean
	}

	if err := window.ApplyInPlace(s.pad, s.taper); err != nil {
		return err
	}

	for i, v := range s.uniform {
		s.timeBuf[i] = complex(v, 0)
	}

	for j, v := range s.pad {
		s.timeBuf[m+j] = complex(v+mean, 0)
	}

	return nil
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
