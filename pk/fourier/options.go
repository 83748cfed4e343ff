package fourier

import (
	"log/slog"
	"math"
	"strings"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/extrap"
	"github.com/cwbudde/algo-cosmo/pk/grid"
	"github.com/cwbudde/algo-cosmo/pk/nonlinear"
	"github.com/cwbudde/algo-cosmo/pk/nowiggle"
	"github.com/cwbudde/algo-cosmo/pk/sigma"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

// PkEqMode controls the effective dark-energy mapping.
type PkEqMode int

const (
	// PkEqAuto enables the mapping for a time-varying equation of state.
	PkEqAuto PkEqMode = iota
	PkEqOn
	PkEqOff
)

func (m PkEqMode) String() string {
	switch m {
	case PkEqAuto:
		return "auto"
	case PkEqOn:
		return "true"
	case PkEqOff:
		return "false"
	default:
		return "unknown"
	}
}

// ParsePkEqMode accepts auto, true/yes/on/1 and false/no/off/0.
func ParsePkEqMode(s string) (PkEqMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PkEqAuto, nil
	case "true", "yes", "on", "1":
		return PkEqOn, nil
	case "false", "no", "off", "0":
		return PkEqOff, nil
	default:
		return 0, core.Errorf(core.KindInconsistentConfig, "fourier.ParsePkEqMode", "unknown pk-eq mode %q", s)
	}
}

// Options configures [New].
type Options struct {
	Method nonlinear.Method
	// Extrapolation is the high-k tail law; ExtrapolationShape is read
	// for extrap.UserDefined.
	Extrapolation      extrap.Method
	ExtrapolationShape extrap.ShapeFunc

	Halofit nonlinear.HalofitConfig
	HMcode  nonlinear.HMcodeConfig

	AnalyticNoWiggle  bool
	NumericalNoWiggle bool
	// NoWiggleSmoothing is the filter width in ln k of the numerical
	// no-wiggle spectrum.
	NoWiggleSmoothing float64
	// NoWiggleTaper blends the FFT pad of the numerical filter.
	NoWiggleTaper window.Taper

	// HasPkCB requests the CDM+baryon spectrum when the perturbations
	// provide it.
	HasPkCB bool
	PkEq    PkEqMode

	ZMaxPk        float64
	ZMaxNonlinear float64

	KMaxExtraFactor        float64
	MaxExtrapolationPoints int
	SigmaKPerDecade        float64

	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns linear-only output at z=0 with the max_scaled
// tail up to 50 k_max.
func DefaultOptions() Options {
	return Options{
		Method:                 nonlinear.MethodNone,
		Extrapolation:          extrap.MaxScaled,
		Halofit:                nonlinear.DefaultHalofitConfig(),
		HMcode:                 nonlinear.DefaultHMcodeConfig(),
		NoWiggleSmoothing:      nowiggle.DefaultSmoothing,
		HasPkCB:                true,
		PkEq:                   PkEqAuto,
		ZMaxNonlinear:          math.Inf(1),
		KMaxExtraFactor:        50,
		MaxExtrapolationPoints: grid.DefaultMaxExtrapolationPoints,
		SigmaKPerDecade:        sigma.DefaultKPerDecade,
	}
}

// ApplyOptions applies zero or more options to the defaults.
func ApplyOptions(opts ...Option) Options {
	cfg := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithMethod selects the nonlinear strategy.
func WithMethod(m nonlinear.Method) Option {
	return func(o *Options) { o.Method = m }
}

// WithExtrapolation selects the high-k tail law. shape is only read by
// extrap.UserDefined.
func WithExtrapolation(m extrap.Method, shape extrap.ShapeFunc) Option {
	return func(o *Options) {
		o.Extrapolation = m
		o.ExtrapolationShape = shape
	}
}

// WithHalofit replaces the Halofit configuration.
func WithHalofit(cfg nonlinear.HalofitConfig) Option {
	return func(o *Options) { o.Halofit = cfg }
}

// WithHMcode replaces the HMcode configuration.
func WithHMcode(cfg nonlinear.HMcodeConfig) Option {
	return func(o *Options) { o.HMcode = cfg }
}

// WithHMcodeVersion selects the HMcode variant.
func WithHMcodeVersion(v nonlinear.Version) Option {
	return func(o *Options) { o.HMcode.Version = v }
}

// WithFeedback selects the HMcode feedback model. cMin and eta0 are read
// for nonlinear.FeedbackUserDefined.
func WithFeedback(f nonlinear.Feedback, cMin, eta0 float64) Option {
	return func(o *Options) {
		o.HMcode.Feedback = f
		o.HMcode.CMin, o.HMcode.Eta0 = cMin, eta0
	}
}

// WithNoWiggle enables the analytic and numerical no-wiggle spectra.
func WithNoWiggle(analytic, numerical bool) Option {
	return func(o *Options) {
		o.AnalyticNoWiggle, o.NumericalNoWiggle = analytic, numerical
	}
}

// WithNoWiggleSmoothing sets the numerical filter width in ln k.
func WithNoWiggleSmoothing(sigma float64) Option {
	return func(o *Options) {
		if sigma > 0 {
			o.NoWiggleSmoothing = sigma
		}
	}
}

// WithNoWiggleTaper sets the pad taper of the numerical filter. Invalid
// tapers are ignored.
func WithNoWiggleTaper(t window.Taper) Option {
	return func(o *Options) {
		if t.Validate() == nil {
			o.NoWiggleTaper = t
		}
	}
}

// WithPkCB requests or drops the CDM+baryon spectrum.
func WithPkCB(enabled bool) Option {
	return func(o *Options) { o.HasPkCB = enabled }
}

// WithPkEq sets the effective dark-energy mode.
func WithPkEq(m PkEqMode) Option {
	return func(o *Options) { o.PkEq = m }
}

// WithZMax sets the largest output redshift.
func WithZMax(z float64) Option {
	return func(o *Options) { o.ZMaxPk = z }
}

// WithZMaxNonlinear sets the redshift above which no nonlinear correction
// is attempted.
func WithZMaxNonlinear(z float64) Option {
	return func(o *Options) { o.ZMaxNonlinear = z }
}

// WithKMaxExtra sets the extension factor and its point cap.
func WithKMaxExtra(factor float64, maxPoints int) Option {
	return func(o *Options) {
		o.KMaxExtraFactor = factor
		if maxPoints > 0 {
			o.MaxExtrapolationPoints = maxPoints
		}
	}
}

// WithSigmaKPerDecade sets the density of the σ quadrature.
func WithSigmaKPerDecade(n float64) Option {
	return func(o *Options) {
		if n > 0 {
			o.SigmaKPerDecade = n
		}
	}
}

// WithLogger sets the logger of the pipeline; nil selects slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
