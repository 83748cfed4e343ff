package nonlinear

import (
	"log/slog"
	"math"
	"strings"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/grid"
	"github.com/cwbudde/algo-cosmo/pk/index"
	"github.com/cwbudde/algo-cosmo/pk/sigma"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

// Method selects a nonlinear strategy.
type Method int

const (
	MethodNone Method = iota
	MethodHalofit
	MethodHMcode
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodHalofit:
		return "halofit"
	case MethodHMcode:
		return "hmcode"
	default:
		return "unknown"
	}
}

// ParseMethod returns the method with the given configuration name.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no":
		return MethodNone, nil
	case "halofit", "hf":
		return MethodHalofit, nil
	case "hmcode", "hm":
		return MethodHMcode, nil
	default:
		return 0, core.Errorf(core.KindInconsistentConfig, "nonlinear.ParseMethod", "unknown nonlinear method %q", s)
	}
}

// Input collects what a corrector reads.
type Input struct {
	Background cosmology.Background
	Primordial cosmology.Primordial
	// ZRec is the recombination redshift, used by the effective dark-energy
	// mapping.
	ZRec    float64
	Indices *index.Indices
	KGrid   *grid.KGrid
	TauGrid *grid.TauGrid
	// LnPk is the extended linear log-power table (types, taus, all k).
	LnPk *table.Table
	// PkEq, when set, replaces w and Ω_m(z) of the background.
	PkEq *PkEq
	// SigmaKPerDecade is the quadrature density of σ integrals.
	SigmaKPerDecade float64
	Logger          *slog.Logger
}

// Result is the output of a corrector.
type Result struct {
	// Correction holds √(P_NL/P_L), shape (types, taus, native k).
	Correction *table.Table
	// LnPkNL holds ln P_NL, shape (types, taus, native k).
	LnPkNL *table.Table
	// KNL holds the nonlinear wavenumber, shape (types, taus, 1).
	KNL *table.Table
	// NLStart is the earliest time index with a valid correction.
	NLStart int
}

// Corrector computes nonlinear corrections.
type Corrector interface {
	Method() Method
	Correct(in *Input) (*Result, error)
}

// Options configures [New].
type Options struct {
	Halofit HalofitConfig
	HMcode  HMcodeConfig
}

// DefaultOptions returns the default configuration of every strategy.
func DefaultOptions() Options {
	return Options{
		Halofit: DefaultHalofitConfig(),
		HMcode:  DefaultHMcodeConfig(),
	}
}

// New returns the corrector for m. Configuration errors, such as
// user-defined feedback without its parameters, are reported here, before
// any integral runs.
func New(m Method, opts Options) (Corrector, error) {
	switch m {
	case MethodNone:
		return None{}, nil
	case MethodHalofit:
		return NewHalofit(opts.Halofit)
	case MethodHMcode:
		return NewHMcode(opts.HMcode)
	default:
		return nil, core.Errorf(core.KindInconsistentConfig, "nonlinear.New", "unknown nonlinear method %d", int(m))
	}
}

func (in *Input) validate(op string) error {
	if in == nil || in.Background == nil || in.Indices == nil || in.KGrid == nil || in.TauGrid == nil || in.LnPk == nil {
		return core.Errorf(core.KindInvalidArgument, op, "incomplete input")
	}

	types, taus, nk := in.LnPk.Dims()
	if types != in.Indices.PkSize || taus != in.TauGrid.Size() || nk != in.KGrid.Size() {
		return core.Errorf(core.KindInvalidArgument, op,
			"table shape (%d,%d,%d) does not match grids (%d,%d,%d)",
			types, taus, nk, in.Indices.PkSize, in.TauGrid.Size(), in.KGrid.Size())
	}

	return nil
}

func (in *Input) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.Default()
	}

	return in.Logger
}

func (in *Input) kPerDecade() float64 {
	if in.SigmaKPerDecade > 0 {
		return in.SigmaKPerDecade
	}

	return sigma.DefaultKPerDecade
}

// spectrum returns the spline of the extended linear spectrum at one time.
func (in *Input) spectrum(typ, it int) (sigma.Spectrum, error) {
	return sigma.NewSpectrum(in.KGrid.LnK, in.LnPk.Row(typ, it))
}

// darkEnergy returns Ω_m(z), Ω_de(z) and w at time index it.
func (in *Input) darkEnergy(it int) (omegaM, omegaDE, w float64, err error) {
	tau := in.TauGrid.Tau[it]

	if in.PkEq != nil {
		w, omegaM, err = in.PkEq.At(tau)
		if err != nil {
			return 0, 0, 0, err
		}

		return omegaM, 1 - omegaM, w, nil
	}

	st, err := in.Background.At(tau)
	if err != nil {
		return 0, 0, 0, core.Wrap(core.KindOutOfRange, "nonlinear.darkEnergy", err)
	}

	return st.OmegaM, st.OmegaDE, st.W, nil
}

// newResult allocates a result holding the linear spectrum, unit
// corrections and k_nl = +Inf.
func newResult(in *Input) (*Result, error) {
	types, taus, _ := in.LnPk.Dims()
	nk := in.KGrid.NativeSize

	corr, err := table.NewFilled(types, taus, nk, 1)
	if err != nil {
		return nil, err
	}

	lnNL, err := table.New(types, taus, nk)
	if err != nil {
		return nil, err
	}

	for typ := range types {
		for it := range taus {
			copy(lnNL.Row(typ, it), in.LnPk.Row(typ, it)[:nk])
		}
	}

	knl, err := table.NewFilled(types, taus, 1, math.Inf(1))
	if err != nil {
		return nil, err
	}

	return &Result{Correction: corr, LnPkNL: lnNL, KNL: knl, NLStart: in.TauGrid.NLStart}, nil
}

// setCorrection stores a correction factor and the matching ln P_NL.
func (r *Result) setCorrection(typ, it, ik int, factor, lnPkLin float64) {
	r.Correction.Set(typ, it, ik, factor)
	r.LnPkNL.Set(typ, it, ik, lnPkLin+2*math.Log(factor))
}

// fillTimes runs step for every time from today back to the configured
// start and for every spectrum type. step reports false once the nonlinear
// scale leaves the k range; the result's NLStart is moved past that time.
func fillTimes(in *Input, res *Result, step func(typ, it int) (bool, error)) error {
	types, taus, _ := in.LnPk.Dims()

	for typ := range types {
		for it := taus - 1; it >= in.TauGrid.NLStart; it-- {
			ok, err := step(typ, it)
			if err != nil {
				return err
			}

			if !ok {
				in.logger().Debug("nonlinear: scale beyond k range",
					slog.Int("type", typ), slog.Float64("z", in.TauGrid.Z[it]))

				res.NLStart = max(res.NLStart, it+1)

				break
			}
		}
	}

	// the earliest valid time must be valid for every type
	for typ := range types {
		for it := range res.NLStart {
			for ik := range in.KGrid.NativeSize {
				res.setCorrection(typ, it, ik, 1, in.LnPk.At(typ, it, ik))
			}

			res.KNL.Set(typ, it, 0, math.Inf(1))
		}
	}

	return nil
}
