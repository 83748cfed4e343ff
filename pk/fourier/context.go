package fourier

import (
	"log/slog"
	"math"
	"sync"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/extrap"
	"github.com/cwbudde/algo-cosmo/pk/grid"
	"github.com/cwbudde/algo-cosmo/pk/index"
	"github.com/cwbudde/algo-cosmo/pk/interp"
	"github.com/cwbudde/algo-cosmo/pk/linear"
	"github.com/cwbudde/algo-cosmo/pk/nonlinear"
	"github.com/cwbudde/algo-cosmo/pk/nowiggle"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

// ErrClosed is returned by queries on a closed [Context].
var ErrClosed = &core.Error{Kind: core.KindInvalidArgument, Op: "fourier", Msg: "context closed"}

// Collaborators are the upstream providers the pipeline reads.
// Thermo is only needed for the effective dark-energy mapping.
type Collaborators struct {
	Background    cosmology.Background
	Thermo        cosmology.Thermodynamics
	Perturbations cosmology.Perturbations
	Primordial    cosmology.Primordial
}

// Context owns every table of one pipeline run. It is immutable after
// [New] returns and safe for concurrent queries.
type Context struct {
	mu     sync.RWMutex
	closed bool

	opts   Options
	log    *slog.Logger
	collab Collaborators

	idx *index.Indices
	kg  *grid.KGrid
	tg  *grid.TauGrid
	law extrap.Law

	// extended linear tables and their time splines
	lin     *linear.Result
	ddLin   *table.Table
	ddLinIC *table.ICTable

	// ln-k splines of the value tables and of their time splines
	kLin    *table.Table
	kLinT   *table.Table
	kLinIC  *table.ICTable
	kLinICT *table.ICTable

	// D(τ0) of the background
	growthToday float64

	analytic *nowiggle.Curve
	nw       *table.Table
	ddNW     *table.Table
	kNW      *table.Table
	kNWT     *table.Table

	method nonlinear.Method
	// nonlinear tables restricted to the times from the NL start on
	nlLnTau []float64
	nl      *table.Table
	ddNL    *table.Table
	kNL     *table.Table
	kNLT    *table.Table
	lnKNL   *table.Table
	ddKNL   *table.Table
}

// New runs the pipeline: indices, grids, linear assembly, high-k
// extension, splines, no-wiggle spectra and the nonlinear correction. The
// first failing stage aborts the run and no context is returned.
func New(c Collaborators, opts ...Option) (*Context, error) {
	const op = "fourier.New"

	if c.Background == nil || c.Perturbations == nil || c.Primordial == nil {
		return nil, core.Errorf(core.KindInvalidArgument, op, "background, perturbations and primordial collaborators are required")
	}

	cfg := ApplyOptions(opts...)

	ctx := &Context{opts: cfg, collab: c, method: cfg.Method, log: cfg.Logger}
	if ctx.log == nil {
		ctx.log = slog.Default()
	}

	if err := ctx.build(); err != nil {
		ctx.Close()
		return nil, err
	}

	return ctx, nil
}

func (c *Context) build() error {
	const op = "fourier.New"

	cfg := c.opts
	params := c.collab.Background.Params()

	hh := params.H * params.H
	eh := cosmology.NewEH98(params.OmegaM()*hh, params.OmegaB*hh, params.TCMB)

	law, err := extrap.Config{Method: cfg.Extrapolation, QScale: eh.QScale(), Shape: cfg.ExtrapolationShape}.Law()
	if err != nil {
		return err
	}

	if cfg.Method == nonlinear.MethodHMcode && !cfg.Extrapolation.DecayingTail() {
		return core.Errorf(core.KindInconsistentConfig, op,
			"hmcode needs a decaying high-k tail, got extrapolation %v", cfg.Extrapolation)
	}

	corrector, err := nonlinear.New(cfg.Method, nonlinear.Options{Halofit: cfg.Halofit, HMcode: cfg.HMcode})
	if err != nil {
		return err
	}

	c.law = law

	pt := c.collab.Perturbations

	c.idx, err = index.Build(index.Request{
		HasPkM:     true,
		HasPkCB:    cfg.HasPkCB && pt.HasSource(cosmology.SourceDeltaCB),
		ICSize:     c.collab.Primordial.ICSize(),
		Correlated: c.collab.Primordial.Correlated,
	})
	if err != nil {
		return err
	}

	factor := cfg.KMaxExtraFactor
	if law.Method() == extrap.Zero {
		factor = 1
	}

	c.kg, err = grid.BuildK(pt.K(), factor, cfg.MaxExtrapolationPoints)
	if err != nil {
		return err
	}

	c.log.Info("fourier: k grid built",
		slog.Int("native", c.kg.NativeSize), slog.Int("extra", c.kg.ExtraSize()))

	zMaxNL := cfg.ZMaxNonlinear
	if math.IsNaN(zMaxNL) {
		zMaxNL = math.Inf(1)
	}

	c.tg, err = grid.BuildTau(pt.Tau(), c.collab.Background.ZOfTau, cfg.ZMaxPk, zMaxNL)
	if err != nil {
		return err
	}

	c.log.Info("fourier: time grid built",
		slog.Int("times", c.tg.Size()), slog.Float64("z_max", c.tg.ZMax()), slog.Float64("z_span", c.tg.ZSpan()))

	native, err := linear.Assemble(linear.Input{
		Perturbations: pt,
		Primordial:    c.collab.Primordial,
		Indices:       c.idx,
		KGrid:         c.kg,
		TauGrid:       c.tg,
	})
	if err != nil {
		return err
	}

	c.lin, err = extrap.Extend(extrap.Input{
		Linear:     native,
		Indices:    c.idx,
		KGrid:      c.kg,
		Primordial: c.collab.Primordial,
		Law:        law,
	})
	if err != nil {
		return err
	}

	c.log.Info("fourier: linear spectra assembled",
		slog.Int("types", c.idx.PkSize), slog.Int("pairs", c.idx.PairCount()),
		slog.String("extrapolation", law.Method().String()))

	if c.tg.Size() >= interp.MinPoints {
		if c.ddLin, err = interp.TimeSplines(c.tg.LnTau, c.lin.LnPk); err != nil {
			return err
		}

		if c.ddLinIC, err = interp.TimeSplinesIC(c.tg.LnTau, c.lin.LnPkIC); err != nil {
			return err
		}
	}

	if c.kLin, c.kLinT, err = kSplines(c.kg.LnK, c.lin.LnPk, c.ddLin); err != nil {
		return err
	}

	if c.kLinIC, err = interp.KSplinesIC(c.kg.LnK, c.lin.LnPkIC); err != nil {
		return err
	}

	if c.ddLinIC != nil {
		if c.kLinICT, err = interp.KSplinesIC(c.kg.LnK, c.ddLinIC); err != nil {
			return err
		}
	}

	tau0, err := c.collab.Background.TauOfZ(0)
	if err != nil {
		return core.Wrap(core.KindOutOfRange, op, err)
	}

	today, err := c.collab.Background.At(tau0)
	if err != nil {
		return core.Wrap(core.KindOutOfRange, op, err)
	}

	c.growthToday = today.D

	if err := c.buildNoWiggle(params); err != nil {
		return err
	}

	return c.buildNonlinear(corrector, params)
}

func (c *Context) buildNoWiggle(params cosmology.BackgroundParams) error {
	cfg := c.opts
	if !cfg.AnalyticNoWiggle && !cfg.NumericalNoWiggle {
		return nil
	}

	curve, err := nowiggle.Analytic(nowiggle.AnalyticInput{
		Params:     params,
		Primordial: c.collab.Primordial,
		LnK:        c.kg.LnK,
		Growth:     c.growthToday,
	})
	if err != nil {
		return err
	}

	if cfg.AnalyticNoWiggle {
		c.analytic = curve
	}

	if !cfg.NumericalNoWiggle {
		c.log.Info("fourier: analytic no-wiggle spectrum built")
		return nil
	}

	c.nw, err = nowiggle.Numerical(nowiggle.NumericalInput{
		LnK:       c.kg.LnK,
		LnPk:      c.lin.LnPk,
		Type:      c.idx.PkCluster,
		Reference: curve,
		Smoothing: cfg.NoWiggleSmoothing,
		Taper:     cfg.NoWiggleTaper,
	})
	if err != nil {
		return err
	}

	if c.tg.Size() >= interp.MinPoints {
		if c.ddNW, err = interp.TimeSplines(c.tg.LnTau, c.nw); err != nil {
			return err
		}
	}

	if c.kNW, c.kNWT, err = kSplines(c.kg.LnK, c.nw, c.ddNW); err != nil {
		return err
	}

	c.log.Info("fourier: no-wiggle spectra built",
		slog.Bool("analytic", cfg.AnalyticNoWiggle), slog.Bool("numerical", true))

	return nil
}

func (c *Context) pkEqEnabled(params cosmology.BackgroundParams) bool {
	if c.method == nonlinear.MethodNone {
		return false
	}

	switch c.opts.PkEq {
	case PkEqOn:
		return true
	case PkEqOff:
		return false
	default:
		return params.Wa != 0
	}
}

func (c *Context) buildNonlinear(corrector nonlinear.Corrector, params cosmology.BackgroundParams) error {
	const op = "fourier.New"

	in := &nonlinear.Input{
		Background:      c.collab.Background,
		Primordial:      c.collab.Primordial,
		Indices:         c.idx,
		KGrid:           c.kg,
		TauGrid:         c.tg,
		LnPk:            c.lin.LnPk,
		SigmaKPerDecade: c.opts.SigmaKPerDecade,
		Logger:          c.log,
	}

	if c.pkEqEnabled(params) {
		if c.collab.Thermo == nil {
			return core.Errorf(core.KindInconsistentConfig, op, "effective dark-energy mapping needs a thermodynamics collaborator")
		}

		in.ZRec = c.collab.Thermo.ZRec()

		eq, err := nonlinear.NewPkEq(params, in.ZRec, c.tg.Tau, c.tg.Z)
		if err != nil {
			return err
		}

		in.PkEq = eq
	}

	res, err := corrector.Correct(in)
	if err != nil {
		return err
	}

	c.tg.NLStart = res.NLStart
	start := res.NLStart
	n := c.tg.Size() - start

	c.log.Info("fourier: nonlinear spectra built",
		slog.String("method", c.method.String()), slog.Int("nl_start", start), slog.Int("nl_times", n))

	if n <= 0 {
		return nil
	}

	types := c.idx.PkSize
	nk := c.kg.NativeSize

	c.nlLnTau = append([]float64(nil), c.tg.LnTau[start:]...)

	if c.nl, err = table.New(types, n, nk); err != nil {
		return err
	}

	if c.lnKNL, err = table.New(types, n, 1); err != nil {
		return err
	}

	for typ := range types {
		for it := range n {
			copy(c.nl.Row(typ, it), res.LnPkNL.Row(typ, start+it))
			c.lnKNL.Set(typ, it, 0, math.Log(res.KNL.At(typ, start+it, 0)))
		}
	}

	if n >= interp.MinPoints {
		if c.ddNL, err = interp.TimeSplines(c.nlLnTau, c.nl); err != nil {
			return err
		}

		// k_nl is +Inf throughout without a correction
		if c.method != nonlinear.MethodNone {
			if c.ddKNL, err = interp.TimeSplines(c.nlLnTau, c.lnKNL); err != nil {
				return err
			}
		}
	}

	c.kNL, c.kNLT, err = kSplines(c.kg.NativeLn(), c.nl, c.ddNL)

	return err
}

// kSplines returns the ln-k splines of t and of its time splines dd. The
// second is nil when dd is. Both are linear in the rows, so interpolating
// them in time like t yields the k spline of the interpolated row.
func kSplines(lnK []float64, t, dd *table.Table) (kdd, kddT *table.Table, err error) {
	if kdd, err = interp.KSplines(lnK, t); err != nil {
		return nil, nil, err
	}

	if dd == nil {
		return kdd, nil, nil
	}

	if kddT, err = interp.KSplines(lnK, dd); err != nil {
		return nil, nil, err
	}

	return kdd, kddT, nil
}

// Close releases every table. It is idempotent; queries afterwards return
// [ErrClosed].
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.lin, c.ddLin, c.ddLinIC = nil, nil, nil
	c.kLin, c.kLinT, c.kLinIC, c.kLinICT = nil, nil, nil, nil
	c.analytic, c.nw, c.ddNW, c.kNW, c.kNWT = nil, nil, nil, nil, nil
	c.nlLnTau, c.nl, c.ddNL, c.kNL, c.kNLT, c.lnKNL, c.ddKNL = nil, nil, nil, nil, nil, nil, nil
}

// Method returns the nonlinear strategy of the run.
func (c *Context) Method() nonlinear.Method { return c.method }

// KGrid returns the wavenumber grid.
func (c *Context) KGrid() *grid.KGrid { return c.kg }

// TauGrid returns the time grid.
func (c *Context) TauGrid() *grid.TauGrid { return c.tg }

// Indices returns the spectrum indices.
func (c *Context) Indices() *index.Indices { return c.idx }

// acquire read-locks c; the caller must call release when it returns nil.
func (c *Context) acquire() error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClosed
	}

	return nil
}

func (c *Context) release() { c.mu.RUnlock() }
