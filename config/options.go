package config

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/extrap"
	"github.com/cwbudde/algo-cosmo/pk/fourier"
	"github.com/cwbudde/algo-cosmo/pk/nonlinear"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

// Options converts the engine keys to fourier options.
func (c *Config) Options(logger *slog.Logger) ([]fourier.Option, error) {
	f := c.Fourier

	method, err := nonlinear.ParseMethod(f.Method)
	if err != nil {
		return nil, err
	}

	law, err := extrap.ParseMethod(f.ExtrapolationMethod)
	if err != nil {
		return nil, err
	}

	if law == extrap.UserDefined {
		return nil, fmt.Errorf("%w: extrapolation_method %q needs a shape function", ErrInvalid, f.ExtrapolationMethod)
	}

	feedback, err := nonlinear.ParseFeedback(f.Feedback)
	if err != nil {
		return nil, err
	}

	version, err := nonlinear.ParseVersion(f.HMcodeVersion)
	if err != nil {
		return nil, err
	}

	pkEq, err := fourier.ParsePkEqMode(f.HasPkEq)
	if err != nil {
		return nil, err
	}

	shape, err := window.ParseShape(f.NoWiggleTaper)
	if err != nil {
		return nil, fmt.Errorf("%w: nowiggle_taper: %w", ErrInvalid, err)
	}

	taper := window.Taper{Shape: shape, Alpha: f.NoWiggleTaperAlpha}

	hm := nonlinear.DefaultHMcodeConfig()
	hm.Version = version
	hm.Feedback = feedback
	hm.CMin, hm.Eta0 = f.CMin, f.Eta0
	hm.ZInfinity = f.ZInfinity
	hm.NKWiggle = f.NKWiggle
	hm.Log10THeat = f.Log10THeat
	hm.KPerDecade = f.SigmaKPerDecade
	hm.Smoothing = f.NoWiggleSmoothing
	hm.Taper = taper

	hf := nonlinear.HalofitConfig{
		TolSigma:      f.HalofitTolSigma,
		MaxIterations: f.HalofitMaxIterations,
		KPerDecade:    f.HalofitKPerDecade,
	}

	return []fourier.Option{
		fourier.WithMethod(method),
		fourier.WithExtrapolation(law, nil),
		fourier.WithHMcode(hm),
		fourier.WithHalofit(hf),
		fourier.WithNoWiggle(f.HasPkAnalyticNoWiggle, f.HasPkNumericalNoWiggle),
		fourier.WithNoWiggleSmoothing(f.NoWiggleSmoothing),
		fourier.WithNoWiggleTaper(taper),
		fourier.WithPkCB(f.HasPkCB),
		fourier.WithPkEq(pkEq),
		fourier.WithZMax(f.ZMaxPk),
		fourier.WithZMaxNonlinear(f.ZMaxNonlinear),
		fourier.WithKMaxExtra(f.KMaxExtraFactor, f.MaxExtrapolationPoints),
		fourier.WithSigmaKPerDecade(f.SigmaKPerDecade),
		fourier.WithLogger(logger),
	}, nil
}

// Params returns the background parameters of the reference cosmology.
func (c *Config) Params() cosmology.BackgroundParams {
	cc := c.Cosmology

	return cosmology.BackgroundParams{
		H:        cc.H,
		TCMB:     cc.TCMB,
		OmegaB:   cc.OmegaB,
		OmegaCDM: cc.OmegaCDM,
		OmegaNu:  cc.OmegaNu,
		MNu:      cc.MNu,
		NEff:     cc.NEff,
		W0:       cc.W0,
		Wa:       cc.Wa,
	}
}

// Collaborators builds the reference collaborators of the configured
// cosmology.
func (c *Config) Collaborators() (fourier.Collaborators, error) {
	cc := c.Cosmology
	params := c.Params()

	bg, err := cosmology.NewFlatBackground(params)
	if err != nil {
		return fourier.Collaborators{}, fmt.Errorf("config: background: %w", err)
	}

	pt, err := cosmology.NewEHPerturbations(bg,
		cosmology.WithKRange(cc.KMin, cc.KMax, cc.KPerDecade),
		cosmology.WithTimeSampling(cc.ZStart, cc.TimeSteps),
		cosmology.WithColdSource(cc.ColdSource),
	)
	if err != nil {
		return fourier.Collaborators{}, fmt.Errorf("config: perturbations: %w", err)
	}

	prim, err := cosmology.NewAdiabatic(cc.As, cc.Ns)
	if err != nil {
		return fourier.Collaborators{}, fmt.Errorf("config: primordial: %w", err)
	}

	return fourier.Collaborators{
		Background:    bg,
		Thermo:        cosmology.NewFittedThermo(params),
		Perturbations: pt,
		Primordial:    prim,
	}, nil
}
