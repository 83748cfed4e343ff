package nonlinear

import (
	"errors"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-cosmo/internal/rootfind"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/sigma"
)

// maxHalofitNeutrinoMass is the largest summed neutrino mass in eV for
// which the neutrino terms were calibrated.
const maxHalofitNeutrinoMass = 10

// HalofitConfig tunes the search for the nonlinear radius.
type HalofitConfig struct {
	// TolSigma is the tolerance on ln R of the σ(R)=1 search.
	TolSigma float64
	// MaxIterations bounds the bisection.
	MaxIterations int
	// KPerDecade is the quadrature density of the moment integrals.
	KPerDecade float64
}

// DefaultHalofitConfig returns TolSigma 1e-6 with 100 iterations.
func DefaultHalofitConfig() HalofitConfig {
	return HalofitConfig{TolSigma: 1e-6, MaxIterations: 100, KPerDecade: sigma.DefaultKPerDecade}
}

// Halofit is the Takahashi et al. fit with the Bird et al. neutrino terms.
type Halofit struct {
	cfg HalofitConfig
}

// NewHalofit validates cfg.
func NewHalofit(cfg HalofitConfig) (*Halofit, error) {
	if !(cfg.TolSigma > 0) || cfg.MaxIterations < 1 {
		return nil, core.Errorf(core.KindInconsistentConfig, "nonlinear.NewHalofit",
			"tolerance %g and iteration cap %d must be positive", cfg.TolSigma, cfg.MaxIterations)
	}

	if !(cfg.KPerDecade > 0) {
		cfg.KPerDecade = sigma.DefaultKPerDecade
	}

	return &Halofit{cfg: cfg}, nil
}

// Method returns MethodHalofit.
func (h *Halofit) Method() Method { return MethodHalofit }

// halofitCoefficients are the fitted shape parameters at one time.
type halofitCoefficients struct {
	a, b, c, gamma, alpha, beta, nu float64
	f1, f2, f3                      float64
}

func newHalofitCoefficients(n, curv, omegaM, omegaDE, w, fNu float64) halofitCoefficients {
	n2, n3, n4 := n*n, n*n*n, n*n*n*n

	return halofitCoefficients{
		a: math.Pow(10, 1.5222+2.8553*n+2.3706*n2+0.9903*n3+0.2250*n4-
			0.6038*curv+0.1749*omegaDE*(1+w)),
		b:     math.Pow(10, -0.5642+0.5864*n+0.5716*n2-1.5474*curv+0.2279*omegaDE*(1+w)),
		c:     math.Pow(10, 0.3698+2.0404*n+0.8161*n2+0.5869*curv),
		gamma: 0.1971 - 0.0843*n + 0.8460*curv,
		alpha: math.Abs(6.0835 + 1.3373*n - 0.1959*n2 - 5.5274*curv),
		beta: 2.0379 - 0.7354*n + 0.3157*n2 + 1.2490*n3 + 0.3980*n4 - 0.1682*curv +
			fNu*(1.081+0.395*n2),
		nu: math.Pow(10, 5.2105+3.6902*n),
		f1: math.Pow(omegaM, -0.0307),
		f2: math.Pow(omegaM, -0.0585),
		f3: math.Pow(omegaM, 0.0743),
	}
}

// delta2 returns the nonlinear dimensionless power for the linear value
// d2lin at y = k/k_nl. kh is k in h/Mpc and omegaM0 is Ω_m today.
func (c halofitCoefficients) delta2(d2lin, y, kh, fNu, omegaM0 float64) float64 {
	fy := y/4 + y*y/8

	d2nu := d2lin * (1 + fNu*47.48*kh*kh/(1+1.5*kh*kh))
	quasi := d2lin * math.Pow(1+d2nu, c.beta) / (1 + c.alpha*d2nu) * math.Exp(-fy)

	halo := c.a * math.Pow(y, 3*c.f1) / (1 + c.b*math.Pow(y, c.f2) + math.Pow(c.f3*c.c*y, 3-c.gamma))
	halo /= 1 + c.nu/(y*y)
	halo *= 1 + fNu*(0.977-18.015*(omegaM0-0.3))

	return quasi + halo
}

// Correct fills the correction table from today backwards.
func (h *Halofit) Correct(in *Input) (*Result, error) {
	const op = "nonlinear.Halofit"

	if err := in.validate(op); err != nil {
		return nil, err
	}

	params := in.Background.Params()
	if params.MNu > maxHalofitNeutrinoMass {
		return nil, core.Errorf(core.KindInconsistentConfig, op,
			"neutrino mass %g eV beyond the calibrated range of %d eV", params.MNu, maxHalofitNeutrinoMass)
	}

	res, err := newResult(in)
	if err != nil {
		return nil, err
	}

	fNu := params.FNu()
	omegaM0 := params.OmegaM()
	kNative := in.KGrid.Native()
	log := in.logger()

	err = fillTimes(in, res, func(typ, it int) (bool, error) {
		spec, err := in.spectrum(typ, it)
		if err != nil {
			return false, err
		}

		rNL, ok, err := h.nonlinearRadius(spec, in, in.TauGrid.Tau[it])
		if err != nil || !ok {
			return false, err
		}

		m, err := sigma.GaussianMoments(spec, rNL, h.cfg.KPerDecade)
		if err != nil {
			return false, err
		}

		omegaM, omegaDE, w, err := in.darkEnergy(it)
		if err != nil {
			return false, err
		}

		coef := newHalofitCoefficients(m.NEff(), m.Curvature(), omegaM, omegaDE, w, fNu)
		kNL := 1 / rNL

		for ik, k := range kNative {
			lnPk := in.LnPk.At(typ, it, ik)
			d2lin := k * k * k * math.Exp(lnPk) / (2 * math.Pi * math.Pi)
			d2 := coef.delta2(d2lin, k/kNL, k/params.H, fNu, omegaM0)

			res.setCorrection(typ, it, ik, math.Sqrt(d2/d2lin), lnPk)
		}

		res.KNL.Set(typ, it, 0, kNL)

		log.Debug("halofit: corrected",
			slog.Int("type", typ), slog.Float64("z", in.TauGrid.Z[it]),
			slog.Float64("k_nl", kNL), slog.Float64("n_eff", m.NEff()))

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// nonlinearRadius solves σ(R)=1 for a Gaussian filter between 1/k_max and
// 1/k_min. ok is false when σ < 1 already at 1/k_max.
func (h *Halofit) nonlinearRadius(spec sigma.Spectrum, in *Input, tau float64) (float64, bool, error) {
	const op = "nonlinear.Halofit"

	var evalErr error

	f := func(lnR float64) float64 {
		m, err := sigma.GaussianMoments(spec, math.Exp(lnR), h.cfg.KPerDecade)
		if err != nil {
			evalErr = err
			return math.NaN()
		}

		return math.Log(m.S1)
	}

	lo, hi := -math.Log(in.KGrid.KMax()), -math.Log(in.KGrid.KMin())

	if f(lo) < 0 {
		return 0, false, evalErr
	}

	if f(hi) > 0 {
		return 0, false, core.Errorf(core.KindOutOfRange, op,
			"σ(R) > 1 up to R=1/k_min=%g at tau=%g", math.Exp(hi), tau)
	}

	root, err := rootfind.Bisect(f, lo, hi, h.cfg.TolSigma, h.cfg.MaxIterations)

	switch {
	case evalErr != nil:
		return 0, false, evalErr
	case errors.Is(err, rootfind.ErrMaxIterations):
		return 0, false, &core.NonConvergenceError{Op: op, Tau: tau, Iterations: root.Iterations, Residual: root.Width}
	case err != nil:
		return 0, false, core.Wrap(core.KindNonConvergence, op, err)
	}

	return math.Exp(root.X), true, nil
}
