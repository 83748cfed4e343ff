package nonlinear

import (
	"errors"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/internal/rootfind"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/index"
	"github.com/cwbudde/algo-cosmo/pk/interp"
	"github.com/cwbudde/algo-cosmo/pk/nowiggle"
	"github.com/cwbudde/algo-cosmo/pk/sigma"
	"github.com/cwbudde/algo-cosmo/pk/window"
)

const (
	// rhoCrit is the critical density today over h² [M_sun/Mpc³].
	rhoCrit = 2.775366e11

	massMin = 1e2
	massMax = 1e18
	// formationFraction is the mass fraction f in σ(fM, z_f) = δc.
	formationFraction = 0.01

	sigmaTablePerDecade = 12
	// dispersionRadius is small enough for the Gaussian window to be 1 over
	// the whole extended k range.
	dispersionRadius = 1e-4

	quadBaseIntervals = 32
	quadMaxLevel      = 8
	quadMinLevel      = 2

	growthTablePoints = 256
	growthTableZMax   = 200
)

// HMcodeConfig tunes [HMcode].
type HMcodeConfig struct {
	Version  Version
	Feedback Feedback
	// CMin and Eta0 are read for FeedbackUserDefined.
	CMin, Eta0 float64
	// ZInfinity is the epoch of the dark-energy correction to halo
	// concentrations.
	ZInfinity float64
	// NKWiggle is the point count of the de-wiggling pass.
	NKWiggle int
	// Smoothing is the Gaussian width in ln k of the de-wiggling pass.
	Smoothing float64
	// Taper blends the FFT pad of the de-wiggling pass.
	Taper window.Taper
	// Log10THeat drives Version2020Baryonic.
	Log10THeat float64
	// Tolerance is the relative accuracy of the mass integral.
	Tolerance  float64
	KPerDecade float64
}

// DefaultHMcodeConfig returns HMcode 2015 without feedback.
func DefaultHMcodeConfig() HMcodeConfig {
	return HMcodeConfig{
		Version:    Version2015,
		Feedback:   FeedbackEmuDMOnly,
		ZInfinity:  10,
		NKWiggle:   512,
		Smoothing:  nowiggle.DefaultSmoothing,
		Log10THeat: 7.8,
		Tolerance:  1e-3,
		KPerDecade: sigma.DefaultKPerDecade,
	}
}

// HMcode is the halo-model corrector.
type HMcode struct {
	cfg   HMcodeConfig
	model versionModel
}

// NewHMcode validates cfg. The feedback model is checked for every version.
func NewHMcode(cfg HMcodeConfig) (*HMcode, error) {
	const op = "nonlinear.NewHMcode"

	if _, err := cfg.Feedback.shape(cfg.CMin, cfg.Eta0); err != nil {
		return nil, err
	}

	model, err := cfg.Version.model(cfg)
	if err != nil {
		return nil, err
	}

	if !(cfg.ZInfinity > 0) {
		return nil, core.Errorf(core.KindInconsistentConfig, op, "z_infinity must be > 0, got %g", cfg.ZInfinity)
	}

	if cfg.NKWiggle < interp.MinPoints {
		return nil, core.Errorf(core.KindInconsistentConfig, op, "nk_wiggle must be >= %d, got %d", interp.MinPoints, cfg.NKWiggle)
	}

	if !(cfg.Smoothing > 0) {
		cfg.Smoothing = nowiggle.DefaultSmoothing
	}

	if err := cfg.Taper.Validate(); err != nil {
		return nil, core.Wrap(core.KindInconsistentConfig, op, err)
	}

	if !(cfg.Tolerance > 0) {
		cfg.Tolerance = DefaultHMcodeConfig().Tolerance
	}

	if !(cfg.KPerDecade > 0) {
		cfg.KPerDecade = sigma.DefaultKPerDecade
	}

	return &HMcode{cfg: cfg, model: model}, nil
}

// Method returns MethodHMcode.
func (h *HMcode) Method() Method { return MethodHMcode }

// Version returns the configured variant.
func (h *HMcode) Version() Version { return h.cfg.Version }

// hmRun holds what is shared by all times of one Correct call.
type hmRun struct {
	*HMcode

	in       *Input
	params   cosmology.BackgroundParams
	growth   *growthTable
	deCorr   float64
	smoother *nowiggle.Smoother
	ref      *nowiggle.Curve
}

// Correct fills the correction table from today backwards.
func (h *HMcode) Correct(in *Input) (*Result, error) {
	const op = "nonlinear.HMcode"

	if err := in.validate(op); err != nil {
		return nil, err
	}

	res, err := newResult(in)
	if err != nil {
		return nil, err
	}

	run := &hmRun{HMcode: h, in: in, params: in.Background.Params()}

	if run.growth, err = newGrowthTable(in.Background, growthTableZMax, growthTablePoints); err != nil {
		return nil, err
	}

	if run.deCorr, err = run.darkEnergyCorrection(); err != nil {
		return nil, err
	}

	if h.cfg.Version == Version2020 || h.cfg.Version == Version2020Baryonic {
		if err := run.prepareDewiggle(); err != nil {
			return nil, err
		}
	}

	err = fillTimes(in, res, func(typ, it int) (bool, error) {
		return run.correct(res, typ, it)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// darkEnergyCorrection is the ratio of the growth since z_infinity to that
// of ΛCDM with the same matter density.
func (r *hmRun) darkEnergyCorrection() (float64, error) {
	zInf := r.cfg.ZInfinity

	g0, err := r.growth.at(0)
	if err != nil {
		return 0, err
	}

	gInf, err := r.growth.at(zInf)
	if err != nil {
		return 0, err
	}

	l0, err := r.in.Background.GrowthLCDM(0)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, "nonlinear.HMcode", err)
	}

	lInf, err := r.in.Background.GrowthLCDM(zInf)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, "nonlinear.HMcode", err)
	}

	return (gInf / g0) / (lInf / l0), nil
}

func (r *hmRun) prepareDewiggle() error {
	if r.in.Primordial == nil {
		return core.Errorf(core.KindInvalidArgument, "nonlinear.HMcode", "de-wiggling needs the primordial spectrum")
	}

	lnK := r.in.KGrid.NativeLn()

	ref, err := nowiggle.Analytic(nowiggle.AnalyticInput{
		Params:     r.params,
		Primordial: r.in.Primordial,
		LnK:        lnK,
		Growth:     1,
	})
	if err != nil {
		return err
	}

	sm, err := nowiggle.NewSmoother(lnK[0], lnK[len(lnK)-1], r.cfg.NKWiggle, r.cfg.Smoothing,
		nowiggle.WithTaper(r.cfg.Taper))
	if err != nil {
		return err
	}

	r.ref, r.smoother = ref, sm

	return nil
}

// correct computes one (type, time) slot. It reports false once the
// nonlinear radius falls below 1/k_max.
func (r *hmRun) correct(res *Result, typ, it int) (bool, error) {
	in := r.in
	z := in.TauGrid.Z[it]

	spec, err := in.spectrum(typ, it)
	if err != nil {
		return false, err
	}

	omegaM, _, _, err := in.darkEnergy(it)
	if err != nil {
		return false, err
	}

	st := haloState{z: z, h: r.params.H, omegaM: omegaM, fNu: r.params.FNu()}

	if st.sigma8, err = sigma.Compute(spec, 8/r.params.H, sigma.Sigma, sigma.WithKPerDecade(r.cfg.KPerDecade)); err != nil {
		return false, err
	}

	if st.sigmaV, err = sigma.Compute(spec, dispersionRadius, sigma.SigmaDisp, sigma.WithKPerDecade(r.cfg.KPerDecade)); err != nil {
		return false, err
	}

	deltaC, _ := collapse(st)

	rhoMean, err := r.meanDensity(typ)
	if err != nil {
		return false, err
	}

	tab, err := newSigmaTable(spec, radiusOfMass(formationFraction*massMin, rhoMean), radiusOfMass(massMax, rhoMean), r.cfg.KPerDecade)
	if err != nil {
		return false, err
	}

	rNL, ok, err := tab.nonlinearRadius(deltaC, 1/in.KGrid.KMax(), in.TauGrid.Tau[it])
	if err != nil || !ok {
		return false, err
	}

	sigNL, err := sigma.Compute(spec, rNL, sigma.Sigma, sigma.WithKPerDecade(r.cfg.KPerDecade))
	if err != nil {
		return false, err
	}

	dsig, err := sigma.Compute(spec, rNL, sigma.SigmaPrime, sigma.WithKPerDecade(r.cfg.KPerDecade))
	if err != nil {
		return false, err
	}

	st.nEff = -3 - 2*rNL*dsig/sigNL
	hp := r.model.params(st)

	halos, err := r.haloNodes(tab, hp, z, rhoMean)
	if err != nil {
		return false, err
	}

	native := in.KGrid.Native()
	lnLin := in.LnPk.Row(typ, it)[:len(native)]

	twoHalo := lnLin
	if hp.dewiggle {
		if twoHalo, err = r.dewiggle(lnLin, st.sigmaV); err != nil {
			return false, err
		}
	}

	for ik, k := range native {
		norm := k * k * k / (2 * math.Pi * math.Pi)
		d2lin := norm * math.Exp(lnLin[ik])

		oneHalo, err := halos.integrate(k, r.cfg.Tolerance, in.TauGrid.Tau[it])
		if err != nil {
			return false, err
		}

		d1 := norm * oneHalo * hp.damp1h(k)
		d2 := norm * math.Exp(twoHalo[ik]) * hp.damp2h(k)

		total := math.Pow(math.Pow(d1, hp.alpha)+math.Pow(d2, hp.alpha), 1/hp.alpha)
		res.setCorrection(typ, it, ik, math.Sqrt(total/d2lin), lnLin[ik])
	}

	res.KNL.Set(typ, it, 0, 1/rNL)

	in.logger().Debug("hmcode: corrected",
		slog.String("version", r.cfg.Version.String()), slog.Int("type", typ), slog.Float64("z", z),
		slog.Float64("sigma8", st.sigma8), slog.Float64("k_nl", 1/rNL), slog.Float64("n_eff", st.nEff))

	return true, nil
}

// meanDensity returns the comoving density of the clustering species.
func (r *hmRun) meanDensity(typ int) (float64, error) {
	t, err := r.in.Indices.Type(typ)
	if err != nil {
		return 0, err
	}

	omega := r.params.OmegaM()
	if t == index.ColdBaryon {
		omega = r.params.OmegaCB()
	}

	return omega * rhoCrit * r.params.H * r.params.H, nil
}

func radiusOfMass(m, rho float64) float64 { return math.Cbrt(3 * m / (4 * math.Pi * rho)) }

// dewiggle returns ln P with the baryon wiggles damped by the displacement
// sigmaV.
func (r *hmRun) dewiggle(lnLin []float64, sigmaV float64) ([]float64, error) {
	lnK := r.in.KGrid.NativeLn()
	n := len(lnK)

	ratio := make([]float64, n)
	for i := range n {
		ratio[i] = lnLin[i] - r.ref.LnPk[i]
	}

	smooth := make([]float64, n)
	if err := r.smoother.Smooth(lnK, ratio, smooth); err != nil {
		return nil, err
	}

	out := make([]float64, n)

	for i, lnk := range lnK {
		k := math.Exp(lnk)
		pLin := math.Exp(lnLin[i])
		pNW := math.Exp(r.ref.LnPk[i] + smooth[i])
		damp := -math.Expm1(-k * k * sigmaV * sigmaV)

		out[i] = math.Log(pLin - damp*(pLin-pNW))
	}

	return out, nil
}

// haloNodes tabulates the mass integrand factors on the finest quadrature
// grid in ln M.
func (r *hmRun) haloNodes(tab *sigmaTable, hp haloParams, z, rhoMean float64) (*massQuadrature, error) {
	n := quadBaseIntervals<<quadMaxLevel + 1
	lnLo, lnHi := math.Log(massMin), math.Log(massMax)

	q := &massQuadrature{
		step:    (lnHi - lnLo) / float64(n-1),
		weight:  make([]float64, n),
		bloat:   make([]float64, n),
		rs:      make([]float64, n),
		conc:    make([]float64, n),
		nfwFrac: make([]float64, n),
	}

	dz, err := r.growth.at(z)
	if err != nil {
		return nil, err
	}

	omegaBM := r.params.OmegaB / r.params.OmegaM()
	omegaCM := r.params.OmegaCDM / r.params.OmegaM()

	for i := range n {
		m := math.Exp(lnLo + float64(i)*q.step)
		rad := radiusOfMass(m, rhoMean)

		lnSig, slope, err := tab.eval(rad)
		if err != nil {
			return nil, err
		}

		nu := hp.deltaC / math.Exp(lnSig)
		// dν/dln M = -ν/3 dln σ/dln R
		dnu := -nu * slope / 3

		c, err := r.concentration(tab, hp, m, z, dz, rhoMean)
		if err != nil {
			return nil, err
		}

		rv := math.Cbrt(3 * m / (4 * math.Pi * rhoMean * hp.deltaV))

		q.weight[i] = m * shethTormen(nu) * dnu / rhoMean
		q.bloat[i] = math.Pow(nu, hp.eta)
		q.rs[i] = rv / c
		q.conc[i] = c
		q.nfwFrac[i] = 1

		if hp.baryons != nil {
			q.nfwFrac[i] = omegaCM + hp.baryons.gasFraction(m, omegaBM)
			q.stars = hp.baryons.fStar
		}
	}

	return q, nil
}

// concentration returns B (1+z_f)/(1+z) with the formation redshift from
// σ(fM, z_f) = δc and the dark-energy correction.
func (r *hmRun) concentration(tab *sigmaTable, hp haloParams, m, z, dz, rhoMean float64) (float64, error) {
	lnSigF, _, err := tab.eval(radiusOfMass(formationFraction*m, rhoMean))
	if err != nil {
		return 0, err
	}

	zf := z

	target := dz * hp.deltaC / math.Exp(lnSigF)
	if target < dz {
		if zf, err = r.growth.redshiftOf(target); err != nil {
			return 0, err
		}

		zf = math.Max(zf, z)
	}

	return hp.cAmp * (1 + zf) / (1 + z) * r.deCorr, nil
}

// massQuadrature integrates the one-halo term over ln M with trapezoid
// sums refined by doubling and extrapolated to Simpson's rule.
type massQuadrature struct {
	step    float64
	weight  []float64
	bloat   []float64
	rs      []float64
	conc    []float64
	nfwFrac []float64
	stars   float64
}

func (q *massQuadrature) integrand(i int, k float64) float64 {
	if q.weight[i] == 0 {
		return 0
	}

	w := q.nfwFrac[i]*nfwTransform(q.bloat[i]*k*q.rs[i], q.conc[i]) + q.stars

	return q.weight[i] * w * w
}

// integrate returns ∫ M g(ν) W² dν / ρ̄ at wavenumber k.
func (q *massQuadrature) integrate(k, tol, tau float64) (float64, error) {
	last := len(q.weight) - 1

	stride := last / quadBaseIntervals
	sum := 0.5 * (q.integrand(0, k) + q.integrand(last, k))

	for i := stride; i < last; i += stride {
		sum += q.integrand(i, k)
	}

	trap := sum * q.step * float64(stride)

	var simpson, prev float64

	for level := 1; level <= quadMaxLevel; level++ {
		half := stride / 2
		for i := half; i < last; i += stride {
			sum += q.integrand(i, k)
		}

		stride = half
		next := sum * q.step * float64(stride)

		prev, simpson = simpson, (4*next-trap)/3
		trap = next

		if level >= quadMinLevel && math.Abs(simpson-prev) <= tol*math.Abs(simpson) {
			return simpson, nil
		}
	}

	return 0, &core.NonConvergenceError{
		Op:         "nonlinear.HMcode",
		Tau:        tau,
		Iterations: quadMaxLevel,
		Residual:   math.Abs(simpson-prev) / math.Abs(simpson),
	}
}

// sigmaTable is ln σ(ln R) for the top-hat filter with its spline.
type sigmaTable struct {
	lnR, lnSig, dd []float64
}

func newSigmaTable(spec sigma.Spectrum, rMin, rMax, kPerDecade float64) (*sigmaTable, error) {
	lo, hi := math.Log(rMin), math.Log(rMax)
	n := max(int(math.Ceil((hi-lo)/math.Ln10*sigmaTablePerDecade))+1, interp.MinPoints)

	t := &sigmaTable{lnR: make([]float64, n), lnSig: make([]float64, n)}

	for i := range n {
		t.lnR[i] = lo + (hi-lo)*float64(i)/float64(n-1)

		s, err := sigma.Compute(spec, math.Exp(t.lnR[i]), sigma.Sigma, sigma.WithKPerDecade(kPerDecade))
		if err != nil {
			return nil, err
		}

		if !(s > 0) {
			return nil, core.Errorf(core.KindInvalidArgument, "nonlinear.HMcode", "σ(R=%g) vanishes", math.Exp(t.lnR[i]))
		}

		t.lnSig[i] = math.Log(s)
	}

	dd, err := interp.SecondDerivatives(t.lnR, t.lnSig)
	if err != nil {
		return nil, err
	}

	t.dd = dd

	return t, nil
}

// eval returns ln σ and dln σ/dln R at radius r.
func (t *sigmaTable) eval(r float64) (lnSig, slope float64, err error) {
	lnR := math.Log(r)

	if lnSig, err = interp.Eval(t.lnR, t.lnSig, t.dd, lnR); err != nil {
		return 0, 0, err
	}

	slope, err = interp.Derivative(t.lnR, t.lnSig, t.dd, lnR)

	return lnSig, slope, err
}

// nonlinearRadius solves σ(R) = deltaC between rMin and the table end. ok
// is false when σ(rMin) < deltaC.
func (t *sigmaTable) nonlinearRadius(deltaC, rMin, tau float64) (float64, bool, error) {
	const op = "nonlinear.HMcode"

	lnDC := math.Log(deltaC)
	lo, hi := math.Max(math.Log(rMin), t.lnR[0]), t.lnR[len(t.lnR)-1]

	f := func(lnR float64) float64 {
		v, err := interp.Eval(t.lnR, t.lnSig, t.dd, lnR)
		if err != nil {
			return math.NaN()
		}

		return v - lnDC
	}

	if f(lo) < 0 {
		return 0, false, nil
	}

	if f(hi) > 0 {
		return 0, false, core.Errorf(core.KindOutOfRange, op, "σ(R) > δc up to R=%g at tau=%g", math.Exp(hi), tau)
	}

	root, err := rootfind.Bisect(f, lo, hi, 1e-8, 100)

	switch {
	case errors.Is(err, rootfind.ErrMaxIterations):
		return 0, false, &core.NonConvergenceError{Op: op, Tau: tau, Iterations: root.Iterations, Residual: root.Width}
	case err != nil:
		return 0, false, core.Wrap(core.KindNonConvergence, op, err)
	}

	return math.Exp(root.X), true, nil
}
