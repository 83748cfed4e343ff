package cosmology

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// PerturbationOption configures [NewEHPerturbations].
type PerturbationOption func(*perturbationConfig)

type perturbationConfig struct {
	kMin, kMax float64
	kPerDecade float64
	zStart     float64
	timeSteps  int
	extraICs   []float64
	coldSource bool
}

func defaultPerturbationConfig() perturbationConfig {
	return perturbationConfig{
		kMin:       1e-4,
		kMax:       5,
		kPerDecade: 30,
		zStart:     50,
		timeSteps:  40,
	}
}

// WithKRange sets the wavenumber sampling in 1/Mpc.
func WithKRange(kMin, kMax, perDecade float64) PerturbationOption {
	return func(c *perturbationConfig) {
		c.kMin, c.kMax, c.kPerDecade = kMin, kMax, perDecade
	}
}

// WithTimeSampling samples n times uniformly in ln(1+z) from zStart to today.
func WithTimeSampling(zStart float64, n int) PerturbationOption {
	return func(c *perturbationConfig) {
		c.zStart, c.timeSteps = zStart, n
	}
}

// WithExtraIC adds an initial condition whose source is the adiabatic one
// scaled by amp/(1+k/0.05 Mpc⁻¹).
func WithExtraIC(amp float64) PerturbationOption {
	return func(c *perturbationConfig) {
		c.extraICs = append(c.extraICs, amp)
	}
}

// WithColdSource provides δ_cb even without massive neutrinos.
func WithColdSource(enabled bool) PerturbationOption {
	return func(c *perturbationConfig) {
		c.coldSource = enabled
	}
}

// EHPerturbations produces density sources from the Eisenstein–Hu transfer
// function and the background growth factor:
//
//	δ_cb(k, τ) = 2/5 · k² T(k) D(τ) / (Ω_m H0²)
//
// per unit primordial curvature. δ_m adds the free-streaming suppression of
// massive neutrinos.
type EHPerturbations struct {
	k, tau []float64
	base   []float64
	growth []float64
	kFS    []float64
	fNu    float64
	amps   []float64
	cold   bool
}

// NewEHPerturbations tabulates the sources over bg.
func NewEHPerturbations(bg Background, opts ...PerturbationOption) (*EHPerturbations, error) {
	cfg := defaultPerturbationConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.kMin <= 0 || cfg.kMax <= cfg.kMin || cfg.kPerDecade <= 0 {
		return nil, fmt.Errorf("cosmology: invalid k sampling [%g, %g] at %g per decade", cfg.kMin, cfg.kMax, cfg.kPerDecade)
	}

	if cfg.timeSteps < 1 || cfg.zStart < 0 || (cfg.timeSteps > 1 && cfg.zStart == 0) {
		return nil, fmt.Errorf("cosmology: invalid time sampling z<=%g with %d steps", cfg.zStart, cfg.timeSteps)
	}

	p := bg.Params()
	hh := p.H * p.H
	eh := NewEH98(p.OmegaM()*hh, p.OmegaB*hh, p.TCMB)

	nk := int(math.Ceil(math.Log10(cfg.kMax/cfg.kMin)*cfg.kPerDecade)) + 1

	pt := &EHPerturbations{
		k:      core.LogSpace(cfg.kMin, cfg.kMax, nk),
		tau:    make([]float64, cfg.timeSteps),
		growth: make([]float64, cfg.timeSteps),
		kFS:    make([]float64, cfg.timeSteps),
		fNu:    p.FNu(),
		amps:   append([]float64{1}, cfg.extraICs...),
		cold:   cfg.coldSource || p.OmegaNu > 0,
	}

	norm := 0.4 / (p.OmegaM() * p.H0() * p.H0())
	pt.base = make([]float64, nk)

	for i, k := range pt.k {
		pt.base[i] = norm * k * k * eh.Transfer(k)
	}

	x0 := math.Log1p(cfg.zStart)

	for i := range cfg.timeSteps {
		z := 0.0
		if cfg.timeSteps > 1 {
			z = math.Expm1(x0 * (1 - float64(i)/float64(cfg.timeSteps-1)))
		}

		tau, err := bg.TauOfZ(z)
		if err != nil {
			return nil, err
		}

		st, err := bg.At(tau)
		if err != nil {
			return nil, err
		}

		pt.tau[i] = tau
		pt.growth[i] = st.D
		// free-streaming scale of MNu/3 per species
		pt.kFS[i] = 0.82 * p.H * (st.H / p.H0()) * st.A * st.A * p.MNu / 3
	}

	return pt, nil
}

// K returns the wavenumber sampling.
func (pt *EHPerturbations) K() []float64 { return pt.k }

// Tau returns the conformal-time sampling.
func (pt *EHPerturbations) Tau() []float64 { return pt.tau }

// ICSize returns the number of initial conditions.
func (pt *EHPerturbations) ICSize() int { return len(pt.amps) }

// HasSource reports whether st is provided.
func (pt *EHPerturbations) HasSource(st SourceType) bool {
	switch st {
	case SourceDeltaM:
		return true
	case SourceDeltaCB:
		return pt.cold
	default:
		return false
	}
}

// Source returns the density source of st for one initial condition.
func (pt *EHPerturbations) Source(st SourceType, ic, tauIdx, kIdx int) (float64, error) {
	if !pt.HasSource(st) {
		return 0, fmt.Errorf("cosmology: source %v not available", st)
	}

	if ic < 0 || ic >= len(pt.amps) || tauIdx < 0 || tauIdx >= len(pt.tau) || kIdx < 0 || kIdx >= len(pt.k) {
		return 0, fmt.Errorf("cosmology: source index (ic=%d, tau=%d, k=%d) out of range", ic, tauIdx, kIdx)
	}

	k := pt.k[kIdx]
	v := pt.base[kIdx] * pt.growth[tauIdx]

	if ic > 0 {
		v *= pt.amps[ic] / (1 + k/0.05)
	}

	if st == SourceDeltaM && pt.fNu > 0 {
		kfs := pt.kFS[tauIdx]
		v *= 1 - pt.fNu + pt.fNu*kfs*kfs/(k*k+kfs*kfs)
	}

	return v, nil
}
