package cosmology

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-cosmo/pk/interp"
)

const (
	// background tables start deep in radiation domination
	lnAStart         = -9 * math.Ln10
	backgroundPoints = 4000
)

// DarkEnergyDensity returns ρ_de(a)/ρ_de(1) for the CPL equation of state
// w(a) = w0 + wa(1-a).
func (p BackgroundParams) DarkEnergyDensity(a float64) float64 {
	return math.Pow(a, -3*(1+p.W0+p.Wa)) * math.Exp(-3*p.Wa*(1-a))
}

// W returns the dark-energy equation of state at scale factor a.
func (p BackgroundParams) W(a float64) float64 { return p.W0 + p.Wa*(1-a) }

// E returns H(a)/H0 including radiation.
func (p BackgroundParams) E(a float64) float64 {
	return math.Sqrt(p.OmegaR()/(a*a*a*a) + p.OmegaM()/(a*a*a) + p.OmegaDE()*p.DarkEnergyDensity(a))
}

// Hubble returns H(a) in 1/Mpc.
func (p BackgroundParams) Hubble(a float64) float64 { return p.H0() * p.E(a) }

// ConformalDistance returns the comoving distance between redshifts z1 < z2
// in Mpc, integrating dz/H(z) with Simpson's rule in ln(1+z).
func ConformalDistance(p BackgroundParams, z1, z2 float64) float64 {
	if z2 <= z1 {
		return 0
	}

	const n = 2000 // even

	x1, x2 := math.Log1p(z1), math.Log1p(z2)
	h := (x2 - x1) / n

	f := func(x float64) float64 {
		opz := math.Exp(x)
		return opz / p.Hubble(1/opz)
	}

	sum := f(x1) + f(x2)
	for i := 1; i < n; i++ {
		w := 2.0
		if i%2 == 1 {
			w = 4
		}

		sum += w * f(x1+float64(i)*h)
	}

	return sum * h / 3
}

// FlatBackground is a flat universe with matter, radiation and CPL dark
// energy. Conformal time and growth are tabulated on a uniform ln a grid at
// construction and interpolated afterwards.
type FlatBackground struct {
	params BackgroundParams

	lnA    []float64
	lnTau  []float64
	growth []float64
	rate   []float64
	lcdm   []float64
}

// NewFlatBackground tabulates the background for p.
func NewFlatBackground(p BackgroundParams) (*FlatBackground, error) {
	if p.H <= 0 {
		return nil, fmt.Errorf("cosmology: h must be positive, got %g", p.H)
	}

	if p.OmegaM() <= 0 {
		return nil, fmt.Errorf("cosmology: matter density must be positive, got %g", p.OmegaM())
	}

	if p.OmegaDE() < 0 {
		return nil, fmt.Errorf("cosmology: negative dark-energy density %g", p.OmegaDE())
	}

	b := &FlatBackground{
		params: p,
		lnA:    make([]float64, backgroundPoints),
		lnTau:  make([]float64, backgroundPoints),
	}

	step := -lnAStart / float64(backgroundPoints-1)
	for i := range b.lnA {
		b.lnA[i] = lnAStart + float64(i)*step
	}

	b.lnA[backgroundPoints-1] = 0

	// τ = ∫ dln a / (a H); radiation-dominated start τ ≈ a/(H0 √Ω_r)
	dtau := func(lna float64) float64 {
		a := math.Exp(lna)
		return 1 / (a * p.Hubble(a))
	}

	aStart := math.Exp(lnAStart)
	tau := aStart / (p.H0() * math.Sqrt(p.OmegaR()))
	b.lnTau[0] = math.Log(tau)

	for i := 1; i < backgroundPoints; i++ {
		lo, hi := b.lnA[i-1], b.lnA[i]
		tau += (hi - lo) / 6 * (dtau(lo) + 4*dtau(0.5*(lo+hi)) + dtau(hi))
		b.lnTau[i] = math.Log(tau)
	}

	b.growth, b.rate = integrateGrowth(p, b.lnA)

	lcdm := p
	lcdm.W0, lcdm.Wa = -1, 0
	b.lcdm, _ = integrateGrowth(lcdm, b.lnA)

	return b, nil
}

// integrateGrowth solves d²D/dlna² + (2 + dlnH/dlna) dD/dlna = 3/2 Ω_m(a) D with
// RK4, starting from D = a. Radiation is left out so the matter-era initial
// condition is exact.
func integrateGrowth(p BackgroundParams, lnA []float64) (growth, rate []float64) {
	om, ode := p.OmegaM(), p.OmegaDE()

	e2 := func(a float64) float64 { return om/(a*a*a) + ode*p.DarkEnergyDensity(a) }
	dlnH := func(a float64) float64 {
		de := ode * p.DarkEnergyDensity(a)
		return (-3*om/(a*a*a) - 3*(1+p.W(a))*de) / (2 * e2(a))
	}
	deriv := func(lna, d, v float64) (float64, float64) {
		a := math.Exp(lna)
		omA := om / (a * a * a) / e2(a)

		return v, -(2+dlnH(a))*v + 1.5*omA*d
	}

	growth = make([]float64, len(lnA))
	rate = make([]float64, len(lnA))

	d := math.Exp(lnA[0])
	v := d
	growth[0], rate[0] = d, 1

	for i := 1; i < len(lnA); i++ {
		x, h := lnA[i-1], lnA[i]-lnA[i-1]

		k1d, k1v := deriv(x, d, v)
		k2d, k2v := deriv(x+h/2, d+h/2*k1d, v+h/2*k1v)
		k3d, k3v := deriv(x+h/2, d+h/2*k2d, v+h/2*k2v)
		k4d, k4v := deriv(x+h, d+h*k3d, v+h*k3v)

		d += h / 6 * (k1d + 2*k2d + 2*k3d + k4d)
		v += h / 6 * (k1v + 2*k2v + 2*k3v + k4v)

		growth[i], rate[i] = d, v/d
	}

	return growth, rate
}

// Params returns the parameters the background was built from.
func (b *FlatBackground) Params() BackgroundParams { return b.params }

// TauOfZ returns the conformal time at redshift z.
func (b *FlatBackground) TauOfZ(z float64) (float64, error) {
	if z < 0 {
		return 0, fmt.Errorf("cosmology: negative redshift %g", z)
	}

	lnTau, err := interp.Linear(b.lnA, b.lnTau, -math.Log1p(z))
	if err != nil {
		return 0, fmt.Errorf("cosmology: z=%g: %w", z, err)
	}

	return math.Exp(lnTau), nil
}

// ZOfTau returns the redshift at conformal time tau.
func (b *FlatBackground) ZOfTau(tau float64) (float64, error) {
	lna, err := b.lnAOfTau(tau)
	if err != nil {
		return 0, err
	}

	return math.Expm1(-lna), nil
}

func (b *FlatBackground) lnAOfTau(tau float64) (float64, error) {
	if tau <= 0 {
		return 0, fmt.Errorf("cosmology: non-positive conformal time %g", tau)
	}

	lna, err := interp.Linear(b.lnTau, b.lnA, math.Log(tau))
	if err != nil {
		return 0, fmt.Errorf("cosmology: tau=%g: %w", tau, err)
	}

	return lna, nil
}

// At returns the background state at conformal time tau.
func (b *FlatBackground) At(tau float64) (BackgroundState, error) {
	lna, err := b.lnAOfTau(tau)
	if err != nil {
		return BackgroundState{}, err
	}

	p := b.params
	a := math.Exp(lna)
	e2 := p.E(a) * p.E(a)

	d, _ := interp.Linear(b.lnA, b.growth, lna)
	f, _ := interp.Linear(b.lnA, b.rate, lna)

	return BackgroundState{
		Tau:     tau,
		A:       a,
		Z:       1/a - 1,
		H:       p.Hubble(a),
		OmegaM:  p.OmegaM() / (a * a * a) / e2,
		OmegaDE: p.OmegaDE() * p.DarkEnergyDensity(a) / e2,
		W:       p.W(a),
		D:       d,
		F:       f,
	}, nil
}

// GrowthLCDM returns the growth factor of the ΛCDM model with the same
// matter density.
func (b *FlatBackground) GrowthLCDM(z float64) (float64, error) {
	if z < 0 {
		return 0, fmt.Errorf("cosmology: negative redshift %g", z)
	}

	d, err := interp.Linear(b.lnA, b.lcdm, -math.Log1p(z))
	if err != nil {
		return 0, fmt.Errorf("cosmology: z=%g: %w", z, err)
	}

	return d, nil
}
