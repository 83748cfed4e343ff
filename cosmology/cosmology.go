package cosmology

import (
	"errors"
	"math"
)

// SpeedOfLight is c in km/s.
const SpeedOfLight = 299792.458

// ErrUnavailable is returned for quantities a collaborator does not provide.
var ErrUnavailable = errors.New("cosmology: quantity not available")

// SourceType identifies a transfer source.
type SourceType int

const (
	// SourceDeltaM is the total matter density contrast.
	SourceDeltaM SourceType = iota
	// SourceDeltaCB is the CDM+baryon density contrast.
	SourceDeltaCB
)

func (s SourceType) String() string {
	switch s {
	case SourceDeltaM:
		return "delta_m"
	case SourceDeltaCB:
		return "delta_cb"
	default:
		return "unknown"
	}
}

// BackgroundParams are the cosmological parameters of a background model.
type BackgroundParams struct {
	H        float64 // reduced Hubble constant h
	TCMB     float64 // CMB temperature today [K]
	OmegaB   float64
	OmegaCDM float64
	// OmegaNu is the density of massive neutrinos today, counted as matter.
	OmegaNu float64
	// MNu is the summed neutrino mass [eV].
	MNu float64
	// NEff is the effective number of relativistic neutrino species.
	NEff float64
	W0   float64
	Wa   float64
}

// DefaultParams returns a Planck-2018-like flat ΛCDM parameter set.
func DefaultParams() BackgroundParams {
	return BackgroundParams{
		H:        0.6736,
		TCMB:     2.7255,
		OmegaB:   0.0493,
		OmegaCDM: 0.2645,
		NEff:     3.046,
		W0:       -1,
		Wa:       0,
	}
}

// OmegaM returns the total matter density today.
func (p BackgroundParams) OmegaM() float64 { return p.OmegaB + p.OmegaCDM + p.OmegaNu }

// OmegaCB returns the CDM+baryon density today.
func (p BackgroundParams) OmegaCB() float64 { return p.OmegaB + p.OmegaCDM }

// OmegaR returns the radiation density today: photons plus NEff massless
// neutrino species.
func (p BackgroundParams) OmegaR() float64 {
	omegaGamma := 2.469e-5 * math.Pow(p.TCMB/2.7255, 4) / (p.H * p.H)
	return omegaGamma * (1 + 0.2271*p.NEff)
}

// OmegaDE returns the dark-energy density closing a flat universe.
func (p BackgroundParams) OmegaDE() float64 { return 1 - p.OmegaM() - p.OmegaR() }

// FNu returns the neutrino fraction of matter.
func (p BackgroundParams) FNu() float64 {
	if p.OmegaM() == 0 {
		return 0
	}

	return p.OmegaNu / p.OmegaM()
}

// H0 returns the Hubble rate today in 1/Mpc.
func (p BackgroundParams) H0() float64 { return p.H * 100 / SpeedOfLight }

// IsLambda reports whether dark energy is a cosmological constant.
func (p BackgroundParams) IsLambda() bool { return p.W0 == -1 && p.Wa == 0 }

// BackgroundState is the background at one conformal time.
type BackgroundState struct {
	Tau     float64
	A       float64
	Z       float64
	H       float64 // Hubble rate [1/Mpc]
	OmegaM  float64 // matter fraction at this time
	OmegaDE float64 // dark-energy fraction at this time
	W       float64 // dark-energy equation of state
	D       float64 // linear growth factor, D = a deep in matter domination
	F       float64 // growth rate dlnD/dlna
}

// Background provides the expansion history.
type Background interface {
	Params() BackgroundParams
	TauOfZ(z float64) (float64, error)
	ZOfTau(tau float64) (float64, error)
	At(tau float64) (BackgroundState, error)
	// GrowthLCDM returns the growth factor at z of the ΛCDM model sharing
	// the matter density, normalized like BackgroundState.D.
	GrowthLCDM(z float64) (float64, error)
}

// Thermodynamics provides recombination quantities.
type Thermodynamics interface {
	// ZRec returns the redshift of recombination.
	ZRec() float64
}

// Perturbations provides the linear transfer sources.
type Perturbations interface {
	// K returns the native wavenumber sampling [1/Mpc].
	K() []float64
	// Tau returns the conformal-time sampling [Mpc], strictly increasing.
	Tau() []float64
	ICSize() int
	HasSource(st SourceType) bool
	// Source returns the transfer source per unit primordial curvature.
	Source(st SourceType, ic, tauIdx, kIdx int) (float64, error)
}

// Primordial provides the primordial curvature spectrum.
type Primordial interface {
	ICSize() int
	// Correlated reports whether two initial conditions are correlated.
	Correlated(ic1, ic2 int) bool
	// Spectrum returns the dimensionless spectrum of (ic1, ic2) at k: the
	// auto spectrum on the diagonal, the cross spectrum elsewhere.
	Spectrum(k float64, ic1, ic2 int) (float64, error)
}
