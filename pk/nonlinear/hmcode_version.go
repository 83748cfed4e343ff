package nonlinear

import (
	"math"
	"strings"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// Version selects an HMcode variant.
type Version int

const (
	// Version2015 is Mead et al. (2016) with [Feedback] calibrations.
	Version2015 Version = iota
	// Version2020 is Mead et al. (2021) for dark matter only.
	Version2020
	// Version2020Unfitted is the 2020 halo model without fitted
	// corrections.
	Version2020Unfitted
	// Version2020Baryonic adds the AGN feedback model driven by
	// log10 T_heat.
	Version2020Baryonic
)

var versionNames = map[Version]string{
	Version2015:         "2015",
	Version2020:         "2020",
	Version2020Unfitted: "2020_unfitted",
	Version2020Baryonic: "2020_baryonic",
}

func (v Version) String() string {
	if s, ok := versionNames[v]; ok {
		return s
	}

	return "unknown"
}

// ParseVersion returns the version with the given name.
func ParseVersion(s string) (Version, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Version2015, nil
	}

	for v, name := range versionNames {
		if name == s {
			return v, nil
		}
	}

	return 0, core.Errorf(core.KindInconsistentConfig, "nonlinear.ParseVersion", "unknown HMcode version %q", s)
}

// haloState collects the quantities the fits depend on at one time.
type haloState struct {
	z      float64
	h      float64
	omegaM float64 // Ω_m(z)
	fNu    float64
	sigma8 float64
	sigmaV float64 // 1D displacement [Mpc]
	nEff   float64
}

// collapse returns the linear collapse threshold δc and the virial
// overdensity Δv.
func collapse(st haloState) (deltaC, deltaV float64) {
	deltaC = (1.59 + 0.0314*math.Log(st.sigma8)) * (1 + 0.0123*math.Log10(st.omegaM)) * (1 + 0.262*st.fNu)
	deltaV = 418 * math.Pow(st.omegaM, -0.352) * (1 + 0.916*st.fNu)

	return deltaC, deltaV
}

// baryonModel is the AGN feedback model at one redshift.
type baryonModel struct {
	fStar float64
	// massB is the gas-fraction transition mass [M_sun].
	massB float64
}

const gasSlope = 2

// gasFraction returns the bound gas fraction of a halo of mass m.
func (b *baryonModel) gasFraction(m, omegaBM float64) float64 {
	x := math.Pow(m/b.massB, gasSlope)
	return (omegaBM - b.fStar) * x / (1 + x)
}

// haloParams are the halo-model ingredients at one time.
type haloParams struct {
	deltaC, deltaV float64
	// eta bloats halo profiles through W(ν^η k).
	eta float64
	// cAmp is the concentration amplitude B.
	cAmp  float64
	alpha float64

	damp1h   func(k float64) float64
	damp2h   func(k float64) float64
	dewiggle bool
	baryons  *baryonModel
}

// versionModel computes halo parameters for one HMcode variant.
type versionModel interface {
	params(st haloState) haloParams
}

func noDamping(float64) float64 { return 1 }

type model2015 struct {
	shape haloShape
}

func (m model2015) params(st haloState) haloParams {
	dc, dv := collapse(st)

	kStar := 0.584 / st.sigmaV
	f := core.Clamp(0.0095*math.Pow(st.sigma8, 1.37), 1e-3, 0.99)
	sf := math.Sqrt(f)

	return haloParams{
		deltaC: dc,
		deltaV: dv,
		eta:    m.shape.eta0 - 0.3*st.sigma8,
		cAmp:   m.shape.cMin,
		alpha:  core.Clamp(3.24*math.Pow(1.85, st.nEff), 0.5, 3),
		damp1h: func(k float64) float64 {
			x := k / kStar
			return -math.Expm1(-x * x)
		},
		damp2h: func(k float64) float64 {
			t := math.Tanh(k * st.sigmaV / sf)
			return 1 - f*t*t
		},
	}
}

type model2020 struct {
	unfitted bool
	// log10THeat is set for the baryonic variant.
	log10THeat *float64
}

func (m model2020) params(st haloState) haloParams {
	dc, dv := collapse(st)

	if m.unfitted {
		// one-halo suppression at the displacement scale
		kStar := 0.584 / st.sigmaV

		return haloParams{
			deltaC: dc,
			deltaV: dv,
			cAmp:   4,
			alpha:  1,
			damp1h: func(k float64) float64 {
				x4 := math.Pow(k/kStar, 4)
				return x4 / (1 + x4)
			},
			damp2h: noDamping,
		}
	}

	// fitted wavenumbers are in h/Mpc
	kStar := 0.05618 * math.Pow(st.sigma8, -1.013) * st.h
	kd := 0.05699 * math.Pow(st.sigma8, -1.089) * st.h
	f := 0.2696 * math.Pow(st.sigma8, 0.9403)

	const nd = 2.853

	p := haloParams{
		deltaC: dc,
		deltaV: dv,
		eta:    0.1281 * math.Pow(st.sigma8, -0.3644),
		cAmp:   5.196,
		alpha:  1.875 * math.Pow(1.603, st.nEff),
		damp1h: func(k float64) float64 {
			x4 := math.Pow(k/kStar, 4)
			return x4 / (1 + x4)
		},
		damp2h: func(k float64) float64 {
			x := math.Pow(k/kd, nd)
			return 1 - f*x/(1+x)
		},
		dewiggle: true,
	}

	if m.log10THeat != nil {
		theta := *m.log10THeat - 7.8
		z := st.z

		b0, bz := 3.44-0.496*theta, -0.0671-0.0371*theta
		f0, fz := 0.0201-0.0030*theta, 0.409+0.0224*theta
		mb0, mbz := 13.87+1.81*theta, -0.108+0.195*theta

		p.cAmp = b0 * math.Pow(10, z*bz)
		p.baryons = &baryonModel{
			fStar: f0 * math.Pow(10, z*fz),
			massB: math.Pow(10, mb0+z*mbz) / st.h,
		}
	}

	return p
}

// model returns the strategy of v.
func (v Version) model(cfg HMcodeConfig) (versionModel, error) {
	switch v {
	case Version2015:
		shape, err := cfg.Feedback.shape(cfg.CMin, cfg.Eta0)
		if err != nil {
			return nil, err
		}

		return model2015{shape: shape}, nil
	case Version2020:
		return model2020{}, nil
	case Version2020Unfitted:
		return model2020{unfitted: true}, nil
	case Version2020Baryonic:
		t := cfg.Log10THeat
		if !(t > 0) {
			return nil, core.Errorf(core.KindInconsistentConfig, "nonlinear.Version",
				"log10 T_heat must be > 0, got %g", t)
		}

		return model2020{log10THeat: &t}, nil
	default:
		return nil, core.Errorf(core.KindInconsistentConfig, "nonlinear.Version", "unknown HMcode version %d", int(v))
	}
}
