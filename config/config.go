// Package config loads the engine configuration from TOML, YAML or JSON
// files and COSMO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. COSMO_METHOD or
// COSMO_COSMOLOGY_H.
const EnvPrefix = "COSMO"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Cosmology holds the parameters of the reference collaborators.
type Cosmology struct {
	H        float64 `mapstructure:"h" toml:"h" validate:"gt=0,lt=2"`
	TCMB     float64 `mapstructure:"t_cmb" toml:"t_cmb" validate:"gt=0"`
	OmegaB   float64 `mapstructure:"omega_b" toml:"omega_b" validate:"gt=0,lt=1"`
	OmegaCDM float64 `mapstructure:"omega_cdm" toml:"omega_cdm" validate:"gte=0,lt=1"`
	OmegaNu  float64 `mapstructure:"omega_nu" toml:"omega_nu" validate:"gte=0,lt=1"`
	MNu      float64 `mapstructure:"m_nu" toml:"m_nu" validate:"gte=0"`
	NEff     float64 `mapstructure:"n_eff" toml:"n_eff" validate:"gte=0"`
	W0       float64 `mapstructure:"w0" toml:"w0"`
	Wa       float64 `mapstructure:"wa" toml:"wa"`

	As float64 `mapstructure:"a_s" toml:"a_s" validate:"gt=0"`
	Ns float64 `mapstructure:"n_s" toml:"n_s" validate:"gt=0"`

	KMin       float64 `mapstructure:"k_min" toml:"k_min" validate:"gt=0,ltfield=KMax"`
	KMax       float64 `mapstructure:"k_max" toml:"k_max" validate:"gt=0"`
	KPerDecade float64 `mapstructure:"k_per_decade" toml:"k_per_decade" validate:"gt=0"`
	ZStart     float64 `mapstructure:"z_start" toml:"z_start" validate:"gte=0"`
	TimeSteps  int     `mapstructure:"time_steps" toml:"time_steps" validate:"gte=1"`
	ColdSource bool    `mapstructure:"cold_source" toml:"cold_source"`
}

// Fourier holds the recognized engine keys.
type Fourier struct {
	Method              string  `mapstructure:"method" toml:"method" validate:"oneof=none halofit hmcode"`
	ExtrapolationMethod string  `mapstructure:"extrapolation_method" toml:"extrapolation_method" validate:"oneof=zero only_max only_max_units max_scaled hmcode"`
	Feedback            string  `mapstructure:"feedback" toml:"feedback" validate:"oneof=emu_dmonly owls_dmonly owls_ref owls_agn owls_dblim user_defined"`
	HMcodeVersion       string  `mapstructure:"hmcode_version" toml:"hmcode_version" validate:"oneof=2015 2020 2020_unfitted 2020_baryonic"`
	CMin                float64 `mapstructure:"c_min" toml:"c_min" validate:"required_if=Feedback user_defined,omitempty,gt=0"`
	Eta0                float64 `mapstructure:"eta_0" toml:"eta_0" validate:"required_if=Feedback user_defined,omitempty,gt=0"`
	ZInfinity           float64 `mapstructure:"z_infinity" toml:"z_infinity" validate:"gt=0"`
	NKWiggle            int     `mapstructure:"nk_wiggle" toml:"nk_wiggle" validate:"gte=3"`
	Log10THeat          float64 `mapstructure:"log10t_heat" toml:"log10T_heat" validate:"gt=0"`

	HasPkAnalyticNoWiggle  bool   `mapstructure:"has_pk_analytic_nowiggle" toml:"has_pk_analytic_nowiggle"`
	HasPkNumericalNoWiggle bool   `mapstructure:"has_pk_numerical_nowiggle" toml:"has_pk_numerical_nowiggle"`
	HasPkCB                bool   `mapstructure:"has_pk_cb" toml:"has_pk_cb"`
	HasPkEq                string `mapstructure:"has_pk_eq" toml:"has_pk_eq" validate:"oneof=auto true false yes no on off 1 0"`

	ZMaxPk                 float64 `mapstructure:"z_max_pk" toml:"z_max_pk" validate:"gte=0"`
	ZMaxNonlinear          float64 `mapstructure:"z_max_nonlinear" toml:"z_max_nonlinear" validate:"gte=0"`
	KMaxExtraFactor        float64 `mapstructure:"k_max_extra_factor" toml:"k_max_extra_factor" validate:"gte=1"`
	MaxExtrapolationPoints int     `mapstructure:"max_extrapolation_points" toml:"max_extrapolation_points" validate:"gt=0"`
	SigmaKPerDecade        float64 `mapstructure:"sigma_k_per_decade" toml:"sigma_k_per_decade" validate:"gt=0"`

	HalofitKPerDecade    float64 `mapstructure:"halofit_k_per_decade" toml:"halofit_k_per_decade" validate:"gt=0"`
	HalofitTolSigma      float64 `mapstructure:"halofit_tol_sigma" toml:"halofit_tol_sigma" validate:"gt=0"`
	HalofitMaxIterations int     `mapstructure:"halofit_max_iterations" toml:"halofit_max_iterations" validate:"gt=0"`

	NoWiggleSmoothing  float64 `mapstructure:"nowiggle_smoothing" toml:"nowiggle_smoothing" validate:"gt=0"`
	NoWiggleTaper      string  `mapstructure:"nowiggle_taper" toml:"nowiggle_taper" validate:"oneof=hann tukey welch"`
	NoWiggleTaperAlpha float64 `mapstructure:"nowiggle_taper_alpha" toml:"nowiggle_taper_alpha" validate:"gt=0,lte=1"`
}

// Config is the whole configuration: the engine keys at the top level and
// the reference cosmology in its own table.
type Config struct {
	Fourier   `mapstructure:",squash"`
	Cosmology Cosmology `mapstructure:"cosmology" toml:"cosmology"`
}

// Default returns the built-in configuration: linear output today for a
// Planck-2018-like flat ΛCDM cosmology.
func Default() Config {
	return Config{
		Fourier: Fourier{
			Method:                 "none",
			ExtrapolationMethod:    "max_scaled",
			Feedback:               "emu_dmonly",
			HMcodeVersion:          "2015",
			ZInfinity:              10,
			NKWiggle:               512,
			Log10THeat:             7.8,
			HasPkCB:                true,
			HasPkEq:                "auto",
			ZMaxNonlinear:          math.Inf(1),
			KMaxExtraFactor:        50,
			MaxExtrapolationPoints: 100000,
			SigmaKPerDecade:        80,
			HalofitKPerDecade:      80,
			HalofitTolSigma:        1e-6,
			HalofitMaxIterations:   100,
			NoWiggleSmoothing:      0.25,
			NoWiggleTaper:          "hann",
			NoWiggleTaperAlpha:     0.5,
		},
		Cosmology: Cosmology{
			H:          0.6736,
			TCMB:       2.7255,
			OmegaB:     0.0493,
			OmegaCDM:   0.2645,
			NEff:       3.046,
			W0:         -1,
			As:         2.1e-9,
			Ns:         0.9649,
			KMin:       1e-4,
			KMax:       5,
			KPerDecade: 30,
			ZStart:     50,
			TimeSteps:  40,
		},
	}
}

var validate = validator.New()

// Validate checks c field by field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Cosmology.OmegaB+c.Cosmology.OmegaCDM+c.Cosmology.OmegaNu >= 1 {
		return fmt.Errorf("%w: matter density %g leaves no room for dark energy", ErrInvalid,
			c.Cosmology.OmegaB+c.Cosmology.OmegaCDM+c.Cosmology.OmegaNu)
	}

	return nil
}

// Load reads path, when not empty, over the defaults, applies COSMO_*
// environment overrides and validates the result. The file format follows
// the extension.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	f, c := d.Fourier, d.Cosmology

	for key, val := range map[string]any{
		"method":                    f.Method,
		"extrapolation_method":      f.ExtrapolationMethod,
		"feedback":                  f.Feedback,
		"hmcode_version":            f.HMcodeVersion,
		"c_min":                     f.CMin,
		"eta_0":                     f.Eta0,
		"z_infinity":                f.ZInfinity,
		"nk_wiggle":                 f.NKWiggle,
		"log10t_heat":               f.Log10THeat,
		"has_pk_analytic_nowiggle":  f.HasPkAnalyticNoWiggle,
		"has_pk_numerical_nowiggle": f.HasPkNumericalNoWiggle,
		"has_pk_cb":                 f.HasPkCB,
		"has_pk_eq":                 f.HasPkEq,
		"z_max_pk":                  f.ZMaxPk,
		"z_max_nonlinear":           f.ZMaxNonlinear,
		"k_max_extra_factor":        f.KMaxExtraFactor,
		"max_extrapolation_points":  f.MaxExtrapolationPoints,
		"sigma_k_per_decade":        f.SigmaKPerDecade,
		"halofit_k_per_decade":      f.HalofitKPerDecade,
		"halofit_tol_sigma":         f.HalofitTolSigma,
		"halofit_max_iterations":    f.HalofitMaxIterations,
		"nowiggle_smoothing":        f.NoWiggleSmoothing,
		"nowiggle_taper":            f.NoWiggleTaper,
		"nowiggle_taper_alpha":      f.NoWiggleTaperAlpha,

		"cosmology.h":            c.H,
		"cosmology.t_cmb":        c.TCMB,
		"cosmology.omega_b":      c.OmegaB,
		"cosmology.omega_cdm":    c.OmegaCDM,
		"cosmology.omega_nu":     c.OmegaNu,
		"cosmology.m_nu":         c.MNu,
		"cosmology.n_eff":        c.NEff,
		"cosmology.w0":           c.W0,
		"cosmology.wa":           c.Wa,
		"cosmology.a_s":          c.As,
		"cosmology.n_s":          c.Ns,
		"cosmology.k_min":        c.KMin,
		"cosmology.k_max":        c.KMax,
		"cosmology.k_per_decade": c.KPerDecade,
		"cosmology.z_start":      c.ZStart,
		"cosmology.time_steps":   c.TimeSteps,
		"cosmology.cold_source":  c.ColdSource,
	} {
		v.SetDefault(key, val)
	}
}

// Encode writes c as TOML.
func Encode(w io.Writer, c Config) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	return nil
}

// WriteDefault writes the default configuration as TOML to path.
func WriteDefault(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := Encode(f, Default()); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
