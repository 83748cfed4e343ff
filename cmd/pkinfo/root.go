package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-cosmo/config"
	"github.com/cwbudde/algo-cosmo/pk/fourier"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pkinfo",
		Short:         "Matter power spectrum tables",
		Long:          "pkinfo builds linear and nonlinear matter power spectra for a configured cosmology and prints P(k,z), σ(R,z) and k_nl(z).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (TOML, YAML or JSON)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline stages")

	cmd.AddCommand(
		newPkCmd(opts),
		newSigmaCmd(opts),
		newKNLCmd(opts),
		newConfigCmd(),
	)

	return cmd
}

// open loads the configuration and runs the pipeline.
func (o *rootOptions) open(cmd *cobra.Command) (*fourier.Context, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts, err := cfg.Options(logger)
	if err != nil {
		return nil, err
	}

	collab, err := cfg.Collaborators()
	if err != nil {
		return nil, err
	}

	ctx, err := fourier.New(collab, opts...)
	if err != nil {
		return nil, err
	}

	return ctx, nil
}
