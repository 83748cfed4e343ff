package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-cosmo/pk/sigma"
)

func newSigmaCmd(root *rootOptions) *cobra.Command {
	var (
		radii []float64
		zs    []float64
	)

	cmd := &cobra.Command{
		Use:   "sigma",
		Short: "Print σ(R,z) and dσ/dR of the linear matter spectrum",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer ctx.Close()

			typ := ctx.Indices().PkM

			s8, err := ctx.Sigma8(typ)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "sigma8 = %.5f\n\n", s8)

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "z\tR [Mpc]\tsigma\tdsigma/dR [1/Mpc]")

			for _, z := range zs {
				for _, r := range radii {
					s, err := ctx.SigmasAtZ(r, z, typ, sigma.Sigma)
					if err != nil {
						return err
					}

					ds, err := ctx.SigmasAtZ(r, z, typ, sigma.SigmaPrime)
					if err != nil {
						return err
					}

					fmt.Fprintf(tw, "%g\t%g\t%.6f\t%.6e\n", z, r, s, ds)
				}
			}

			return tw.Flush()
		},
	}

	cmd.Flags().Float64SliceVar(&radii, "r", []float64{8, 16, 32}, "radii [Mpc]")
	cmd.Flags().Float64SliceVar(&zs, "z", []float64{0}, "redshifts")

	return cmd
}
