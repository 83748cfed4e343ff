package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newKNLCmd(root *rootOptions) *cobra.Command {
	var zs []float64

	cmd := &cobra.Command{
		Use:   "knl",
		Short: "Print the nonlinear wavenumber k_nl(z)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer ctx.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "z\tk_nl [1/Mpc]\tk_nl,cb [1/Mpc]\t(%v)\n", ctx.Method())

			for _, z := range zs {
				m, cb, err := ctx.KNLAtZ(z)
				if err != nil {
					return err
				}

				fmt.Fprintf(tw, "%g\t%.6g\t%.6g\t\n", z, m, cb)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().Float64SliceVar(&zs, "z", []float64{0}, "redshifts")

	return cmd
}
