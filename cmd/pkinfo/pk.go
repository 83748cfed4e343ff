package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/fourier"
)

func newPkCmd(root *rootOptions) *cobra.Command {
	var (
		zs     []float64
		output string
		kMin   float64
		kMax   float64
		points int
		cb     bool
	)

	cmd := &cobra.Command{
		Use:   "pk",
		Short: "Print P(k,z) on a log-spaced k grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := fourier.ParseOutput(output)
			if err != nil {
				return err
			}

			if points < 2 || !(kMin > 0) || kMax <= kMin {
				return fmt.Errorf("pk: need at least 2 points in 0 < k_min < k_max, got %d in [%g, %g]", points, kMin, kMax)
			}

			ctx, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer ctx.Close()

			ks := core.LogSpace(kMin, kMax, points)

			m, c, err := ctx.PksAtKVecAndZVec(out, ks, zs)
			if err != nil {
				return err
			}

			grid := m
			if cb {
				if c == nil {
					return fmt.Errorf("pk: no CDM+baryon spectrum for %v output", out)
				}

				grid = c
			}

			if grid == nil {
				return fmt.Errorf("pk: no total-matter spectrum for %v output", out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprint(tw, "k [1/Mpc]")
			for _, z := range zs {
				fmt.Fprintf(tw, "\tP(z=%g) [Mpc^3]", z)
			}
			fmt.Fprintln(tw)

			for ik, k := range ks {
				fmt.Fprintf(tw, "%.6e", k)
				for iz := range zs {
					fmt.Fprintf(tw, "\t%.6e", grid[iz][ik])
				}
				fmt.Fprintln(tw)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().Float64SliceVar(&zs, "z", []float64{0}, "redshifts")
	cmd.Flags().StringVar(&output, "output", "linear", "linear, nonlinear, numerical_nowiggle or analytic_nowiggle")
	cmd.Flags().Float64Var(&kMin, "kmin", 1e-3, "smallest wavenumber [1/Mpc]")
	cmd.Flags().Float64Var(&kMax, "kmax", 1, "largest wavenumber [1/Mpc]")
	cmd.Flags().IntVar(&points, "points", 16, "number of wavenumbers")
	cmd.Flags().BoolVar(&cb, "cb", false, "print the CDM+baryon spectrum")

	return cmd
}
