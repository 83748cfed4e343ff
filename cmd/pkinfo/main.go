// Command pkinfo prints matter power spectra, σ(R) and k_nl for a
// configured cosmology.
//
// Usage:
//
//	pkinfo [--config file] [--verbose] <command> [flags]
//
// Examples:
//
//	pkinfo pk --z 0,1 --output nonlinear
//	pkinfo sigma --r 8,16 --z 0
//	pkinfo knl --z 0,0.5
//	pkinfo config init cosmo.toml
//	COSMO_METHOD=halofit pkinfo knl
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
