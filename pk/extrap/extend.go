package extrap

import (
	"math"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/grid"
	"github.com/cwbudde/algo-cosmo/pk/index"
	"github.com/cwbudde/algo-cosmo/pk/linear"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

// Input collects what [Extend] reads.
type Input struct {
	Linear     *linear.Result
	Indices    *index.Indices
	KGrid      *grid.KGrid
	Primordial cosmology.Primordial
	Law        Law
}

// Extend returns the linear tables over the full k grid: the native values
// followed by the continued ones.
func Extend(in Input) (*linear.Result, error) {
	const op = "extrap.Extend"

	if in.Linear == nil || in.Indices == nil || in.KGrid == nil || in.Primordial == nil || in.Law == nil {
		return nil, core.Errorf(core.KindInvalidArgument, op, "incomplete input")
	}

	kg, idx := in.KGrid, in.Indices
	types, taus, nNative, npairs := in.Linear.LnPkIC.Dims()

	if nNative != kg.NativeSize {
		return nil, core.Errorf(core.KindInvalidArgument, op, "table has %d wavenumbers, grid %d", nNative, kg.NativeSize)
	}

	if nNative < 2 {
		return nil, core.Errorf(core.KindInvalidArgument, op, "need at least 2 native wavenumbers")
	}

	if kg.ExtraSize() > 0 && in.Law.Method() == Zero {
		return nil, core.Errorf(core.KindInconsistentConfig, op,
			"zero extrapolation cannot fill %d extension points of a log-power table", kg.ExtraSize())
	}

	nk := kg.Size()

	lnPk, err := table.New(types, taus, nk)
	if err != nil {
		return nil, err
	}

	lnPkIC, err := table.NewIC(types, taus, nk, npairs)
	if err != nil {
		return nil, err
	}

	// auto spectra at the two last native points and over the extension
	prim := make([]float64, (kg.ExtraSize()+2)*idx.ICSize)
	for j := range kg.ExtraSize() + 2 {
		k := kg.K[nNative-2+j]
		for ic := range idx.ICSize {
			v, err := in.Primordial.Spectrum(k, ic, ic)
			if err != nil {
				return nil, core.Wrap(core.KindInvalidArgument, op, err)
			}

			prim[j*idx.ICSize+ic] = v
		}
	}

	lnStep := kg.LnK[nNative-1] - kg.LnK[nNative-2]

	for typ := range types {
		for it := range taus {
			for ik := range nNative {
				copy(lnPkIC.Pairs(typ, it, ik), in.Linear.LnPkIC.Pairs(typ, it, ik))
				lnPk.Set(typ, it, ik, in.Linear.LnPk.At(typ, it, ik))
			}

			last := in.Linear.LnPkIC.Pairs(typ, it, nNative-1)
			prev := in.Linear.LnPkIC.Pairs(typ, it, nNative-2)

			for ip, pair := range idx.Pairs {
				if !pair.Diagonal() {
					for ik := nNative; ik < nk; ik++ {
						lnPkIC.Set(typ, it, ik, ip, last[ip])
					}

					continue
				}

				ic := pair.IC1
				d0 := linear.TransferFromPower(kg.K[nNative-2], math.Exp(prev[ip]), prim[ic])
				d1 := linear.TransferFromPower(kg.K[nNative-1], math.Exp(last[ip]), prim[idx.ICSize+ic])

				b := Boundary{KMax: kg.KMax(), Delta: d1, Slope: (d1 - d0) / lnStep}

				for ik := nNative; ik < nk; ik++ {
					k := kg.K[ik]

					delta := in.Law.Extend(b, k)
					if !(delta > 0) || math.IsInf(delta, 0) {
						return nil, core.Errorf(core.KindInconsistentConfig, op,
							"%v law gives amplitude %g at k=%g", in.Law.Method(), delta, k)
					}

					p := prim[(ik-nNative+2)*idx.ICSize+ic]
					lnPkIC.Set(typ, it, ik, ip, math.Log(linear.PowerFromTransfer(k, delta, p)))
				}
			}

			for ik := nNative; ik < nk; ik++ {
				total, err := linear.Total(idx, lnPkIC.Pairs(typ, it, ik))
				if err != nil {
					return nil, core.Errorf(core.KindInvalidArgument, op, "%v at k=%g", err, kg.K[ik])
				}

				lnPk.Set(typ, it, ik, total)
			}
		}
	}

	return &linear.Result{LnPk: lnPk, LnPkIC: lnPkIC}, nil
}
