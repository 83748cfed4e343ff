// Package linear assembles linear matter power spectra from the transfer
// sources and the primordial spectrum.
//
// For every spectrum type, output time and native wavenumber the assembler
// stores, per pair of initial conditions:
//
//   - diagonal pairs: ln P_ii = ln(2π²/k³ · S_i² · P_R,ii)
//   - correlated off-diagonal pairs: the cosine P_ij/√(P_ii P_jj), clamped
//     to [-1, 1]
//   - uncorrelated pairs: zero
//
// and the log of the total P = Σ P_ii + 2 Σ_{i<j} P_ij.
package linear

import (
	"math"

	"github.com/cwbudde/algo-cosmo/cosmology"
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/grid"
	"github.com/cwbudde/algo-cosmo/pk/index"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

// Input collects what the assembler reads.
type Input struct {
	Perturbations cosmology.Perturbations
	Primordial    cosmology.Primordial
	Indices       *index.Indices
	KGrid         *grid.KGrid
	TauGrid       *grid.TauGrid
}

// Result holds the native-k linear tables.
type Result struct {
	// LnPk is the log of the total spectrum, shape (types, taus, native k).
	LnPk *table.Table
	// LnPkIC holds the per-pair values, shape (types, taus, native k, pairs).
	LnPkIC *table.ICTable
}

// SourceFor maps a spectrum type to the transfer source it is built from.
func SourceFor(t index.SpectrumType) cosmology.SourceType {
	if t == index.ColdBaryon {
		return cosmology.SourceDeltaCB
	}

	return cosmology.SourceDeltaM
}

// PowerFromTransfer returns 2π²/k³ · δ² · P_R.
func PowerFromTransfer(k, delta, primordial float64) float64 {
	return 2 * math.Pi * math.Pi / (k * k * k) * delta * delta * primordial
}

// TransferFromPower inverts [PowerFromTransfer] for the amplitude |δ|.
func TransferFromPower(k, pk, primordial float64) float64 {
	return math.Sqrt(pk * k * k * k / (2 * math.Pi * math.Pi * primordial))
}

// Assemble builds the native linear tables.
func Assemble(in Input) (*Result, error) {
	const op = "linear.Assemble"

	idx, kg, tg := in.Indices, in.KGrid, in.TauGrid
	if idx == nil || kg == nil || tg == nil || in.Perturbations == nil || in.Primordial == nil {
		return nil, core.Errorf(core.KindInvalidArgument, op, "incomplete input")
	}

	if in.Perturbations.ICSize() != idx.ICSize || in.Primordial.ICSize() != idx.ICSize {
		return nil, core.Errorf(core.KindInconsistentConfig, op,
			"initial condition count mismatch: indices %d, perturbations %d, primordial %d",
			idx.ICSize, in.Perturbations.ICSize(), in.Primordial.ICSize())
	}

	nk, nt, npairs := kg.NativeSize, tg.Size(), idx.PairCount()

	lnPk, err := table.New(idx.PkSize, nt, nk)
	if err != nil {
		return nil, err
	}

	lnPkIC, err := table.NewIC(idx.PkSize, nt, nk, npairs)
	if err != nil {
		return nil, err
	}

	// primordial spectra depend on k only
	prim := make([]float64, nk*npairs)
	for ik := range nk {
		for ip, pair := range idx.Pairs {
			if !pair.Correlated {
				continue
			}

			v, err := in.Primordial.Spectrum(kg.K[ik], pair.IC1, pair.IC2)
			if err != nil {
				return nil, core.Wrap(core.KindInvalidArgument, op, err)
			}

			prim[ik*npairs+ip] = v
		}
	}

	src := make([]float64, idx.ICSize)

	for typ := range idx.PkSize {
		st, err := idx.Type(typ)
		if err != nil {
			return nil, err
		}

		source := SourceFor(st)
		if !in.Perturbations.HasSource(source) {
			return nil, core.Errorf(core.KindInconsistentConfig, op, "missing source %v for spectrum %v", source, st)
		}

		for it := range nt {
			for ik := range nk {
				k := kg.K[ik]

				for ic := range idx.ICSize {
					s, err := in.Perturbations.Source(source, ic, tg.Offset+it, ik)
					if err != nil {
						return nil, core.Wrap(core.KindInconsistentConfig, op, err)
					}

					src[ic] = s
				}

				pairs := lnPkIC.Pairs(typ, it, ik)
				if err := fillPairs(idx, k, src, prim[ik*npairs:(ik+1)*npairs], pairs); err != nil {
					return nil, core.Errorf(core.KindInvalidArgument, op, "%v at type %v, tau index %d, k=%g", err, st, it, k)
				}

				total, err := Total(idx, pairs)
				if err != nil {
					return nil, core.Errorf(core.KindInvalidArgument, op, "%v at type %v, tau index %d, k=%g", err, st, it, k)
				}

				lnPk.Set(typ, it, ik, total)
			}
		}
	}

	return &Result{LnPk: lnPk, LnPkIC: lnPkIC}, nil
}

type powerError string

func (e powerError) Error() string { return string(e) }

const (
	errDiagonal = powerError("non-positive diagonal power")
	errTotal    = powerError("non-positive total power")
)

func fillPairs(idx *index.Indices, k float64, src, prim, out []float64) error {
	for ip, pair := range idx.Pairs {
		if !pair.Diagonal() {
			continue
		}

		p := PowerFromTransfer(k, src[pair.IC1], prim[ip])
		if !(p > 0) || math.IsInf(p, 0) {
			return errDiagonal
		}

		out[ip] = math.Log(p)
	}

	for ip, pair := range idx.Pairs {
		if pair.Diagonal() {
			continue
		}

		if !pair.Correlated {
			out[ip] = 0
			continue
		}

		auto1 := prim[idx.PairIndex(pair.IC1, pair.IC1)]
		auto2 := prim[idx.PairIndex(pair.IC2, pair.IC2)]

		c := prim[ip] / math.Sqrt(auto1*auto2)
		if src[pair.IC1]*src[pair.IC2] < 0 {
			c = -c
		}

		out[ip] = core.Clamp(c, -1, 1)
	}

	return nil
}

// Total combines per-pair values (ln P_ii on the diagonal, cosines off it)
// into ln of the total spectrum.
func Total(idx *index.Indices, pairs []float64) (float64, error) {
	var sum float64

	for ip, pair := range idx.Pairs {
		switch {
		case pair.Diagonal():
			sum += math.Exp(pairs[ip])
		case pair.Correlated:
			d1 := pairs[idx.PairIndex(pair.IC1, pair.IC1)]
			d2 := pairs[idx.PairIndex(pair.IC2, pair.IC2)]
			sum += 2 * pairs[ip] * math.Exp(0.5*(d1+d2))
		}
	}

	if !(sum > 0) {
		return 0, errTotal
	}

	return math.Log(sum), nil
}
