package interp

import (
	"fmt"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

// TimeSplines returns the second derivatives of t along lnTau for every
// (type, k) column.
func TimeSplines(lnTau []float64, t *table.Table) (*table.Table, error) {
	types, taus, ks := t.Dims()
	if len(lnTau) != taus {
		return nil, core.Errorf(core.KindInvalidArgument, "interp.TimeSplines", "time grid has %d points, table %d", len(lnTau), taus)
	}

	dd, err := table.New(types, taus, ks)
	if err != nil {
		return nil, err
	}

	col := make([]float64, taus)
	ddCol := make([]float64, taus)
	scratch := make([]float64, taus)

	for typ := 0; typ < types; typ++ {
		for k := 0; k < ks; k++ {
			col = t.Column(col, typ, k)
			if err := SecondDerivativesTo(ddCol, lnTau, col, scratch); err != nil {
				return nil, fmt.Errorf("time spline (type=%d, k=%d): %w", typ, k, err)
			}

			dd.SetColumn(typ, k, ddCol)
		}
	}

	return dd, nil
}

// KSplines returns the second derivatives of t along lnK for every
// (type, tau) row.
func KSplines(lnK []float64, t *table.Table) (*table.Table, error) {
	types, taus, ks := t.Dims()
	if len(lnK) != ks {
		return nil, core.Errorf(core.KindInvalidArgument, "interp.KSplines", "k grid has %d points, table %d", len(lnK), ks)
	}

	dd, err := table.New(types, taus, ks)
	if err != nil {
		return nil, err
	}

	scratch := make([]float64, ks)
	for typ := 0; typ < types; typ++ {
		for tau := 0; tau < taus; tau++ {
			if err := SecondDerivativesTo(dd.Row(typ, tau), lnK, t.Row(typ, tau), scratch); err != nil {
				return nil, fmt.Errorf("k spline (type=%d, tau=%d): %w", typ, tau, err)
			}
		}
	}

	return dd, nil
}

// KSplinesIC is [KSplines] for a per-pair table.
func KSplinesIC(lnK []float64, t *table.ICTable) (*table.ICTable, error) {
	types, taus, ks, pairs := t.Dims()
	if len(lnK) != ks {
		return nil, core.Errorf(core.KindInvalidArgument, "interp.KSplinesIC", "k grid has %d points, table %d", len(lnK), ks)
	}

	dd, err := table.NewIC(types, taus, ks, pairs)
	if err != nil {
		return nil, err
	}

	row := make([]float64, ks)
	ddRow := make([]float64, ks)
	scratch := make([]float64, ks)

	for typ := 0; typ < types; typ++ {
		for tau := 0; tau < taus; tau++ {
			for p := 0; p < pairs; p++ {
				row = t.PairRow(row, typ, tau, p)
				if err := SecondDerivativesTo(ddRow, lnK, row, scratch); err != nil {
					return nil, fmt.Errorf("k spline (type=%d, tau=%d, pair=%d): %w", typ, tau, p, err)
				}

				for k, v := range ddRow {
					dd.Set(typ, tau, k, p, v)
				}
			}
		}
	}

	return dd, nil
}

// TimeSplinesIC is [TimeSplines] for a per-pair table.
func TimeSplinesIC(lnTau []float64, t *table.ICTable) (*table.ICTable, error) {
	types, taus, ks, pairs := t.Dims()
	if len(lnTau) != taus {
		return nil, core.Errorf(core.KindInvalidArgument, "interp.TimeSplinesIC", "time grid has %d points, table %d", len(lnTau), taus)
	}

	dd, err := table.NewIC(types, taus, ks, pairs)
	if err != nil {
		return nil, err
	}

	col := make([]float64, taus)
	ddCol := make([]float64, taus)
	scratch := make([]float64, taus)

	for typ := 0; typ < types; typ++ {
		for k := 0; k < ks; k++ {
			for p := 0; p < pairs; p++ {
				col = t.PairColumn(col, typ, k, p)
				if err := SecondDerivativesTo(ddCol, lnTau, col, scratch); err != nil {
					return nil, fmt.Errorf("time spline (type=%d, k=%d, pair=%d): %w", typ, k, p, err)
				}

				for tau, v := range ddCol {
					dd.Set(typ, tau, k, p, v)
				}
			}
		}
	}

	return dd, nil
}

// EvalRowAtTime writes the k-row of t at time lnTauQ into out. With dd nil
// the rows are interpolated linearly in ln(tau); a single-time table only
// answers at that time.
func EvalRowAtTime(lnTau []float64, t, dd *table.Table, typ int, lnTauQ float64, out []float64) error {
	_, taus, ks := t.Dims()
	if len(out) != ks {
		return core.Errorf(core.KindInvalidArgument, "interp.EvalRowAtTime", "output has %d cells, table rows %d", len(out), ks)
	}

	if taus == 1 {
		if !core.NearlyEqual(lnTau[0], lnTauQ, edgeTolerance) {
			return core.Errorf(core.KindOutOfRange, "interp.EvalRowAtTime", "ln(tau)=%g differs from the only stored time %g", lnTauQ, lnTau[0])
		}

		copy(out, t.Row(typ, 0))

		return nil
	}

	i, err := Locate(lnTau, lnTauQ)
	if err != nil {
		return err
	}

	lo, hi := t.Row(typ, i), t.Row(typ, i+1)
	h := lnTau[i+1] - lnTau[i]
	a := (lnTau[i+1] - lnTauQ) / h
	b := (lnTauQ - lnTau[i]) / h

	if dd == nil {
		for k := range out {
			out[k] = a*lo[k] + b*hi[k]
		}

		return nil
	}

	ddLo, ddHi := dd.Row(typ, i), dd.Row(typ, i+1)
	ca := (a*a*a - a) * h * h / 6
	cb := (b*b*b - b) * h * h / 6

	for k := range out {
		out[k] = a*lo[k] + b*hi[k] + ca*ddLo[k] + cb*ddHi[k]
	}

	return nil
}

// EvalPairsAtTime writes the per-pair k-rows of t at time lnTauQ into
// out[pair][k]. A nil dd selects linear interpolation.
func EvalPairsAtTime(lnTau []float64, t, dd *table.ICTable, typ int, lnTauQ float64, out [][]float64) error {
	_, taus, ks, pairs := t.Dims()
	if len(out) != pairs {
		return core.Errorf(core.KindInvalidArgument, "interp.EvalPairsAtTime", "output has %d pairs, table %d", len(out), pairs)
	}

	if taus == 1 {
		if !core.NearlyEqual(lnTau[0], lnTauQ, edgeTolerance) {
			return core.Errorf(core.KindOutOfRange, "interp.EvalPairsAtTime", "ln(tau)=%g differs from the only stored time %g", lnTauQ, lnTau[0])
		}

		for p := range out {
			for k := 0; k < ks; k++ {
				out[p][k] = t.At(typ, 0, k, p)
			}
		}

		return nil
	}

	i, err := Locate(lnTau, lnTauQ)
	if err != nil {
		return err
	}

	h := lnTau[i+1] - lnTau[i]
	a := (lnTau[i+1] - lnTauQ) / h
	b := (lnTauQ - lnTau[i]) / h
	ca := (a*a*a - a) * h * h / 6
	cb := (b*b*b - b) * h * h / 6

	for p := range out {
		if len(out[p]) != ks {
			return core.Errorf(core.KindInvalidArgument, "interp.EvalPairsAtTime", "pair %d output has %d cells, want %d", p, len(out[p]), ks)
		}

		for k := 0; k < ks; k++ {
			v := a*t.At(typ, i, k, p) + b*t.At(typ, i+1, k, p)
			if dd != nil {
				v += ca*dd.At(typ, i, k, p) + cb*dd.At(typ, i+1, k, p)
			}

			out[p][k] = v
		}
	}

	return nil
}
