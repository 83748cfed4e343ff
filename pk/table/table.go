// Package table provides the dense multi-dimensional containers holding
// power-spectrum data. Dimensions are named and every accessor is bounds
// checked; the canonical iteration order is spectrum type, then time, then
// wavenumber (then IC pair for [ICTable]).
package table

import (
	"fmt"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// maxCells caps a single table at 2^30 float64 cells.
const maxCells = 1 << 30

// Table holds one float64 per (type, tau, k).
type Table struct {
	types, taus, ks int
	data            []float64
}

// New allocates a zeroed table.
func New(types, taus, ks int) (*Table, error) {
	if err := checkShape("table.New", types, taus, ks, 1); err != nil {
		return nil, err
	}

	return &Table{
		types: types,
		taus:  taus,
		ks:    ks,
		data:  make([]float64, types*taus*ks),
	}, nil
}

// NewFilled allocates a table with every cell set to v.
func NewFilled(types, taus, ks int, v float64) (*Table, error) {
	t, err := New(types, taus, ks)
	if err != nil {
		return nil, err
	}

	for i := range t.data {
		t.data[i] = v
	}

	return t, nil
}

// Dims returns the (type, tau, k) extents.
func (t *Table) Dims() (types, taus, ks int) { return t.types, t.taus, t.ks }

// Len returns the number of cells.
func (t *Table) Len() int { return len(t.data) }

func (t *Table) offset(typ, tau, k int) int {
	if typ < 0 || typ >= t.types || tau < 0 || tau >= t.taus || k < 0 || k >= t.ks {
		panic(fmt.Sprintf("table: index (type=%d, tau=%d, k=%d) out of range (%d, %d, %d)",
			typ, tau, k, t.types, t.taus, t.ks))
	}

	return (typ*t.taus+tau)*t.ks + k
}

// At returns the value at (typ, tau, k). It panics on an out-of-range index.
func (t *Table) At(typ, tau, k int) float64 { return t.data[t.offset(typ, tau, k)] }

// Set stores v at (typ, tau, k). It panics on an out-of-range index.
func (t *Table) Set(typ, tau, k int, v float64) { t.data[t.offset(typ, tau, k)] = v }

// Lookup is At with an error instead of a panic.
func (t *Table) Lookup(typ, tau, k int) (float64, error) {
	if typ < 0 || typ >= t.types || tau < 0 || tau >= t.taus || k < 0 || k >= t.ks {
		return 0, core.Errorf(core.KindInvalidArgument, "table.Lookup",
			"index (type=%d, tau=%d, k=%d) outside (%d, %d, %d)", typ, tau, k, t.types, t.taus, t.ks)
	}

	return t.data[(typ*t.taus+tau)*t.ks+k], nil
}

// Row returns the k-row at (typ, tau) as a view into the table.
func (t *Table) Row(typ, tau int) []float64 {
	start := t.offset(typ, tau, 0)
	return t.data[start : start+t.ks : start+t.ks]
}

// Column copies the tau-column at (typ, k) into dst and returns it.
// dst is grown when shorter than the time extent.
func (t *Table) Column(dst []float64, typ, k int) []float64 {
	if cap(dst) < t.taus {
		dst = make([]float64, t.taus)
	}

	dst = dst[:t.taus]
	for tau := range dst {
		dst[tau] = t.data[t.offset(typ, tau, k)]
	}

	return dst
}

// SetColumn stores src along tau at (typ, k).
func (t *Table) SetColumn(typ, k int, src []float64) {
	if len(src) != t.taus {
		panic(fmt.Sprintf("table: column length %d, want %d", len(src), t.taus))
	}

	for tau, v := range src {
		t.data[t.offset(typ, tau, k)] = v
	}
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := *t
	c.data = append([]float64(nil), t.data...)

	return &c
}

// ICTable holds one float64 per (type, tau, k, IC pair).
type ICTable struct {
	types, taus, ks, pairs int
	data                   []float64
}

// NewIC allocates a zeroed per-pair table.
func NewIC(types, taus, ks, pairs int) (*ICTable, error) {
	if err := checkShape("table.NewIC", types, taus, ks, pairs); err != nil {
		return nil, err
	}

	return &ICTable{
		types: types,
		taus:  taus,
		ks:    ks,
		pairs: pairs,
		data:  make([]float64, types*taus*ks*pairs),
	}, nil
}

// Dims returns the (type, tau, k, pair) extents.
func (t *ICTable) Dims() (types, taus, ks, pairs int) { return t.types, t.taus, t.ks, t.pairs }

func (t *ICTable) offset(typ, tau, k, pair int) int {
	if typ < 0 || typ >= t.types || tau < 0 || tau >= t.taus || k < 0 || k >= t.ks || pair < 0 || pair >= t.pairs {
		panic(fmt.Sprintf("table: index (type=%d, tau=%d, k=%d, pair=%d) out of range (%d, %d, %d, %d)",
			typ, tau, k, pair, t.types, t.taus, t.ks, t.pairs))
	}

	return ((typ*t.taus+tau)*t.ks+k)*t.pairs + pair
}

// At returns the value at (typ, tau, k, pair).
func (t *ICTable) At(typ, tau, k, pair int) float64 { return t.data[t.offset(typ, tau, k, pair)] }

// Set stores v at (typ, tau, k, pair).
func (t *ICTable) Set(typ, tau, k, pair int, v float64) { t.data[t.offset(typ, tau, k, pair)] = v }

// Pairs returns the pair values at (typ, tau, k) as a view.
func (t *ICTable) Pairs(typ, tau, k int) []float64 {
	start := t.offset(typ, tau, k, 0)
	return t.data[start : start+t.pairs : start+t.pairs]
}

// PairRow copies the k-row of one pair at (typ, tau) into dst.
func (t *ICTable) PairRow(dst []float64, typ, tau, pair int) []float64 {
	if cap(dst) < t.ks {
		dst = make([]float64, t.ks)
	}

	dst = dst[:t.ks]
	for k := range dst {
		dst[k] = t.data[t.offset(typ, tau, k, pair)]
	}

	return dst
}

// PairColumn copies the tau-column of one pair at (typ, k) into dst.
func (t *ICTable) PairColumn(dst []float64, typ, k, pair int) []float64 {
	if cap(dst) < t.taus {
		dst = make([]float64, t.taus)
	}

	dst = dst[:t.taus]
	for tau := range dst {
		dst[tau] = t.data[t.offset(typ, tau, k, pair)]
	}

	return dst
}

func checkShape(op string, dims ...int) error {
	cells := 1
	for _, d := range dims {
		if d <= 0 {
			return core.Errorf(core.KindAllocation, op, "table extents must be > 0: %v", dims)
		}

		if cells > maxCells/d {
			return core.Errorf(core.KindAllocation, op, "table too large: %v", dims)
		}

		cells *= d
	}

	return nil
}
