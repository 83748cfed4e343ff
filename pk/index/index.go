// Package index assigns the integer indices used by every power-spectrum
// table: one per spectrum type and one per ordered pair of initial
// conditions.
package index

import "github.com/cwbudde/algo-cosmo/pk/core"

// SpectrumType identifies a power-spectrum species.
type SpectrumType int

const (
	// Matter is the total matter spectrum.
	Matter SpectrumType = iota
	// ColdBaryon is the CDM+baryon spectrum.
	ColdBaryon
)

func (s SpectrumType) String() string {
	switch s {
	case Matter:
		return "m"
	case ColdBaryon:
		return "cb"
	default:
		return "unknown"
	}
}

// ICPair is an ordered pair of initial conditions with IC2 >= IC1.
type ICPair struct {
	IC1, IC2 int
	// Correlated is false for statistically uncorrelated pairs, which are
	// neither stored nor summed.
	Correlated bool
}

// Diagonal reports whether both members of the pair are the same IC.
func (p ICPair) Diagonal() bool { return p.IC1 == p.IC2 }

// Request lists what the collaborators make available.
type Request struct {
	HasPkM  bool
	HasPkCB bool
	ICSize  int
	// Correlated reports whether two distinct ICs are correlated. A nil
	// function treats every pair as correlated.
	Correlated func(ic1, ic2 int) bool
}

// Indices is the index assignment shared by all pipeline stages.
type Indices struct {
	PkM  int // -1 when the matter spectrum is not requested
	PkCB int // -1 when the CDM+baryon spectrum is not requested
	// PkTotal aliases the matter spectrum.
	PkTotal int
	// PkCluster is PkCB when present, PkM otherwise.
	PkCluster int
	PkSize    int

	ICSize int
	Pairs  []ICPair

	types []SpectrumType
}

// Build assigns indices for the requested spectrum types and enumerates the
// IC pairs in (ic1, ic2 >= ic1) order.
func Build(req Request) (*Indices, error) {
	const op = "index.Build"

	if !req.HasPkM && !req.HasPkCB {
		return nil, core.Errorf(core.KindInconsistentConfig, op, "no spectrum type requested")
	}

	if req.ICSize < 1 {
		return nil, core.Errorf(core.KindInvalidArgument, op, "initial condition count must be >= 1: %d", req.ICSize)
	}

	idx := &Indices{PkM: -1, PkCB: -1, ICSize: req.ICSize}

	if req.HasPkM {
		idx.PkM = idx.PkSize
		idx.types = append(idx.types, Matter)
		idx.PkSize++
	}

	if req.HasPkCB {
		idx.PkCB = idx.PkSize
		idx.types = append(idx.types, ColdBaryon)
		idx.PkSize++
	}

	idx.PkTotal = idx.PkM
	if idx.PkM < 0 {
		// Without total matter the CDM+baryon spectrum is the best proxy.
		idx.PkTotal = idx.PkCB
	}

	idx.PkCluster = idx.PkCB
	if idx.PkCB < 0 {
		idx.PkCluster = idx.PkM
	}

	idx.Pairs = make([]ICPair, 0, PairCount(req.ICSize))
	for i := 0; i < req.ICSize; i++ {
		for j := i; j < req.ICSize; j++ {
			correlated := i == j || req.Correlated == nil || req.Correlated(i, j)
			idx.Pairs = append(idx.Pairs, ICPair{IC1: i, IC2: j, Correlated: correlated})
		}
	}

	return idx, nil
}

// PairCount returns N(N+1)/2.
func PairCount(n int) int { return n * (n + 1) / 2 }

// PairIndex returns the position of the pair (ic1, ic2) in the canonical
// enumeration. The arguments may come in either order.
func PairIndex(ic1, ic2, n int) int {
	if ic1 > ic2 {
		ic1, ic2 = ic2, ic1
	}

	return ic1*n - ic1*(ic1-1)/2 + ic2 - ic1
}

// PairCount returns the number of IC pairs.
func (x *Indices) PairCount() int { return len(x.Pairs) }

// PairIndex returns the position of (ic1, ic2) in x.Pairs.
func (x *Indices) PairIndex(ic1, ic2 int) int { return PairIndex(ic1, ic2, x.ICSize) }

// Type returns the spectrum type stored at index i.
func (x *Indices) Type(i int) (SpectrumType, error) {
	if i < 0 || i >= x.PkSize {
		return 0, core.Errorf(core.KindInvalidArgument, "index.Type", "spectrum index %d outside [0,%d)", i, x.PkSize)
	}

	return x.types[i], nil
}

// Valid reports whether i is an assigned spectrum index.
func (x *Indices) Valid(i int) bool { return i >= 0 && i < x.PkSize }

// Has reports whether spectrum type s was requested.
func (x *Indices) Has(s SpectrumType) bool {
	switch s {
	case Matter:
		return x.PkM >= 0
	case ColdBaryon:
		return x.PkCB >= 0
	default:
		return false
	}
}
