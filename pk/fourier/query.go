package fourier

import (
	"math"
	"strings"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/extrap"
	"github.com/cwbudde/algo-cosmo/pk/interp"
	"github.com/cwbudde/algo-cosmo/pk/linear"
	"github.com/cwbudde/algo-cosmo/pk/nonlinear"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

// Output selects a spectrum.
type Output int

const (
	PkLinear Output = iota
	PkNonlinear
	PkNumericalNoWiggle
	PkAnalyticNoWiggle
)

func (o Output) String() string {
	switch o {
	case PkLinear:
		return "linear"
	case PkNonlinear:
		return "nonlinear"
	case PkNumericalNoWiggle:
		return "numerical_nowiggle"
	case PkAnalyticNoWiggle:
		return "analytic_nowiggle"
	default:
		return "unknown"
	}
}

// ParseOutput returns the output with the given name.
func ParseOutput(s string) (Output, error) {
	for _, o := range []Output{PkLinear, PkNonlinear, PkNumericalNoWiggle, PkAnalyticNoWiggle} {
		if o.String() == strings.ToLower(strings.TrimSpace(s)) {
			return o, nil
		}
	}

	return 0, core.Errorf(core.KindInvalidArgument, "fourier.ParseOutput", "unknown output %q", s)
}

// Mode selects linear or logarithmic values in [Context.PkAtZ].
type Mode int

const (
	Linear Mode = iota
	Logarithmic
)

// zTolerance absorbs round-off of the time-redshift mapping at the edges.
const zTolerance = 1e-10

// tiltStep is the ln-k step of finite differences of the primordial
// spectrum.
const tiltStep = 1e-3

// Spectrum is one spectrum on the native wavenumbers.
type Spectrum struct {
	K  []float64
	Pk []float64
	// PkIC holds per initial-condition pair values of linear output,
	// indexed like Indices().Pairs. In Linear mode the diagonal holds
	// P_ii and the off-diagonal the cross spectra; in Logarithmic mode
	// ln P_ii and the correlation cosines.
	PkIC [][]float64
}

// lnTauAt maps z to ln τ inside the tables of out.
func (c *Context) lnTauAt(op string, out Output, z float64) (float64, error) {
	zMax := c.tg.ZMax()
	if math.IsNaN(z) || z < 0 || z > zMax*(1+zTolerance)+zTolerance {
		return 0, core.Errorf(core.KindOutOfRange, op, "z=%g outside [0, %g]", z, zMax)
	}

	lnTaus := c.tg.LnTau
	if out == PkNonlinear {
		if c.nl == nil {
			return 0, core.Errorf(core.KindOutOfRange, op, "no time has a nonlinear correction")
		}

		lnTaus = c.nlLnTau
	}

	tau, err := c.collab.Background.TauOfZ(z)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, op, err)
	}

	lnTau := math.Log(tau)
	lo, hi := lnTaus[0], lnTaus[len(lnTaus)-1]
	tol := zTolerance * math.Max(1, math.Abs(hi))

	if lnTau < lo-tol {
		if out == PkNonlinear {
			return 0, core.Errorf(core.KindOutOfRange, op,
				"z=%g is before the nonlinear start at z=%g", z, c.tg.Z[c.tg.NLStart])
		}

		return 0, core.Errorf(core.KindOutOfRange, op, "z=%g before the earliest stored time", z)
	}

	return core.Clamp(lnTau, lo, hi), nil
}

// curve is one ln P(ln k) at a fixed time with its spline.
type curve struct {
	c    *Context
	out  Output
	typ  int
	lnK  []float64
	lnPk []float64
	dd   []float64
}

func (c *Context) checkType(op string, typ int) error {
	if !c.idx.Valid(typ) {
		return core.Errorf(core.KindInvalidArgument, op, "spectrum index %d outside [0,%d)", typ, c.idx.PkSize)
	}

	return nil
}

func (c *Context) checkNoWiggle(op string, out Output, typ int) error {
	if !c.opts.AnalyticNoWiggle && !c.opts.NumericalNoWiggle {
		return core.Errorf(core.KindInconsistentConfig, op, "no-wiggle spectra were not enabled")
	}

	if (out == PkAnalyticNoWiggle && c.analytic == nil) || (out == PkNumericalNoWiggle && c.nw == nil) {
		return core.Errorf(core.KindInconsistentConfig, op, "%v spectrum was not enabled", out)
	}

	if typ != c.idx.PkCluster {
		return core.Errorf(core.KindInvalidArgument, op, "no-wiggle spectra exist for spectrum %d only, got %d", c.idx.PkCluster, typ)
	}

	return nil
}

// storedRow holds ln P of one output at one time over its stored
// wavenumbers, with the ln-k spline second derivatives of that row.
type storedRow struct {
	lnK, lnPk, dd []float64
}

// rowAtTime interpolates a value table and its ln-k spline table to lnTau.
func rowAtTime(lnTaus, lnK []float64, t, dt, kdd, kddT *table.Table, typ int, lnTau float64) (storedRow, error) {
	r := storedRow{lnK: lnK, lnPk: make([]float64, len(lnK)), dd: make([]float64, len(lnK))}

	if err := interp.EvalRowAtTime(lnTaus, t, dt, typ, lnTau, r.lnPk); err != nil {
		return storedRow{}, err
	}

	if err := interp.EvalRowAtTime(lnTaus, kdd, kddT, typ, lnTau, r.dd); err != nil {
		return storedRow{}, err
	}

	return r, nil
}

// row returns the stored row of out at z.
func (c *Context) row(op string, out Output, typ int, z float64) (storedRow, error) {
	if err := c.checkType(op, typ); err != nil {
		return storedRow{}, err
	}

	switch out {
	case PkLinear:
		lnTau, err := c.lnTauAt(op, out, z)
		if err != nil {
			return storedRow{}, err
		}

		return rowAtTime(c.tg.LnTau, c.kg.LnK, c.lin.LnPk, c.ddLin, c.kLin, c.kLinT, typ, lnTau)
	case PkNonlinear:
		lnTau, err := c.lnTauAt(op, out, z)
		if err != nil {
			return storedRow{}, err
		}

		return rowAtTime(c.nlLnTau, c.kg.NativeLn(), c.nl, c.ddNL, c.kNL, c.kNLT, typ, lnTau)
	case PkNumericalNoWiggle:
		if err := c.checkNoWiggle(op, out, typ); err != nil {
			return storedRow{}, err
		}

		lnTau, err := c.lnTauAt(op, out, z)
		if err != nil {
			return storedRow{}, err
		}

		return rowAtTime(c.tg.LnTau, c.kg.LnK, c.nw, c.ddNW, c.kNW, c.kNWT, 0, lnTau)
	case PkAnalyticNoWiggle:
		if err := c.checkNoWiggle(op, out, typ); err != nil {
			return storedRow{}, err
		}

		if _, err := c.lnTauAt(op, out, z); err != nil {
			return storedRow{}, err
		}

		shift, err := c.growthShift(op, z)
		if err != nil {
			return storedRow{}, err
		}

		// a constant shift leaves the second derivatives unchanged
		r := storedRow{lnK: c.analytic.LnK, lnPk: make([]float64, len(c.analytic.LnPk)), dd: c.analytic.DD}
		for i, v := range c.analytic.LnPk {
			r.lnPk[i] = v + shift
		}

		return r, nil
	default:
		return storedRow{}, core.Errorf(core.KindInvalidArgument, op, "unknown output %d", int(out))
	}
}

// growthShift returns 2 ln(D(z)/D(0)).
func (c *Context) growthShift(op string, z float64) (float64, error) {
	tau, err := c.collab.Background.TauOfZ(z)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, op, err)
	}

	st, err := c.collab.Background.At(tau)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, op, err)
	}

	return 2 * math.Log(st.D/c.growthToday), nil
}

func (c *Context) curveAt(op string, out Output, typ int, z float64) (*curve, error) {
	r, err := c.row(op, out, typ, z)
	if err != nil {
		return nil, err
	}

	return &curve{c: c, out: out, typ: typ, lnK: r.lnK, lnPk: r.lnPk, dd: r.dd}, nil
}

// vanishes reports whether the zero tail law applies at k.
func (cv *curve) vanishes(k float64) bool {
	c := cv.c
	return cv.out == PkLinear && c.law.Method() == extrap.Zero &&
		k > c.kg.KMax() && k <= c.kg.KMax()*c.opts.KMaxExtraFactor
}

// inside locates k against the stored range: -1 below, 0 inside, 1 above.
func (cv *curve) inside(k float64) int {
	lnk := math.Log(k)
	lo, hi := cv.lnK[0], cv.lnK[len(cv.lnK)-1]
	tol := zTolerance * math.Max(1, math.Abs(hi-lo))

	switch {
	case lnk < lo-tol:
		return -1
	case lnk > hi+tol:
		return 1
	default:
		return 0
	}
}

// at returns ln P(k). Below the grid P ∝ k·P_R(k).
func (cv *curve) at(op string, k float64) (float64, error) {
	if !(k > 0) || math.IsInf(k, 0) {
		return 0, core.Errorf(core.KindInvalidArgument, op, "k must be > 0, got %g", k)
	}

	switch cv.inside(k) {
	case -1:
		ratio, err := cv.c.primordialRatio(op, k, 0)
		if err != nil {
			return 0, err
		}

		return cv.lnPk[0] + math.Log(k) - cv.lnK[0] + ratio, nil
	case 1:
		if cv.vanishes(k) {
			return math.Inf(-1), nil
		}

		return 0, cv.aboveRange(op, k)
	default:
		lnk := core.Clamp(math.Log(k), cv.lnK[0], cv.lnK[len(cv.lnK)-1])
		return interp.Eval(cv.lnK, cv.lnPk, cv.dd, lnk)
	}
}

// slope returns d ln P / d ln k.
func (cv *curve) slope(op string, k float64) (float64, error) {
	if !(k > 0) || math.IsInf(k, 0) {
		return 0, core.Errorf(core.KindInvalidArgument, op, "k must be > 0, got %g", k)
	}

	switch cv.inside(k) {
	case -1:
		lo, err := cv.c.primordialRatio(op, k*math.Exp(-tiltStep), 0)
		if err != nil {
			return 0, err
		}

		hi, err := cv.c.primordialRatio(op, k*math.Exp(tiltStep), 0)
		if err != nil {
			return 0, err
		}

		return 1 + (hi-lo)/(2*tiltStep), nil
	case 1:
		return 0, cv.aboveRange(op, k)
	default:
		lnk := core.Clamp(math.Log(k), cv.lnK[0], cv.lnK[len(cv.lnK)-1])
		return interp.Derivative(cv.lnK, cv.lnPk, cv.dd, lnk)
	}
}

func (cv *curve) aboveRange(op string, k float64) error {
	kMax := math.Exp(cv.lnK[len(cv.lnK)-1])
	if cv.out == PkNonlinear {
		return core.Errorf(core.KindOutOfRange, op, "k=%g above the nonlinear range k <= %g", k, kMax)
	}

	return core.Errorf(core.KindOutOfRange, op, "k=%g above the extended range k <= %g", k, kMax)
}

// primordialRatio returns ln(P_R(k)/P_R(k_min)) of initial condition ic.
func (c *Context) primordialRatio(op string, k float64, ic int) (float64, error) {
	pk, err := c.collab.Primordial.Spectrum(k, ic, ic)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, op, err)
	}

	p0, err := c.collab.Primordial.Spectrum(c.kg.KMin(), ic, ic)
	if err != nil {
		return 0, core.Wrap(core.KindOutOfRange, op, err)
	}

	if !(pk > 0) || !(p0 > 0) {
		return 0, core.Errorf(core.KindOutOfRange, op, "non-positive primordial spectrum at k=%g", k)
	}

	return math.Log(pk / p0), nil
}

// PkAtZ returns spectrum typ of out at z on the native wavenumbers. Pairs
// are filled for linear output only.
func (c *Context) PkAtZ(mode Mode, out Output, z float64, typ int) (*Spectrum, error) {
	const op = "fourier.PkAtZ"

	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	return c.pkAtZ(op, mode, out, z, typ)
}

func (c *Context) pkAtZ(op string, mode Mode, out Output, z float64, typ int) (*Spectrum, error) {
	r, err := c.row(op, out, typ, z)
	if err != nil {
		return nil, err
	}

	nk := c.kg.NativeSize
	s := &Spectrum{
		K:  append([]float64(nil), c.kg.Native()...),
		Pk: append([]float64(nil), r.lnPk[:nk]...),
	}

	if out == PkLinear {
		if s.PkIC, err = c.pairsAtZ(op, typ, z); err != nil {
			return nil, err
		}
	}

	if mode == Logarithmic {
		return s, nil
	}

	for i, v := range s.Pk {
		s.Pk[i] = math.Exp(v)
	}

	if s.PkIC == nil {
		return s, nil
	}

	for _, pair := range c.idx.Pairs {
		if !pair.Diagonal() {
			continue
		}

		ip := c.idx.PairIndex(pair.IC1, pair.IC2)
		for i, v := range s.PkIC[ip] {
			s.PkIC[ip][i] = math.Exp(v)
		}
	}

	for ip, pair := range c.idx.Pairs {
		if pair.Diagonal() {
			continue
		}

		d1 := s.PkIC[c.idx.PairIndex(pair.IC1, pair.IC1)]
		d2 := s.PkIC[c.idx.PairIndex(pair.IC2, pair.IC2)]

		for i, cos := range s.PkIC[ip] {
			s.PkIC[ip][i] = cos * math.Sqrt(d1[i]*d2[i])
		}
	}

	return s, nil
}

// pairsAtZ returns the per-pair log values over the native wavenumbers.
func (c *Context) pairsAtZ(op string, typ int, z float64) ([][]float64, error) {
	rows, err := c.pairsAtZFull(op, typ, z)
	if err != nil {
		return nil, err
	}

	n := c.kg.NativeSize
	for p := range rows {
		rows[p] = rows[p][:n:n]
	}

	return rows, nil
}

// PksAtZ returns the total matter and CDM+baryon spectra at z; cb is nil
// when the latter was not requested. No-wiggle output fills the
// clustering species only.
func (c *Context) PksAtZ(mode Mode, out Output, z float64) (m, cb *Spectrum, err error) {
	const op = "fourier.PksAtZ"

	if err := c.acquire(); err != nil {
		return nil, nil, err
	}
	defer c.release()

	for _, typ := range c.typesFor(out) {
		s, err := c.pkAtZ(op, mode, out, z, typ)
		if err != nil {
			return nil, nil, err
		}

		if typ == c.idx.PkM {
			m = s
		} else {
			cb = s
		}
	}

	return m, cb, nil
}

// typesFor lists the spectrum indices out provides.
func (c *Context) typesFor(out Output) []int {
	if out == PkNumericalNoWiggle || out == PkAnalyticNoWiggle {
		return []int{c.idx.PkCluster}
	}

	types := []int{c.idx.PkM}
	if c.idx.PkCB >= 0 {
		types = append(types, c.idx.PkCB)
	}

	return types
}

// PkAtKAndZ returns P(k, z) of spectrum typ. For linear output pkIC holds
// the per-pair spectra like [Spectrum.PkIC] in Linear mode.
func (c *Context) PkAtKAndZ(out Output, k, z float64, typ int) (pk float64, pkIC []float64, err error) {
	const op = "fourier.PkAtKAndZ"

	if err := c.acquire(); err != nil {
		return 0, nil, err
	}
	defer c.release()

	cv, err := c.curveAt(op, out, typ, z)
	if err != nil {
		return 0, nil, err
	}

	if out != PkLinear {
		lnPk, err := cv.at(op, k)
		return math.Exp(lnPk), nil, err
	}

	if !(k > 0) || math.IsInf(k, 0) {
		return 0, nil, core.Errorf(core.KindInvalidArgument, op, "k must be > 0, got %g", k)
	}

	pairs, err := c.pairsAtKAndZ(op, cv, k, z)
	if err != nil {
		return 0, nil, err
	}

	lnPk, err := cv.at(op, k)
	if err != nil {
		return 0, nil, err
	}

	if cv.inside(k) < 0 && c.idx.ICSize > 1 {
		if lnPk, err = linear.Total(c.idx, pairs); err != nil {
			return 0, nil, core.Errorf(core.KindOutOfRange, op, "%v at k=%g", err, k)
		}
	}

	return math.Exp(lnPk), toLinearPairs(c, pairs), nil
}

// pairsAtKAndZ returns per-pair log values at k. Below the grid the
// diagonal follows P_ii ∝ k·P_R,ii(k) and the cosines stay at their
// k_min value.
func (c *Context) pairsAtKAndZ(op string, cv *curve, k, z float64) ([]float64, error) {
	rows, err := c.pairsAtZFull(op, cv.typ, z)
	if err != nil {
		return nil, err
	}

	dds, err := c.pairSplinesAtZ(op, cv.typ, z)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(rows))
	where := cv.inside(k)

	for ip, pair := range c.idx.Pairs {
		switch {
		case where < 0:
			out[ip] = rows[ip][0]
			if pair.Diagonal() {
				ratio, err := c.primordialRatio(op, k, pair.IC1)
				if err != nil {
					return nil, err
				}

				out[ip] += math.Log(k) - c.kg.LnK[0] + ratio
			}
		case where > 0:
			if cv.vanishes(k) {
				out[ip] = math.Inf(-1)
				if !pair.Diagonal() {
					out[ip] = 0
				}

				continue
			}

			return nil, cv.aboveRange(op, k)
		default:
			lnk := core.Clamp(math.Log(k), c.kg.LnK[0], c.kg.LnK[len(c.kg.LnK)-1])
			if out[ip], err = interp.Eval(c.kg.LnK, rows[ip], dds[ip], lnk); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func (c *Context) pairsAtZFull(op string, typ int, z float64) ([][]float64, error) {
	return c.pairTableAtZ(op, c.lin.LnPkIC, c.ddLinIC, typ, z)
}

// pairSplinesAtZ returns the ln-k spline second derivatives of the rows
// of pairsAtZFull.
func (c *Context) pairSplinesAtZ(op string, typ int, z float64) ([][]float64, error) {
	return c.pairTableAtZ(op, c.kLinIC, c.kLinICT, typ, z)
}

func (c *Context) pairTableAtZ(op string, t, dd *table.ICTable, typ int, z float64) ([][]float64, error) {
	lnTau, err := c.lnTauAt(op, PkLinear, z)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, c.idx.PairCount())
	for p := range rows {
		rows[p] = make([]float64, c.kg.Size())
	}

	if err := interp.EvalPairsAtTime(c.tg.LnTau, t, dd, typ, lnTau, rows); err != nil {
		return nil, err
	}

	return rows, nil
}

func toLinearPairs(c *Context, pairs []float64) []float64 {
	out := make([]float64, len(pairs))

	for ip, pair := range c.idx.Pairs {
		if pair.Diagonal() {
			out[ip] = math.Exp(pairs[ip])
		}
	}

	for ip, pair := range c.idx.Pairs {
		if !pair.Diagonal() {
			d1 := out[c.idx.PairIndex(pair.IC1, pair.IC1)]
			d2 := out[c.idx.PairIndex(pair.IC2, pair.IC2)]
			out[ip] = pairs[ip] * math.Sqrt(d1*d2)
		}
	}

	return out
}

// PksAtKAndZ returns P(k, z) of total matter and CDM+baryon; cb is NaN
// when the latter was not requested. No-wiggle output fills the
// clustering species only and leaves the other NaN.
func (c *Context) PksAtKAndZ(out Output, k, z float64) (m, cb float64, err error) {
	const op = "fourier.PksAtKAndZ"

	if err := c.acquire(); err != nil {
		return 0, 0, err
	}
	defer c.release()

	m, cb = math.NaN(), math.NaN()

	for _, typ := range c.typesFor(out) {
		cv, err := c.curveAt(op, out, typ, z)
		if err != nil {
			return 0, 0, err
		}

		lnPk, err := cv.at(op, k)
		if err != nil {
			return 0, 0, err
		}

		if typ == c.idx.PkM {
			m = math.Exp(lnPk)
		} else {
			cb = math.Exp(lnPk)
		}
	}

	return m, cb, nil
}

// PksAtKVecAndZVec evaluates P on the outer product of zs and ks, indexed
// [iz][ik]. cb is nil when the CDM+baryon spectrum was not requested.
func (c *Context) PksAtKVecAndZVec(out Output, ks, zs []float64) (m, cb [][]float64, err error) {
	const op = "fourier.PksAtKVecAndZVec"

	if err := c.acquire(); err != nil {
		return nil, nil, err
	}
	defer c.release()

	for _, typ := range c.typesFor(out) {
		grid := make([][]float64, len(zs))

		for iz, z := range zs {
			cv, err := c.curveAt(op, out, typ, z)
			if err != nil {
				return nil, nil, err
			}

			grid[iz] = make([]float64, len(ks))
			for ik, k := range ks {
				lnPk, err := cv.at(op, k)
				if err != nil {
					return nil, nil, err
				}

				grid[iz][ik] = math.Exp(lnPk)
			}
		}

		if typ == c.idx.PkM {
			m = grid
		} else {
			cb = grid
		}
	}

	return m, cb, nil
}

// PkTiltAtKAndZ returns the local spectral slope d ln P / d ln k.
func (c *Context) PkTiltAtKAndZ(out Output, k, z float64, typ int) (float64, error) {
	const op = "fourier.PkTiltAtKAndZ"

	if err := c.acquire(); err != nil {
		return 0, err
	}
	defer c.release()

	cv, err := c.curveAt(op, out, typ, z)
	if err != nil {
		return 0, err
	}

	return cv.slope(op, k)
}

// KNLAtZ returns the nonlinear wavenumber of total matter and of CDM+baryon
// at z. Without a nonlinear method both are +Inf; cb is NaN when the
// CDM+baryon spectrum was not requested.
func (c *Context) KNLAtZ(z float64) (m, cb float64, err error) {
	const op = "fourier.KNLAtZ"

	if err := c.acquire(); err != nil {
		return 0, 0, err
	}
	defer c.release()

	cb = math.NaN()

	if c.method == nonlinear.MethodNone {
		if _, err := c.lnTauAt(op, PkLinear, z); err != nil {
			return 0, 0, err
		}

		if c.idx.PkCB >= 0 {
			cb = math.Inf(1)
		}

		return math.Inf(1), cb, nil
	}

	lnTau, err := c.lnTauAt(op, PkNonlinear, z)
	if err != nil {
		return 0, 0, err
	}

	v := make([]float64, 1)

	if err := interp.EvalRowAtTime(c.nlLnTau, c.lnKNL, c.ddKNL, c.idx.PkM, lnTau, v); err != nil {
		return 0, 0, err
	}

	m = math.Exp(v[0])

	if c.idx.PkCB >= 0 {
		if err := interp.EvalRowAtTime(c.nlLnTau, c.lnKNL, c.ddKNL, c.idx.PkCB, lnTau, v); err != nil {
			return 0, 0, err
		}

		cb = math.Exp(v[0])
	}

	return m, cb, nil
}
