package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/table"
)

func sineGrid(n int) (x, y []float64) {
	x = make([]float64, n)
	y = make([]float64, n)
	for i := range x {
		x[i] = 2 * math.Pi * float64(i) / float64(n-1)
		y[i] = math.Sin(x[i])
	}
	return x, y
}

func TestSplineReproducesKnots(t *testing.T) {
	x, y := sineGrid(25)
	dd, err := SecondDerivatives(x, y)
	if err != nil {
		t.Fatal(err)
	}

	for i := range x {
		got, err := Eval(x, y, dd, x[i])
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-y[i]) > 1e-12 {
			t.Fatalf("knot %d: got %v want %v", i, got, y[i])
		}
	}
}

func TestSplineIsExactForLines(t *testing.T) {
	x := []float64{0, 0.5, 1.7, 2, 3.1}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 3*x[i] - 1
	}

	dd, err := SecondDerivatives(x, y)
	if err != nil {
		t.Fatal(err)
	}

	for _, xq := range []float64{0.1, 0.9, 2.5, 3.0} {
		got, _ := Eval(x, y, dd, xq)
		if diff := got - (3*xq - 1); math.Abs(diff) > 1e-12 {
			t.Fatalf("x=%v: got %v want %v", xq, got, 3*xq-1)
		}
		slope, _ := Derivative(x, y, dd, xq)
		if math.Abs(slope-3) > 1e-12 {
			t.Fatalf("x=%v: slope %v want 3", xq, slope)
		}
	}
}

func TestSplineApproximatesSine(t *testing.T) {
	x, y := sineGrid(64)
	dd, _ := SecondDerivatives(x, y)

	for _, xq := range []float64{0.3, 1.234, 3.0, 5.5} {
		got, _ := Eval(x, y, dd, xq)
		if math.Abs(got-math.Sin(xq)) > 1e-4 {
			t.Fatalf("sin(%v): got %v want %v", xq, got, math.Sin(xq))
		}
		slope, _ := Derivative(x, y, dd, xq)
		if math.Abs(slope-math.Cos(xq)) > 1e-3 {
			t.Fatalf("cos(%v): got %v want %v", xq, slope, math.Cos(xq))
		}
	}
}

func TestSplineErrors(t *testing.T) {
	if _, err := SecondDerivatives([]float64{0, 1}, []float64{0, 1}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("two points: got %v", err)
	}
	if _, err := SecondDerivatives([]float64{0, 1, 1}, []float64{0, 1, 2}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("non-increasing: got %v", err)
	}

	x, y := sineGrid(8)
	dd, _ := SecondDerivatives(x, y)
	if _, err := Eval(x, y, dd, -1); !errors.Is(err, core.ErrOutOfRange) {
		t.Fatalf("below range: got %v", err)
	}
	if _, err := Eval(x, y, dd, 7); !errors.Is(err, core.ErrOutOfRange) {
		t.Fatalf("above range: got %v", err)
	}
}

func TestLocate(t *testing.T) {
	x := []float64{1, 2, 4, 8}
	for _, tc := range []struct {
		q    float64
		want int
	}{
		{1, 0}, {1.5, 0}, {2, 0}, {3, 1}, {4, 1}, {7.9, 2}, {8, 2},
	} {
		got, err := Locate(x, tc.q)
		if err != nil || got != tc.want {
			t.Fatalf("Locate(%v) = (%d, %v), want %d", tc.q, got, err, tc.want)
		}
	}
}

func TestLinear(t *testing.T) {
	got, err := Linear([]float64{0, 2}, []float64{1, 5}, 0.5)
	if err != nil || got != 2 {
		t.Fatalf("Linear = (%v, %v), want 2", got, err)
	}
}

func TestTableSplinesRoundTrip(t *testing.T) {
	lnTau := []float64{0, 0.4, 1, 1.3, 2}
	lnK := []float64{-2, -1, 0, 1}

	tb, _ := table.New(2, len(lnTau), len(lnK))
	for typ := 0; typ < 2; typ++ {
		for i, lt := range lnTau {
			for j, lk := range lnK {
				tb.Set(typ, i, j, float64(typ+1)*math.Cos(lt)+lk*lk)
			}
		}
	}

	ddT, err := TimeSplines(lnTau, tb)
	if err != nil {
		t.Fatal(err)
	}
	ddK, err := KSplines(lnK, tb)
	if err != nil {
		t.Fatal(err)
	}

	out := make([]float64, len(lnK))
	for i, lt := range lnTau {
		if err := EvalRowAtTime(lnTau, tb, ddT, 1, lt, out); err != nil {
			t.Fatal(err)
		}
		for j := range out {
			if math.Abs(out[j]-tb.At(1, i, j)) > 1e-12 {
				t.Fatalf("time knot (%d,%d): got %v want %v", i, j, out[j], tb.At(1, i, j))
			}
		}
	}

	if err := EvalRowAtTime(lnTau, tb, ddT, 0, 0.7, out); err != nil {
		t.Fatal(err)
	}
	for j, lk := range lnK {
		want := math.Cos(0.7) + lk*lk
		if math.Abs(out[j]-want) > 2e-2 {
			t.Fatalf("mid-time k=%d: got %v want %v", j, out[j], want)
		}
	}

	row := tb.Row(0, 2)
	got, err := Eval(lnK, row, ddK.Row(0, 2), lnK[1])
	if err != nil || math.Abs(got-row[1]) > 1e-12 {
		t.Fatalf("k knot: got (%v, %v) want %v", got, err, row[1])
	}

	if err := EvalRowAtTime(lnTau, tb, nil, 0, 0.2, out); err != nil {
		t.Fatal(err)
	}
	want := 0.5*tb.At(0, 0, 0) + 0.5*tb.At(0, 1, 0)
	if math.Abs(out[0]-want) > 1e-12 {
		t.Fatalf("linear fallback: got %v want %v", out[0], want)
	}
}

func TestEvalRowSingleTime(t *testing.T) {
	tb, _ := table.NewFilled(1, 1, 3, 2)
	out := make([]float64, 3)

	if err := EvalRowAtTime([]float64{5}, tb, nil, 0, 5, out); err != nil || out[2] != 2 {
		t.Fatalf("exact time: (%v, %v)", out, err)
	}
	if err := EvalRowAtTime([]float64{5}, tb, nil, 0, 4, out); !errors.Is(err, core.ErrOutOfRange) {
		t.Fatalf("other time: got %v", err)
	}
}

func TestTimeSplinesIC(t *testing.T) {
	lnTau := []float64{0, 1, 2, 3}
	tb, _ := table.NewIC(1, 4, 2, 3)
	for i := range lnTau {
		for k := 0; k < 2; k++ {
			for p := 0; p < 3; p++ {
				tb.Set(0, i, k, p, float64(p)*lnTau[i]+float64(k))
			}
		}
	}

	dd, err := TimeSplinesIC(lnTau, tb)
	if err != nil {
		t.Fatal(err)
	}

	out := [][]float64{make([]float64, 2), make([]float64, 2), make([]float64, 2)}
	if err := EvalPairsAtTime(lnTau, tb, dd, 0, 1.5, out); err != nil {
		t.Fatal(err)
	}
	for p := range out {
		for k := range out[p] {
			want := float64(p)*1.5 + float64(k)
			if math.Abs(out[p][k]-want) > 1e-12 {
				t.Fatalf("pair %d k %d: got %v want %v", p, k, out[p][k], want)
			}
		}
	}
}

func TestKSplinesFollowTimeInterpolation(t *testing.T) {
	lnTau := []float64{0, 0.5, 1.1, 1.6, 2.4}
	lnK := []float64{-3, -2.2, -1, 0, 0.7, 1.5}

	tb, _ := table.New(1, len(lnTau), len(lnK))
	for i, lt := range lnTau {
		for j, lk := range lnK {
			tb.Set(0, i, j, math.Sin(lk*(1+lt))+lt*lk*lk)
		}
	}

	ddT, err := TimeSplines(lnTau, tb)
	if err != nil {
		t.Fatal(err)
	}
	ddK, err := KSplines(lnK, tb)
	if err != nil {
		t.Fatal(err)
	}
	ddKT, err := KSplines(lnK, ddT)
	if err != nil {
		t.Fatal(err)
	}

	row := make([]float64, len(lnK))
	ddRow := make([]float64, len(lnK))
	if err := EvalRowAtTime(lnTau, tb, ddT, 0, 1.3, row); err != nil {
		t.Fatal(err)
	}
	if err := EvalRowAtTime(lnTau, ddK, ddKT, 0, 1.3, ddRow); err != nil {
		t.Fatal(err)
	}

	want, err := SecondDerivatives(lnK, row)
	if err != nil {
		t.Fatal(err)
	}
	for j := range want {
		if math.Abs(ddRow[j]-want[j]) > 1e-10 {
			t.Fatalf("k %d: interpolated spline %v, fresh %v", j, ddRow[j], want[j])
		}
	}
}

func TestKSplinesIC(t *testing.T) {
	lnK := []float64{0, 1, 2, 3}
	tb, _ := table.NewIC(1, 2, 4, 2)
	for i := 0; i < 2; i++ {
		for k, lk := range lnK {
			tb.Set(0, i, k, 0, lk*lk)
			tb.Set(0, i, k, 1, float64(i)+lk)
		}
	}

	dd, err := KSplinesIC(lnK, tb)
	if err != nil {
		t.Fatal(err)
	}

	want, _ := SecondDerivatives(lnK, []float64{0, 1, 4, 9})
	for k := range lnK {
		if math.Abs(dd.At(0, 1, k, 0)-want[k]) > 1e-12 {
			t.Fatalf("pair 0 k %d: got %v want %v", k, dd.At(0, 1, k, 0), want[k])
		}
		if math.Abs(dd.At(0, 1, k, 1)) > 1e-12 {
			t.Fatalf("pair 1 k %d: line has curvature %v", k, dd.At(0, 1, k, 1))
		}
	}

	if _, err := KSplinesIC(lnK[:3], tb); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("short grid: got %v", err)
	}
}
