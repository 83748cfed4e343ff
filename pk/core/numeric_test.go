package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
}

func TestStrictlyIncreasing(t *testing.T) {
	if ok, idx := StrictlyIncreasing([]float64{1, 2, 3}); !ok || idx != -1 {
		t.Fatalf("got (%v, %d), want (true, -1)", ok, idx)
	}
	if ok, idx := StrictlyIncreasing([]float64{1, 2, 2, 3}); ok || idx != 2 {
		t.Fatalf("got (%v, %d), want (false, 2)", ok, idx)
	}
	if ok, _ := StrictlyIncreasing(nil); !ok {
		t.Fatal("empty slice should count as increasing")
	}
}

func TestLogSpace(t *testing.T) {
	xs := LogSpace(1e-3, 1e3, 7)
	if len(xs) != 7 {
		t.Fatalf("len = %d, want 7", len(xs))
	}
	for i, x := range xs {
		want := math.Pow(10, float64(i-3))
		if !NearlyEqual(x, want, 1e-12) {
			t.Fatalf("xs[%d] = %v, want %v", i, x, want)
		}
	}
	if got := LogSpace(2, 5, 1); len(got) != 1 || got[0] != 2 {
		t.Fatalf("single point: got %v", got)
	}
}

func TestLogAndFinite(t *testing.T) {
	ln := Log([]float64{1, math.E})
	if ln[0] != 0 || !NearlyEqual(ln[1], 1, 1e-15) {
		t.Fatalf("Log() = %v", ln)
	}
	if Finite(math.Inf(1)) || Finite(math.NaN()) || !Finite(3) {
		t.Fatal("Finite() misclassified a value")
	}
}
