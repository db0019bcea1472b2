package view

import (
	"math"
	"testing"
)

func TestToFixed(t *testing.T) {
	cases := []struct {
		v      float64
		digits int
		want   string
	}{
		{82, 2, "82.00"},
		{45000, 2, "45000.00"},
		{100.12345, 5, "100.12345"},
		{0.125, 2, "0.13"},
		{0.5, 0, "1"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{1.005, 2, "1.00"},
		{2.2222222, 1, "2.2"},
		{6.6666666, 1, "6.7"},
		{-0.001, 2, "-0.00"},
		{math.Copysign(0, -1), 2, "0.00"},
		{0.000001, 3, "0.000"},
		{1e21, 2, "1e+21"},
		{math.NaN(), 2, "NaN"},
		{math.Inf(1), 2, "Infinity"},
	}
	for _, tc := range cases {
		if got := ToFixed(tc.v, tc.digits); got != tc.want {
			t.Fatalf("ToFixed(%v, %d) = %q, want %q", tc.v, tc.digits, got, tc.want)
		}
	}
}

func TestMissingValuesRenderNotAvailable(t *testing.T) {
	if Money(0, 2) != "N/A" || Percent(0, 2) != "N/A" || Fixed(0, 2) != "N/A" {
		t.Fatal("expected zero to render N/A")
	}
	if Money(math.NaN(), 2) != "N/A" || Percent(math.Inf(1), 2) != "N/A" {
		t.Fatal("expected non-finite to render N/A")
	}
	if Money(45000, 2) != "$45000.00" || Percent(82, 2) != "82.00%" {
		t.Fatal("unexpected formatting")
	}
}

func TestPercentOfGuardsZeroBase(t *testing.T) {
	if got := PercentOf(46000, 0); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
	if got := PercentOf(0, 0); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
	if got := PercentOf(46000, 45000); got != "2.2%" {
		t.Fatalf("expected 2.2%%, got %q", got)
	}
	if got := PercentOf(44000, 45000); got != "-2.2%" {
		t.Fatalf("expected -2.2%%, got %q", got)
	}
}

func TestNumber(t *testing.T) {
	if Number(2) != "2" || Number(0.5) != "0.5" || Number(7.5) != "7.5" {
		t.Fatal("unexpected number formatting")
	}
}
