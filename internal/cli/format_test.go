package cli

import (
	"math"
	"testing"
	"unicode/utf8"
)

func TestInvertSeriesNegate(t *testing.T) {
	got := InvertSeries([]float64{1, -2, 3}, InvertNegate)
	want := []float64{-1, 2, -3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("negate[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInvertSeriesMirror(t *testing.T) {
	// Median of {100, 110, 120} is 110; mirroring swaps the extremes.
	got := InvertSeries([]float64{100, 110, 120}, InvertMirror)
	want := []float64{120, 110, 100}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("mirror[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInvertSeriesMirrorEvenLength(t *testing.T) {
	// Median of {100, 102, 104, 106} is 103.
	got := InvertSeries([]float64{100, 102, 104, 106}, InvertMirror)
	want := []float64{106, 104, 102, 100}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("mirror[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInvertSeriesMirrorIsInvolution(t *testing.T) {
	in := []float64{99, 101, 100.2, 100.6}
	twice := InvertSeries(InvertSeries(in, InvertMirror), InvertMirror)
	for i := range in {
		if math.Abs(twice[i]-in[i]) > 1e-9 {
			t.Errorf("double mirror[%d] = %v, want %v", i, twice[i], in[i])
		}
	}
}

func TestSparklineWidth(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i)
	}

	line := Sparkline(values, 40)
	if n := utf8.RuneCountInString(line); n != 40 {
		t.Errorf("sparkline width = %d runes, want 40", n)
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	line := Sparkline([]float64{5, 5, 5}, 10)
	if n := utf8.RuneCountInString(line); n != 3 {
		t.Errorf("sparkline width = %d runes, want 3", n)
	}
	for _, r := range line {
		if r != sparkRunes[0] {
			t.Errorf("flat series should render the lowest block, got %q", line)
			break
		}
	}
}

func TestSparklineEmpty(t *testing.T) {
	if line := Sparkline(nil, 10); line != "" {
		t.Errorf("expected empty string, got %q", line)
	}
}
