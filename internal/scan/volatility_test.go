package scan

import (
	"math"
	"testing"
	"time"

	"retest-scanner/internal/models"
)

func testBars(ohlc [][4]float64) []models.Bar {
	bars := make([]models.Bar, len(ohlc))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range ohlc {
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      v[0],
			High:      v[1],
			Low:       v[2],
			Close:     v[3],
			Volume:    1000,
		}
	}
	return bars
}

func TestATREmptyInput(t *testing.T) {
	got := NewATR(14).Calculate(nil)
	if len(got) != 0 {
		t.Fatalf("expected empty series, got %d values", len(got))
	}
}

func TestATRFirstBarIsHighLow(t *testing.T) {
	bars := testBars([][4]float64{
		{100, 105, 98, 102},
	})
	got := NewATR(14).Calculate(bars)
	if len(got) != 1 {
		t.Fatalf("expected 1 value, got %d", len(got))
	}
	if want := 7.0; got[0] != want {
		t.Errorf("ATR[0] = %v, want %v", got[0], want)
	}
}

func TestATRGapUsesPreviousClose(t *testing.T) {
	// Second bar gaps entirely above the first close: the
	// low-previous_close term dominates the bar's own range.
	bars := testBars([][4]float64{
		{100, 101, 99, 100},
		{110, 111, 109, 110},
	})
	got := NewATR(14).Calculate(bars)

	// TR[1] = max(|111-109|, |111-100|, |109-100|) = 11
	wantTR1 := 11.0
	wantATR1 := (2.0 + wantTR1) / 2
	if math.Abs(got[1]-wantATR1) > 1e-12 {
		t.Errorf("ATR[1] = %v, want %v", got[1], wantATR1)
	}
}

func TestATRShrinkingWindowMatchesNaive(t *testing.T) {
	ohlc := [][4]float64{
		{100, 102, 99, 101},
		{101, 104, 100, 103},
		{103, 103.5, 101, 102},
		{102, 106, 102, 105},
		{105, 105, 100, 101},
		{101, 102, 98, 99},
		{99, 103, 99, 102.5},
	}
	bars := testBars(ohlc)

	for _, period := range []int{1, 2, 3, 14} {
		got := NewATR(period).Calculate(bars)
		want := naiveATR(bars, period)
		if len(got) != len(bars) {
			t.Fatalf("period %d: length %d, want %d", period, len(got), len(bars))
		}
		for i := range got {
			if math.Abs(got[i]-want[i]) > 1e-9 {
				t.Errorf("period %d: ATR[%d] = %v, want %v", period, i, got[i], want[i])
			}
			if got[i] < 0 {
				t.Errorf("period %d: ATR[%d] = %v, negative", period, i, got[i])
			}
		}
	}
}

// naiveATR recomputes the rolling mean from scratch at every index.
func naiveATR(bars []models.Bar, period int) []float64 {
	n := len(bars)
	tr := make([]float64, n)
	for i := range bars {
		if i == 0 {
			tr[0] = math.Abs(bars[0].High - bars[0].Low)
			continue
		}
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, v := range tr[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}

func TestATRDefaultPeriod(t *testing.T) {
	a := NewATR(0)
	if a.Period() != DefaultATRPeriod {
		t.Errorf("Period() = %d, want %d", a.Period(), DefaultATRPeriod)
	}
	if a.Name() != "ATR_14" {
		t.Errorf("Name() = %q, want ATR_14", a.Name())
	}
}
