package scan

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"retest-scanner/internal/models"
)

// Property: every emitted event satisfies the phase ordering and
// window bounds, and its return is the exact percentage from the
// level to the takeoff close.

// barGen generates a valid bar with OHLC constraints.
func barGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Bar{}), map[string]gopter.Gen{
		"Open":   gen.Float64Range(50.0, 150.0),
		"High":   gen.Float64Range(50.0, 150.0),
		"Low":    gen.Float64Range(50.0, 150.0),
		"Close":  gen.Float64Range(50.0, 150.0),
		"Volume": gen.Float64Range(0, 1e6),
	}).Map(func(b models.Bar) models.Bar {
		// Enforce High >= max(Open, Close), Low <= min(Open, Close).
		b.High = math.Max(b.High, math.Max(b.Open, b.Close))
		b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
		if b.Low > b.High {
			b.Low, b.High = b.High, b.Low
		}
		return b
	})
}

// barSliceGen generates an ordered bar series.
func barSliceGen(maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, barGen()).Map(func(bars []models.Bar) []models.Bar {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := range bars {
			bars[i].Timestamp = base.Add(time.Duration(i) * time.Hour)
		}
		return bars
	})
}

func paramsGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(Params{}), map[string]gopter.Gen{
		"Level":             gen.Float64Range(60.0, 140.0),
		"Tolerance":         gen.Float64Range(0.0001, 0.05),
		"MaxRetestWindow":   gen.IntRange(1, 30),
		"TakeoffWindow":     gen.IntRange(1, 30),
		"TakeoffPct":        gen.Float64Range(0.001, 0.05),
		"UseVolatilityGate": gen.Bool(),
		"ATRMultiplier":     gen.Float64Range(0.1, 3.0),
	})
}

func TestScannerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("events satisfy phase ordering and window bounds", prop.ForAll(
		func(bars []models.Bar, p Params) bool {
			for _, e := range NewScanner(p, DefaultATRPeriod).Scan(bars) {
				if !(e.BreakoutIdx < e.RetestIdx) {
					return false
				}
				if e.RetestIdx > e.BreakoutIdx+p.MaxRetestWindow {
					return false
				}
				if !(e.RetestIdx < e.TakeoffIdx) {
					return false
				}
				if e.TakeoffIdx > e.RetestIdx+p.TakeoffWindow {
					return false
				}
				if e.TakeoffIdx >= len(bars) {
					return false
				}
			}
			return true
		},
		barSliceGen(60),
		paramsGen(),
	))

	properties.Property("return is the exact percentage from level to takeoff close", prop.ForAll(
		func(bars []models.Bar, p Params) bool {
			for _, e := range NewScanner(p, DefaultATRPeriod).Scan(bars) {
				want := (e.CloseAtTakeoff/p.Level - 1) * 100
				if e.ReturnFromLevelPct != want {
					return false
				}
			}
			return true
		},
		barSliceGen(60),
		paramsGen(),
	))

	properties.Property("no upward cross means no events", prop.ForAll(
		func(bars []models.Bar, p Params) bool {
			// Place the level above every close so no pair can cross.
			maxClose := 0.0
			for _, b := range bars {
				if b.Close > maxClose {
					maxClose = b.Close
				}
			}
			p.Level = maxClose + 1
			return len(NewScanner(p, DefaultATRPeriod).Scan(bars)) == 0
		},
		barSliceGen(60),
		paramsGen(),
	))

	properties.Property("identical inputs produce identical event lists", prop.ForAll(
		func(bars []models.Bar, p Params) bool {
			s := NewScanner(p, DefaultATRPeriod)
			return reflect.DeepEqual(s.Scan(bars), s.Scan(bars))
		},
		barSliceGen(60),
		paramsGen(),
	))

	properties.TestingRun(t)
}

func TestVolatilityProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("series is aligned, non-negative, and anchored at |high-low|", prop.ForAll(
		func(bars []models.Bar, period int) bool {
			vol := NewATR(period).Calculate(bars)
			if len(vol) != len(bars) {
				return false
			}
			for _, v := range vol {
				if v < 0 || math.IsNaN(v) {
					return false
				}
			}
			if len(bars) > 0 {
				want := math.Abs(bars[0].High - bars[0].Low)
				if math.Abs(vol[0]-want) > 1e-12 {
					return false
				}
			}
			return true
		},
		barSliceGen(60),
		gen.IntRange(1, 30),
	))

	properties.Property("ring-buffer mean matches windowed recomputation", prop.ForAll(
		func(bars []models.Bar, period int) bool {
			got := NewATR(period).Calculate(bars)
			want := naiveATR(bars, period)
			for i := range got {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					return false
				}
			}
			return true
		},
		barSliceGen(60),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}
