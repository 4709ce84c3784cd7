// Package scan implements the breakout-retest-takeoff pattern engine
// and its supporting volatility estimator.
package scan

import (
	"fmt"
	"math"

	"retest-scanner/internal/models"
)

// DefaultATRPeriod is the default trailing window for the volatility
// estimator.
const DefaultATRPeriod = 14

// ATR calculates a smoothed true-range series: the plain arithmetic
// mean of true range over the trailing window, with the window
// shrinking near the start of the series so that every bar has a
// value. No exponential smoothing is applied.
type ATR struct {
	period int
}

// NewATR creates a new ATR estimator. Non-positive periods fall back
// to the default; period validation belongs to the config boundary.
func NewATR(period int) *ATR {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

func (a *ATR) Period() int {
	return a.period
}

// Calculate returns the volatility series aligned index-for-index with
// bars. Output length equals input length and every value is >= 0.
// The rolling mean runs on a ring buffer with a running sum, so the
// whole series costs linear time.
func (a *ATR) Calculate(bars []models.Bar) []float64 {
	n := len(bars)
	result := make([]float64, n)
	if n == 0 {
		return result
	}

	ring := make([]float64, a.period)
	head := 0
	count := 0
	var sum float64

	for i := 0; i < n; i++ {
		var tr float64
		if i == 0 {
			// No previous close: only the high-low term applies.
			tr = math.Abs(bars[0].High - bars[0].Low)
		} else {
			tr = trueRange(bars[i], bars[i-1])
		}

		if count == a.period {
			sum -= ring[head]
			if sum < 0 {
				// Guard against float drift in the running sum.
				sum = 0
			}
		} else {
			count++
		}
		ring[head] = tr
		head++
		if head == a.period {
			head = 0
		}
		sum += tr

		result[i] = sum / float64(count)
	}

	return result
}

// trueRange calculates the true range for a bar given its predecessor.
func trueRange(current, previous models.Bar) float64 {
	highLow := math.Abs(current.High - current.Low)
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}
