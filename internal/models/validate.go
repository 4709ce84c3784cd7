package models

import (
	"math"

	"retest-scanner/internal/errors"
)

// ValidateBars checks a bar series for the input contract: strictly
// increasing timestamps, finite prices and volume, volume non-negative.
// The series is never repaired; the first violation is returned.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.Timestamp.IsZero() {
			return errors.NewInputError(i, "timestamp", "missing timestamp")
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return errors.NewInputError(i, "timestamp", "timestamps must be strictly increasing")
		}
		if !finite(b.Open) {
			return errors.NewInputError(i, "open", "price is NaN or infinite")
		}
		if !finite(b.High) {
			return errors.NewInputError(i, "high", "price is NaN or infinite")
		}
		if !finite(b.Low) {
			return errors.NewInputError(i, "low", "price is NaN or infinite")
		}
		if !finite(b.Close) {
			return errors.NewInputError(i, "close", "price is NaN or infinite")
		}
		if !finite(b.Volume) {
			return errors.NewInputError(i, "volume", "volume is NaN or infinite")
		}
		if b.Volume < 0 {
			return errors.NewInputError(i, "volume", "volume must be non-negative")
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
