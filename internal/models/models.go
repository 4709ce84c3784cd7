// Package models provides domain models for the scanner application.
package models

import (
	"time"
)

// Bar represents OHLCV data for a single sampled period.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Event represents one completed breakout → retest → takeoff match.
// Events are ordered by breakout index and are never deduplicated: a
// price path that recrosses the level repeatedly can produce
// temporally overlapping events.
type Event struct {
	BreakoutIdx int `json:"breakout_idx"`
	RetestIdx   int `json:"retest_idx"`
	TakeoffIdx  int `json:"takeoff_idx"`

	BreakoutTime time.Time `json:"breakout_time"`
	RetestTime   time.Time `json:"retest_time"`
	TakeoffTime  time.Time `json:"takeoff_time"`

	Level              float64 `json:"level"`
	CloseAtTakeoff     float64 `json:"close_at_takeoff"`
	ReturnFromLevelPct float64 `json:"return_from_level_pct"`
	BarsToRetest       int     `json:"bars_to_retest"`
	BarsToTakeoff      int     `json:"bars_to_takeoff"`
	ATRAtTakeoff       float64 `json:"atr_at_takeoff"`
}

// StoredEvent is an Event as persisted in the journal, carrying the
// symbol and row identity the scan itself does not track.
type StoredEvent struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
	Event
}
