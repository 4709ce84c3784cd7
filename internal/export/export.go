// Package export serializes scan results for external consumption.
package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"retest-scanner/internal/models"
)

// eventRow fixes the CSV column set and order of the export contract.
type eventRow struct {
	BreakoutTime       string  `csv:"breakout_time"`
	RetestTime         string  `csv:"retest_time"`
	TakeoffTime        string  `csv:"takeoff_time"`
	Level              float64 `csv:"level"`
	CloseAtTakeoff     float64 `csv:"close_at_takeoff"`
	ReturnFromLevelPct float64 `csv:"return_from_level_pct"`
	BarsToRetest       int     `csv:"bars_to_retest"`
	BarsToTakeoff      int     `csv:"bars_to_takeoff"`
	ATRAtTakeoff       float64 `csv:"atr_at_takeoff"`
}

// WriteEventsCSV writes events as delimited text with the fixed column
// order. An empty event list still produces the header row.
func WriteEventsCSV(w io.Writer, events []models.Event) error {
	rows := make([]*eventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, &eventRow{
			BreakoutTime:       e.BreakoutTime.Format(time.RFC3339),
			RetestTime:         e.RetestTime.Format(time.RFC3339),
			TakeoffTime:        e.TakeoffTime.Format(time.RFC3339),
			Level:              e.Level,
			CloseAtTakeoff:     e.CloseAtTakeoff,
			ReturnFromLevelPct: e.ReturnFromLevelPct,
			BarsToRetest:       e.BarsToRetest,
			BarsToTakeoff:      e.BarsToTakeoff,
			ATRAtTakeoff:       e.ATRAtTakeoff,
		})
	}

	return gocsv.Marshal(&rows, w)
}

// WriteEventsFile writes events to a CSV file at path.
func WriteEventsFile(path string, events []models.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteEventsCSV(f, events); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
