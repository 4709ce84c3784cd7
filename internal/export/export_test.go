package export

import (
	"strings"
	"testing"
	"time"

	"retest-scanner/internal/models"
)

func sampleEvent() models.Event {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return models.Event{
		BreakoutIdx:        1,
		RetestIdx:          2,
		TakeoffIdx:         3,
		BreakoutTime:       base,
		RetestTime:         base.Add(time.Hour),
		TakeoffTime:        base.Add(2 * time.Hour),
		Level:              100,
		CloseAtTakeoff:     100.6,
		ReturnFromLevelPct: 0.6,
		BarsToRetest:       1,
		BarsToTakeoff:      1,
		ATRAtTakeoff:       1.25,
	}
}

func TestWriteEventsCSVHeaderOrder(t *testing.T) {
	var sb strings.Builder
	if err := WriteEventsCSV(&sb, nil); err != nil {
		t.Fatalf("WriteEventsCSV() error = %v", err)
	}

	want := "breakout_time,retest_time,takeoff_time,level,close_at_takeoff," +
		"return_from_level_pct,bars_to_retest,bars_to_takeoff,atr_at_takeoff"
	got := strings.TrimSpace(sb.String())
	if got != want {
		t.Errorf("header = %q, want %q", got, want)
	}
}

func TestWriteEventsCSVRow(t *testing.T) {
	var sb strings.Builder
	if err := WriteEventsCSV(&sb, []models.Event{sampleEvent()}); err != nil {
		t.Fatalf("WriteEventsCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	row := lines[1]
	for _, want := range []string{
		"2024-05-01T09:00:00Z",
		"2024-05-01T10:00:00Z",
		"2024-05-01T11:00:00Z",
		"100.6",
		"0.6",
		"1.25",
	} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}
}
