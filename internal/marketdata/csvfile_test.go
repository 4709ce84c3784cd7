package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "retest-scanner/internal/errors"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileProviderParsesBars(t *testing.T) {
	path := writeTempCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,5000
2024-01-03,101,104,100,103,6000
`)

	bars, err := NewFileProvider(path, zerolog.Nop()).GetHistorical(context.Background(), Request{})
	if err != nil {
		t.Fatalf("GetHistorical() error = %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	b := bars[0]
	if b.Open != 100 || b.High != 102 || b.Low != 99 || b.Close != 101 || b.Volume != 5000 {
		t.Errorf("unexpected first bar: %+v", b)
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !b.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", b.Timestamp, want)
	}
}

func TestFileProviderDropsBadRows(t *testing.T) {
	path := writeTempCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,5000
not-a-date,1,2,3,4,5
2024-01-04,abc,104,100,103,6000
2024-01-05,103,105,102,104,
`)

	bars, err := NewFileProvider(path, zerolog.Nop()).GetHistorical(context.Background(), Request{})
	if err != nil {
		t.Fatalf("GetHistorical() error = %v", err)
	}
	// Two rows drop; the blank-volume row survives with volume 0.
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Volume != 0 {
		t.Errorf("blank volume = %v, want 0", bars[1].Volume)
	}
}

func TestFileProviderRangeFilter(t *testing.T) {
	path := writeTempCSV(t, `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,5000
2024-01-03,101,104,100,103,6000
2024-01-04,103,105,102,104,7000
`)

	from := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	bars, err := NewFileProvider(path, zerolog.Nop()).GetHistorical(context.Background(), Request{From: from})
	if err != nil {
		t.Fatalf("GetHistorical() error = %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars from %v, got %d", from, len(bars))
	}
}

func TestFileProviderAllRowsBad(t *testing.T) {
	path := writeTempCSV(t, `Date,Open,High,Low,Close,Volume
nope,1,2,3,x,5
`)

	_, err := NewFileProvider(path, zerolog.Nop()).GetHistorical(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error for a file with no usable rows")
	}
	if !errors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("error %v does not wrap ErrDataNotFound", err)
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := NewFileProvider("/nonexistent/bars.csv", zerolog.Nop()).GetHistorical(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var perr *apperrors.ProviderError
	if !errors.As(err, &perr) {
		t.Errorf("error %T is not a ProviderError", err)
	}
}
