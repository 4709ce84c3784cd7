package marketdata

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"retest-scanner/internal/errors"
	"retest-scanner/internal/models"
)

// csvRow is one raw OHLCV row. Fields stay strings so a single bad row
// can be dropped instead of failing the whole file.
type csvRow struct {
	Date   string `csv:"Date"`
	Open   string `csv:"Open"`
	High   string `csv:"High"`
	Low    string `csv:"Low"`
	Close  string `csv:"Close"`
	Volume string `csv:"Volume"`
}

// dateLayouts are tried in order when parsing the Date column.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FileProvider reads bars from a local CSV file with
// Date,Open,High,Low,Close,Volume columns.
type FileProvider struct {
	path   string
	logger zerolog.Logger
}

// NewFileProvider creates a provider backed by the given CSV file.
func NewFileProvider(path string, logger zerolog.Logger) *FileProvider {
	return &FileProvider{
		path:   path,
		logger: logger.With().Str("component", "csv_provider").Logger(),
	}
}

func (p *FileProvider) Name() string {
	return "csv"
}

// GetHistorical reads the file and returns bars within the requested
// range. The symbol in the request is ignored; the file is the series.
func (p *FileProvider) GetHistorical(ctx context.Context, req Request) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, errors.NewProviderError(p.Name(), "opening "+p.path, err)
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.NewProviderError(p.Name(), "parsing "+p.path, err)
	}

	bars, dropped := parseRows(rows, req.From, req.To)
	if dropped > 0 {
		p.logger.Warn().Int("dropped", dropped).Str("file", p.path).Msg("Dropped unparsable rows")
	}
	if len(bars) == 0 {
		return nil, errors.NewProviderError(p.Name(), "no usable rows in "+p.path, errors.ErrDataNotFound)
	}

	return bars, nil
}

// parseRows converts raw rows to bars, dropping rows with missing or
// unparsable fields and filtering to the [from, to] range when set.
func parseRows(rows []*csvRow, from, to time.Time) ([]models.Bar, int) {
	bars := make([]models.Bar, 0, len(rows))
	dropped := 0

	for _, r := range rows {
		ts, ok := parseDate(r.Date)
		if !ok {
			dropped++
			continue
		}
		open, err1 := strconv.ParseFloat(r.Open, 64)
		high, err2 := strconv.ParseFloat(r.High, 64)
		low, err3 := strconv.ParseFloat(r.Low, 64)
		clos, err4 := strconv.ParseFloat(r.Close, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			dropped++
			continue
		}
		// Volume is optional in some source files.
		volume, err := strconv.ParseFloat(r.Volume, 64)
		if err != nil {
			volume = 0
		}

		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && ts.After(to) {
			continue
		}

		bars = append(bars, models.Bar{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     clos,
			Volume:    volume,
		})
	}

	return bars, dropped
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
