// Package marketdata acquires OHLCV series from external sources.
//
// Providers hand the core an already-cleaned series: rows with missing
// or unparsable fields are dropped during acquisition, never repaired.
package marketdata

import (
	"context"
	"time"

	"retest-scanner/internal/models"
)

// Request describes a historical bar request.
type Request struct {
	Symbol   string
	Interval string // "d", "w", "m"; daily when empty
	From     time.Time
	To       time.Time
}

// Provider defines the interface for market-data acquisition.
type Provider interface {
	Name() string
	GetHistorical(ctx context.Context, req Request) ([]models.Bar, error)
}
