// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"retest-scanner/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Bars
	SaveBars(ctx context.Context, symbol, interval string, bars []models.Bar) error
	GetBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Bar, error)
	BarsFreshness(ctx context.Context, symbol, interval string) (time.Time, error)

	// Event journal
	SaveEvents(ctx context.Context, symbol string, events []models.Event) error
	GetEvents(ctx context.Context, filter EventFilter) ([]models.StoredEvent, error)

	// Sync
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// EventFilter represents filters for querying stored events.
type EventFilter struct {
	Symbol string
	Since  time.Time
	Limit  int
}
