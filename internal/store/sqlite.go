package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"retest-scanner/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Bars table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, interval, timestamp)
	);

	-- Event journal for completed pattern matches
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		level REAL NOT NULL,
		breakout_idx INTEGER NOT NULL,
		retest_idx INTEGER NOT NULL,
		takeoff_idx INTEGER NOT NULL,
		breakout_time DATETIME NOT NULL,
		retest_time DATETIME NOT NULL,
		takeoff_time DATETIME NOT NULL,
		close_at_takeoff REAL NOT NULL,
		return_from_level_pct REAL NOT NULL,
		bars_to_retest INTEGER NOT NULL,
		bars_to_takeoff INTEGER NOT NULL,
		atr_at_takeoff REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Sync times table
	CREATE TABLE IF NOT EXISTS sync_times (
		data_type TEXT PRIMARY KEY,
		synced_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bars_lookup ON bars(symbol, interval, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_symbol ON events(symbol, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveBars upserts a batch of bars for a symbol and interval.
func (s *SQLiteStore) SaveBars(ctx context.Context, symbol, interval string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, interval, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, interval, b.Timestamp.UTC(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("inserting bar: %w", err)
		}
	}

	return tx.Commit()
}

// GetBars returns bars for a symbol and interval ordered by timestamp.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Bar, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ?`
	args := []interface{}{symbol, interval}

	if !from.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scanning bar: %w", err)
		}
		bars = append(bars, b)
	}

	return bars, rows.Err()
}

// BarsFreshness returns the newest stored bar timestamp for a symbol.
func (s *SQLiteStore) BarsFreshness(ctx context.Context, symbol, interval string) (time.Time, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT timestamp FROM bars WHERE symbol = ? AND interval = ? ORDER BY timestamp DESC LIMIT 1`,
		symbol, interval).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying freshness: %w", err)
	}
	return ts, nil
}

// SaveEvents appends scan results to the event journal.
func (s *SQLiteStore) SaveEvents(ctx context.Context, symbol string, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (
			symbol, level, breakout_idx, retest_idx, takeoff_idx,
			breakout_time, retest_time, takeoff_time,
			close_at_takeoff, return_from_level_pct,
			bars_to_retest, bars_to_takeoff, atr_at_takeoff
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			symbol, e.Level, e.BreakoutIdx, e.RetestIdx, e.TakeoffIdx,
			e.BreakoutTime.UTC(), e.RetestTime.UTC(), e.TakeoffTime.UTC(),
			e.CloseAtTakeoff, e.ReturnFromLevelPct,
			e.BarsToRetest, e.BarsToTakeoff, e.ATRAtTakeoff); err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
	}

	return tx.Commit()
}

// GetEvents returns journaled events, newest first.
func (s *SQLiteStore) GetEvents(ctx context.Context, filter EventFilter) ([]models.StoredEvent, error) {
	query := `
		SELECT id, symbol, level, breakout_idx, retest_idx, takeoff_idx,
		       breakout_time, retest_time, takeoff_time,
		       close_at_takeoff, return_from_level_pct,
		       bars_to_retest, bars_to_takeoff, atr_at_takeoff, created_at
		FROM events`

	var conditions []string
	var args []interface{}
	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []models.StoredEvent
	for rows.Next() {
		var e models.StoredEvent
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Level,
			&e.BreakoutIdx, &e.RetestIdx, &e.TakeoffIdx,
			&e.BreakoutTime, &e.RetestTime, &e.TakeoffTime,
			&e.CloseAtTakeoff, &e.ReturnFromLevelPct,
			&e.BarsToRetest, &e.BarsToTakeoff, &e.ATRAtTakeoff, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var ts sql.NullTime
	if err := s.db.QueryRow(`SELECT synced_at FROM sync_times WHERE data_type = ?`, dataType).Scan(&ts); err != nil {
		return time.Time{}
	}
	if !ts.Valid {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = ts.Time
	s.mu.Unlock()
	return ts.Time
}

// SetLastSync records the last sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	if _, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_times (data_type, synced_at) VALUES (?, ?)`,
		dataType, t.UTC()); err != nil {
		return fmt.Errorf("saving sync time: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
