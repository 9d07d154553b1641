package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.PositionStore using SQLite. It holds at most one
// row per symbol: the position that is currently open.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trailbot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %w", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %w", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS open_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL UNIQUE,
		entry_price REAL NOT NULL,
		peak_price REAL NOT NULL,
		quantity REAL NOT NULL,
		trailing_activated INTEGER NOT NULL DEFAULT 0,
		entry_time TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("%w: failed to execute schema initialization: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveOpen inserts the open position or updates the row already stored for its symbol.
func (r *Repository) SaveOpen(ctx context.Context, pos *domain.Position) (int64, error) {
	if !pos.IsOpen() {
		return 0, fmt.Errorf("%w: only open positions are stored", ports.ErrInvalidRequest)
	}

	const query = `
	INSERT INTO open_positions (symbol, entry_price, peak_price, quantity, trailing_activated, entry_time, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol) DO UPDATE SET
		entry_price = excluded.entry_price,
		peak_price = excluded.peak_price,
		quantity = excluded.quantity,
		trailing_activated = excluded.trailing_activated,
		entry_time = excluded.entry_time,
		updated_at = excluded.updated_at
	RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		pos.Symbol, pos.EntryPrice, pos.PeakPrice, pos.Quantity, pos.TrailingActivated,
		pos.EntryTime.UTC(), time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to save open position for symbol %s: %w", ports.ErrQueryFailed, pos.Symbol, err)
	}

	pos.ID = id
	r.logger.Debug(ctx, "Open position saved", map[string]interface{}{
		"positionID": id,
		"symbol":     pos.Symbol,
		"peakPrice":  pos.PeakPrice,
		"trailing":   pos.TrailingActivated,
	})
	return id, nil
}

// FindOpenBySymbol retrieves the open position for a given symbol, if any.
func (r *Repository) FindOpenBySymbol(ctx context.Context, symbol string) (*domain.Position, error) {
	const query = `
	SELECT id, symbol, entry_price, peak_price, quantity, trailing_activated, entry_time
	FROM open_positions
	WHERE symbol = ?`

	row := r.db.QueryRowContext(ctx, query, symbol)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No open position found for symbol", map[string]interface{}{"symbol": symbol})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("%w: failed to query open position for symbol %s: %w", ports.ErrQueryFailed, symbol, err)
	}
	return pos, nil
}

// DeleteBySymbol removes the stored position for a symbol. Deleting a missing row is not an error.
func (r *Repository) DeleteBySymbol(ctx context.Context, symbol string) error {
	const query = `DELETE FROM open_positions WHERE symbol = ?`

	result, err := r.db.ExecContext(ctx, query, symbol)
	if err != nil {
		return fmt.Errorf("%w: failed to delete open position for symbol %s: %w", ports.ErrQueryFailed, symbol, err)
	}
	rows, _ := result.RowsAffected()
	r.logger.Debug(ctx, "Open position deleted", map[string]interface{}{"symbol": symbol, "rows": rows})
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPosition scans a row into a domain.Position struct.
func scanPosition(s scanner) (*domain.Position, error) {
	p := &domain.Position{Status: domain.StatusOpen}
	err := s.Scan(&p.ID, &p.Symbol, &p.EntryPrice, &p.PeakPrice, &p.Quantity, &p.TrailingActivated, &p.EntryTime)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	return p, nil
}
