package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"btcPowerLaw/internal/domain"
	"btcPowerLaw/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// FitCache implements ports.FitCache using SQLite.
type FitCache struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite fit cache.
type Config struct {
	DBPath string
	Logger ports.Logger
}

var _ ports.FitCache = (*FitCache)(nil)

// NewFitCache opens (or creates) the cache database and its schema.
func NewFitCache(cfg Config) (*FitCache, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite fit cache")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("fit cache path is empty: %w", ports.ErrConfigurationError)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(cfg.DBPath), err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", cfg.DBPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at '%s': %w", cfg.DBPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &FitCache{db: db, logger: cfg.Logger}
	if err := c.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	cfg.Logger.Info(context.Background(), "SQLite fit cache opened", ports.Fields{"path": cfg.DBPath})
	return c, nil
}

func (c *FitCache) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS model_fits (
		source       TEXT    NOT NULL,
		symbol       TEXT    NOT NULL,
		window_start INTEGER NOT NULL,
		window_end   INTEGER NOT NULL,
		origin       INTEGER NOT NULL,
		obs_count    INTEGER NOT NULL,
		last_date    INTEGER NOT NULL,
		last_price   REAL    NOT NULL,
		digest       TEXT    NOT NULL,
		intercept    REAL    NOT NULL,
		slope        REAL    NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (source, symbol, window_start, window_end, origin, obs_count, last_date, last_price, digest)
	);`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Get looks up the coefficients fitted from exactly the data described by key.
func (c *FitCache) Get(ctx context.Context, key ports.FitKey) (domain.FittedModel, bool, error) {
	const query = `
	SELECT intercept, slope FROM model_fits
	WHERE source = ? AND symbol = ? AND window_start = ? AND window_end = ?
	  AND origin = ? AND obs_count = ? AND last_date = ? AND last_price = ? AND digest = ?`

	var m domain.FittedModel
	err := c.db.QueryRowContext(ctx, query, keyArgs(key)...).Scan(&m.Intercept, &m.Slope)
	if errors.Is(err, sql.ErrNoRows) {
		c.logger.Debug(ctx, "Fit cache miss", ports.Fields{"source": key.Source, "symbol": key.Symbol, "count": key.Count})
		return domain.FittedModel{}, false, nil
	}
	if err != nil {
		return domain.FittedModel{}, false, fmt.Errorf("failed to query fit cache for %s: %w", key.Symbol, err)
	}
	c.logger.Debug(ctx, "Fit cache hit", ports.Fields{"source": key.Source, "symbol": key.Symbol, "count": key.Count})
	return m, true, nil
}

// Put stores model under key, replacing any previous entry.
func (c *FitCache) Put(ctx context.Context, key ports.FitKey, model domain.FittedModel) error {
	const query = `
	INSERT OR REPLACE INTO model_fits
		(source, symbol, window_start, window_end, origin, obs_count, last_date, last_price, digest, intercept, slope, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := append(keyArgs(key), model.Intercept, model.Slope, time.Now().UTC())
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to store fit for %s: %w", key.Symbol, err)
	}
	return nil
}

// Close closes the database connection.
func (c *FitCache) Close() error {
	if c.db != nil {
		c.logger.Info(context.Background(), "Closing SQLite fit cache")
		return c.db.Close()
	}
	return nil
}

func keyArgs(key ports.FitKey) []interface{} {
	return []interface{}{
		key.Source, key.Symbol,
		key.Window.Start.Unix(), key.Window.End.Unix(),
		key.Origin.Unix(), key.Count,
		key.LastDate.Unix(), key.LastPrice,
		key.Digest,
	}
}
