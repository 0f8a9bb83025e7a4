package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/clawtools/internal/usage"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the PriceCache interface
type SQLiteCache struct {
	db    *sql.DB
	store *sqlStore
}

// NewSQLiteCache opens (and if needed creates) the price tables at dbPath
func NewSQLiteCache(dbPath string, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create tables if they don't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS model_prices (
			model TEXT PRIMARY KEY,
			prompt REAL,
			completion REAL,
			image REAL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS price_meta (
			id INTEGER PRIMARY KEY,
			fetched_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteCache{
		db: db,
		store: &sqlStore{
			db:          db,
			logger:      logger,
			replaceMeta: `INSERT OR REPLACE INTO price_meta (id, fetched_at) VALUES (1, ?)`,
		},
	}, nil
}

// Load returns the cached snapshot
func (c *SQLiteCache) Load(ctx context.Context) (*usage.PriceSnapshot, error) {
	return c.store.load(ctx)
}

// Save replaces every cached price in one transaction
func (c *SQLiteCache) Save(ctx context.Context, snapshot *usage.PriceSnapshot) error {
	return c.store.save(ctx, snapshot)
}

// Close closes the database connection
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
