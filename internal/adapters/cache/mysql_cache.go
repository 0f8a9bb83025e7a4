package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/clawtools/internal/usage"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the PriceCache interface
type MySQLCache struct {
	db    *sql.DB
	store *sqlStore
}

// NewMySQLCache connects to dsn and creates the price tables if needed
func NewMySQLCache(ctx context.Context, dsn string, logger *zap.Logger) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS model_prices (
			model VARCHAR(255) PRIMARY KEY,
			prompt DOUBLE NULL,
			completion DOUBLE NULL,
			image DOUBLE NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS price_meta (
			id INT PRIMARY KEY,
			fetched_at VARCHAR(64) NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLCache{
		db: db,
		store: &sqlStore{
			db:          db,
			logger:      logger,
			replaceMeta: `REPLACE INTO price_meta (id, fetched_at) VALUES (1, ?)`,
		},
	}, nil
}

// Load returns the cached snapshot
func (c *MySQLCache) Load(ctx context.Context) (*usage.PriceSnapshot, error) {
	return c.store.load(ctx)
}

// Save replaces every cached price in one transaction
func (c *MySQLCache) Save(ctx context.Context, snapshot *usage.PriceSnapshot) error {
	return c.store.save(ctx, snapshot)
}

// Close closes the database connection
func (c *MySQLCache) Close() error {
	return c.db.Close()
}
