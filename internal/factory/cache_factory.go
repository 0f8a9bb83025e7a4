package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/clawtools/internal/adapters/cache"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/ports"
	"go.uber.org/zap"
)

// CacheFactory creates price caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePriceCache creates a price cache based on the configuration
func (f *CacheFactory) CreatePriceCache() (ports.PriceCache, error) {
	pc := f.cfg.GetPriceCache()

	switch pc.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger), nil
	case "file", "":
		return cache.NewFileCache(pc.Path, f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(pc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(pc.SQLitePath, f.logger)
	case "mysql":
		return cache.NewMySQLCache(context.Background(), pc.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported price cache type: %s", pc.Type)
	}
}
