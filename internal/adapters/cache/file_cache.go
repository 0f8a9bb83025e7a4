package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mikey/clawtools/internal/usage"
	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// FileCache stores the price table as a JSON document
// ({"fetchedAt": ..., "prices": {...}})
type FileCache struct {
	path   string
	logger *zap.Logger
}

// NewFileCache creates a new JSON file price cache
func NewFileCache(path string, logger *zap.Logger) *FileCache {
	return &FileCache{path: path, logger: logger}
}

// Load reads the snapshot. A missing or unreadable file is an empty cache.
func (c *FileCache) Load(ctx context.Context) (*usage.PriceSnapshot, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Failed to read price cache", zap.String("path", c.path), zap.Error(err))
		}
		return usage.EmptySnapshot(), nil
	}

	var snapshot usage.PriceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warn("Ignoring corrupt price cache", zap.String("path", c.path), zap.Error(err))
		return usage.EmptySnapshot(), nil
	}
	if snapshot.Prices == nil {
		snapshot.Prices = map[string]usage.ModelPrice{}
	}
	return &snapshot, nil
}

// Save writes the snapshot in full
func (c *FileCache) Save(ctx context.Context, snapshot *usage.PriceSnapshot) error {
	if err := utils.WriteJSON(c.path, snapshot); err != nil {
		return fmt.Errorf("failed to write price cache: %w", err)
	}
	c.logger.Debug("Saved price cache", zap.String("path", c.path), zap.Int("models", len(snapshot.Prices)))
	return nil
}

// Close is a no-op
func (c *FileCache) Close() error {
	return nil
}
