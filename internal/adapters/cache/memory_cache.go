package cache

import (
	"context"
	"sync"

	"github.com/mikey/clawtools/internal/usage"
	"go.uber.org/zap"
)

// MemoryCache keeps the price table for the lifetime of the process
type MemoryCache struct {
	snapshot *usage.PriceSnapshot
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewMemoryCache creates a new in-memory price cache
func NewMemoryCache(logger *zap.Logger) *MemoryCache {
	return &MemoryCache{logger: logger}
}

// Load returns a copy of the cached snapshot
func (c *MemoryCache) Load(ctx context.Context) (*usage.PriceSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return usage.EmptySnapshot(), nil
	}
	return cloneSnapshot(c.snapshot), nil
}

// Save replaces the cached snapshot
func (c *MemoryCache) Save(ctx context.Context, snapshot *usage.PriceSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = cloneSnapshot(snapshot)
	c.logger.Debug("Cached model prices in memory", zap.Int("models", len(snapshot.Prices)))
	return nil
}

// Close is a no-op
func (c *MemoryCache) Close() error {
	return nil
}

func cloneSnapshot(s *usage.PriceSnapshot) *usage.PriceSnapshot {
	out := &usage.PriceSnapshot{Prices: make(map[string]usage.ModelPrice, len(s.Prices))}
	if s.FetchedAt != nil {
		at := *s.FetchedAt
		out.FetchedAt = &at
	}
	for k, v := range s.Prices {
		out.Prices[k] = v
	}
	return out
}
