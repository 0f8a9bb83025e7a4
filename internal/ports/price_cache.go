package ports

import (
	"context"

	"github.com/mikey/clawtools/internal/usage"
)

// PriceCache defines the interface for persisting the model price table
type PriceCache interface {
	// Load returns the cached snapshot, or an empty one when nothing is cached
	Load(ctx context.Context) (*usage.PriceSnapshot, error)

	// Save replaces the cached snapshot
	Save(ctx context.Context, snapshot *usage.PriceSnapshot) error

	// Close releases any underlying resources
	Close() error
}

// PriceFetcher defines the interface for retrieving current model prices
type PriceFetcher interface {
	FetchPrices(ctx context.Context) (*usage.PriceSnapshot, error)
}
