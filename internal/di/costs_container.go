package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/clawtools/internal/adapters/cache"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/costs"
	"github.com/mikey/clawtools/internal/factory"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/mikey/clawtools/internal/usage"
)

// BuildCostsContainer creates the container for the usage report
func BuildCostsContainer(opts *Options) (*dig.Container, error) {
	container, err := buildBaseContainer(opts)
	if err != nil {
		return nil, err
	}
	if err := provideCosts(container, true); err != nil {
		return nil, err
	}
	return container, nil
}

// provideCosts registers the report service. Unless strict, a price cache
// that cannot be opened is replaced by an empty in-memory one.
func provideCosts(container *dig.Container, strict bool) error {
	// Register session log aggregator
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *usage.Aggregator {
		return usage.NewAggregator(cfg.GetCosts().Root, logger)
	}); err != nil {
		return err
	}

	// Register price cache and fetcher
	if err := container.Provide(func(f *factory.CacheFactory, logger *zap.Logger) (ports.PriceCache, error) {
		priceCache, err := f.CreatePriceCache()
		if err != nil && !strict {
			logger.Warn("Price cache unavailable, using an empty one", zap.Error(err))
			return cache.NewMemoryCache(logger), nil
		}
		return priceCache, err
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ToolsFactory) ports.PriceFetcher {
		return f.CreatePriceFetcher()
	}); err != nil {
		return err
	}

	// Register report service
	return container.Provide(costs.NewService)
}
