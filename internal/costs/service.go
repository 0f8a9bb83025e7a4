// Package costs produces token usage and cost reports for a time window.
package costs

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/clawtools/internal/ports"
	"github.com/mikey/clawtools/internal/usage"
	"go.uber.org/zap"
)

// Request selects the report window
type Request struct {
	Mode        string
	Start       string
	End         string
	Timezone    string
	FetchPrices bool
}

// Service builds usage reports from session logs and the price cache
type Service struct {
	aggregator *usage.Aggregator
	cache      ports.PriceCache
	fetcher    ports.PriceFetcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new report service
func NewService(aggregator *usage.Aggregator, cache ports.PriceCache, fetcher ports.PriceFetcher, logger *zap.Logger) *Service {
	return &Service{
		aggregator: aggregator,
		cache:      cache,
		fetcher:    fetcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Report resolves the window and aggregates usage in it. With FetchPrices
// the price table is refreshed and cached first; fetch failures are fatal.
func (s *Service) Report(ctx context.Context, req Request) (*usage.Report, error) {
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", req.Timezone, err)
	}

	prices, err := s.prices(ctx, req.FetchPrices)
	if err != nil {
		return nil, err
	}

	window, err := usage.ResolveWindow(req.Mode, req.Start, req.End, loc, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Aggregating usage",
		zap.String("mode", req.Mode),
		zap.Time("start", window.Start),
		zap.Time("end", window.End))

	return s.aggregator.Aggregate(window, req.Timezone, prices)
}

func (s *Service) prices(ctx context.Context, refresh bool) (*usage.PriceSnapshot, error) {
	if refresh {
		snapshot, err := s.fetcher.FetchPrices(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Save(ctx, snapshot); err != nil {
			return nil, err
		}
		return snapshot, nil
	}

	snapshot, err := s.cache.Load(ctx)
	if err != nil {
		s.logger.Warn("Price cache unavailable, costing without prices", zap.Error(err))
		return usage.EmptySnapshot(), nil
	}
	return snapshot, nil
}
