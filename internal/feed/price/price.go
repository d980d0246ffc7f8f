// Package price adapts a bar collector to the feed.PriceFeed interface.
package price

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/cache"
	"github.com/newthinker/compass/internal/collector"
	"github.com/newthinker/compass/internal/core"
)

const (
	// DefaultInterval is the bar size of the price series.
	DefaultInterval = "1h"
	cacheTTL        = 5 * time.Minute
)

// CollectorFeed serves close-price series from a collector.
type CollectorFeed struct {
	source   collector.Collector
	interval string
	cache    cache.Store
	logger   *zap.Logger
}

// Option configures a CollectorFeed.
type Option func(*CollectorFeed)

// WithInterval overrides the bar interval.
func WithInterval(interval string) Option {
	return func(f *CollectorFeed) {
		if interval != "" {
			f.interval = interval
		}
	}
}

// WithCache caches fetched bars.
func WithCache(s cache.Store) Option {
	return func(f *CollectorFeed) { f.cache = s }
}

// New creates a price feed over source.
func New(source collector.Collector, logger *zap.Logger, opts ...Option) *CollectorFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &CollectorFeed{
		source:   source,
		interval: DefaultInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Interval returns the bar interval of served series.
func (f *CollectorFeed) Interval() string {
	return f.interval
}

// Series returns closes in [start, end], oldest first. Points after end,
// non-positive closes and out-of-order bars are dropped.
func (f *CollectorFeed) Series(ctx context.Context, coin string, start, end time.Time) (core.PriceSeries, error) {
	if !end.After(start) {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("end %v is not after start %v", end, start))
	}

	key := cache.Key("bars", f.source.Name(), coin, f.interval, start, end)
	bars, err := cache.Fetch(ctx, f.cache, key, cacheTTL, func(ctx context.Context) ([]core.OHLCV, error) {
		return f.source.FetchHistory(ctx, coin, start, end, f.interval)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s bars: %w", coin, err)
	}

	series := make(core.PriceSeries, 0, len(bars))
	dropped := 0
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) || b.Close <= 0 {
			dropped++
			continue
		}
		if n := len(series); n > 0 && !b.Time.After(series[n-1].Time) {
			dropped++
			continue
		}
		series = append(series, core.PricePoint{Time: b.Time, Price: b.Close})
	}
	if dropped > 0 {
		f.logger.Debug("dropped bars outside series contract",
			zap.String("coin", coin),
			zap.Int("dropped", dropped),
		)
	}

	if len(series) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no prices for %s in [%v, %v]", coin, start, end))
	}
	return series, nil
}
