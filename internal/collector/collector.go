package collector

import (
	"context"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Collector fetches quotes and bar history from one data source.
type Collector interface {
	Name() string
	SupportedMarkets() []core.Market

	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
