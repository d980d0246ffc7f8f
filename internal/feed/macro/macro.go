// Package macro derives crypto correlation signals from daily moves in
// equity, currency, volatility and gold markets.
package macro

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/cache"
	"github.com/newthinker/compass/internal/collector"
	"github.com/newthinker/compass/internal/core"
	macrofactor "github.com/newthinker/compass/internal/factor/macro"
)

// Market names understood by Signals.
const (
	NASDAQ = "NASDAQ"
	DXY    = "DXY"
	VIX    = "VIX"
	GOLD   = "GOLD"
)

// DefaultSymbols maps market names to Yahoo tickers.
var DefaultSymbols = map[string]string{
	NASDAQ: "^IXIC",
	DXY:    "DX-Y.NYB",
	VIX:    "^VIX",
	GOLD:   "GC=F",
}

const (
	techMomentumThreshold = 2.0
	techMomentumSignal    = 0.7
	// lookback covers weekends and holidays so two closes are always found.
	lookback = 10 * 24 * time.Hour
	cacheTTL = 30 * time.Minute
)

// Signals converts daily percent changes keyed by market name into named
// correlation signals. Markets missing from changes produce no signal.
func Signals(changes map[string]float64) map[string]float64 {
	signals := make(map[string]float64, 4)
	if c, ok := changes[NASDAQ]; ok {
		switch {
		case c > techMomentumThreshold:
			signals[macrofactor.SignalTechMomentum] = techMomentumSignal
		case c < -techMomentumThreshold:
			signals[macrofactor.SignalTechMomentum] = -techMomentumSignal
		default:
			signals[macrofactor.SignalTechMomentum] = 0
		}
	}
	if c, ok := changes[DXY]; ok {
		signals[macrofactor.SignalDollarInverse] = -c / 100
	}
	if c, ok := changes[VIX]; ok {
		signals[macrofactor.SignalRiskSentiment] = -c / 100
	}
	if c, ok := changes[GOLD]; ok {
		signals[macrofactor.SignalAlternativeAUM] = c / 100
	}
	return signals
}

// YahooFeed implements feed.MacroFeed and feed.MacroHistory over a daily
// bar collector.
type YahooFeed struct {
	source  collector.Collector
	symbols map[string]string
	cache   cache.Store
	logger  *zap.Logger
}

// New creates a macro feed. A nil symbols map uses DefaultSymbols.
func New(source collector.Collector, symbols map[string]string, store cache.Store, logger *zap.Logger) *YahooFeed {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YahooFeed{
		source:  source,
		symbols: symbols,
		cache:   store,
		logger:  logger,
	}
}

// dailyChange is a close-to-close percent change. Time is when the
// closing price is known, not the bar's own timestamp.
type dailyChange struct {
	Time    time.Time
	Percent float64
}

// closeKnownAt returns the start of the UTC day after the bar. Yahoo
// stamps daily bars with the session open, and every tracked session
// closes before midnight UTC.
func closeKnownAt(bar time.Time) time.Time {
	y, m, d := bar.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

func (f *YahooFeed) changes(ctx context.Context, name, ticker string, start, end time.Time) ([]dailyChange, error) {
	key := cache.Key("macro", ticker, start.Truncate(time.Hour), end.Truncate(time.Hour))
	bars, err := cache.Fetch(ctx, f.cache, key, cacheTTL, func(ctx context.Context) ([]core.OHLCV, error) {
		return f.source.FetchHistory(ctx, ticker, start, end, "1d")
	})
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", name, ticker, err)
	}

	out := make([]dailyChange, 0, len(bars))
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		known := closeKnownAt(cur.Time)
		if prev.Close <= 0 || cur.Close <= 0 || known.After(end) {
			continue
		}
		out = append(out, dailyChange{Time: known, Percent: core.PercentChange(cur.Close, prev.Close)})
	}
	return out, nil
}

// collect fetches every configured market, logging and skipping failures.
func (f *YahooFeed) collect(ctx context.Context, start, end time.Time) (map[string][]dailyChange, error) {
	names := make([]string, 0, len(f.symbols))
	for name := range f.symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	all := make(map[string][]dailyChange, len(names))
	var lastErr error
	for _, name := range names {
		ch, err := f.changes(ctx, name, f.symbols[name], start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("macro market unavailable", zap.String("market", name), zap.Error(err))
			lastErr = err
			continue
		}
		if len(ch) > 0 {
			all[name] = ch
		}
	}
	if len(all) == 0 && lastErr != nil {
		return nil, core.WrapError(core.ErrFeedUnavailable, lastErr)
	}
	return all, nil
}

// Macro returns signals from the latest daily change whose close was
// known at or before at.
func (f *YahooFeed) Macro(ctx context.Context, at time.Time) (*core.MacroSnapshot, error) {
	all, err := f.collect(ctx, at.Add(-lookback), at)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]float64, len(all))
	for name, ch := range all {
		latest[name] = ch[len(ch)-1].Percent
	}
	return &core.MacroSnapshot{Time: at, Signals: Signals(latest)}, nil
}

// MacroHistory returns one snapshot per trading day in the period, each
// stamped when that day's closes became known and carrying the latest
// known change of every market.
func (f *YahooFeed) MacroHistory(ctx context.Context, start, end time.Time) ([]core.MacroSnapshot, error) {
	all, err := f.collect(ctx, start.Add(-lookback), end)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]time.Time)
	for _, ch := range all {
		for _, c := range ch {
			seen[c.Time.Unix()] = c.Time
		}
	}
	days := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		days = append(days, t)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	cursor := make(map[string]int, len(all))
	snapshots := make([]core.MacroSnapshot, 0, len(days))
	for _, day := range days {
		current := make(map[string]float64, len(all))
		for name, ch := range all {
			i := cursor[name]
			for i < len(ch) && !ch[i].Time.After(day) {
				i++
			}
			cursor[name] = i
			if i > 0 {
				current[name] = ch[i-1].Percent
			}
		}
		snapshots = append(snapshots, core.MacroSnapshot{Time: day, Signals: Signals(current)})
	}
	return snapshots, nil
}
