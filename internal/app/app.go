// Package app wires the attribution engine to its feeds, archive and
// observers, and exposes the operations the CLI and API call.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/cache"
	"github.com/newthinker/compass/internal/collector"
	"github.com/newthinker/compass/internal/collector/crypto"
	"github.com/newthinker/compass/internal/collector/yahoo"
	"github.com/newthinker/compass/internal/config"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
	"github.com/newthinker/compass/internal/feed"
	"github.com/newthinker/compass/internal/feed/feargreed"
	"github.com/newthinker/compass/internal/feed/macro"
	"github.com/newthinker/compass/internal/feed/price"
	"github.com/newthinker/compass/internal/feed/sentiment"
	"github.com/newthinker/compass/internal/feed/social"
	"github.com/newthinker/compass/internal/llm"
	"github.com/newthinker/compass/internal/llm/factory"
	"github.com/newthinker/compass/internal/metrics"
	"github.com/newthinker/compass/internal/narrative"
	"github.com/newthinker/compass/internal/storage/archive"
	"github.com/newthinker/compass/internal/storage/explanation"
	"go.uber.org/zap"
)

// explainLookback is how much hourly history Explain fetches when the
// caller supplies no prices: a 24h reference plus a window before it.
const explainLookback = 48 * time.Hour

// Service is the application orchestrator.
type Service struct {
	cfg    *config.Config
	logger *zap.Logger

	collectors   *collector.Registry
	cache        cache.Store
	prices       feed.PriceFeed
	sentiment    feed.SentimentFeed
	macro        feed.MacroFeed
	engine       *attribution.Engine
	reports      *archive.ReportStore
	explanations explanation.Store
	narrator     *narrative.Narrator
	metrics      *metrics.Registry

	provider llm.Provider
	archive  archive.Storage
	now      func() time.Time
}

// Option overrides a collaborator built from configuration.
type Option func(*Service)

// WithPriceFeed replaces the collector-backed price feed.
func WithPriceFeed(f feed.PriceFeed) Option {
	return func(s *Service) { s.prices = f }
}

// WithSentimentFeed replaces the Fear & Greed plus social feed.
func WithSentimentFeed(f feed.SentimentFeed) Option {
	return func(s *Service) { s.sentiment = f }
}

// WithMacroFeed replaces the Yahoo macro feed.
func WithMacroFeed(f feed.MacroFeed) Option {
	return func(s *Service) { s.macro = f }
}

// WithArchive replaces the configured cold storage.
func WithArchive(a archive.Storage) Option {
	return func(s *Service) { s.archive = a }
}

// WithLLM replaces the configured LLM provider.
func WithLLM(p llm.Provider) Option {
	return func(s *Service) { s.provider = p }
}

// WithMetrics records explanations, analyzer outcomes and validation runs.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCache replaces the configured response cache.
func WithCache(c cache.Store) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a service from configuration. Collaborators supplied as
// options are used as-is; everything else is constructed from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		store, err := newCache(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		s.cache = store
	}

	if err := s.initFeeds(); err != nil {
		return nil, err
	}
	s.initEngine()

	if s.archive == nil {
		store, err := newArchive(cfg.Storage.Cold)
		if err != nil {
			return nil, err
		}
		s.archive = store
	}
	s.reports = archive.NewReportStore(s.archive)
	s.explanations = explanation.NewMemoryStore(cfg.Server.MaxExplanations)

	if s.provider == nil {
		p, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, err
		}
		s.provider = p
	}
	if s.provider != nil {
		s.narrator = narrative.New(s.provider, narrative.Config{}, logger)
	}

	logger.Info("compass initialized",
		zap.Strings("collectors", s.collectors.Names()),
		zap.Bool("sentiment", s.sentiment != nil),
		zap.Bool("macro", s.macro != nil),
		zap.Bool("narration", s.narrator != nil),
	)
	return s, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return cache.NewMemory(cfg.MaxSize), nil
	case "redis":
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case "none":
		return nil, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cache type: %s", cfg.Type))
	}
}

func newArchive(cfg config.ColdStorageConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage type: %s", cfg.Type))
	}
}

func (s *Service) initFeeds() error {
	if s.prices == nil {
		cc, err := crypto.NewFromConfig(crypto.Config{
			Providers:       s.cfg.Collectors.Crypto.Providers,
			DefaultQuote:    s.cfg.Collectors.Crypto.DefaultQuote,
			CoinGeckoAPIKey: s.cfg.Collectors.Crypto.CoinGeckoAPIKey,
		})
		if err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		s.collectors.Register(cc)
		s.prices = price.New(cc, s.logger,
			price.WithInterval(s.cfg.Validation.Interval),
			price.WithCache(s.cache),
		)
	}

	if s.sentiment == nil && s.cfg.Feeds.Sentiment.Enabled {
		sc := s.cfg.Feeds.Sentiment
		var index *feargreed.Client
		if sc.FearGreedURL != "" {
			index = feargreed.NewWithBaseURL(sc.FearGreedURL, s.cache)
		} else {
			index = feargreed.New(s.cache)
		}

		var scorer sentiment.SocialScorer
		if sc.SocialEnabled {
			if sc.SocialURL != "" {
				scorer = social.NewWithBaseURL(sc.SocialURL, s.cache)
			} else {
				scorer = social.New(s.cache)
			}
		}
		s.sentiment = sentiment.New(index, scorer, s.logger)
	}

	if s.macro == nil && s.cfg.Feeds.Macro.Enabled {
		y := yahoo.New()
		s.collectors.Register(y)
		s.macro = macro.New(y, s.cfg.Feeds.Macro.Symbols, s.cache, s.logger)
	}
	return nil
}

func (s *Service) initEngine() {
	registry := attribution.NewDefaultRegistry(s.logger)
	registry.SetParallel(s.cfg.Engine.Parallel)
	if s.metrics != nil {
		m := s.metrics
		registry.OnOutcome(func(t core.FactorType, o factor.Outcome) {
			m.RecordAnalyzer(string(t), string(o))
		})
	}

	opts := []attribution.Option{
		attribution.WithRegistry(registry),
		attribution.WithClock(s.now),
	}
	if s.sentiment != nil {
		opts = append(opts, attribution.WithSentimentFeed(s.sentiment))
	}
	if s.macro != nil {
		opts = append(opts, attribution.WithMacroFeed(s.macro))
	}
	s.engine = attribution.NewEngine(s.logger, opts...)
}

// Close releases the cache connection.
func (s *Service) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// ExplainRequest asks for the explanation of a coin's latest 24h move.
type ExplainRequest struct {
	Coin string `json:"coin"`
	// Prices come as a pair or not at all. When both are omitted they are
	// taken from Window, or fetched from the price feed without one.
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	PreviousPrice *float64 `json:"previous_price,omitempty"`
	// Window is optional hourly history ending before now.
	Window  core.PriceSeries `json:"window,omitempty"`
	Narrate bool             `json:"narrate,omitempty"`
}

// Explain explains the coin's movement, stores the explanation and returns
// the stored entry. Narration failures leave the narrative empty.
func (s *Service) Explain(ctx context.Context, req ExplainRequest) (*explanation.Entry, error) {
	coin := strings.ToUpper(strings.TrimSpace(req.Coin))
	if coin == "" {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("coin is required"))
	}
	start := s.now()

	areq := attribution.Request{Coin: coin, Window: req.Window}
	switch {
	case req.CurrentPrice != nil && req.PreviousPrice != nil:
		areq.CurrentPrice = *req.CurrentPrice
		areq.PreviousPrice = *req.PreviousPrice
	case req.CurrentPrice != nil || req.PreviousPrice != nil:
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("current_price and previous_price must be given together"))
	case len(req.Window) > 0:
		if err := fillPrices(&areq, req.Window); err != nil {
			return nil, err
		}
	default:
		end := start.UTC().Truncate(time.Minute)
		series, err := s.prices.Series(ctx, coin, end.Add(-explainLookback), end)
		if err != nil {
			return nil, fmt.Errorf("fetching %s prices: %w", coin, err)
		}
		if err := fillPrices(&areq, series); err != nil {
			return nil, err
		}
	}

	result, err := s.engine.Explain(ctx, areq)
	if err != nil {
		return nil, err
	}

	entry := explanation.Entry{Result: *result, CreatedAt: s.now().UTC()}
	if req.Narrate {
		entry.Narrative = s.narrate(ctx, result)
	}

	saved, err := s.explanations.Save(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("storing explanation: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordExplanation(string(result.MovementType), s.now().Sub(start).Seconds())
	}
	s.logger.Info("movement explained",
		zap.String("coin", coin),
		zap.String("movement", string(result.MovementType)),
		zap.Float64("change", result.PriceChangePercent),
		zap.Int("factors", len(result.PrimaryFactors)),
	)
	return &saved, nil
}

// fillPrices takes the latest close as current and the close 24 points
// earlier (or the earliest) as previous. The whole series is the window.
func fillPrices(req *attribution.Request, series core.PriceSeries) error {
	if len(series) < 2 {
		return core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%s: need at least 2 prices, got %d", req.Coin, len(series)))
	}
	last := len(series) - 1
	ref := 0
	if last > backtest.MinHistory {
		ref = last - backtest.MinHistory
	}
	req.CurrentPrice = series[last].Price
	req.PreviousPrice = series[ref].Price
	req.Window = series
	return nil
}

func (s *Service) narrate(ctx context.Context, result *attribution.Result) string {
	if s.narrator == nil {
		s.logger.Debug("narration requested but no LLM configured", zap.String("coin", result.Coin))
		return ""
	}

	nreq := narrative.Request{Result: result, TrackRecord: s.latestReport(ctx, result.Coin)}
	n, err := s.narrator.Narrate(ctx, nreq)
	if err != nil {
		s.logger.Warn("narration failed",
			zap.String("coin", result.Coin),
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return ""
	}
	return n.Text
}

func (s *Service) latestReport(ctx context.Context, coin string) *backtest.Report {
	summaries, err := s.reports.List(ctx, coin)
	if err != nil || len(summaries) == 0 {
		return nil
	}
	r, err := s.reports.Load(ctx, coin, summaries[0].ID)
	if err != nil {
		s.logger.Debug("loading track record failed", zap.String("coin", coin), zap.Error(err))
		return nil
	}
	return r
}

// Explanations lists stored explanations and the total matching count.
func (s *Service) Explanations(ctx context.Context, filter explanation.ListFilter) ([]explanation.Entry, int, error) {
	entries, err := s.explanations.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	total, err := s.explanations.Count(ctx, countFilter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Explanation returns one stored explanation.
func (s *Service) Explanation(ctx context.Context, id string) (*explanation.Entry, error) {
	return s.explanations.Get(ctx, id)
}

// ValidateRequest asks for a walk-forward validation over recent history.
type ValidateRequest struct {
	Coin     string
	Days     int
	Progress func(done, total int)
}

// Validate replays the last Days of hourly prices, scores every step and
// archives the report. A timeout or cancellation yields a partial report.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*backtest.Report, error) {
	vc := s.cfg.Validation
	coin := strings.ToUpper(strings.TrimSpace(req.Coin))
	if coin == "" {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("coin is required"))
	}
	days := req.Days
	if days == 0 {
		days = vc.DefaultDays
	}
	if days <= 0 {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("days must be positive, got %d", days))
	}
	if vc.MaxDays > 0 && days > vc.MaxDays {
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("days must be between 1 and %d, got %d", vc.MaxDays, days))
	}

	started := s.now()
	report, err := s.validate(ctx, coin, days, req.Progress)
	elapsed := s.now().Sub(started).Seconds()

	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordValidation(coin, metrics.StatusFailed, elapsed, 0, 0)
		}
		s.logger.Error("validation failed", zap.String("coin", coin), zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		status := metrics.StatusCompleted
		if report.Partial {
			status = metrics.StatusPartial
		}
		s.metrics.RecordValidation(coin, status, elapsed, report.AccuracyRate, report.SkippedSteps)
	}

	path, err := s.reports.Save(ctx, report)
	if err != nil {
		s.logger.Warn("archiving report failed",
			zap.String("coin", coin),
			zap.String("report_id", report.ID),
			zap.Error(err),
		)
	} else {
		s.logger.Info("report archived", zap.String("path", path))
	}
	return report, nil
}

func (s *Service) validate(ctx context.Context, coin string, days int, progress func(done, total int)) (*backtest.Report, error) {
	vc := s.cfg.Validation
	if vc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, vc.Timeout)
		defer cancel()
	}

	end := s.now().UTC().Truncate(time.Hour)
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	series, err := s.prices.Series(ctx, coin, start, end)
	if err != nil {
		return nil, core.WrapError(core.ErrValidationFailed, fmt.Errorf("fetching %s prices: %w", coin, err))
	}

	in := backtest.Input{
		Coin:   coin,
		Period: fmt.Sprintf("%dd", days),
		Series: series,
	}

	if h, ok := s.sentiment.(feed.SentimentHistory); ok {
		snaps, err := h.SentimentHistory(ctx, start, end)
		if err != nil {
			s.logger.Warn("sentiment history unavailable", zap.String("coin", coin), zap.Error(err))
		} else {
			in.Sentiment = feed.NewSentimentTimeline(snaps)
		}
	}
	if h, ok := s.macro.(feed.MacroHistory); ok {
		snaps, err := h.MacroHistory(ctx, start, end)
		if err != nil {
			s.logger.Warn("macro history unavailable", zap.String("coin", coin), zap.Error(err))
		} else {
			in.Macro = feed.NewMacroTimeline(snaps)
		}
	}

	replayer := backtest.NewReplayer(s.engine, backtest.Config{
		Tolerance:     vc.Tolerance,
		RecentRecords: vc.RecentRecords,
		Progress:      progress,
	}, s.logger)

	return replayer.Run(ctx, in)
}

// Reports lists archived reports for a coin, newest first. An empty coin
// lists every coin.
func (s *Service) Reports(ctx context.Context, coin string) ([]archive.ReportSummary, error) {
	return s.reports.List(ctx, strings.ToUpper(coin))
}

// Report loads one archived report.
func (s *Service) Report(ctx context.Context, coin, id string) (*backtest.Report, error) {
	return s.reports.Load(ctx, strings.ToUpper(coin), id)
}

// Metrics returns the metrics registry, or nil.
func (s *Service) Metrics() *metrics.Registry {
	return s.metrics
}

// GetStats returns application statistics
func (s *Service) GetStats(ctx context.Context) map[string]any {
	count, _ := s.explanations.Count(ctx, explanation.ListFilter{})

	analyzers := s.engine.Registry().Analyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = string(a.Type())
	}

	llmName := ""
	if s.provider != nil {
		llmName = s.provider.Name()
	}

	return map[string]any{
		"collectors":   s.collectors.Names(),
		"analyzers":    names,
		"sentiment":    s.sentiment != nil,
		"macro":        s.macro != nil,
		"explanations": count,
		"llm":          llmName,
	}
}
