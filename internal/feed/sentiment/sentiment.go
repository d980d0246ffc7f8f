// Package sentiment combines the Fear & Greed index with social scoring.
package sentiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/feed"
	"github.com/newthinker/compass/internal/feed/social"
)

// freshness bounds how far from now a lookup may be for the live social
// score to apply. Social data has no history.
const freshness = 6 * time.Hour

// Index is the historical sentiment index (Fear & Greed).
type Index interface {
	feed.SentimentFeed
	feed.SentimentHistory
}

// SocialScorer yields the current social score.
type SocialScorer interface {
	Score(ctx context.Context) (social.Score, error)
}

// Composite implements feed.SentimentFeed and feed.SentimentHistory.
type Composite struct {
	index  Index
	social SocialScorer
	logger *zap.Logger
	now    func() time.Time
}

// New creates a composite feed. social may be nil.
func New(index Index, scorer SocialScorer, logger *zap.Logger) *Composite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composite{
		index:  index,
		social: scorer,
		logger: logger,
		now:    time.Now,
	}
}

// Sentiment returns the index value at at, plus the social score when at
// is recent. Social failures are logged and leave Social nil.
func (c *Composite) Sentiment(ctx context.Context, at time.Time) (*core.SentimentSnapshot, error) {
	snap, err := c.index.Sentiment(ctx, at)
	if err != nil {
		return nil, core.WrapError(core.ErrFeedUnavailable, fmt.Errorf("sentiment index: %w", err))
	}
	if snap == nil || c.social == nil {
		return snap, nil
	}

	if d := c.now().Sub(at); d < -freshness || d > freshness {
		return snap, nil
	}

	score, err := c.social.Score(ctx)
	if err != nil {
		c.logger.Warn("social sentiment unavailable", zap.Error(err))
		return snap, nil
	}
	if score.Posts > 0 {
		v := score.Value
		snap.Social = &v
	}
	return snap, nil
}

// SentimentHistory returns index history only.
func (c *Composite) SentimentHistory(ctx context.Context, start, end time.Time) ([]core.SentimentSnapshot, error) {
	history, err := c.index.SentimentHistory(ctx, start, end)
	if err != nil {
		return nil, core.WrapError(core.ErrFeedUnavailable, fmt.Errorf("sentiment history: %w", err))
	}
	return history, nil
}
