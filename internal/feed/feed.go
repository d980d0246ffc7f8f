// Package feed defines the data collaborators the attribution engine and
// the validator consume. Adapters live in subpackages.
package feed

import (
	"context"
	"sort"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// PriceFeed returns an ordered price series for a coin. It may return
// fewer points than requested and never returns points after end.
type PriceFeed interface {
	Series(ctx context.Context, coin string, start, end time.Time) (core.PriceSeries, error)
}

// SentimentFeed returns market sentiment as of a time. A nil snapshot with
// a nil error means unavailable.
type SentimentFeed interface {
	Sentiment(ctx context.Context, at time.Time) (*core.SentimentSnapshot, error)
}

// SentimentHistory returns sentiment snapshots covering a period.
type SentimentHistory interface {
	SentimentHistory(ctx context.Context, start, end time.Time) ([]core.SentimentSnapshot, error)
}

// MacroFeed returns macro correlation signals as of a time. An empty map
// means unavailable.
type MacroFeed interface {
	Macro(ctx context.Context, at time.Time) (*core.MacroSnapshot, error)
}

// MacroHistory returns macro snapshots covering a period.
type MacroHistory interface {
	MacroHistory(ctx context.Context, start, end time.Time) ([]core.MacroSnapshot, error)
}

// SentimentTimeline answers as-of lookups over prefetched snapshots.
type SentimentTimeline struct {
	points []core.SentimentSnapshot
}

// NewSentimentTimeline sorts a copy of snapshots by time.
func NewSentimentTimeline(snapshots []core.SentimentSnapshot) *SentimentTimeline {
	points := make([]core.SentimentSnapshot, len(snapshots))
	copy(points, snapshots)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return &SentimentTimeline{points: points}
}

// At returns the latest snapshot at or before t, or nil.
func (tl *SentimentTimeline) At(t time.Time) *core.SentimentSnapshot {
	if tl == nil {
		return nil
	}
	i := sort.Search(len(tl.points), func(i int) bool { return tl.points[i].Time.After(t) })
	if i == 0 {
		return nil
	}
	s := tl.points[i-1]
	return &s
}

// Len returns the number of snapshots.
func (tl *SentimentTimeline) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.points)
}

// MacroTimeline answers as-of lookups over prefetched snapshots.
type MacroTimeline struct {
	points []core.MacroSnapshot
}

// NewMacroTimeline sorts a copy of snapshots by time.
func NewMacroTimeline(snapshots []core.MacroSnapshot) *MacroTimeline {
	points := make([]core.MacroSnapshot, len(snapshots))
	copy(points, snapshots)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return &MacroTimeline{points: points}
}

// At returns the latest snapshot at or before t, or nil.
func (tl *MacroTimeline) At(t time.Time) *core.MacroSnapshot {
	if tl == nil {
		return nil
	}
	i := sort.Search(len(tl.points), func(i int) bool { return tl.points[i].Time.After(t) })
	if i == 0 {
		return nil
	}
	s := tl.points[i-1]
	return &s
}

// Len returns the number of snapshots.
func (tl *MacroTimeline) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.points)
}
