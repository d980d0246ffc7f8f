package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
)

const reportsRoot = "reports"

// ReportSummary is the listing view of an archived report.
type ReportSummary struct {
	ID           string    `json:"id"`
	Coin         string    `json:"coin"`
	Period       string    `json:"period"`
	AccuracyRate float64   `json:"accuracy_rate"`
	Grade        string    `json:"grade"`
	Partial      bool      `json:"partial"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// ReportStore saves validation reports as JSON at reports/<coin>/<id>.json.
type ReportStore struct {
	storage Storage
}

// NewReportStore wraps a blob store.
func NewReportStore(s Storage) *ReportStore {
	return &ReportStore{storage: s}
}

func reportPath(coin, id string) string {
	return path.Join(reportsRoot, strings.ToLower(coin), id+".json")
}

func validSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, `/\`) && s != "." && s != ".."
}

// Save writes the report and returns its archive path.
func (s *ReportStore) Save(ctx context.Context, r *backtest.Report) (string, error) {
	if r == nil || !validSegment(r.ID) || !validSegment(r.Coin) {
		return "", core.WrapError(core.ErrInvalidInput, fmt.Errorf("report needs an id and coin"))
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	p := reportPath(r.Coin, r.ID)
	if err := s.storage.Write(ctx, p, data); err != nil {
		return "", fmt.Errorf("archiving report %s: %w", r.ID, err)
	}
	return p, nil
}

// Load reads one report.
func (s *ReportStore) Load(ctx context.Context, coin, id string) (*backtest.Report, error) {
	if !validSegment(coin) || !validSegment(id) {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("bad report key %q/%q", coin, id))
	}
	data, err := s.storage.Read(ctx, reportPath(coin, id))
	if err != nil {
		return nil, err
	}
	var r backtest.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &r, nil
}

// List returns summaries for a coin, or every coin when coin is empty,
// newest first. Unreadable entries are skipped.
func (s *ReportStore) List(ctx context.Context, coin string) ([]ReportSummary, error) {
	prefix := reportsRoot
	if coin != "" {
		if !validSegment(coin) {
			return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("bad coin %q", coin))
		}
		prefix = path.Join(reportsRoot, strings.ToLower(coin))
	}

	paths, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	out := make([]ReportSummary, 0, len(paths))
	for _, p := range paths {
		if !strings.HasSuffix(p, ".json") {
			continue
		}
		data, err := s.storage.Read(ctx, p)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, err
		}
		var r backtest.Report
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		out = append(out, ReportSummary{
			ID:           r.ID,
			Coin:         r.Coin,
			Period:       r.Period,
			AccuracyRate: r.AccuracyRate,
			Grade:        r.Grade,
			Partial:      r.Partial,
			GeneratedAt:  r.GeneratedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}
