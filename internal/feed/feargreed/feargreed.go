// Package feargreed reads the alternative.me crypto Fear & Greed index.
package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/cache"
	"github.com/newthinker/compass/internal/core"
)

const (
	baseURL  = "https://api.alternative.me/fng/"
	cacheTTL = 15 * time.Minute
	day      = 24 * time.Hour
)

// Reading is one daily index value.
type Reading struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Time           time.Time `json:"time"`
}

// Client implements feed.SentimentFeed and feed.SentimentHistory. The index
// is published once per day, so lookups resolve to the latest daily value
// at or before the requested time.
type Client struct {
	client  *http.Client
	baseURL string
	cache   cache.Store
	now     func() time.Time
}

// New creates a Fear & Greed client.
func New(store cache.Store) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		cache:   store,
		now:     time.Now,
	}
}

// NewWithBaseURL creates a client with custom base URL (for testing)
func NewWithBaseURL(url string, store cache.Store) *Client {
	c := New(store)
	c.baseURL = url
	return c
}

// Readings fetches the most recent limit values, oldest first.
func (c *Client) Readings(ctx context.Context, limit int) ([]Reading, error) {
	if limit < 1 {
		limit = 1
	}
	return cache.Fetch(ctx, c.cache, cache.Key("fng", limit), cacheTTL, func(ctx context.Context) ([]Reading, error) {
		return c.fetch(ctx, limit)
	})
}

func (c *Client) fetch(ctx context.Context, limit int) ([]Reading, error) {
	url := fmt.Sprintf("%s?limit=%d&format=json", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrFeedUnavailable, fmt.Errorf("fear greed request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrFeedUnavailable, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result fngResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	readings := make([]Reading, 0, len(result.Data))
	for _, d := range result.Data {
		value, err := strconv.Atoi(d.Value)
		if err != nil || value < 0 || value > 100 {
			continue
		}
		ts, err := strconv.ParseInt(d.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		readings = append(readings, Reading{
			Value:          value,
			Classification: d.ValueClassification,
			Time:           time.Unix(ts, 0).UTC(),
		})
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Time.Before(readings[j].Time) })
	return readings, nil
}

// daysBack is how many daily values reach back to t, plus one for the
// value in force at t.
func (c *Client) daysBack(t time.Time) int {
	d := c.now().Sub(t)
	if d < 0 {
		return 1
	}
	return int(math.Ceil(d.Hours()/24)) + 2
}

// Sentiment returns the index in force at at. Social is left nil.
func (c *Client) Sentiment(ctx context.Context, at time.Time) (*core.SentimentSnapshot, error) {
	readings, err := c.Readings(ctx, c.daysBack(at))
	if err != nil {
		return nil, err
	}
	var found *Reading
	for i := range readings {
		if readings[i].Time.After(at) {
			break
		}
		found = &readings[i]
	}
	if found == nil {
		return nil, nil
	}
	return &core.SentimentSnapshot{Time: found.Time, FearGreed: float64(found.Value)}, nil
}

// SentimentHistory returns daily snapshots covering [start, end],
// including the value in force at start.
func (c *Client) SentimentHistory(ctx context.Context, start, end time.Time) ([]core.SentimentSnapshot, error) {
	readings, err := c.Readings(ctx, c.daysBack(start))
	if err != nil {
		return nil, err
	}

	out := make([]core.SentimentSnapshot, 0, len(readings))
	for _, r := range readings {
		if r.Time.After(end) || r.Time.Before(start.Add(-day)) {
			continue
		}
		out = append(out, core.SentimentSnapshot{Time: r.Time, FearGreed: float64(r.Value)})
	}
	return out, nil
}

type fngResponse struct {
	Name string `json:"name"`
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}
