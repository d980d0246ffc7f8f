// Package social scores crowd sentiment from Reddit post titles.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/compass/internal/cache"
	"github.com/newthinker/compass/internal/core"
)

const (
	baseURL   = "https://www.reddit.com/r/cryptocurrency.json"
	userAgent = "compass/1.0"
	cacheTTL  = 10 * time.Minute
)

var (
	positiveKeywords = []string{"bull", "moon", "pump", "buy", "hodl", "gain"}
	negativeKeywords = []string{"bear", "dump", "crash", "sell", "loss", "down"}
)

// Score summarizes keyword sentiment across a page of posts.
type Score struct {
	Posts    int       `json:"posts"`
	Positive int       `json:"positive"`
	Negative int       `json:"negative"`
	Value    float64   `json:"value"` // -1 to 1
	Time     time.Time `json:"time"`
}

// Label returns positive, negative or neutral.
func (s Score) Label() string {
	switch {
	case s.Value > 0.1:
		return "positive"
	case s.Value < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

// Reddit reads the front page of a subreddit. It only knows the present.
type Reddit struct {
	client  *http.Client
	baseURL string
	cache   cache.Store
	now     func() time.Time
}

// New creates a Reddit scorer.
func New(store cache.Store) *Reddit {
	return &Reddit{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		cache:   store,
		now:     time.Now,
	}
}

// NewWithBaseURL creates a Reddit scorer with custom base URL (for testing)
func NewWithBaseURL(url string, store cache.Store) *Reddit {
	r := New(store)
	r.baseURL = url
	return r
}

// Score fetches the current listing and scores its titles.
func (r *Reddit) Score(ctx context.Context) (Score, error) {
	return cache.Fetch(ctx, r.cache, cache.Key("reddit", r.baseURL), cacheTTL, r.fetch)
}

func (r *Reddit) fetch(ctx context.Context) (Score, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL, nil)
	if err != nil {
		return Score{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return Score{}, core.WrapError(core.ErrFeedUnavailable, fmt.Errorf("reddit request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Score{}, core.WrapError(core.ErrFeedUnavailable, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return Score{}, fmt.Errorf("decoding response: %w", err)
	}

	titles := make([]string, len(listing.Data.Children))
	for i, c := range listing.Data.Children {
		titles[i] = c.Data.Title
	}
	s := ScoreTitles(titles)
	s.Time = r.now()
	return s, nil
}

// ScoreTitles counts titles mentioning at least one positive and at least
// one negative keyword. Value is (positive - negative) / posts.
func ScoreTitles(titles []string) Score {
	s := Score{Posts: len(titles)}
	for _, title := range titles {
		lower := strings.ToLower(title)
		if containsAny(lower, positiveKeywords) {
			s.Positive++
		}
		if containsAny(lower, negativeKeywords) {
			s.Negative++
		}
	}
	if s.Posts > 0 {
		s.Value = float64(s.Positive-s.Negative) / float64(s.Posts)
	}
	return s
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
