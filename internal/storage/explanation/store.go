// Package explanation keeps recently produced attribution results.
package explanation

import (
	"context"
	"time"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/core"
)

// Entry is a stored explanation.
type Entry struct {
	ID        string             `json:"id"`
	Result    attribution.Result `json:"result"`
	Narrative string             `json:"narrative,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store defines the interface for explanation persistence.
type Store interface {
	// Save persists an entry, assigning an ID when empty.
	Save(ctx context.Context, e Entry) (Entry, error)

	// Get retrieves an entry by ID.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing explanations.
type ListFilter struct {
	Coin     string
	Movement core.MovementType
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
