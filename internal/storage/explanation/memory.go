package explanation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/compass/internal/core"
)

// MemoryStore is a bounded in-memory ring of explanations.
type MemoryStore struct {
	entries []Entry
	maxSize int
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &MemoryStore{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Save appends an entry, dropping the oldest beyond capacity.
func (m *MemoryStore) Save(ctx context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	e.Result.PrimaryFactors = append([]core.Factor(nil), e.Result.PrimaryFactors...)

	m.entries = append(m.entries, e)
	if len(m.entries) > m.maxSize {
		m.entries = append(m.entries[:0:0], m.entries[len(m.entries)-m.maxSize:]...)
	}
	return e, nil
}

// Get retrieves an entry by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("explanation %s", id))
}

// List returns matching entries, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []Entry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if matches(m.entries[i], filter) {
			result = append(result, m.entries[i])
		}
	}

	if filter.Offset >= len(result) {
		return []Entry{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count returns the count of matching entries.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, e := range m.entries {
		if matches(e, filter) {
			count++
		}
	}
	return count, nil
}

func matches(e Entry, filter ListFilter) bool {
	if filter.Coin != "" && !strings.EqualFold(e.Result.Coin, filter.Coin) {
		return false
	}
	if filter.Movement != "" && e.Result.MovementType != filter.Movement {
		return false
	}
	if !filter.From.IsZero() && e.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && e.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
