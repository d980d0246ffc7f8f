package explanation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/attribution"
	"github.com/newthinker/compass/internal/core"
)

var _ Store = (*MemoryStore)(nil)

func entry(coin string, movement core.MovementType, at time.Time) Entry {
	return Entry{
		Result:    attribution.Result{Coin: coin, MovementType: movement},
		CreatedAt: at,
	}
}

func TestMemoryStore_SaveAssignsID(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	saved, err := store.Save(ctx, entry("BTC", core.MovementSurge, time.Time{}))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected an assigned ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Result.Coin != "BTC" {
		t.Errorf("Coin = %s, want BTC", got.Result.Coin)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListFilters(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	now := time.Now()

	store.Save(ctx, entry("BTC", core.MovementSurge, now.Add(-3*time.Hour)))
	store.Save(ctx, entry("ETH", core.MovementCrash, now.Add(-2*time.Hour)))
	store.Save(ctx, entry("btc", core.MovementStable, now.Add(-time.Hour)))

	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"all", ListFilter{}, 3},
		{"coin case-insensitive", ListFilter{Coin: "BTC"}, 2},
		{"movement", ListFilter{Movement: core.MovementCrash}, 1},
		{"from", ListFilter{From: now.Add(-90 * time.Minute)}, 1},
		{"to", ListFilter{To: now.Add(-150 * time.Minute)}, 1},
		{"limit", ListFilter{Limit: 2}, 2},
		{"offset past end", ListFilter{Offset: 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%+v) = %d entries, want %d", tt.filter, len(got), tt.want)
			}
			n, _ := store.Count(ctx, ListFilter{Coin: tt.filter.Coin, Movement: tt.filter.Movement, From: tt.filter.From, To: tt.filter.To})
			if tt.filter.Limit == 0 && tt.filter.Offset == 0 && n != tt.want {
				t.Errorf("Count = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestMemoryStore_NewestFirstAndCapacity(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()
	now := time.Now()

	store.Save(ctx, entry("A", core.MovementStable, now))
	store.Save(ctx, entry("B", core.MovementStable, now))
	store.Save(ctx, entry("C", core.MovementStable, now))

	got, _ := store.List(ctx, ListFilter{})
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after trim, got %d", len(got))
	}
	if got[0].Result.Coin != "C" || got[1].Result.Coin != "B" {
		t.Errorf("order = %s,%s, want C,B", got[0].Result.Coin, got[1].Result.Coin)
	}
}
