package feed

import (
	"testing"
	"time"

	"github.com/newthinker/compass/internal/core"
)

func TestSentimentTimeline_At(t *testing.T) {
	day := 24 * time.Hour
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Deliberately unsorted.
	tl := NewSentimentTimeline([]core.SentimentSnapshot{
		{Time: base.Add(day), FearGreed: 60},
		{Time: base, FearGreed: 50},
		{Time: base.Add(2 * day), FearGreed: 70},
	})

	tests := []struct {
		at      time.Time
		wantNil bool
		want    float64
	}{
		{base.Add(-time.Hour), true, 0},
		{base, false, 50},
		{base.Add(12 * time.Hour), false, 50},
		{base.Add(day), false, 60},
		{base.Add(10 * day), false, 70},
	}

	for _, tt := range tests {
		got := tl.At(tt.at)
		if tt.wantNil {
			if got != nil {
				t.Errorf("At(%v) = %+v, want nil", tt.at, got)
			}
			continue
		}
		if got == nil || got.FearGreed != tt.want {
			t.Errorf("At(%v) = %+v, want index %v", tt.at, got, tt.want)
		}
	}
}

func TestMacroTimeline_At(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tl := NewMacroTimeline([]core.MacroSnapshot{
		{Time: base, Signals: map[string]float64{"a": 0.1}},
		{Time: base.Add(time.Hour), Signals: map[string]float64{"a": 0.2}},
	})

	if got := tl.At(base.Add(30 * time.Minute)); got == nil || got.Signals["a"] != 0.1 {
		t.Errorf("At = %+v, want first snapshot", got)
	}
	if tl.Len() != 2 {
		t.Errorf("Len = %d, want 2", tl.Len())
	}

	var empty *MacroTimeline
	if empty.At(base) != nil || empty.Len() != 0 {
		t.Error("nil timeline should be empty")
	}
}
