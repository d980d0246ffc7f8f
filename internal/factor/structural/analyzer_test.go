package structural

import (
	"testing"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/factor"
)

func TestAnalyzer(t *testing.T) {
	tests := []struct {
		change   float64
		wantImp  float64
		wantConf float64
	}{
		{-20, -0.6, 0.7},
		{-10, -0.6, 0.7},
		{-5, -0.3, 0.4},
		{-2, 0, 0.3},
		{0, 0, 0.3},
		{2.5, 0.3, 0.4},
		{9, 0.6, 0.7},
		{30, 0.6, 0.7},
	}

	a := New()
	for _, tt := range tests {
		f, err := a.Analyze(factor.Input{ChangePercent: tt.change, Movement: core.Classify(tt.change)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f == nil {
			t.Fatalf("change %v: structural analyzer must always return a factor", tt.change)
		}
		if f.Impact != tt.wantImp || f.Confidence != tt.wantConf {
			t.Errorf("change %v: got impact %v conf %v, want %v %v", tt.change, f.Impact, f.Confidence, tt.wantImp, tt.wantConf)
		}
	}
}
