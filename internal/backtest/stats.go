package backtest

import "github.com/newthinker/compass/internal/core"

type tally struct {
	correct int
	total   int
}

func (t tally) rate() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.total)
}

// Stats accumulates correctness tallies by actual movement and by each
// contributing factor type. Records can only be added.
type Stats struct {
	overall   tally
	movements map[core.MovementType]*tally
	factors   map[core.FactorType]*tally
}

// NewStats creates empty tallies
func NewStats() *Stats {
	return &Stats{
		movements: make(map[core.MovementType]*tally),
		factors:   make(map[core.FactorType]*tally),
	}
}

// Add records one evaluated step.
func (s *Stats) Add(rec ValidationRecord) {
	s.overall.total++
	if rec.Correct {
		s.overall.correct++
	}

	m, ok := s.movements[rec.ActualMovement]
	if !ok {
		m = &tally{}
		s.movements[rec.ActualMovement] = m
	}
	m.total++
	if rec.Correct {
		m.correct++
	}

	seen := make(map[core.FactorType]bool, len(rec.Factors))
	for _, ft := range rec.Factors {
		if seen[ft] {
			continue
		}
		seen[ft] = true

		f, ok := s.factors[ft]
		if !ok {
			f = &tally{}
			s.factors[ft] = f
		}
		f.total++
		if rec.Correct {
			f.correct++
		}
	}
}

// Total returns the number of evaluated steps.
func (s *Stats) Total() int { return s.overall.total }

// Correct returns the number of correct steps.
func (s *Stats) Correct() int { return s.overall.correct }

// AccuracyRate returns correct/total, or 0 with no data.
func (s *Stats) AccuracyRate() float64 { return s.overall.rate() }

// MovementAccuracy returns accuracy per observed actual movement.
func (s *Stats) MovementAccuracy() map[core.MovementType]float64 {
	out := make(map[core.MovementType]float64, len(s.movements))
	for k, t := range s.movements {
		out[k] = t.rate()
	}
	return out
}

// FactorEffectiveness returns accuracy per observed factor type.
func (s *Stats) FactorEffectiveness() map[core.FactorType]float64 {
	out := make(map[core.FactorType]float64, len(s.factors))
	for k, t := range s.factors {
		out[k] = t.rate()
	}
	return out
}
