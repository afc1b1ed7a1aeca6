package solver

import (
	"sync"
	"time"

	"routelab/internal/model"
)

type opCounters struct {
	Invocations      int
	Improvements     int
	Best             int
	Duration         time.Duration
	ScoreImprovement float64
}

// Statistics aggregates per-operator search counters. Safe for concurrent
// reads while the engine is running.
type Statistics struct {
	mu        sync.Mutex
	start     time.Time
	ruin      map[string]*opCounters
	recreate  map[string]*opCounters
	evolution []model.ScoreRow
}

func NewStatistics() *Statistics {
	return &Statistics{
		start:    time.Now(),
		ruin:     map[string]*opCounters{},
		recreate: map[string]*opCounters{},
	}
}

func (s *Statistics) record(m map[string]*opCounters, name string, d time.Duration, improved, best bool, delta float64) {
	c := m[name]
	if c == nil {
		c = &opCounters{}
		m[name] = c
	}
	c.Invocations++
	c.Duration += d
	if improved {
		c.Improvements++
		c.ScoreImprovement += delta
	}
	if best {
		c.Best++
	}
}

// RecordIteration credits one ruin/recreate pair with the iteration outcome.
func (s *Statistics) RecordIteration(ruin, recreate string, d time.Duration, improved, best bool, delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(s.ruin, ruin, d, improved, best, delta)
	s.record(s.recreate, recreate, d, improved, best, delta)
}

// RecordBest appends a row to the score evolution whenever the incumbent
// improves.
func (s *Statistics) RecordBest(iteration int, score model.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evolution = append(s.evolution, model.ScoreRow{
		TimestampMs: time.Since(s.start).Milliseconds(),
		Iteration:   iteration,
		Score:       score,
	})
}

// Aggregated snapshots the counters into the wire shape.
func (s *Statistics) Aggregated() model.AggregatedStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.AggregatedStatistics{
		Ruin:           aggregate(s.ruin),
		Recreate:       aggregate(s.recreate),
		ScoreEvolution: append([]model.ScoreRow(nil), s.evolution...),
	}
}

func aggregate(m map[string]*opCounters) map[string]model.OperatorStatistics {
	out := make(map[string]model.OperatorStatistics, len(m))
	for name, c := range m {
		st := model.OperatorStatistics{
			TotalInvocations:      c.Invocations,
			TotalImprovements:     c.Improvements,
			TotalBest:             c.Best,
			TotalDurationMs:       c.Duration.Milliseconds(),
			TotalScoreImprovement: c.ScoreImprovement,
		}
		if c.Invocations > 0 {
			st.AvgDurationMs = float64(c.Duration.Milliseconds()) / float64(c.Invocations)
		}
		if c.Improvements > 0 {
			st.AvgScoreImprovement = c.ScoreImprovement / float64(c.Improvements)
		}
		out[name] = st
	}
	return out
}
