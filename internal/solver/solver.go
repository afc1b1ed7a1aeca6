package solver

import (
	"context"
	"sync"
	"time"

	"routelab/internal/model"
)

// Solver owns one job's search lifecycle: Pending until started, Running
// while the engine works, Completed when the budget is spent or Stop is
// called. Poll is safe at any point and returns the freshest incumbent.
type Solver struct {
	mu      sync.Mutex
	status  string
	problem *Problem
	engine  *Engine
	budget  time.Duration
	best    *model.Solution
	cancel  context.CancelFunc
	done    chan struct{}
	onDone  func(*model.Solution)
}

func NewSolver(p *Problem, opts EngineOptions, budget time.Duration) *Solver {
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Solver{
		status:  model.StatusPending,
		problem: p,
		engine:  NewEngine(p, opts),
		budget:  budget,
		done:    make(chan struct{}),
	}
}

// OnCompleted registers a callback invoked once with the final solution.
// Must be called before Start.
func (s *Solver) OnCompleted(fn func(*model.Solution)) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

// Start launches the engine. Starting a running or completed solver is a
// no-op so repeated start requests stay idempotent.
func (s *Solver) Start() bool {
	s.mu.Lock()
	if s.status != model.StatusPending {
		s.mu.Unlock()
		return false
	}
	s.status = model.StatusRunning
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		best := s.engine.Run(ctx, s.budget, func(c candidate) {
			sol := s.buildSolution(c)
			s.mu.Lock()
			s.best = sol
			s.mu.Unlock()
		})
		final := s.buildSolution(best)
		s.mu.Lock()
		s.best = final
		s.status = model.StatusCompleted
		fn := s.onDone
		s.mu.Unlock()
		close(s.done)
		if fn != nil {
			fn(final)
		}
	}()
	return true
}

// Stop cancels a running search. The engine returns its incumbent, so the
// job still completes with the best solution found so far.
func (s *Solver) Stop() bool {
	s.mu.Lock()
	cancel := s.cancel
	running := s.status == model.StatusRunning
	s.mu.Unlock()
	if !running {
		return false
	}
	cancel()
	<-s.done
	return true
}

// Status returns the current lifecycle state.
func (s *Solver) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Poll snapshots status, incumbent solution, operator statistics and
// adaptive weights.
func (s *Solver) Poll() model.PollResponse {
	s.mu.Lock()
	resp := model.PollResponse{Status: s.status, Solution: s.best}
	s.mu.Unlock()
	if resp.Status != model.StatusPending {
		stats := s.engine.Statistics().Aggregated()
		weights := s.engine.Weights()
		resp.Statistics = &stats
		resp.Weights = &weights
	}
	return resp
}

// Done is closed when the solver completes.
func (s *Solver) Done() <-chan struct{} { return s.done }

// buildSolution converts a working candidate into the wire solution:
// depot and service activities with absolute timestamps, per-route and
// total metrics, unassigned service ids.
func (s *Solver) buildSolution(c candidate) *model.Solution {
	p := s.problem
	sol := &model.Solution{
		Score:          c.Score,
		UnassignedJobs: []string{},
	}
	totalDist := 0.0
	totalDur := 0.0
	for _, pl := range c.Plans {
		if len(pl.Order) == 0 {
			continue
		}
		v := p.Vehicles[pl.VehicleIdx]
		sched := p.schedulePlan(pl)
		route := model.SolutionRoute{
			VehicleID:            v.ID,
			DistanceM:            sched.DistM,
			DurationSec:          int(sched.EndSec - sched.StartSec),
			TransportDurationSec: int(sched.DriveSec),
			WaitingDurationSec:   int(sched.WaitSec),
			TotalDemand:          sched.TotalDemand,
			VehicleMaxLoad:       sched.MaxLoad,
		}
		if v.DepotLocationID != nil {
			route.Activities = append(route.Activities, model.Activity{
				Type:          model.ActivityStart,
				ArrivalTime:   p.absTime(sched.StartSec),
				DepartureTime: p.absTime(sched.StartSec + float64(v.DepotDurationSec)),
			})
		}
		for _, st := range sched.Stops {
			route.Activities = append(route.Activities, model.Activity{
				Type:               model.ActivityService,
				ID:                 p.Services[st.ServiceIdx].ID,
				ArrivalTime:        p.absTime(st.ArriveSec),
				DepartureTime:      p.absTime(st.DepartSec),
				WaitingDurationSec: int(st.WaitSec),
			})
		}
		if v.ShouldReturnToDepot && v.DepotLocationID != nil {
			route.Activities = append(route.Activities, model.Activity{
				Type:          model.ActivityEnd,
				ArrivalTime:   p.absTime(sched.EndSec - float64(v.ReturnDepotDurationSec)),
				DepartureTime: p.absTime(sched.EndSec),
			})
		}
		totalDist += sched.DistM
		totalDur += sched.EndSec - sched.StartSec
		sol.Routes = append(sol.Routes, route)
	}
	for _, si := range c.Unassigned {
		sol.UnassignedJobs = append(sol.UnassignedJobs, p.Services[si].ID)
	}
	sol.DistanceM = totalDist
	sol.DurationSec = int(totalDur)
	sol.ScoreAnalysis = map[string]float64{
		"transport_time": c.Score.SoftScore,
		"unassigned":     c.Score.HardScore,
	}
	return sol
}
