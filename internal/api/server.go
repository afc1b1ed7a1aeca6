package api

import (
	"context"
	"log"

	"routelab/internal/config"
	"routelab/internal/metrics"
	"routelab/internal/model"
	"routelab/internal/notify"
	"routelab/internal/routing"
	"routelab/internal/solver"
	"routelab/internal/store"
)

type Server struct {
	Store   store.Store
	Manager *solver.Manager
	Router  *routing.Router
	Broker  EventBroker
	Notify  *notify.Worker
	Cfg     config.Config
}

// NewServer wires the store, job manager, road router, event broker and
// callback worker from the configuration. No DATABASE_URL means the
// in-memory store; no GRAPH_FILE generates a demo grid.
func NewServer(cfg config.Config) (*Server, error) {
	var st store.Store
	if cfg.DatabaseURL == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = pg
	}

	var g *routing.Graph
	if cfg.GraphFile != "" {
		loaded, err := routing.LoadGraph(cfg.GraphFile)
		if err != nil {
			return nil, err
		}
		g = loaded
	} else {
		g = routing.GenerateGrid(20, 20, 13.30, 52.45, 0.005)
	}
	router, err := routing.NewRouter(g, cfg.LandmarkCount)
	if err != nil {
		return nil, err
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Printf("redis broker unavailable, falling back to in-memory: %v", err)
			broker = NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = NewBroker()
	}

	mgr := solver.NewManager(st, solver.ManagerOptions{
		Engine: solver.EngineOptions{Seed: cfg.SolverSeed},
		Budget: cfg.SolveBudget,
	})
	worker := notify.NewWorker(cfg.CallbackMaxAttempts)

	s := &Server{
		Store:   st,
		Manager: mgr,
		Router:  router,
		Broker:  broker,
		Notify:  worker,
		Cfg:     cfg,
	}
	mgr.OnCompleted = s.jobCompleted
	return s, nil
}

// jobCompleted runs once per finished job: publish the event, deliver the
// callback, settle the gauges.
func (s *Server) jobCompleted(jobID string, sol *model.Solution) {
	metrics.JobsRunning.Dec()
	metrics.JobsCompleted.Inc()
	s.Broker.Publish(jobID, JobEvent{Type: EventJobCompleted, Data: map[string]any{
		"job_id": jobID,
		"score":  sol.Score,
	}})
	job, err := s.Store.GetJob(context.Background(), jobID)
	if err != nil {
		return
	}
	s.Notify.EnqueueCompleted(jobID, job.CallbackURL, job.CallbackSecret, sol)
}
