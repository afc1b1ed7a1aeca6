package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"routelab/internal/model"
	"routelab/internal/store"
)

// ManagerOptions configure every solver the manager creates.
type ManagerOptions struct {
	Engine EngineOptions
	Budget time.Duration
}

// Manager keys live solvers by job id and mirrors their lifecycle into the
// store so listings survive the in-memory solver being gone.
type Manager struct {
	mu      sync.RWMutex
	solvers map[string]*Solver
	created map[string]time.Time
	st      store.Store
	opts    ManagerOptions

	// OnCompleted, when set, fires after a job's solution is persisted.
	OnCompleted func(jobID string, sol *model.Solution)
}

func NewManager(st store.Store, opts ManagerOptions) *Manager {
	return &Manager{
		solvers: map[string]*Solver{},
		created: map[string]time.Time{},
		st:      st,
		opts:    opts,
	}
}

// Create compiles the problem, persists the job as Pending and registers a
// solver for it. Returns the new job id.
func (m *Manager) Create(ctx context.Context, req *model.SubmitRequest) (string, error) {
	p, err := Compile(&req.VehicleRoutingProblem)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	raw, err := json.Marshal(&req.VehicleRoutingProblem)
	if err != nil {
		return "", fmt.Errorf("marshal problem: %w", err)
	}
	if err := m.st.CreateJob(ctx, store.Job{
		ID:             id,
		Status:         model.StatusPending,
		CreatedAt:      now,
		Problem:        raw,
		CallbackURL:    req.CallbackURL,
		CallbackSecret: req.CallbackSecret,
	}); err != nil {
		return "", err
	}

	s := NewSolver(p, m.opts.Engine, m.opts.Budget)
	s.OnCompleted(func(sol *model.Solution) { m.persistCompleted(id, sol) })

	m.mu.Lock()
	m.solvers[id] = s
	m.created[id] = now
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) persistCompleted(id string, sol *model.Solution) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	raw, err := json.Marshal(sol)
	if err == nil {
		err = m.st.SaveSolution(ctx, id, raw)
	}
	if err != nil {
		log.Printf("job %s: persist solution: %v", id, err)
	}
	if err := m.st.UpdateJobStatus(ctx, id, model.StatusCompleted); err != nil {
		log.Printf("job %s: mark completed: %v", id, err)
	}
	if m.OnCompleted != nil {
		m.OnCompleted(id, sol)
	}
}

func (m *Manager) get(id string) (*Solver, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.solvers[id]
	return s, ok
}

// Start begins solving. False when the job is unknown or already past
// Pending.
func (m *Manager) Start(ctx context.Context, id string) (bool, error) {
	s, ok := m.get(id)
	if !ok {
		return false, store.ErrNotFound
	}
	if !s.Start() {
		return false, nil
	}
	if err := m.st.UpdateJobStatus(ctx, id, model.StatusRunning); err != nil {
		log.Printf("job %s: mark running: %v", id, err)
	}
	return true, nil
}

// Stop cancels a running job. The solver finalizes with its incumbent.
func (m *Manager) Stop(id string) (bool, error) {
	s, ok := m.get(id)
	if !ok {
		return false, store.ErrNotFound
	}
	return s.Stop(), nil
}

// Poll returns the job's live snapshot. Jobs only known to the store (for
// example after a restart) report their persisted status and solution.
func (m *Manager) Poll(ctx context.Context, id string) (model.PollResponse, error) {
	if s, ok := m.get(id); ok {
		return s.Poll(), nil
	}
	job, err := m.st.GetJob(ctx, id)
	if err != nil {
		return model.PollResponse{}, err
	}
	resp := model.PollResponse{Status: job.Status}
	if len(job.Solution) > 0 {
		var sol model.Solution
		if err := json.Unmarshal(job.Solution, &sol); err == nil {
			resp.Solution = &sol
		}
	}
	return resp, nil
}

// Status reports a job's lifecycle state, consulting the store for jobs
// with no live solver.
func (m *Manager) Status(ctx context.Context, id string) (string, error) {
	if s, ok := m.get(id); ok {
		return s.Status(), nil
	}
	job, err := m.st.GetJob(ctx, id)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// List pages job summaries newest first.
func (m *Manager) List(ctx context.Context, page, perPage int) ([]model.JobSummary, int, error) {
	jobs, total, err := m.st.ListJobs(ctx, page, perPage)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.JobSummary, 0, len(jobs))
	for _, j := range jobs {
		status := j.Status
		if s, ok := m.get(j.ID); ok {
			status = s.Status()
		}
		out = append(out, model.JobSummary{JobID: j.ID, Status: status, CreatedAt: j.CreatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, total, nil
}

// Delete drops a job from the registry and the store. Running jobs are
// stopped first.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if s, ok := m.get(id); ok {
		s.Stop()
	}
	m.mu.Lock()
	delete(m.solvers, id)
	delete(m.created, id)
	m.mu.Unlock()
	return m.st.DeleteJob(ctx, id)
}

// Running counts live solvers in the Running state.
func (m *Manager) Running() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.solvers {
		if s.Status() == model.StatusRunning {
			n++
		}
	}
	return n
}
