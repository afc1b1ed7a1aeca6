package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Memory is the default in-process store, used when no database DSN is
// configured and by the handler tests.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemory() *Memory {
	return &Memory{jobs: map[string]Job{}}
}

func (m *Memory) CreateJob(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (m *Memory) UpdateJobStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Status = status
	m.jobs[id] = job
	return nil
}

func (m *Memory) SaveSolution(_ context.Context, id string, solution json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Solution = append(json.RawMessage(nil), solution...)
	m.jobs[id] = job
	return nil
}

func (m *Memory) ListJobs(_ context.Context, page, perPage int) ([]Job, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 500 {
		perPage = 50
	}
	m.mu.RLock()
	all := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		all = append(all, j)
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	start := (page - 1) * perPage
	if start >= total {
		return []Job{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) Close() error { return nil }
