package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Job is a persisted optimization job: the submitted problem, lifecycle
// status and the solution once the search finishes.
type Job struct {
	ID             string          `json:"job_id"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	Problem        json.RawMessage `json:"problem,omitempty"`
	Solution       json.RawMessage `json:"solution,omitempty"`
	CallbackURL    string          `json:"callback_url,omitempty"`
	CallbackSecret string          `json:"-"`
}

// Store is the persistence interface used by the API server.
type Store interface {
	CreateJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, id string) (Job, error)
	UpdateJobStatus(ctx context.Context, id, status string) error
	SaveSolution(ctx context.Context, id string, solution json.RawMessage) error
	// ListJobs pages newest first. total is the unpaged count.
	ListJobs(ctx context.Context, page, perPage int) (items []Job, total int, err error)
	DeleteJob(ctx context.Context, id string) error
	Close() error
}

var ErrNotFound = errors.New("not found")
