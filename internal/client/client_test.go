package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"routelab/internal/model"
)

func TestClientSubmitStartPoll(t *testing.T) {
	var started atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/vrp/jobs":
			var req model.SubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(400)
				return
			}
			_ = json.NewEncoder(w).Encode(model.SubmitResponse{JobID: "j1"})
		case r.Method == http.MethodPost && r.URL.Path == "/vrp/jobs/j1/start":
			started.Store(true)
			_ = json.NewEncoder(w).Encode(true)
		case r.Method == http.MethodGet && r.URL.Path == "/vrp/jobs/j1/poll":
			status := model.StatusPending
			if started.Load() {
				status = model.StatusCompleted
			}
			_ = json.NewEncoder(w).Encode(model.PollResponse{Status: status, Solution: &model.Solution{}})
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	id, err := c.SubmitJob(ctx, &model.SubmitRequest{})
	if err != nil || id != "j1" {
		t.Fatalf("submit = %q, %v", id, err)
	}
	resp, err := c.PollJob(ctx, id)
	if err != nil || resp.Status != model.StatusPending {
		t.Fatalf("poll = %+v, %v", resp, err)
	}
	ok, err := c.StartJob(ctx, id)
	if err != nil || !ok {
		t.Fatalf("start = %v, %v", ok, err)
	}
	resp, err = c.PollJob(ctx, id)
	if err != nil || resp.Status != model.StatusCompleted {
		t.Fatalf("poll after start = %+v, %v", resp, err)
	}
}

func TestClientSurfacesProblemBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(404)
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "Job not found", "detail": "no such job", "status": 404})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.PollJob(context.Background(), "missing")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.StatusCode != 404 || apiErr.Title != "Job not found" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestPollerSwitchesCadenceAndStops(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		var resp model.PollResponse
		switch {
		case n == 1:
			resp.Status = model.StatusPending
		case n < 4:
			resp.Status = model.StatusRunning
		default:
			resp.Status = model.StatusCompleted
			resp.Solution = &model.Solution{}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewPoller(New(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var statuses []string
	for resp := range p.Watch(ctx, "j1") {
		statuses = append(statuses, resp.Status)
	}
	if len(statuses) != 4 {
		t.Fatalf("snapshots = %v, want 4", statuses)
	}
	if statuses[len(statuses)-1] != model.StatusCompleted {
		t.Fatalf("last status = %q", statuses[len(statuses)-1])
	}
}

func TestPollerToleratesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(500)
			return
		}
		_ = json.NewEncoder(w).Encode(model.PollResponse{Status: model.StatusCompleted, Solution: &model.Solution{}})
	}))
	defer srv.Close()

	p := NewPoller(New(srv.URL))
	var sawErr atomic.Bool
	p.OnError = func(error) { sawErr.Store(true) }

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sol, err := p.WaitForSolution(ctx, "j1")
	if err != nil || sol == nil {
		t.Fatalf("wait = %v, %v", sol, err)
	}
	if !sawErr.Load() {
		t.Fatal("transient error not observed")
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(model.PollResponse{Status: model.StatusPending})
	}))
	defer srv.Close()

	p := NewPoller(New(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	ch := p.Watch(ctx, "j1")
	<-ch
	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch did not stop after cancel")
		}
	}
}
