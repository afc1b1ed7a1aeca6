package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"routelab/internal/metrics"
	"routelab/internal/model"
)

// Delivery is one pending callback POST.
type Delivery struct {
	ID          string
	JobID       string
	URL         string
	Secret      string
	Payload     []byte
	Attempts    int
	NextAttempt time.Time
}

// Worker delivers job-completion callbacks with exponential backoff.
type Worker struct {
	HTTP        *http.Client
	Stop        chan struct{}
	MaxAttempts int

	mu    sync.Mutex
	queue []*Delivery
}

// NewWorker builds a delivery worker; maxAttempts <= 0 picks the default.
func NewWorker(maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Worker{HTTP: &http.Client{Timeout: 5 * time.Second}, Stop: make(chan struct{}), MaxAttempts: maxAttempts}
}

// EnqueueCompleted queues a job-completed callback carrying the solution.
func (w *Worker) EnqueueCompleted(jobID, url, secret string, sol *model.Solution) {
	if url == "" {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"id":     fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type":   "job.completed",
		"job_id": jobID,
		"ts":     time.Now().UTC().Format(time.RFC3339),
		"data":   sol,
	})
	if err != nil {
		return
	}
	w.mu.Lock()
	w.queue = append(w.queue, &Delivery{
		ID:      fmt.Sprintf("dlv_%d", time.Now().UnixNano()),
		JobID:   jobID,
		URL:     url,
		Secret:  secret,
		Payload: payload,
	})
	w.mu.Unlock()
}

func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.processOnce()
			}
		}
	}()
}

func (w *Worker) due(now time.Time) []*Delivery {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*Delivery
	for _, d := range w.queue {
		if !d.NextAttempt.After(now) {
			out = append(out, d)
		}
	}
	return out
}

func (w *Worker) remove(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, d := range w.queue {
		if d.ID == id {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			return
		}
	}
}

func (w *Worker) processOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, d := range w.due(time.Now()) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(d.Payload))
		if err != nil {
			w.remove(d.ID)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Job-Id", d.JobID)
		if d.Secret != "" {
			req.Header.Set("X-Signature", SignHMAC(d.Secret, d.Payload))
		}
		start := time.Now()
		resp, err := w.HTTP.Do(req)
		latency := time.Since(start)
		success := false
		if err == nil && resp != nil {
			if resp.Body != nil {
				_ = resp.Body.Close()
			}
			success = resp.StatusCode >= 200 && resp.StatusCode < 300
		}
		status := "failure"
		if success {
			status = "success"
		}
		metrics.CallbackDeliveries.WithLabelValues(status).Inc()
		metrics.CallbackLatency.WithLabelValues(status).Observe(float64(latency.Milliseconds()))
		if success {
			w.remove(d.ID)
			continue
		}
		d.Attempts++
		if d.Attempts >= w.MaxAttempts {
			w.remove(d.ID)
			continue
		}
		d.NextAttempt = time.Now().Add(nextBackoff(d.Attempts))
	}
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
