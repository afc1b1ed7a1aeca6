package client

import (
	"context"
	"time"

	"routelab/internal/model"
)

// Poll cadence: slow while the job sits in the queue, fast once the solver
// is producing incumbents.
const (
	PendingInterval = 2000 * time.Millisecond
	RunningInterval = 600 * time.Millisecond
)

// Poller watches one job and forwards every snapshot until the job
// completes.
type Poller struct {
	Client *Client
	// OnError, when set, observes transient poll failures. Polling keeps
	// going either way.
	OnError func(error)
}

func NewPoller(c *Client) *Poller {
	return &Poller{Client: c}
}

// Watch polls jobID until it reaches Completed or the context ends. Every
// snapshot, including the final one, is sent on the returned channel. The
// channel closes when watching stops.
func (p *Poller) Watch(ctx context.Context, jobID string) <-chan model.PollResponse {
	out := make(chan model.PollResponse, 1)
	go func() {
		defer close(out)
		interval := PendingInterval
		timer := time.NewTimer(0)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			resp, err := p.Client.PollJob(ctx, jobID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if p.OnError != nil {
					p.OnError(err)
				}
				timer.Reset(interval)
				continue
			}
			select {
			case out <- resp:
			case <-ctx.Done():
				return
			}
			if resp.Status == model.StatusCompleted {
				return
			}
			if resp.Status == model.StatusRunning {
				interval = RunningInterval
			} else {
				interval = PendingInterval
			}
			timer.Reset(interval)
		}
	}()
	return out
}

// WaitForSolution runs Watch to completion and returns the final solution.
func (p *Poller) WaitForSolution(ctx context.Context, jobID string) (*model.Solution, error) {
	var last model.PollResponse
	for resp := range p.Watch(ctx, jobID) {
		last = resp
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return last.Solution, nil
}
