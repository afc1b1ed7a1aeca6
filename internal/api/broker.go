package api

import (
	"sync"
)

// JobEvent is a lifecycle event for one optimization job, fanned out to
// websocket subscribers.
type JobEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Event types published on the broker.
const (
	EventJobStarted   = "job.started"
	EventJobCompleted = "job.completed"
)

// Broker is the in-process fan-out, one subscriber set per job id.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan JobEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan JobEvent]struct{}{}}
}

func (b *Broker) Subscribe(jobID string) chan JobEvent {
	ch := make(chan JobEvent, 8)
	b.mu.Lock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = map[chan JobEvent]struct{}{}
	}
	b.subs[jobID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(jobID string, ch chan JobEvent) {
	b.mu.Lock()
	if m := b.subs[jobID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, jobID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(jobID string, evt JobEvent) {
	b.mu.Lock()
	for ch := range b.subs[jobID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
