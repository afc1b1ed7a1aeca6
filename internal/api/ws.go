package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"routelab/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JobWSHandler streams poll snapshots for one job over a websocket: an
// immediate snapshot on connect, then one per broker event and a periodic
// refresh while the job runs. The stream closes after the Completed
// snapshot is delivered.
func (s *Server) JobWSHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, err := s.Manager.Status(r.Context(), jobID); err != nil {
		s.jobError(w, r, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	events := s.Broker.Subscribe(jobID)
	defer s.Broker.Unsubscribe(jobID, events)

	conn.SetReadLimit(1 << 20)
	// reader drains client frames and signals close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() (string, error) {
		resp, err := s.Manager.Poll(r.Context(), jobID)
		if err != nil {
			return "", err
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			return "", err
		}
		return resp.Status, conn.WriteJSON(wsMessage{Type: "job.snapshot", Payload: payload})
	}

	if status, err := send(); err != nil || status == model.StatusCompleted {
		return
	}

	ticker := time.NewTicker(600 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-events:
			if status, err := send(); err != nil || status == model.StatusCompleted {
				return
			}
		case <-ticker.C:
			if status, err := send(); err != nil || status == model.StatusCompleted {
				return
			}
		}
	}
}
