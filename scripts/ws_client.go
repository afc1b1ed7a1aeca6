// Package main runs a demo WebSocket client for job snapshots.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"routelab/internal/client"
	"routelab/internal/model"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	api := client.New(base)
	ctx := context.Background()

	// Submit a small demo problem; solving starts on submit.
	depot := 0
	req := &model.SubmitRequest{
		VehicleRoutingProblem: model.VehicleRoutingProblem{
			Locations: []model.Location{
				{Coordinates: [2]float64{13.30, 52.45}},
				{Coordinates: [2]float64{13.32, 52.46}},
				{Coordinates: [2]float64{13.34, 52.44}},
				{Coordinates: [2]float64{13.36, 52.47}},
			},
			Services: []model.Service{
				{ID: "svc-1", LocationID: 1, DurationSec: 120},
				{ID: "svc-2", LocationID: 2, DurationSec: 120},
				{ID: "svc-3", LocationID: 3, DurationSec: 120},
			},
			Vehicles: []model.Vehicle{
				{ID: "veh-1", DepotLocationID: &depot, ShouldReturnToDepot: true},
			},
		},
	}
	jobID, err := api.SubmitJob(ctx, req)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Job ID: %s", jobID)

	// Connect WS and watch snapshots until the job completes.
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/vrp/jobs/" + jobID + "/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	deadline := time.Now().Add(2 * time.Minute)
	_ = c.SetReadDeadline(deadline)
	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Printf("read: %v", err)
			return
		}
		var snap model.PollResponse
		_ = json.Unmarshal(m.Payload, &snap)
		log.Printf("WS <- %s status=%s", m.Type, snap.Status)
		if snap.Status == model.StatusCompleted {
			if snap.Solution != nil {
				log.Printf("routes=%d unassigned=%d duration=%ds",
					len(snap.Solution.Routes), len(snap.Solution.UnassignedJobs), snap.Solution.DurationSec)
			}
			return
		}
	}
}
