package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"routelab/internal/config"
	"routelab/internal/geo"
	"routelab/internal/model"
)

func newTestServer(t *testing.T) *Server {
	return newTestServerBudget(t, 500*time.Millisecond)
}

func newTestServerBudget(t *testing.T, budget time.Duration) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.SolveBudget = budget
	cfg.SolverSeed = 42
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func submitBody() []byte {
	raw, _ := json.Marshal(map[string]any{
		"locations": []map[string]any{
			{"coordinates": []float64{13.40, 52.52}},
			{"coordinates": []float64{13.41, 52.52}},
			{"coordinates": []float64{13.42, 52.53}},
		},
		"services": []map[string]any{
			{"id": "s1", "location_id": 1, "demand": []float64{1}},
			{"id": "s2", "location_id": 2, "demand": []float64{1}},
		},
		"vehicles": []map[string]any{
			{"id": "v1", "capacity": []float64{10}, "depot_location_id": 0, "should_return_to_depot": true},
		},
	})
	return raw
}

func submitJob(t *testing.T, s *Server) string {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/vrp/jobs", bytes.NewReader(submitBody()))
	req.Header.Set("Content-Type", "application/json")
	s.VRPJobsHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: got %d: %s", rr.Code, rr.Body.String())
	}
	var resp model.SubmitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.JobID == "" {
		t.Fatalf("submit response: %v %s", err, rr.Body.String())
	}
	return resp.JobID
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestJobSubmitPollLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := submitJob(t, s)

	poll := func(query string) model.PollResponse {
		rr := httptest.NewRecorder()
		s.VRPJobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/vrp/jobs/"+id+"/poll"+query, nil))
		if rr.Code != 200 {
			t.Fatalf("poll: got %d: %s", rr.Code, rr.Body.String())
		}
		var resp model.PollResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("poll decode: %v", err)
		}
		return resp
	}

	// submitting starts the solver, so the job is never seen Pending
	if got := poll(""); got.Status == model.StatusPending {
		t.Fatalf("status after submit = %q, want Running or Completed", got.Status)
	}

	// the solver is already started, so an explicit start answers false
	rr := httptest.NewRecorder()
	s.VRPJobByIDHandler(rr, httptest.NewRequest(http.MethodPost, "/vrp/jobs/"+id+"/start", nil))
	if rr.Code != 200 || rr.Body.String() != "false\n" {
		t.Fatalf("start after submit: %d %q", rr.Code, rr.Body.String())
	}

	deadline := time.Now().Add(10 * time.Second)
	var final model.PollResponse
	for {
		final = poll("")
		if final.Status == model.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed, last status %q", final.Status)
		}
		time.Sleep(100 * time.Millisecond)
	}
	if final.Solution == nil || final.Statistics == nil || final.Weights == nil {
		t.Fatalf("completed poll incomplete: %+v", final)
	}
	if len(final.Solution.UnassignedJobs) != 0 {
		t.Fatalf("unassigned = %v", final.Solution.UnassignedJobs)
	}
	if len(final.Statistics.ScoreEvolution) == 0 {
		t.Fatal("no score evolution rows")
	}
	for _, route := range final.Solution.Routes {
		if route.Polyline == nil {
			t.Fatalf("route %s has no polyline", route.VehicleID)
		}
	}
	bare := poll("?geojson=false")
	for _, route := range bare.Solution.Routes {
		if route.Polyline != nil {
			t.Fatalf("geojson=false still carries a polyline on %s", route.VehicleID)
		}
	}
}

func TestJobStopAndList(t *testing.T) {
	s := newTestServerBudget(t, 30*time.Second)
	id := submitJob(t, s)

	// the job is solving as soon as it is submitted; stopping it keeps the
	// incumbent and completes the job, so a second stop answers false
	rr := httptest.NewRecorder()
	s.VRPJobByIDHandler(rr, httptest.NewRequest(http.MethodPost, "/vrp/jobs/"+id+"/stop", nil))
	if rr.Code != 200 || rr.Body.String() != "true\n" {
		t.Fatalf("stop: %d %q", rr.Code, rr.Body.String())
	}
	rr = httptest.NewRecorder()
	s.VRPJobByIDHandler(rr, httptest.NewRequest(http.MethodPost, "/vrp/jobs/"+id+"/stop", nil))
	if rr.Body.String() != "false\n" {
		t.Fatalf("second stop = %q, want false", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	s.VRPJobsHandler(rr, httptest.NewRequest(http.MethodGet, "/vrp/jobs?page=1&per_page=10", nil))
	if rr.Code != 200 {
		t.Fatalf("list: %d", rr.Code)
	}
	var page PaginatedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("list decode: %v", err)
	}
	if page.Total != 1 || page.TotalPages != 1 {
		t.Fatalf("page = %+v", page)
	}
}

func TestJobNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/vrp/jobs/zzz/poll"},
		{http.MethodPost, "/vrp/jobs/zzz/start"},
		{http.MethodPost, "/vrp/jobs/zzz/stop"},
		{http.MethodGet, "/vrp/jobs/zzz"},
	} {
		rr := httptest.NewRecorder()
		s.VRPJobByIDHandler(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s %s: got %d, want 404", tc.method, tc.path, rr.Code)
		}
	}
}

func TestSubmitRejectsInvalidProblem(t *testing.T) {
	s := newTestServer(t)
	for name, body := range map[string]string{
		"bad json":     `{`,
		"no locations": `{"locations":[],"services":[],"vehicles":[{"id":"v1"}]}`,
		"no vehicles":  `{"locations":[{"coordinates":[13.4,52.5]}],"services":[],"vehicles":[]}`,
		"bad ref":      `{"locations":[{"coordinates":[13.4,52.5]}],"services":[{"id":"s1","location_id":9}],"vehicles":[{"id":"v1"}]}`,
		"dup service":  `{"locations":[{"coordinates":[13.4,52.5]}],"services":[{"id":"s1","location_id":0},{"id":"s1","location_id":0}],"vehicles":[{"id":"v1"}]}`,
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/vrp/jobs", bytes.NewReader([]byte(body)))
		s.VRPJobsHandler(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", name, rr.Code)
		}
		var prob Problem
		if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil || prob.Status != 400 {
			t.Fatalf("%s: problem body: %v %s", name, err, rr.Body.String())
		}
	}
}

func TestRouteEndpointAllAlgorithms(t *testing.T) {
	s := newTestServer(t)
	for _, alg := range []string{model.AlgDijkstra, model.AlgAstar, model.AlgBidirectionalAstar, model.AlgLandmarks} {
		body := fmt.Sprintf(`{"start":{"lon":13.31,"lat":52.46},"end":{"lon":13.39,"lat":52.54},"algorithm":%q,"include_debug":true}`, alg)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/route", bytes.NewReader([]byte(body)))
		s.RouteHandler(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s: got %d: %s", alg, rr.Code, rr.Body.String())
		}
		var resp struct {
			GeoJSON   geo.FeatureCollection `json:"geojson"`
			WeightSec float64               `json:"weight_sec"`
			Algorithm string                `json:"algorithm"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", alg, err)
		}
		if resp.Algorithm != alg || resp.WeightSec <= 0 {
			t.Fatalf("%s: resp = %+v", alg, resp)
		}
		if len(resp.GeoJSON.Features) < 2 {
			t.Fatalf("%s: want polyline plus visited debug points, got %d features", alg, len(resp.GeoJSON.Features))
		}
	}

	rr := httptest.NewRecorder()
	s.RouteHandler(rr, httptest.NewRequest(http.MethodPost, "/route", bytes.NewReader([]byte(`{"algorithm":"Bellman"}`))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown algorithm: got %d, want 400", rr.Code)
	}
}

func TestLandmarksEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.LandmarksHandler(rr, httptest.NewRequest(http.MethodGet, "/landmarks", nil))
	if rr.Code != 200 {
		t.Fatalf("landmarks: %d", rr.Code)
	}
	var fc geo.FeatureCollection
	if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Features) == 0 {
		t.Fatal("no landmark features")
	}
	for _, f := range fc.Features {
		if f.Geometry.Type != "Point" {
			t.Fatalf("feature type = %q, want Point", f.Geometry.Type)
		}
	}
}

func TestClosestEdgeEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ClosestEdgeHandler(rr, httptest.NewRequest(http.MethodGet, "/debug/closest?lat=52.46&lng=13.31", nil))
	if rr.Code != 200 {
		t.Fatalf("closest edge: %d: %s", rr.Code, rr.Body.String())
	}
	rr = httptest.NewRecorder()
	s.ClosestEdgeHandler(rr, httptest.NewRequest(http.MethodGet, "/debug/closest?lng=oops", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad query: got %d, want 400", rr.Code)
	}
}

func TestSolutionGeoJSONFeatureCount(t *testing.T) {
	s := newTestServer(t)
	id := submitJob(t, s)
	rr := httptest.NewRecorder()
	s.VRPJobByIDHandler(rr, httptest.NewRequest(http.MethodPost, "/vrp/jobs/"+id+"/start", nil))
	if rr.Code != 200 {
		t.Fatalf("start: %d", rr.Code)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		rr = httptest.NewRecorder()
		s.VRPJobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/vrp/jobs/"+id+"/solution/geojson", nil))
		if rr.Code == 200 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("solution geojson never ready: %d %s", rr.Code, rr.Body.String())
		}
		time.Sleep(100 * time.Millisecond)
	}
	var fc geo.FeatureCollection
	if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// one point per assigned service
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	for _, f := range fc.Features {
		if f.Properties["service_id"] == nil || f.Properties["color"] == nil {
			t.Fatalf("feature missing service_id/color: %+v", f.Properties)
		}
	}
}
