package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"routelab/internal/geo"
	"routelab/internal/metrics"
	"routelab/internal/model"
)

// RouteHandler handles POST /route: snap start/end, run the selected
// algorithm, answer with a GeoJSON feature collection.
func (s *Server) RouteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateRouteRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid route request", err.Error(), r.URL.Path)
		return
	}
	route, err := s.Router.Route(req)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Routing failed", err.Error(), r.URL.Path)
		return
	}
	metrics.RouteRequests.WithLabelValues(route.Algorithm).Inc()

	features := []geo.Feature{geo.RouteLine(route.Coordinates, 0)}
	if req.IncludeDebug {
		for _, c := range route.Visited {
			features = append(features, geo.NewPoint(c[0], c[1], map[string]any{"layer": "visited"}))
		}
	}
	fc := geo.NewFeatureCollection(features)
	writeJSON(w, http.StatusOK, map[string]any{
		"geojson":    fc,
		"weight_sec": route.WeightSec,
		"algorithm":  route.Algorithm,
	})
}

// LandmarksHandler handles GET /landmarks.
func (s *Server) LandmarksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, geo.LandmarkPoints(s.Router.Landmarks().Coordinates()))
}

// ClosestEdgeHandler handles GET /debug/closest?lat=..&lng=..
func (s *Server) ClosestEdgeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid coordinates", "lat and lng query params required", r.URL.Path)
		return
	}
	edge, err := s.Router.Graph().NearestEdge(lon, lat)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Edge lookup failed", err.Error(), r.URL.Path)
		return
	}
	a := s.Router.Graph().Nodes[edge.From]
	b := s.Router.Graph().Nodes[edge.To]
	line := geo.NewLineString([][2]float64{{a.Lon, a.Lat}, {b.Lon, b.Lat}}, map[string]any{
		"layer":      "closest-edge",
		"weight_sec": edge.Weight,
	})
	writeJSON(w, http.StatusOK, geo.NewFeatureCollection([]geo.Feature{line}))
}

// attachPolylines fills each route's Polyline with a LineString through
// its activity locations: depot, services in visit order, depot again on
// return. Routes are copied so concurrent polls never share feature maps.
func (s *Server) attachPolylines(ctx context.Context, id string, resp *model.PollResponse) {
	if resp.Solution == nil || len(resp.Solution.Routes) == 0 {
		return
	}
	job, err := s.Store.GetJob(ctx, id)
	if err != nil {
		return
	}
	var problem model.VehicleRoutingProblem
	if err := json.Unmarshal(job.Problem, &problem); err != nil {
		return
	}
	serviceLoc := make(map[string]int, len(problem.Services))
	for _, svc := range problem.Services {
		serviceLoc[svc.ID] = svc.LocationID
	}
	depotLoc := make(map[string]*int, len(problem.Vehicles))
	for _, v := range problem.Vehicles {
		depotLoc[v.ID] = v.DepotLocationID
	}

	sol := *resp.Solution
	sol.Routes = append([]model.SolutionRoute(nil), resp.Solution.Routes...)
	for ri := range sol.Routes {
		route := &sol.Routes[ri]
		var points [][2]float64
		for _, act := range route.Activities {
			locID := -1
			switch act.Type {
			case model.ActivityService:
				if li, ok := serviceLoc[act.ID]; ok {
					locID = li
				}
			case model.ActivityStart, model.ActivityEnd:
				if depot := depotLoc[route.VehicleID]; depot != nil {
					locID = *depot
				}
			}
			if locID < 0 || locID >= len(problem.Locations) {
				continue
			}
			loc := problem.Locations[locID]
			points = append(points, [2]float64{loc.Lon(), loc.Lat()})
		}
		route.Polyline = geo.RouteLine(points, ri)
	}
	resp.Solution = &sol
}

// jobSolutionGeoJSON renders a completed job's solution as map layers:
// one point per assigned service plus a line per route.
func (s *Server) jobSolutionGeoJSON(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.Store.GetJob(r.Context(), id)
	if err != nil {
		s.jobError(w, r, err)
		return
	}
	if len(job.Solution) == 0 {
		writeProblem(w, http.StatusConflict, "No solution", "job has no solution yet", r.URL.Path)
		return
	}
	var problem model.VehicleRoutingProblem
	var solution model.Solution
	if err := json.Unmarshal(job.Problem, &problem); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Corrupt problem", err.Error(), r.URL.Path)
		return
	}
	if err := json.Unmarshal(job.Solution, &solution); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Corrupt solution", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, geo.SolutionPoints(&problem, &solution))
}
