package geo

import (
	"fmt"
	"time"

	"routelab/internal/model"
)

// Transforms from problem/solution payloads to map-displayable GeoJSON.

// palette matches the map's route coloring; RouteColor cycles through it.
var palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

// RouteColor returns the display color for a route index.
func RouteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// SolutionPoints builds one Point feature per assigned service, tagged with
// its route index and color. Depot start/end activities and unassigned
// services produce no features.
func SolutionPoints(problem *model.VehicleRoutingProblem, solution *model.Solution) FeatureCollection {
	features := []Feature{}
	if problem == nil || solution == nil {
		return NewFeatureCollection(features)
	}
	byID := make(map[string]model.Service, len(problem.Services))
	for _, svc := range problem.Services {
		byID[svc.ID] = svc
	}
	for ri, route := range solution.Routes {
		for _, act := range route.Activities {
			if act.Type != model.ActivityService {
				continue
			}
			svc, ok := byID[act.ID]
			if !ok || svc.LocationID < 0 || svc.LocationID >= len(problem.Locations) {
				continue
			}
			loc := problem.Locations[svc.LocationID]
			features = append(features, NewPoint(loc.Lon(), loc.Lat(), map[string]any{
				"service_id":   act.ID,
				"route":        ri,
				"color":        RouteColor(ri),
				"vehicle_id":   route.VehicleID,
				"arrival_time": act.ArrivalTime.Format(time.RFC3339),
			}))
		}
	}
	return NewFeatureCollection(features)
}

// ProblemPoints builds location features for a problem before it is solved.
// Depot locations are tagged so the map can style them differently.
func ProblemPoints(problem *model.VehicleRoutingProblem) FeatureCollection {
	features := []Feature{}
	if problem == nil {
		return NewFeatureCollection(features)
	}
	depots := map[int]bool{}
	for _, v := range problem.Vehicles {
		if v.DepotLocationID != nil {
			depots[*v.DepotLocationID] = true
		}
	}
	for _, svc := range problem.Services {
		if svc.LocationID < 0 || svc.LocationID >= len(problem.Locations) {
			continue
		}
		loc := problem.Locations[svc.LocationID]
		features = append(features, NewPoint(loc.Lon(), loc.Lat(), map[string]any{
			"kind":       "service",
			"service_id": svc.ID,
		}))
	}
	for id := range depots {
		if id < 0 || id >= len(problem.Locations) {
			continue
		}
		loc := problem.Locations[id]
		features = append(features, NewPoint(loc.Lon(), loc.Lat(), map[string]any{
			"kind": "depot",
		}))
	}
	return NewFeatureCollection(features)
}

// RouteLine builds the polyline feature for a sequence of points.
func RouteLine(points [][2]float64, routeIndex int) Feature {
	return NewLineString(points, map[string]any{
		"route": routeIndex,
		"color": RouteColor(routeIndex),
	})
}

// LandmarkPoints builds the landmark overlay feature collection.
func LandmarkPoints(coords [][2]float64) FeatureCollection {
	features := make([]Feature, 0, len(coords))
	for _, c := range coords {
		features = append(features, NewPoint(c[0], c[1], nil))
	}
	return NewFeatureCollection(features)
}

// FormatDuration renders a second count for the schedule panel, e.g. "1h 05m".
func FormatDuration(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatClock renders a timestamp as a short wall-clock string.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format("15:04")
}
