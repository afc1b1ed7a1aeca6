package api

import (
	"fmt"

	"routelab/internal/model"
)

func validateProblem(p *model.VehicleRoutingProblem) error {
	if len(p.Locations) == 0 {
		return fmt.Errorf("locations must not be empty")
	}
	for i, loc := range p.Locations {
		lon, lat := loc.Lon(), loc.Lat()
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return fmt.Errorf("location %d out of range: [%v, %v]", i, lon, lat)
		}
	}
	if len(p.Vehicles) == 0 {
		return fmt.Errorf("vehicles must not be empty")
	}
	seenV := map[string]bool{}
	for _, v := range p.Vehicles {
		if v.ID == "" {
			return fmt.Errorf("vehicle id must not be empty")
		}
		if seenV[v.ID] {
			return fmt.Errorf("duplicate vehicle id %q", v.ID)
		}
		seenV[v.ID] = true
		if v.DepotLocationID != nil && (*v.DepotLocationID < 0 || *v.DepotLocationID >= len(p.Locations)) {
			return fmt.Errorf("vehicle %q depot_location_id %d out of range", v.ID, *v.DepotLocationID)
		}
	}
	seenS := map[string]bool{}
	for _, svc := range p.Services {
		if svc.ID == "" {
			return fmt.Errorf("service id must not be empty")
		}
		if seenS[svc.ID] {
			return fmt.Errorf("duplicate service id %q", svc.ID)
		}
		seenS[svc.ID] = true
		if svc.LocationID < 0 || svc.LocationID >= len(p.Locations) {
			return fmt.Errorf("service %q location_id %d out of range", svc.ID, svc.LocationID)
		}
		if svc.DurationSec < 0 {
			return fmt.Errorf("service %q duration_sec must be >= 0", svc.ID)
		}
		for _, tw := range svc.TimeWindows {
			if !tw.Start.IsZero() && !tw.End.IsZero() && tw.End.Before(tw.Start) {
				return fmt.Errorf("service %q has a time window ending before it starts", svc.ID)
			}
		}
	}
	return nil
}

func validateRouteRequest(req *model.RouteRequest) error {
	for _, p := range []model.GeoPoint{req.Start, req.End} {
		if p.Lon < -180 || p.Lon > 180 || p.Lat < -90 || p.Lat > 90 {
			return fmt.Errorf("coordinate out of range: [%v, %v]", p.Lon, p.Lat)
		}
	}
	switch req.Algorithm {
	case "", model.AlgDijkstra, model.AlgAstar, model.AlgBidirectionalAstar, model.AlgLandmarks:
		return nil
	}
	return fmt.Errorf("invalid algorithm: %s (allowed: Dijkstra, Astar, BidirectionalAstar, Landmarks)", req.Algorithm)
}
