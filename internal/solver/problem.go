package solver

import (
	"fmt"
	"math"
	"time"

	"routelab/internal/model"
)

// Problem is the compiled form of a submitted VehicleRoutingProblem:
// travel matrices precomputed, references resolved to indices.
type Problem struct {
	Input    *model.VehicleRoutingProblem
	Services []model.Service
	Vehicles []model.Vehicle

	// DistM[i][j] and DriveSec[i][j] are travel cost between location indices.
	DistM    [][]float64
	DriveSec [][]float64

	// BaseTime anchors schedules when shifts carry no explicit start.
	BaseTime time.Time

	SpeedKph float64
}

const defaultSpeedKph = 50.0

// Compile validates references and precomputes the travel matrices.
func Compile(in *model.VehicleRoutingProblem) (*Problem, error) {
	if in == nil {
		return nil, fmt.Errorf("compile: nil problem")
	}
	if len(in.Locations) == 0 {
		return nil, fmt.Errorf("compile: no locations")
	}
	if len(in.Vehicles) == 0 {
		return nil, fmt.Errorf("compile: no vehicles")
	}
	for _, svc := range in.Services {
		if svc.LocationID < 0 || svc.LocationID >= len(in.Locations) {
			return nil, fmt.Errorf("compile: service %q references unknown location %d", svc.ID, svc.LocationID)
		}
	}
	for _, v := range in.Vehicles {
		if v.DepotLocationID != nil && (*v.DepotLocationID < 0 || *v.DepotLocationID >= len(in.Locations)) {
			return nil, fmt.Errorf("compile: vehicle %q references unknown depot location %d", v.ID, *v.DepotLocationID)
		}
	}

	p := &Problem{
		Input:    in,
		Services: in.Services,
		Vehicles: in.Vehicles,
		SpeedKph: defaultSpeedKph,
		BaseTime: baseTime(in),
	}

	n := len(in.Locations)
	p.DistM = make([][]float64, n)
	p.DriveSec = make([][]float64, n)
	mps := p.SpeedKph / 3.6
	for i := 0; i < n; i++ {
		p.DistM[i] = make([]float64, n)
		p.DriveSec[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := Haversine(in.Locations[i].Lat(), in.Locations[i].Lon(), in.Locations[j].Lat(), in.Locations[j].Lon())
			p.DistM[i][j] = d
			p.DriveSec[i][j] = d / mps
		}
	}
	return p, nil
}

// baseTime picks the schedule anchor: earliest shift start, else earliest
// time-window start, else midnight today UTC.
func baseTime(in *model.VehicleRoutingProblem) time.Time {
	var base time.Time
	for _, v := range in.Vehicles {
		if v.Shift != nil && v.Shift.EarliestStart != nil {
			if base.IsZero() || v.Shift.EarliestStart.Before(base) {
				base = *v.Shift.EarliestStart
			}
		}
	}
	if !base.IsZero() {
		return base
	}
	for _, svc := range in.Services {
		for _, tw := range svc.TimeWindows {
			if !tw.Start.IsZero() && (base.IsZero() || tw.Start.Before(base)) {
				base = tw.Start
			}
		}
	}
	if !base.IsZero() {
		return base
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// serviceLoc returns the location index of service si.
func (p *Problem) serviceLoc(si int) int { return p.Services[si].LocationID }

// vehicleSkillSet reports whether vehicle v covers all of the given skills.
func vehicleCovers(v model.Vehicle, skills []string) bool {
	if len(skills) == 0 {
		return true
	}
	have := make(map[string]bool, len(v.Skills))
	for _, s := range v.Skills {
		have[s] = true
	}
	for _, s := range skills {
		if !have[s] {
			return false
		}
	}
	return true
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
