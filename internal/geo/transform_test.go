package geo

import (
	"testing"
	"time"

	"routelab/internal/model"
)

func twoRouteFixture() (*model.VehicleRoutingProblem, *model.Solution) {
	depot := 0
	problem := &model.VehicleRoutingProblem{
		Locations: []model.Location{
			{Coordinates: [2]float64{13.30, 52.45}},
			{Coordinates: [2]float64{13.31, 52.46}},
			{Coordinates: [2]float64{13.32, 52.47}},
			{Coordinates: [2]float64{13.33, 52.48}},
			{Coordinates: [2]float64{13.34, 52.49}},
		},
		Services: []model.Service{
			{ID: "a", LocationID: 1},
			{ID: "b", LocationID: 2},
			{ID: "c", LocationID: 3},
			{ID: "d", LocationID: 4},
		},
		Vehicles: []model.Vehicle{
			{ID: "v1", DepotLocationID: &depot},
			{ID: "v2", DepotLocationID: &depot},
		},
	}
	at := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	solution := &model.Solution{
		Routes: []model.SolutionRoute{
			{
				VehicleID: "v1",
				Activities: []model.Activity{
					{Type: model.ActivityStart, ArrivalTime: at, DepartureTime: at},
					{Type: model.ActivityService, ID: "a", ArrivalTime: at},
					{Type: model.ActivityService, ID: "b", ArrivalTime: at},
					{Type: model.ActivityEnd, ArrivalTime: at, DepartureTime: at},
				},
			},
			{
				VehicleID: "v2",
				Activities: []model.Activity{
					{Type: model.ActivityService, ID: "c", ArrivalTime: at},
				},
			},
		},
		UnassignedJobs: []string{"d"},
	}
	return problem, solution
}

func TestSolutionPointsOnePerAssignedService(t *testing.T) {
	problem, solution := twoRouteFixture()
	fc := SolutionPoints(problem, solution)
	if fc.Type != "FeatureCollection" {
		t.Fatalf("type = %q", fc.Type)
	}
	// 3 assigned services across 2 routes; depot events and the unassigned
	// service contribute nothing.
	if len(fc.Features) != 3 {
		t.Fatalf("features = %d, want 3", len(fc.Features))
	}
	byService := map[string]Feature{}
	for _, f := range fc.Features {
		if f.Geometry.Type != "Point" {
			t.Fatalf("geometry type = %q", f.Geometry.Type)
		}
		byService[f.Properties["service_id"].(string)] = f
	}
	if _, ok := byService["d"]; ok {
		t.Fatal("unassigned service should not be rendered")
	}
	if got := byService["a"].Properties["route"]; got != 0 {
		t.Fatalf("service a route = %v, want 0", got)
	}
	if got := byService["c"].Properties["route"]; got != 1 {
		t.Fatalf("service c route = %v, want 1", got)
	}
	if byService["a"].Properties["color"] != RouteColor(0) {
		t.Fatal("route 0 color mismatch")
	}
	if byService["c"].Properties["color"] != RouteColor(1) {
		t.Fatal("route 1 color mismatch")
	}
	coords := byService["b"].Geometry.Coordinates.([]float64)
	if coords[0] != 13.32 || coords[1] != 52.47 {
		t.Fatalf("service b at %v", coords)
	}
}

func TestSolutionPointsNilInputs(t *testing.T) {
	if fc := SolutionPoints(nil, nil); len(fc.Features) != 0 {
		t.Fatalf("features = %d, want 0", len(fc.Features))
	}
}

func TestProblemPointsTagsDepots(t *testing.T) {
	problem, _ := twoRouteFixture()
	fc := ProblemPoints(problem)
	services, depots := 0, 0
	for _, f := range fc.Features {
		switch f.Properties["kind"] {
		case "service":
			services++
		case "depot":
			depots++
		}
	}
	if services != 4 {
		t.Fatalf("service features = %d, want 4", services)
	}
	if depots != 1 {
		t.Fatalf("depot features = %d, want 1 (shared depot)", depots)
	}
}

func TestRouteColorCycles(t *testing.T) {
	if RouteColor(0) == RouteColor(1) {
		t.Fatal("adjacent routes share a color")
	}
	if RouteColor(3) != RouteColor(13) {
		t.Fatal("palette should repeat every 10 routes")
	}
	if RouteColor(-2) != RouteColor(2) {
		t.Fatal("negative index should not panic or change color")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		sec  int
		want string
	}{
		{0, "0s"},
		{42, "42s"},
		{65, "1m 05s"},
		{3900, "1h 05m"},
		{-5, "0s"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.sec); got != c.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.sec, got, c.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(time.Time{}); got != "--:--" {
		t.Fatalf("zero time = %q", got)
	}
	at := time.Date(2026, 8, 29, 7, 5, 0, 0, time.UTC)
	if got := FormatClock(at); got != "07:05" {
		t.Fatalf("clock = %q", got)
	}
}

func TestRouteLineGeometry(t *testing.T) {
	f := RouteLine([][2]float64{{13.3, 52.4}, {13.4, 52.5}}, 2)
	if f.Geometry.Type != "LineString" {
		t.Fatalf("geometry type = %q", f.Geometry.Type)
	}
	cc := f.Geometry.Coordinates.([][]float64)
	if len(cc) != 2 || cc[1][0] != 13.4 {
		t.Fatalf("coordinates = %v", cc)
	}
	if f.Properties["color"] != RouteColor(2) {
		t.Fatal("route line color mismatch")
	}
}
