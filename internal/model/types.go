package model

import "time"

// Wire types mirroring the routing service's JSON schema. Field names are
// snake_case to match the published OpenAPI document.

// Location is a problem location, coordinates as [lon, lat].
type Location struct {
	Coordinates [2]float64 `json:"coordinates"`
}

func (l Location) Lon() float64 { return l.Coordinates[0] }
func (l Location) Lat() float64 { return l.Coordinates[1] }

// TimeWindow bounds a service visit. Zero bounds are open.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Service is a single visit to perform at a location.
type Service struct {
	ID          string       `json:"id"`
	LocationID  int          `json:"location_id"`
	DurationSec int          `json:"duration_sec,omitempty"`
	Demand      []float64    `json:"demand,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	TimeWindows []TimeWindow `json:"time_windows,omitempty"`
	ServiceType string       `json:"service_type,omitempty"`
}

// VehicleShift bounds a vehicle's working day.
type VehicleShift struct {
	EarliestStart               *time.Time `json:"earliest_start,omitempty"`
	LatestEnd                   *time.Time `json:"latest_end,omitempty"`
	MaximumTransportDurationSec int        `json:"maximum_transport_duration_sec,omitempty"`
	MaximumWorkingDurationSec   int        `json:"maximum_working_duration_sec,omitempty"`
}

type Vehicle struct {
	ID                     string        `json:"id"`
	Profile                string        `json:"profile,omitempty"`
	Shift                  *VehicleShift `json:"shift,omitempty"`
	Capacity               []float64     `json:"capacity,omitempty"`
	DepotLocationID        *int          `json:"depot_location_id,omitempty"`
	DepotDurationSec       int           `json:"depot_duration_sec,omitempty"`
	ShouldReturnToDepot    bool          `json:"should_return_to_depot,omitempty"`
	ReturnDepotDurationSec int           `json:"return_depot_duration_sec,omitempty"`
	Skills                 []string      `json:"skills,omitempty"`
}

// VehicleProfile names a travel-cost provider for a set of vehicles.
type VehicleProfile struct {
	ID           string `json:"id"`
	CostProvider string `json:"cost_provider,omitempty"`
}

// VehicleRoutingProblem is the job submission payload.
type VehicleRoutingProblem struct {
	Locations       []Location       `json:"locations"`
	Services        []Service        `json:"services"`
	VehicleProfiles []VehicleProfile `json:"vehicle_profiles,omitempty"`
	Vehicles        []Vehicle        `json:"vehicles"`
}

// Activity types within a solution route.
const (
	ActivityStart   = "start"
	ActivityService = "service"
	ActivityEnd     = "end"
)

// Activity is a depot event or service stop on a route.
type Activity struct {
	Type               string    `json:"type"`
	ID                 string    `json:"id,omitempty"` // service id, empty for depot events
	ArrivalTime        time.Time `json:"arrival_time"`
	DepartureTime      time.Time `json:"departure_time"`
	WaitingDurationSec int       `json:"waiting_duration_sec,omitempty"`
}

// SolutionRoute is one vehicle's schedule in a solution.
type SolutionRoute struct {
	VehicleID            string     `json:"vehicle_id"`
	Activities           []Activity `json:"activities"`
	DistanceM            float64    `json:"distance_m"`
	DurationSec          int        `json:"duration_sec"`
	TransportDurationSec int        `json:"transport_duration_sec"`
	WaitingDurationSec   int        `json:"waiting_duration_sec"`
	TotalDemand          []float64  `json:"total_demand,omitempty"`
	VehicleMaxLoad       float64    `json:"vehicle_max_load,omitempty"`
	Polyline             any        `json:"polyline,omitempty"` // GeoJSON feature, filled by the API layer
}

// Score separates constraint violations from optimization cost.
type Score struct {
	HardScore float64 `json:"hard_score"`
	SoftScore float64 `json:"soft_score"`
}

func (s Score) IsFailure() bool { return s.HardScore > 0 }

// Less orders scores lexicographically, hard before soft.
func (s Score) Less(o Score) bool {
	if s.HardScore != o.HardScore {
		return s.HardScore < o.HardScore
	}
	return s.SoftScore < o.SoftScore
}

// Solution is the routing service's output for a job.
type Solution struct {
	Routes         []SolutionRoute    `json:"routes"`
	DurationSec    int                `json:"duration_sec"`
	DistanceM      float64            `json:"distance_m"`
	Score          Score              `json:"score"`
	ScoreAnalysis  map[string]float64 `json:"score_analysis,omitempty"`
	UnassignedJobs []string           `json:"unassigned_jobs"`
}

// Job statuses reported by /vrp/jobs and /poll.
const (
	StatusPending   = "Pending"
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
)

// JobSummary is one row of the job listing.
type JobSummary struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// OperatorStatistics aggregates one ruin/recreate operator's search counters.
type OperatorStatistics struct {
	TotalInvocations      int     `json:"total_invocations"`
	TotalImprovements     int     `json:"total_improvements"`
	TotalBest             int     `json:"total_best"`
	TotalDurationMs       int64   `json:"total_duration_ms"`
	AvgDurationMs         float64 `json:"avg_duration_ms"`
	TotalScoreImprovement float64 `json:"total_score_improvement"`
	AvgScoreImprovement   float64 `json:"avg_score_improvement"`
}

// ScoreRow is one best-score observation in the search timeline.
type ScoreRow struct {
	TimestampMs int64 `json:"timestamp_ms"`
	Iteration   int   `json:"iteration"`
	Score       Score `json:"score"`
}

// AggregatedStatistics is keyed by operator name; ScoreEvolution lists the
// incumbent improvements in search order.
type AggregatedStatistics struct {
	Ruin           map[string]OperatorStatistics `json:"aggregated_ruin_statistics"`
	Recreate       map[string]OperatorStatistics `json:"aggregated_recreate_statistics"`
	ScoreEvolution []ScoreRow                    `json:"score_evolution"`
}

// OperatorWeights is the adaptive weight snapshot exposed while polling.
type OperatorWeights struct {
	Ruin     map[string]float64 `json:"ruin"`
	Recreate map[string]float64 `json:"recreate"`
}

// PollResponse is the /vrp/jobs/{id}/poll payload.
type PollResponse struct {
	Status     string                `json:"status"`
	Solution   *Solution             `json:"solution,omitempty"`
	Statistics *AggregatedStatistics `json:"statistics,omitempty"`
	Weights    *OperatorWeights      `json:"weights,omitempty"`
}

// SubmitRequest wraps a problem with optional job options.
type SubmitRequest struct {
	VehicleRoutingProblem
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
}

// SubmitResponse is the POST /vrp/jobs payload.
type SubmitResponse struct {
	JobID string `json:"job_id"`
}

// GeoPoint is a lon/lat pair used by the /route endpoint.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Routing algorithms accepted by POST /route.
const (
	AlgDijkstra           = "Dijkstra"
	AlgAstar              = "Astar"
	AlgBidirectionalAstar = "BidirectionalAstar"
	AlgLandmarks          = "Landmarks"
)

// RouteRequest asks for a point-to-point path.
type RouteRequest struct {
	Start        GeoPoint `json:"start"`
	End          GeoPoint `json:"end"`
	Algorithm    string   `json:"algorithm,omitempty"`
	IncludeDebug bool     `json:"include_debug,omitempty"`
}
