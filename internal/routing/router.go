package routing

import (
	"fmt"

	"routelab/internal/model"
)

// Route is a resolved point-to-point result: the path geometry plus the
// debug trail of settled nodes.
type Route struct {
	Coordinates [][2]float64
	WeightSec   float64
	Visited     [][2]float64
	Algorithm   string
}

// Router snaps requests onto the graph and dispatches to the selected
// algorithm. Landmark preparation happens once at construction.
type Router struct {
	graph *Graph
	lm    *Landmarks
}

const defaultLandmarkCount = 4

// NewRouter prepares landmarkCount landmarks over g; zero or negative picks
// the default.
func NewRouter(g *Graph, landmarkCount int) (*Router, error) {
	if landmarkCount <= 0 {
		landmarkCount = defaultLandmarkCount
	}
	lm, err := PrepareLandmarks(g, landmarkCount)
	if err != nil {
		return nil, err
	}
	return &Router{graph: g, lm: lm}, nil
}

func (r *Router) Graph() *Graph         { return r.graph }
func (r *Router) Landmarks() *Landmarks { return r.lm }

// Route resolves a request. Unknown algorithm names default to Dijkstra
// only when empty; anything else is an error.
func (r *Router) Route(req model.RouteRequest) (*Route, error) {
	from, err := r.graph.Nearest(req.Start.Lon, req.Start.Lat)
	if err != nil {
		return nil, err
	}
	to, err := r.graph.Nearest(req.End.Lon, req.End.Lat)
	if err != nil {
		return nil, err
	}

	alg := req.Algorithm
	if alg == "" {
		alg = model.AlgDijkstra
	}
	var path Path
	switch alg {
	case model.AlgDijkstra:
		path, err = Dijkstra(r.graph, from, to)
	case model.AlgAstar:
		path, err = Astar(r.graph, from, to, HaversineHeuristic{})
	case model.AlgBidirectionalAstar:
		path, err = BidirectionalAstar(r.graph, from, to, HaversineHeuristic{})
	case model.AlgLandmarks:
		path, err = Astar(r.graph, from, to, r.lm)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", alg)
	}
	if err != nil {
		return nil, err
	}

	out := &Route{WeightSec: path.Weight, Algorithm: alg}
	for _, n := range path.Nodes {
		out.Coordinates = append(out.Coordinates, [2]float64{r.graph.Nodes[n].Lon, r.graph.Nodes[n].Lat})
	}
	if req.IncludeDebug {
		for _, n := range path.Visited {
			out.Visited = append(out.Visited, [2]float64{r.graph.Nodes[n].Lon, r.graph.Nodes[n].Lat})
		}
	}
	return out, nil
}

// GenerateGrid builds a rows x cols grid graph anchored at a lon/lat
// corner, bidirectional edges between neighbors. Used for demo fixtures
// and tests.
func GenerateGrid(rows, cols int, originLon, originLat, step float64) *Graph {
	g := NewGraph()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.AddNode(originLon+float64(c)*step, originLat+float64(r)*step)
		}
	}
	id := func(r, c int) int { return r*cols + c }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				_ = g.AddBidirectionalEdge(id(r, c), id(r, c+1), 0)
			}
			if r+1 < rows {
				_ = g.AddBidirectionalEdge(id(r, c), id(r+1, c), 0)
			}
		}
	}
	return g
}
