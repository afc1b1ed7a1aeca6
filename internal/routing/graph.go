package routing

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Node is a graph vertex at a lon/lat position.
type Node struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Edge is a directed weighted edge. Weight is travel seconds.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight,omitempty"`
}

// Graph is a directed road graph with forward and reverse adjacency, the
// reverse side feeding backward searches.
type Graph struct {
	Nodes []Node
	out   [][]edgeRef
	in    [][]edgeRef
}

type edgeRef struct {
	To     int
	Weight float64
}

// graphFile is the on-disk JSON shape: {"nodes":[[lon,lat],...],
// "edges":[{"from":..,"to":..,"weight":..},...]}.
type graphFile struct {
	Nodes [][2]float64 `json:"nodes"`
	Edges []Edge       `json:"edges"`
}

const defaultEdgeSpeedKph = 120.0

func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) AddNode(lon, lat float64) int {
	g.Nodes = append(g.Nodes, Node{Lon: lon, Lat: lat})
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return len(g.Nodes) - 1
}

// AddEdge adds a directed edge. A zero weight is replaced by the haversine
// travel time at the default edge speed.
func (g *Graph) AddEdge(from, to int, weight float64) error {
	if from < 0 || from >= len(g.Nodes) || to < 0 || to >= len(g.Nodes) {
		return fmt.Errorf("edge %d->%d references unknown node", from, to)
	}
	if weight <= 0 {
		d := haversine(g.Nodes[from].Lat, g.Nodes[from].Lon, g.Nodes[to].Lat, g.Nodes[to].Lon)
		weight = d / (defaultEdgeSpeedKph / 3.6)
	}
	g.out[from] = append(g.out[from], edgeRef{To: to, Weight: weight})
	g.in[to] = append(g.in[to], edgeRef{To: from, Weight: weight})
	return nil
}

// AddBidirectionalEdge adds the edge in both directions.
func (g *Graph) AddBidirectionalEdge(a, b int, weight float64) error {
	if err := g.AddEdge(a, b, weight); err != nil {
		return err
	}
	return g.AddEdge(b, a, weight)
}

func (g *Graph) NodeCount() int { return len(g.Nodes) }

// LoadGraph reads a graph from its JSON file.
func LoadGraph(path string) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gf graphFile
	if err := json.Unmarshal(raw, &gf); err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", path, err)
	}
	g := NewGraph()
	for _, n := range gf.Nodes {
		g.AddNode(n[0], n[1])
	}
	for _, e := range gf.Edges {
		if err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			return nil, fmt.Errorf("graph %s: %w", path, err)
		}
	}
	return g, nil
}

// Nearest snaps a lon/lat position to the closest node.
func (g *Graph) Nearest(lon, lat float64) (int, error) {
	if len(g.Nodes) == 0 {
		return 0, fmt.Errorf("empty graph")
	}
	best, bestD := 0, math.MaxFloat64
	for i, n := range g.Nodes {
		d := haversine(lat, lon, n.Lat, n.Lon)
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best, nil
}

// NearestEdge finds the edge whose midpoint is closest to the position,
// used by the closest-edge debug lookup.
func (g *Graph) NearestEdge(lon, lat float64) (Edge, error) {
	bestD := math.MaxFloat64
	var best Edge
	found := false
	for from, edges := range g.out {
		for _, e := range edges {
			midLat := (g.Nodes[from].Lat + g.Nodes[e.To].Lat) / 2
			midLon := (g.Nodes[from].Lon + g.Nodes[e.To].Lon) / 2
			d := haversine(lat, lon, midLat, midLon)
			if d < bestD {
				bestD = d
				best = Edge{From: from, To: e.To, Weight: e.Weight}
				found = true
			}
		}
	}
	if !found {
		return Edge{}, fmt.Errorf("graph has no edges")
	}
	return best, nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
