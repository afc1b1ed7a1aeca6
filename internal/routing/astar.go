package routing

import "container/heap"

// heuristicSpeedKph caps edge speeds so the haversine estimate never
// overestimates travel time, keeping the heuristic admissible.
const heuristicSpeedKph = 120.0

// Heuristic estimates the remaining weight from a node to the target.
type Heuristic interface {
	Estimate(g *Graph, from, to int) float64
}

// HaversineHeuristic divides great-circle distance by the maximum speed.
type HaversineHeuristic struct{}

func (HaversineHeuristic) Estimate(g *Graph, from, to int) float64 {
	a, b := g.Nodes[from], g.Nodes[to]
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon) / (heuristicSpeedKph / 3.6)
}

// Astar is A* with a pluggable admissible heuristic.
func Astar(g *Graph, from, to int, h Heuristic) (Path, error) {
	if h == nil {
		h = HaversineHeuristic{}
	}
	st := newSearchState(g.NodeCount())
	st.dist[from] = 0
	pq := &minHeap{{node: from, f: h.Estimate(g, from, to)}}
	serial := 0
	var visited []int
	for pq.Len() > 0 {
		it := heap.Pop(pq).(heapItem)
		if st.settled[it.node] {
			continue
		}
		st.settled[it.node] = true
		visited = append(visited, it.node)
		if it.node == to {
			return Path{Nodes: st.path(from, to), Weight: st.dist[to], Visited: visited}, nil
		}
		for _, e := range g.out[it.node] {
			nd := st.dist[it.node] + e.Weight
			if nd < st.dist[e.To] {
				st.dist[e.To] = nd
				st.parent[e.To] = it.node
				serial++
				heap.Push(pq, heapItem{node: e.To, g: nd, f: nd + h.Estimate(g, e.To, to), serial: serial})
			}
		}
	}
	return Path{Visited: visited}, ErrNoPath
}
