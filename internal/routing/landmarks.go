package routing

import (
	"container/heap"
	"fmt"
	"math"
)

// Landmarks holds ALT preparation data: the chosen landmark nodes plus the
// full distance tables from and to each of them.
type Landmarks struct {
	graph *Graph
	nodes []int
	// fromLM[i][v]: weight landmark i -> v. toLM[i][v]: weight v -> landmark i.
	fromLM [][]float64
	toLM   [][]float64
}

// PrepareLandmarks picks count landmarks by farthest-point selection and
// precomputes their distance tables.
func PrepareLandmarks(g *Graph, count int) (*Landmarks, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, fmt.Errorf("empty graph")
	}
	if count < 1 {
		count = 1
	}
	if count > n {
		count = n
	}

	lm := &Landmarks{graph: g}

	// First landmark: the node farthest from an arbitrary start, which
	// lands on the periphery instead of the middle.
	d0 := oneToAll(g, 0, false)
	first := 0
	for v, d := range d0 {
		if !math.IsInf(d, 1) && d > d0[first] {
			first = v
		}
	}
	lm.add(first)

	for len(lm.nodes) < count {
		next, bestMin := -1, -1.0
		for v := 0; v < n; v++ {
			if lm.isLandmark(v) {
				continue
			}
			minD := math.Inf(1)
			for i := range lm.nodes {
				if d := lm.fromLM[i][v]; d < minD {
					minD = d
				}
			}
			if math.IsInf(minD, 1) {
				continue
			}
			if minD > bestMin {
				bestMin = minD
				next = v
			}
		}
		if next < 0 {
			break
		}
		lm.add(next)
	}
	return lm, nil
}

func (lm *Landmarks) add(node int) {
	lm.nodes = append(lm.nodes, node)
	lm.fromLM = append(lm.fromLM, oneToAll(lm.graph, node, false))
	lm.toLM = append(lm.toLM, oneToAll(lm.graph, node, true))
}

func (lm *Landmarks) isLandmark(v int) bool {
	for _, n := range lm.nodes {
		if n == v {
			return true
		}
	}
	return false
}

// Nodes returns the landmark node ids.
func (lm *Landmarks) Nodes() []int { return append([]int(nil), lm.nodes...) }

// Coordinates returns the landmark positions as lon/lat pairs.
func (lm *Landmarks) Coordinates() [][2]float64 {
	out := make([][2]float64, 0, len(lm.nodes))
	for _, n := range lm.nodes {
		out = append(out, [2]float64{lm.graph.Nodes[n].Lon, lm.graph.Nodes[n].Lat})
	}
	return out
}

// Estimate is the ALT lower bound via triangle inequality, falling back to
// haversine when a landmark cannot see both nodes.
func (lm *Landmarks) Estimate(g *Graph, from, to int) float64 {
	best := HaversineHeuristic{}.Estimate(g, from, to)
	for i := range lm.nodes {
		if d := lm.toLM[i][from] - lm.toLM[i][to]; !math.IsNaN(d) && d > best && !math.IsInf(d, 0) {
			best = d
		}
		if d := lm.fromLM[i][to] - lm.fromLM[i][from]; !math.IsNaN(d) && d > best && !math.IsInf(d, 0) {
			best = d
		}
	}
	return best
}

// oneToAll is a full Dijkstra from source over forward or reverse edges.
func oneToAll(g *Graph, source int, reverse bool) []float64 {
	dist := make([]float64, g.NodeCount())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	settled := make([]bool, g.NodeCount())
	h := &minHeap{{node: source}}
	serial := 0
	for h.Len() > 0 {
		it := heap.Pop(h).(heapItem)
		if settled[it.node] {
			continue
		}
		settled[it.node] = true
		edges := g.out[it.node]
		if reverse {
			edges = g.in[it.node]
		}
		for _, e := range edges {
			nd := dist[it.node] + e.Weight
			if nd < dist[e.To] {
				dist[e.To] = nd
				serial++
				heap.Push(h, heapItem{node: e.To, g: nd, f: nd, serial: serial})
			}
		}
	}
	return dist
}
