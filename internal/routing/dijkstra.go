package routing

import (
	"container/heap"
	"fmt"
	"math"
)

// Path is the result of a point-to-point search. Weight is travel seconds,
// Visited lists settled nodes in settle order for the debug layers.
type Path struct {
	Nodes   []int
	Weight  float64
	Visited []int
}

// ErrNoPath reports an unreachable target.
var ErrNoPath = fmt.Errorf("no path")

type heapItem struct {
	node   int
	g      float64 // cheapest known weight from origin
	f      float64 // g plus heuristic, equals g for Dijkstra
	serial int
}

// minHeap orders by f, then g, then insertion order for determinism.
type minHeap []heapItem

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].serial < h[j].serial
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

type searchState struct {
	dist    []float64
	parent  []int
	settled []bool
}

func newSearchState(n int) *searchState {
	s := &searchState{
		dist:    make([]float64, n),
		parent:  make([]int, n),
		settled: make([]bool, n),
	}
	for i := range s.dist {
		s.dist[i] = math.Inf(1)
		s.parent[i] = -1
	}
	return s
}

func (s *searchState) path(from, to int) []int {
	var rev []int
	for n := to; n != -1; n = s.parent[n] {
		rev = append(rev, n)
		if n == from {
			break
		}
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Dijkstra settles nodes in cheapest-first order until the target settles.
func Dijkstra(g *Graph, from, to int) (Path, error) {
	st := newSearchState(g.NodeCount())
	st.dist[from] = 0
	h := &minHeap{{node: from}}
	serial := 0
	var visited []int
	for h.Len() > 0 {
		it := heap.Pop(h).(heapItem)
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
				heap.Push(h, heapItem{node: e.To, g: nd, f: nd, serial: serial})
			}
		}
	}
	return Path{Visited: visited}, ErrNoPath
}
