package routing

import (
	"container/heap"
	"math"
)

// BidirectionalAstar searches from both endpoints at once, ordering both
// frontiers by distance plus the averaged haversine potential so the two
// searches stay consistent. Terminates once neither frontier can beat the
// best meeting point.
func BidirectionalAstar(g *Graph, from, to int, h Heuristic) (Path, error) {
	if from == to {
		return Path{Nodes: []int{from}, Visited: []int{from}}, nil
	}
	if h == nil {
		h = HaversineHeuristic{}
	}
	// p(v) = (h(v,to) - h(v,from)) / 2 keeps reduced edge weights
	// non-negative in both directions.
	pot := func(v int) float64 {
		return (h.Estimate(g, v, to) - h.Estimate(g, v, from)) / 2
	}

	fwd := newSearchState(g.NodeCount())
	bwd := newSearchState(g.NodeCount())
	fwd.dist[from] = 0
	bwd.dist[to] = 0
	fq := &minHeap{{node: from, f: pot(from)}}
	bq := &minHeap{{node: to, f: -pot(to)}}

	mu := math.Inf(1)
	meet := -1
	serial := 0
	var visited []int

	relax := func(own, other *searchState, q *minHeap, u int, edges []edgeRef, forward bool) {
		for _, e := range edges {
			nd := own.dist[u] + e.Weight
			if nd < own.dist[e.To] {
				own.dist[e.To] = nd
				own.parent[e.To] = u
				serial++
				key := nd + pot(e.To)
				if !forward {
					key = nd - pot(e.To)
				}
				heap.Push(q, heapItem{node: e.To, g: nd, f: key, serial: serial})
			}
			if d := other.dist[e.To]; !math.IsInf(d, 1) && nd+d < mu {
				mu = nd + d
				meet = e.To
			}
		}
	}

	for fq.Len() > 0 && bq.Len() > 0 {
		if (*fq)[0].f+(*bq)[0].f >= mu {
			break
		}
		if (*fq)[0].f <= (*bq)[0].f {
			it := heap.Pop(fq).(heapItem)
			if fwd.settled[it.node] {
				continue
			}
			fwd.settled[it.node] = true
			visited = append(visited, it.node)
			relax(fwd, bwd, fq, it.node, g.out[it.node], true)
		} else {
			it := heap.Pop(bq).(heapItem)
			if bwd.settled[it.node] {
				continue
			}
			bwd.settled[it.node] = true
			visited = append(visited, it.node)
			relax(bwd, fwd, bq, it.node, g.in[it.node], false)
		}
	}

	if meet < 0 {
		return Path{Visited: visited}, ErrNoPath
	}
	nodes := fwd.path(from, meet)
	for n := bwd.parent[meet]; n != -1; n = bwd.parent[n] {
		nodes = append(nodes, n)
		if n == to {
			break
		}
	}
	return Path{Nodes: nodes, Weight: mu, Visited: visited}, nil
}
