package solver

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"routelab/internal/model"
)

// Ruin and recreate operator names, also the keys of the reported
// weight and statistics maps.
const (
	RuinRandom = "random"
	RuinRadial = "radial"
	RuinWorst  = "worst"

	RecreateGreedy = "greedy"
	RecreateRegret = "regret2"
)

var (
	ruinNames     = []string{RuinRandom, RuinRadial, RuinWorst}
	recreateNames = []string{RecreateGreedy, RecreateRegret}
)

// candidate is a working solution: one plan per vehicle plus the services
// no feasible insertion was found for.
type candidate struct {
	Plans      []routePlan
	Unassigned []int
	Score      model.Score
}

func (c candidate) clone() candidate {
	out := candidate{
		Plans:      make([]routePlan, len(c.Plans)),
		Unassigned: append([]int(nil), c.Unassigned...),
		Score:      c.Score,
	}
	for i := range c.Plans {
		out.Plans[i] = c.Plans[i].clone()
	}
	return out
}

// EngineOptions tune the ruin-and-recreate loop. Zero values pick defaults.
type EngineOptions struct {
	Seed            int64
	IterationsLimit int
	InitialTemp     float64
	Cooling         float64
}

// Engine runs an adaptive large-neighborhood search over a compiled problem.
// Operators are drawn by roulette wheel over weights that grow when an
// operator pair improves the incumbent and decay when its move is rejected.
type Engine struct {
	p     *Problem
	rng   *rand.Rand
	opts  EngineOptions
	stats *Statistics

	// wmu guards the weight maps: Run mutates them while Poll snapshots
	// them through Weights.
	wmu       sync.Mutex
	ruinW     map[string]float64
	recreateW map[string]float64

	iterations int
}

func NewEngine(p *Problem, opts EngineOptions) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		p:         p,
		rng:       rand.New(rand.NewSource(seed)),
		opts:      opts,
		stats:     NewStatistics(),
		ruinW:     map[string]float64{},
		recreateW: map[string]float64{},
	}
	for _, n := range ruinNames {
		e.ruinW[n] = 1
	}
	for _, n := range recreateNames {
		e.recreateW[n] = 1
	}
	return e
}

func (e *Engine) Statistics() *Statistics { return e.stats }

// Weights snapshots the current adaptive operator weights.
func (e *Engine) Weights() model.OperatorWeights {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	w := model.OperatorWeights{
		Ruin:     make(map[string]float64, len(ruinNames)),
		Recreate: make(map[string]float64, len(recreateNames)),
	}
	for _, n := range ruinNames {
		w.Ruin[n] = e.ruinW[n]
	}
	for _, n := range recreateNames {
		w.Recreate[n] = e.recreateW[n]
	}
	return w
}

// Run searches until the context is cancelled, the time budget is spent or
// the iteration limit is hit. onBest, when non-nil, is called with a copy of
// every new incumbent.
func (e *Engine) Run(ctx context.Context, budget time.Duration, onBest func(candidate)) candidate {
	curr := e.seed()
	best := curr.clone()
	e.stats.RecordBest(0, best.Score)
	if onBest != nil {
		onBest(best.clone())
	}

	temp := 1.0
	if e.opts.InitialTemp > 0 {
		temp = e.opts.InitialTemp
	}
	cool := 0.995
	if e.opts.Cooling > 0 && e.opts.Cooling < 1 {
		cool = e.opts.Cooling
	}

	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return best
		default:
		}
		e.iterations++
		if e.opts.IterationsLimit > 0 && e.iterations > e.opts.IterationsLimit {
			break
		}

		iterStart := time.Now()
		k := 1 + e.rng.Intn(3)
		ruinOp := e.selectOp(ruinNames, e.ruinW)
		recOp := e.selectOp(recreateNames, e.recreateW)

		next := curr.clone()
		var removed []int
		switch ruinOp {
		case RuinRadial:
			removed = e.radialRuin(next, k)
		case RuinWorst:
			removed = e.worstRuin(next, k)
		default:
			removed = e.randomRuin(next, k)
		}
		removePlanned(&next, removed)
		pool := append(removed, next.Unassigned...)
		next.Unassigned = nil
		switch recOp {
		case RecreateRegret:
			e.regretInsert(&next, pool)
		default:
			e.greedyInsert(&next, pool)
		}
		e.twoOptImprove(&next)
		e.orOptImprove(&next)
		e.crossExchangeImprove(&next)
		next.Score = e.score(next)

		improved := next.Score.Less(curr.Score)
		newBest := next.Score.Less(best.Score)
		delta := scoreDelta(curr.Score, next.Score)
		accepted := improved || e.rng.Float64() < math.Exp(-softGap(next.Score, curr.Score)/(temp+1e-9))
		if accepted && next.Score.HardScore <= curr.Score.HardScore {
			curr = next
			if newBest {
				best = next.clone()
				e.rewardOps(ruinOp, recOp, 0.1)
				e.stats.RecordBest(e.iterations, best.Score)
				if onBest != nil {
					onBest(best.clone())
				}
			} else {
				e.rewardOps(ruinOp, recOp, 0.01)
			}
		} else {
			e.decayOps(ruinOp, recOp)
		}
		e.stats.RecordIteration(ruinOp, recOp, time.Since(iterStart), improved, newBest, delta)
		temp *= cool
	}
	return best
}

func (e *Engine) rewardOps(ruinOp, recOp string, amount float64) {
	e.wmu.Lock()
	e.ruinW[ruinOp] += amount
	e.recreateW[recOp] += amount
	e.wmu.Unlock()
}

func (e *Engine) decayOps(ruinOp, recOp string) {
	e.wmu.Lock()
	e.ruinW[ruinOp] = math.Max(0.01, e.ruinW[ruinOp]*0.999)
	e.recreateW[recOp] = math.Max(0.01, e.recreateW[recOp]*0.999)
	e.wmu.Unlock()
}

func (e *Engine) selectOp(names []string, weights map[string]float64) string {
	sum := 0.0
	for _, n := range names {
		sum += weights[n]
	}
	if sum <= 0 {
		return names[0]
	}
	r := e.rng.Float64() * sum
	acc := 0.0
	for _, n := range names {
		acc += weights[n]
		if r <= acc {
			return n
		}
	}
	return names[len(names)-1]
}

// seed builds the initial solution by cheapest feasible append, round-robin
// over vehicles.
func (e *Engine) seed() candidate {
	n := len(e.p.Services)
	used := make([]bool, n)
	c := candidate{Plans: make([]routePlan, len(e.p.Vehicles))}
	for vi := range c.Plans {
		c.Plans[vi] = routePlan{VehicleIdx: vi}
	}
	assigned := 0
	for assigned < n {
		progress := false
		for vi := range c.Plans {
			bestIdx, bestDelta := -1, math.MaxFloat64
			for i := 0; i < n; i++ {
				if used[i] {
					continue
				}
				pos := len(c.Plans[vi].Order)
				if !e.feasibleInsert(c.Plans[vi], i, pos) {
					continue
				}
				d := e.insertDelta(c.Plans[vi], i, pos)
				if d < bestDelta {
					bestDelta = d
					bestIdx = i
				}
			}
			if bestIdx >= 0 {
				c.Plans[vi].Order = append(c.Plans[vi].Order, bestIdx)
				used[bestIdx] = true
				assigned++
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	for i := 0; i < n; i++ {
		if !used[i] {
			c.Unassigned = append(c.Unassigned, i)
		}
	}
	c.Score = e.score(c)
	return c
}

// score: hard counts unserved services, soft is total transport time with a
// small distance term so shorter routes win among equal drive times.
func (e *Engine) score(c candidate) model.Score {
	soft := 0.0
	for _, pl := range c.Plans {
		s := e.p.schedulePlan(pl)
		soft += s.DriveSec + 0.001*s.DistM
	}
	return model.Score{HardScore: float64(len(c.Unassigned)), SoftScore: soft}
}

func softGap(next, curr model.Score) float64 {
	d := next.SoftScore - curr.SoftScore
	if d < 0 {
		return 0
	}
	return d
}

// scoreDelta is the improvement magnitude credited to operator statistics.
func scoreDelta(from, to model.Score) float64 {
	d := (from.HardScore-to.HardScore)*3600 + (from.SoftScore - to.SoftScore)
	if d < 0 {
		return 0
	}
	return d
}

func (e *Engine) randomRuin(c candidate, k int) []int {
	all := assignedServices(c)
	if len(all) == 0 {
		return nil
	}
	e.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// radialRuin removes a random seed service and its nearest neighbors,
// nearness blending geography with time-window overlap.
func (e *Engine) radialRuin(c candidate, k int) []int {
	all := assignedServices(c)
	if len(all) == 0 {
		return nil
	}
	seed := all[e.rng.Intn(len(all))]
	sl := e.p.serviceLoc(seed)
	type scored struct {
		idx   int
		score float64
	}
	rel := make([]scored, 0, len(all))
	for _, idx := range all {
		if idx == seed {
			continue
		}
		geo := e.p.DistM[sl][e.p.serviceLoc(idx)]
		overlap := e.p.windowOverlap(seed, idx)
		rel = append(rel, scored{idx: idx, score: geo - 1000*overlap})
	}
	sort.Slice(rel, func(i, j int) bool { return rel[i].score < rel[j].score })
	removed := []int{seed}
	for i := 0; i < len(rel) && len(removed) < k; i++ {
		removed = append(removed, rel[i].idx)
	}
	return removed
}

// worstRuin removes the services whose absence saves the most drive time.
func (e *Engine) worstRuin(c candidate, k int) []int {
	type gainEntry struct {
		idx  int
		gain float64
	}
	var gains []gainEntry
	for _, pl := range c.Plans {
		base := e.p.schedulePlan(pl)
		for i, si := range pl.Order {
			trimmed := pl.clone()
			trimmed.Order = append(trimmed.Order[:i], trimmed.Order[i+1:]...)
			s := e.p.schedulePlan(trimmed)
			gains = append(gains, gainEntry{idx: si, gain: base.DriveSec - s.DriveSec})
		}
	}
	sort.Slice(gains, func(i, j int) bool { return gains[i].gain > gains[j].gain })
	if k > len(gains) {
		k = len(gains)
	}
	removed := make([]int, 0, k)
	for i := 0; i < k; i++ {
		removed = append(removed, gains[i].idx)
	}
	return removed
}

func assignedServices(c candidate) []int {
	var all []int
	for _, pl := range c.Plans {
		all = append(all, pl.Order...)
	}
	return all
}

func removePlanned(c *candidate, removed []int) {
	if len(removed) == 0 {
		return
	}
	rm := make(map[int]bool, len(removed))
	for _, i := range removed {
		rm[i] = true
	}
	for vi := range c.Plans {
		kept := c.Plans[vi].Order[:0]
		for _, idx := range c.Plans[vi].Order {
			if !rm[idx] {
				kept = append(kept, idx)
			}
		}
		c.Plans[vi].Order = kept
	}
}

// greedyInsert places each pooled service at its cheapest feasible position.
// Services with no feasible slot stay unassigned.
func (e *Engine) greedyInsert(c *candidate, pool []int) {
	for len(pool) > 0 {
		bestPlan, bestPos, bestNode := -1, -1, -1
		bestCost := math.MaxFloat64
		for ni, idx := range pool {
			for vi, pl := range c.Plans {
				for pos := 0; pos <= len(pl.Order); pos++ {
					if !e.feasibleInsert(pl, idx, pos) {
						continue
					}
					cost := e.insertDelta(pl, idx, pos)
					if cost < bestCost {
						bestCost = cost
						bestPlan, bestPos, bestNode = vi, pos, ni
					}
				}
			}
		}
		if bestPlan < 0 {
			c.Unassigned = append(c.Unassigned, pool...)
			return
		}
		insertAt(&c.Plans[bestPlan], pool[bestNode], bestPos)
		pool = append(pool[:bestNode], pool[bestNode+1:]...)
	}
}

// regretInsert prefers the service with the largest gap between its best and
// second-best slot, committing scarce positions first.
func (e *Engine) regretInsert(c *candidate, pool []int) {
	for len(pool) > 0 {
		bestNode, bestPlan, bestPos := -1, -1, -1
		bestRegret := -1.0
		bestCost := math.MaxFloat64
		for ni, idx := range pool {
			best1, best2 := math.MaxFloat64, math.MaxFloat64
			bp, bpos := -1, -1
			for vi, pl := range c.Plans {
				for pos := 0; pos <= len(pl.Order); pos++ {
					if !e.feasibleInsert(pl, idx, pos) {
						continue
					}
					cost := e.insertDelta(pl, idx, pos)
					if cost < best1 {
						best2 = best1
						best1 = cost
						bp, bpos = vi, pos
					} else if cost < best2 {
						best2 = cost
					}
				}
			}
			if bp < 0 {
				continue
			}
			regret := 0.0
			if best2 < math.MaxFloat64 {
				regret = best2 - best1
			}
			if regret > bestRegret || (regret == bestRegret && best1 < bestCost) {
				bestNode, bestPlan, bestPos = ni, bp, bpos
				bestRegret = regret
				bestCost = best1
			}
		}
		if bestNode < 0 {
			c.Unassigned = append(c.Unassigned, pool...)
			return
		}
		insertAt(&c.Plans[bestPlan], pool[bestNode], bestPos)
		pool = append(pool[:bestNode], pool[bestNode+1:]...)
	}
}

func insertAt(pl *routePlan, idx, pos int) {
	if pos >= len(pl.Order) {
		pl.Order = append(pl.Order, idx)
		return
	}
	pl.Order = append(pl.Order[:pos+1], pl.Order[pos:]...)
	pl.Order[pos] = idx
}

func (e *Engine) feasibleInsert(pl routePlan, idx, pos int) bool {
	if pos < 0 || pos > len(pl.Order) {
		return false
	}
	tmp := routePlan{VehicleIdx: pl.VehicleIdx, Order: make([]int, 0, len(pl.Order)+1)}
	tmp.Order = append(tmp.Order, pl.Order[:pos]...)
	tmp.Order = append(tmp.Order, idx)
	tmp.Order = append(tmp.Order, pl.Order[pos:]...)
	return e.p.schedulePlan(tmp).Feasible
}

// insertDelta approximates the cost of placing idx at pos: added detour plus
// service time.
func (e *Engine) insertDelta(pl routePlan, idx, pos int) float64 {
	loc := e.p.serviceLoc(idx)
	prev := -1
	if pos == 0 {
		if d := e.p.Vehicles[pl.VehicleIdx].DepotLocationID; d != nil {
			prev = *d
		}
	} else {
		prev = e.p.serviceLoc(pl.Order[pos-1])
	}
	next := -1
	if pos < len(pl.Order) {
		next = e.p.serviceLoc(pl.Order[pos])
	}
	add := 0.0
	rem := 0.0
	if prev >= 0 {
		add += e.p.DriveSec[prev][loc]
	}
	if next >= 0 {
		add += e.p.DriveSec[loc][next]
		if prev >= 0 {
			rem = e.p.DriveSec[prev][next]
		}
	}
	return add - rem + float64(e.p.Services[idx].DurationSec)
}

// twoOptImprove reverses intra-route segments while drive time drops.
func (e *Engine) twoOptImprove(c *candidate) {
	for vi := range c.Plans {
		pl := c.Plans[vi]
		n := len(pl.Order)
		improved := true
		for improved {
			improved = false
			for i := 0; i < n-1; i++ {
				for k := i + 1; k < n; k++ {
					cand := pl.clone()
					for a, b := i, k; a < b; a, b = a+1, b-1 {
						cand.Order[a], cand.Order[b] = cand.Order[b], cand.Order[a]
					}
					s := e.p.schedulePlan(cand)
					if !s.Feasible {
						continue
					}
					if s.DriveSec+1e-6 < e.p.schedulePlan(pl).DriveSec {
						pl = cand
						improved = true
					}
				}
			}
		}
		c.Plans[vi] = pl
	}
}

// orOptImprove relocates single services within their route.
func (e *Engine) orOptImprove(c *candidate) {
	for vi := range c.Plans {
		pl := c.Plans[vi]
		improved := true
		for improved {
			improved = false
			base := e.p.schedulePlan(pl).DriveSec
			for i := 0; i < len(pl.Order); i++ {
				for j := 0; j <= len(pl.Order); j++ {
					if j == i || j == i+1 {
						continue
					}
					cand := pl.clone()
					node := cand.Order[i]
					cand.Order = append(cand.Order[:i], cand.Order[i+1:]...)
					at := j
					if at > i {
						at--
					}
					insertAt(&cand, node, at)
					s := e.p.schedulePlan(cand)
					if s.Feasible && s.DriveSec+1e-6 < base {
						pl = cand
						base = s.DriveSec
						improved = true
					}
				}
			}
		}
		c.Plans[vi] = pl
	}
}

// crossExchangeImprove swaps service pairs across routes.
func (e *Engine) crossExchangeImprove(c *candidate) {
	m := len(c.Plans)
	if m < 2 {
		return
	}
	improved := true
	for improved {
		improved = false
		for a := 0; a < m; a++ {
			for b := a + 1; b < m; b++ {
				pa, pb := c.Plans[a], c.Plans[b]
				for i := 0; i < len(pa.Order); i++ {
					for j := 0; j < len(pb.Order); j++ {
						ca, cb := pa.clone(), pb.clone()
						ca.Order[i], cb.Order[j] = cb.Order[j], ca.Order[i]
						sa, sb := e.p.schedulePlan(ca), e.p.schedulePlan(cb)
						if !sa.Feasible || !sb.Feasible {
							continue
						}
						before := e.p.schedulePlan(pa).DriveSec + e.p.schedulePlan(pb).DriveSec
						if sa.DriveSec+sb.DriveSec+1e-6 < before {
							c.Plans[a], c.Plans[b] = ca, cb
							pa, pb = ca, cb
							improved = true
						}
					}
				}
			}
		}
	}
}
