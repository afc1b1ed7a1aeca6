package solver

import "time"

// routePlan is one vehicle's working route: service indices in visit order.
type routePlan struct {
	VehicleIdx int
	Order      []int
}

func (pl routePlan) clone() routePlan {
	return routePlan{VehicleIdx: pl.VehicleIdx, Order: append([]int(nil), pl.Order...)}
}

// stopTiming is the computed schedule for one stop.
type stopTiming struct {
	ServiceIdx int
	ArriveSec  float64 // offset from problem base time
	DepartSec  float64
	WaitSec    float64
}

// routeSchedule is the full timing breakdown of a route.
type routeSchedule struct {
	StartSec    float64
	EndSec      float64
	Stops       []stopTiming
	DriveSec    float64
	DistM       float64
	WaitSec     float64
	MaxLoad     float64
	TotalDemand []float64
	Feasible    bool
}

// schedulePlan propagates arrival/departure times through a plan and checks
// capacity, skills, time windows and shift bounds. Waiting before an opening
// time window is allowed; arriving after the last closing one is not.
func (p *Problem) schedulePlan(pl routePlan) routeSchedule {
	v := p.Vehicles[pl.VehicleIdx]
	sched := routeSchedule{Feasible: true}

	// capacity and skills
	dims := len(v.Capacity)
	ld := dims
	for _, si := range pl.Order {
		if n := len(p.Services[si].Demand); n > ld {
			ld = n
		}
	}
	load := make([]float64, ld)
	maxLoad := 0.0
	for _, si := range pl.Order {
		svc := p.Services[si]
		if !vehicleCovers(v, svc.Skills) {
			sched.Feasible = false
			return sched
		}
		for d, q := range svc.Demand {
			load[d] += q
			if d < dims && v.Capacity[d] > 0 && load[d] > v.Capacity[d] {
				sched.Feasible = false
				return sched
			}
		}
		total := 0.0
		for _, l := range load {
			total += l
		}
		if total > maxLoad {
			maxLoad = total
		}
	}
	sched.TotalDemand = load
	sched.MaxLoad = maxLoad

	t := 0.0 // seconds from base time
	if v.Shift != nil && v.Shift.EarliestStart != nil {
		t = v.Shift.EarliestStart.Sub(p.BaseTime).Seconds()
	}
	sched.StartSec = t
	t += float64(v.DepotDurationSec)

	cur := -1
	if v.DepotLocationID != nil {
		cur = *v.DepotLocationID
	}
	for _, si := range pl.Order {
		loc := p.serviceLoc(si)
		if cur >= 0 {
			sched.DriveSec += p.DriveSec[cur][loc]
			sched.DistM += p.DistM[cur][loc]
			t += p.DriveSec[cur][loc]
		}
		arrive := t
		wait := 0.0
		if ws, we, ok := p.windowFor(si, arrive); ok {
			if arrive < ws {
				wait = ws - arrive
				t = ws
			}
			_ = we
		} else {
			sched.Feasible = false
			return sched
		}
		sched.WaitSec += wait
		t += float64(p.Services[si].DurationSec)
		sched.Stops = append(sched.Stops, stopTiming{ServiceIdx: si, ArriveSec: arrive, DepartSec: t, WaitSec: wait})
		cur = loc
	}

	if v.ShouldReturnToDepot && v.DepotLocationID != nil && cur >= 0 {
		sched.DriveSec += p.DriveSec[cur][*v.DepotLocationID]
		sched.DistM += p.DistM[cur][*v.DepotLocationID]
		t += p.DriveSec[cur][*v.DepotLocationID]
		t += float64(v.ReturnDepotDurationSec)
	}
	sched.EndSec = t

	if v.Shift != nil {
		if v.Shift.LatestEnd != nil && t > v.Shift.LatestEnd.Sub(p.BaseTime).Seconds() {
			sched.Feasible = false
		}
		if v.Shift.MaximumWorkingDurationSec > 0 && t-sched.StartSec > float64(v.Shift.MaximumWorkingDurationSec) {
			sched.Feasible = false
		}
		if v.Shift.MaximumTransportDurationSec > 0 && sched.DriveSec > float64(v.Shift.MaximumTransportDurationSec) {
			sched.Feasible = false
		}
	}
	return sched
}

// windowFor finds a usable time window for service si at the given arrival
// offset. With no windows declared every arrival is usable. Returns the
// chosen window's bounds as base-time offsets.
func (p *Problem) windowFor(si int, arriveSec float64) (startSec, endSec float64, ok bool) {
	windows := p.Services[si].TimeWindows
	if len(windows) == 0 {
		return arriveSec, arriveSec, true
	}
	for _, tw := range windows {
		ws := 0.0
		we := 0.0
		open := tw.End.IsZero()
		if !tw.Start.IsZero() {
			ws = tw.Start.Sub(p.BaseTime).Seconds()
		}
		if !open {
			we = tw.End.Sub(p.BaseTime).Seconds()
		}
		if open || arriveSec <= we {
			return ws, we, true
		}
	}
	return 0, 0, false
}

// windowOverlap is the overlap in seconds between the first time windows of
// two services, zero when either has none or the windows are open-ended.
func (p *Problem) windowOverlap(a, b int) float64 {
	wa, wb := p.Services[a].TimeWindows, p.Services[b].TimeWindows
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	ta, tb := wa[0], wb[0]
	if ta.End.IsZero() || tb.End.IsZero() {
		return 0
	}
	start := ta.Start
	if tb.Start.After(start) {
		start = tb.Start
	}
	end := ta.End
	if tb.End.Before(end) {
		end = tb.End
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Seconds()
}

// absTime converts a base-time offset back to a timestamp.
func (p *Problem) absTime(sec float64) time.Time {
	return p.BaseTime.Add(time.Duration(sec * float64(time.Second)))
}
