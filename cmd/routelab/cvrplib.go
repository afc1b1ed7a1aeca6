package main

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"routelab/internal/model"
)

// ConvertCVRPLIB parses a CVRPLIB-format fixture and maps it onto the
// service's problem schema. Planar fixture coordinates are projected into a
// lon/lat neighborhood around the given origin so distances stay meaningful.
func ConvertCVRPLIB(data []byte, originLon, originLat, scale float64) (*model.VehicleRoutingProblem, error) {
	coords := map[int][2]float64{}
	demands := map[int]float64{}
	var depots []int
	capacity := 0.0
	vehicles := 0

	section := ""
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line == "EOF" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "CAPACITY"):
			capacity = parseHeaderFloat(line)
			continue
		case strings.HasPrefix(line, "VEHICLES"):
			vehicles = int(parseHeaderFloat(line))
			continue
		case strings.HasSuffix(line, "_SECTION"):
			section = line
			continue
		case strings.Contains(line, ":"):
			// other header fields (NAME, TYPE, DIMENSION, ...) are not needed
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case "NODE_COORD_SECTION":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed coord line %q", line)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed coord line %q", line)
			}
			x, err1 := strconv.ParseFloat(fields[1], 64)
			y, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("malformed coord line %q", line)
			}
			coords[id] = [2]float64{x, y}
		case "DEMAND_SECTION":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed demand line %q", line)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed demand line %q", line)
			}
			d, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed demand line %q", line)
			}
			demands[id] = d
		case "DEPOT_SECTION":
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed depot line %q", line)
			}
			if id > 0 {
				depots = append(depots, id)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("no NODE_COORD_SECTION entries")
	}
	if len(depots) == 0 {
		depots = []int{1}
	}

	// Node ids are 1-based and contiguous; location index = id-1.
	problem := &model.VehicleRoutingProblem{}
	maxID := 0
	for id := range coords {
		if id > maxID {
			maxID = id
		}
	}
	isDepot := map[int]bool{}
	for _, id := range depots {
		isDepot[id] = true
	}
	totalDemand := 0.0
	for id := 1; id <= maxID; id++ {
		xy, ok := coords[id]
		if !ok {
			return nil, fmt.Errorf("missing coordinates for node %d", id)
		}
		problem.Locations = append(problem.Locations, model.Location{
			Coordinates: [2]float64{originLon + xy[0]*scale, originLat + xy[1]*scale},
		})
		if isDepot[id] {
			continue
		}
		svc := model.Service{
			ID:         fmt.Sprintf("node-%d", id),
			LocationID: id - 1,
		}
		if d := demands[id]; d > 0 {
			svc.Demand = []float64{d}
			totalDemand += d
		}
		problem.Services = append(problem.Services, svc)
	}

	if vehicles == 0 {
		vehicles = 1
		if capacity > 0 && totalDemand > 0 {
			vehicles = int((totalDemand + capacity - 1) / capacity)
			if vehicles < 1 {
				vehicles = 1
			}
		}
	}
	depotIdx := depots[0] - 1
	for i := 0; i < vehicles; i++ {
		v := model.Vehicle{
			ID:                  fmt.Sprintf("vehicle-%d", i+1),
			DepotLocationID:     &depotIdx,
			ShouldReturnToDepot: true,
		}
		if capacity > 0 {
			v.Capacity = []float64{capacity}
		}
		problem.Vehicles = append(problem.Vehicles, v)
	}
	return problem, nil
}

func parseHeaderFloat(line string) float64 {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return 0
	}
	v, _ := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	return v
}
