// Command routelab bundles data-prep and solver tooling for the routing
// service: fixture conversion, GeoJSON export, local optimization runs and
// remote job submission.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"routelab/internal/client"
	"routelab/internal/geo"
	"routelab/internal/model"
	"routelab/internal/solver"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "geojson":
		err = runGeoJSON(os.Args[2:])
	case "optimize":
		err = runOptimize(os.Args[2:])
	case "submit":
		err = runSubmit(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: routelab <command> [flags]

commands:
  convert   convert a CVRPLIB fixture to a problem JSON file
  geojson   render a problem (and optional solution) as GeoJSON
  optimize  solve a problem file locally and print a summary
  submit    submit a problem to a running server and poll to completion`)
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "", "CVRPLIB fixture file")
	out := fs.String("out", "", "output problem JSON (default stdout)")
	originLon := fs.Float64("origin-lon", 13.40, "longitude mapped to x=0")
	originLat := fs.Float64("origin-lat", 52.50, "latitude mapped to y=0")
	scale := fs.Float64("scale", 0.001, "degrees per fixture coordinate unit")
	_ = fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	problem, err := ConvertCVRPLIB(data, *originLon, *originLat, *scale)
	if err != nil {
		return err
	}
	return writeJSONFile(*out, problem)
}

func runGeoJSON(args []string) error {
	fs := flag.NewFlagSet("geojson", flag.ExitOnError)
	problemPath := fs.String("problem", "", "problem JSON file")
	solutionPath := fs.String("solution", "", "solution JSON file (optional)")
	out := fs.String("out", "", "output GeoJSON (default stdout)")
	_ = fs.Parse(args)
	if *problemPath == "" {
		return fmt.Errorf("-problem is required")
	}
	var problem model.VehicleRoutingProblem
	if err := readJSONFile(*problemPath, &problem); err != nil {
		return err
	}
	var fc geo.FeatureCollection
	if *solutionPath != "" {
		var sol model.Solution
		if err := readJSONFile(*solutionPath, &sol); err != nil {
			return err
		}
		fc = geo.SolutionPoints(&problem, &sol)
	} else {
		fc = geo.ProblemPoints(&problem)
	}
	return writeJSONFile(*out, fc)
}

func runOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	problemPath := fs.String("problem", "", "problem JSON file")
	out := fs.String("out", "", "write the solution JSON here (optional)")
	budget := fs.Duration("budget", 10*time.Second, "solve time budget")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based)")
	_ = fs.Parse(args)
	if *problemPath == "" {
		return fmt.Errorf("-problem is required")
	}
	var in model.VehicleRoutingProblem
	if err := readJSONFile(*problemPath, &in); err != nil {
		return err
	}
	p, err := solver.Compile(&in)
	if err != nil {
		return err
	}
	s := solver.NewSolver(p, solver.EngineOptions{Seed: *seed}, *budget)
	s.Start()
	<-s.Done()
	snap := s.Poll()
	if snap.Solution == nil {
		return fmt.Errorf("solver produced no solution")
	}
	printSummary(snap)
	if *out != "" {
		return writeJSONFile(*out, snap.Solution)
	}
	return nil
}

func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	problemPath := fs.String("problem", "", "problem JSON file")
	server := fs.String("server", "http://localhost:8080", "server base URL")
	out := fs.String("out", "", "write the solution JSON here (optional)")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall timeout")
	_ = fs.Parse(args)
	if *problemPath == "" {
		return fmt.Errorf("-problem is required")
	}
	var req model.SubmitRequest
	if err := readJSONFile(*problemPath, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api := client.New(*server)
	jobID, err := api.SubmitJob(ctx, &req)
	if err != nil {
		return err
	}
	log.Printf("submitted job %s", jobID)
	sol, err := client.NewPoller(api).WaitForSolution(ctx, jobID)
	if err != nil {
		return err
	}
	snap, err := api.PollJob(ctx, jobID)
	if err != nil {
		return err
	}
	printSummary(snap)
	if *out != "" {
		return writeJSONFile(*out, sol)
	}
	return nil
}

func printSummary(snap model.PollResponse) {
	sol := snap.Solution
	log.Printf("status=%s routes=%d unassigned=%d duration=%s distance=%.0fm score=%.0f/%.1f",
		snap.Status, len(sol.Routes), len(sol.UnassignedJobs),
		geo.FormatDuration(sol.DurationSec), sol.DistanceM,
		sol.Score.HardScore, sol.Score.SoftScore)
	for i, r := range sol.Routes {
		log.Printf("  route %d vehicle=%s stops=%d drive=%s wait=%s",
			i, r.VehicleID, len(r.Activities),
			geo.FormatDuration(r.TransportDurationSec), geo.FormatDuration(r.WaitingDurationSec))
	}
	if snap.Statistics != nil {
		names := make([]string, 0, len(snap.Statistics.Ruin))
		for name := range snap.Statistics.Ruin {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			st := snap.Statistics.Ruin[name]
			log.Printf("  ruin %-8s invocations=%d improvements=%d best=%d",
				name, st.TotalInvocations, st.TotalImprovements, st.TotalBest)
		}
	}
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
