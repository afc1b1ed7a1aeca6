package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"routelab/internal/api"
	"routelab/internal/buildinfo"
	"routelab/internal/config"
	"routelab/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Optimization jobs
	mux.HandleFunc("/vrp/jobs", srvDeps.VRPJobsHandler)
	mux.HandleFunc("/vrp/jobs/", srvDeps.VRPJobByIDHandler) // includes /poll, /start, /stop, /ws

	// Point-to-point routing
	mux.HandleFunc("/route", srvDeps.RouteHandler)
	mux.HandleFunc("/landmarks", srvDeps.LandmarksHandler)
	mux.HandleFunc("/debug/closest", srvDeps.ClosestEdgeHandler)

	// Health
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

	// Docs and metrics
	mux.HandleFunc("/openapi.yaml", srvDeps.OpenAPIHandler)
	mux.HandleFunc("/docs", srvDeps.DocsHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buildinfo.JSON())
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           logMiddleware(api.CORSMiddleware(api.MetricsMiddleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", cfg.Addr())
	srvDeps.Notify.Start()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
