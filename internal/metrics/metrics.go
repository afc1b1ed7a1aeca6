package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// JobsSubmitted counts submitted optimization jobs
	JobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vrp_jobs_submitted_total", Help: "Optimization jobs submitted."},
	)
	// JobsRunning tracks solvers currently searching
	JobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "vrp_jobs_running", Help: "Solvers currently running."},
	)
	// JobsCompleted counts finished jobs
	JobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vrp_jobs_completed_total", Help: "Optimization jobs completed."},
	)

	// RouteRequests counts point-to-point routing requests by algorithm
	RouteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_requests_total", Help: "Point-to-point route requests by algorithm."},
		[]string{"algorithm"},
	)

	// CallbackDeliveries counts completion-callback outcomes
	CallbackDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "callback_deliveries_total", Help: "Job callback deliveries by status."},
		[]string{"status"},
	)
	// CallbackLatency tracks callback delivery latencies in milliseconds
	CallbackLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "callback_delivery_latency_ms", Help: "Callback delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"status"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(JobsSubmitted)
		Registry.MustRegister(JobsRunning)
		Registry.MustRegister(JobsCompleted)
		Registry.MustRegister(RouteRequests)
		Registry.MustRegister(CallbackDeliveries)
		Registry.MustRegister(CallbackLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
