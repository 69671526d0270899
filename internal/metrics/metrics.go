package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Provider metrics
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	throttlePauses *prometheus.CounterVec

	// Sink metrics
	recordsWritten *prometheus.CounterVec

	// Run metrics
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_fetch_total",
				Help: "Total number of provider calls",
			},
			[]string{"provider", "outcome"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_fetch_duration_seconds",
				Help:    "Provider call duration in seconds, excluding throttle pauses",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		throttlePauses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_throttle_pauses_total",
				Help: "Total number of fixed rate-limit pauses",
			},
			[]string{"provider"},
		),

		recordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_records_written_total",
				Help: "Total number of record writes to the sink",
			},
			[]string{"outcome"},
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_runs_total",
				Help: "Total number of harvester runs",
			},
			[]string{"harvester", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_run_duration_seconds",
				Help:    "Harvester run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"harvester"},
		),
	}

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.throttlePauses)
	reg.MustRegister(r.recordsWritten)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)

	return r
}

// RecordFetch records one provider call.
func (r *Registry) RecordFetch(provider string, status int, err error, duration float64) {
	if r == nil {
		return
	}
	r.fetchesTotal.WithLabelValues(provider, outcome(status, err)).Inc()
	r.fetchDuration.WithLabelValues(provider).Observe(duration)
}

// RecordThrottlePause records a rate-limit pause.
func (r *Registry) RecordThrottlePause(provider string) {
	if r == nil {
		return
	}
	r.throttlePauses.WithLabelValues(provider).Inc()
}

// RecordWrite records a sink write.
func (r *Registry) RecordWrite(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.recordsWritten.WithLabelValues("error").Inc()
		return
	}
	r.recordsWritten.WithLabelValues("ok").Inc()
}

// RecordRun records a run completion with its HTTP-style status code.
func (r *Registry) RecordRun(harvester string, status int, duration float64) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(harvester, statusToString(status)).Inc()
	r.runDuration.WithLabelValues(harvester).Observe(duration)
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}

func outcome(status int, err error) string {
	if status > 0 {
		return statusToString(status)
	}
	if err != nil {
		return "error"
	}
	return "2xx"
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
