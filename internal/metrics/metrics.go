// Package metrics holds the prometheus instrumentation for the harvest
// engine. Collectors register on the default registry; harvestd mounts
// Handler at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage labels for the postings counter.
const (
	StageFound     = "found"
	StageRelevant  = "relevant"
	StageProcessed = "processed"
	StageErrored   = "errored"
)

var harvest = struct {
	sourceRuns  *prometheus.CounterVec
	postings    *prometheus.CounterVec
	deactivated *prometheus.CounterVec
	runDuration prometheus.Histogram
	activeJobs  prometheus.Gauge
	lastRunUnix prometheus.Gauge
}{
	sourceRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_source_runs_total",
		Help: "Per-source harvest outcomes by fetcher kind and run status.",
	}, []string{"fetcher", "status"}),
	postings: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_postings_total",
		Help: "Postings moved through the pipeline, by fetcher kind and stage.",
	}, []string{"fetcher", "stage"}),
	deactivated: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_postings_deactivated_total",
		Help: "Active postings closed because their provider no longer lists them.",
	}, []string{"fetcher"}),
	runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "harvest_run_duration_seconds",
		Help:    "Wall time of a whole harvest run.",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
	}),
	activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harvest_active_postings",
		Help: "Postings currently ACTIVE in storage.",
	}),
	lastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harvest_last_run_completed_timestamp_seconds",
		Help: "Unix time the last harvest run finished.",
	}),
}

func init() {
	prometheus.MustRegister(
		harvest.sourceRuns,
		harvest.postings,
		harvest.deactivated,
		harvest.runDuration,
		harvest.activeJobs,
		harvest.lastRunUnix,
	)
}

// RecordSourceRun counts one per-source outcome.
func RecordSourceRun(fetcher, status string) {
	harvest.sourceRuns.WithLabelValues(fetcher, status).Inc()
}

// RecordPostings moves the per-stage posting counters for one source run.
func RecordPostings(fetcher string, found, relevant, processed, errored int) {
	harvest.postings.WithLabelValues(fetcher, StageFound).Add(float64(found))
	harvest.postings.WithLabelValues(fetcher, StageRelevant).Add(float64(relevant))
	harvest.postings.WithLabelValues(fetcher, StageProcessed).Add(float64(processed))
	harvest.postings.WithLabelValues(fetcher, StageErrored).Add(float64(errored))
}

// RecordDeactivated counts postings closed by reconciliation.
func RecordDeactivated(fetcher string, n int64) {
	harvest.deactivated.WithLabelValues(fetcher).Add(float64(n))
}

// ObserveRunDuration records the wall time of one whole run and stamps
// the completion gauge.
func ObserveRunDuration(d time.Duration) {
	harvest.runDuration.Observe(d.Seconds())
	harvest.lastRunUnix.SetToCurrentTime()
}

// SetActivePostings publishes the current ACTIVE posting count.
func SetActivePostings(n int64) {
	harvest.activeJobs.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
