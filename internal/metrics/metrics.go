// Package metrics exposes run counters for scraping by Prometheus. The
// listener is optional; a periodic cron-style deployment can leave it off.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bidwatcher/internal/listing"
	"bidwatcher/logger"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	runsTotal   prometheus.Counter
	runDuration prometheus.Summary
	rawRows     prometheus.Counter
	rejected    *prometheus.CounterVec
	accepted    prometheus.Gauge
	termsFailed prometheus.Counter
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bidwatcher",
			Name:      "runs_total",
			Help:      "Completed pipeline runs",
		}),
		runDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "bidwatcher",
			Name:      "run_duration_seconds",
			Help:      "Time spent per pipeline run",
		}),
		rawRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bidwatcher",
			Name:      "raw_rows_total",
			Help:      "Raw result rows extracted across all runs",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bidwatcher",
			Name:      "rejected_total",
			Help:      "Rows and records rejected, by reason",
		}, []string{"reason"}),
		accepted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bidwatcher",
			Name:      "accepted_records",
			Help:      "Records accepted in the most recent run",
		}),
		termsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bidwatcher",
			Name:      "terms_failed_total",
			Help:      "Search terms that failed across all runs",
		}),
	}
	reg.MustRegister(m.runsTotal, m.runDuration, m.rawRows, m.rejected, m.accepted, m.termsFailed)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(duration time.Duration, rawRows, acceptedCount, failedTerms int, rejectedCounts map[listing.RejectionReason]int) {
	if m == nil {
		return
	}
	m.runsTotal.Inc()
	m.runDuration.Observe(duration.Seconds())
	m.rawRows.Add(float64(rawRows))
	m.accepted.Set(float64(acceptedCount))
	m.termsFailed.Add(float64(failedTerms))
	for reason, count := range rejectedCounts {
		m.rejected.WithLabelValues(string(reason)).Add(float64(count))
	}
}

// Serve starts the /metrics listener in the background.
func Serve(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener stopped: %v", err)
		}
	}()
}
