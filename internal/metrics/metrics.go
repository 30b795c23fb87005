package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tracelens/trace-diag/internal/models"
)

const (
	// OutcomeSuccess labels completed analyses.
	OutcomeSuccess = "success"
	// OutcomeError labels failed analyses (unusable traces or pipeline issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trace_diag",
			Name:      "analyses_total",
			Help:      "Total number of trace analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trace_diag",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trace_diag",
			Name:      "findings_total",
			Help:      "Findings emitted across analyses, partitioned by severity.",
		},
		[]string{"severity"},
	)
)

// Register attaches trace-diag collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		findingsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// CountFindings bumps the per-severity finding counters for one report.
func CountFindings(findings []models.Finding) {
	for _, f := range findings {
		findingsTotal.WithLabelValues(string(f.Severity)).Inc()
	}
}
