package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xaenox/mailtime/internal/models"
)

// Error kinds used as the "kind" label of extract failures.
const (
	KindInvalidMessage = "invalid_message"
	KindUnavailable    = "unavailable"
	KindCanceled       = "canceled"
	KindOther          = "other"
)

// Recorder collects extraction metrics. A nil *Recorder records nothing.
type Recorder struct {
	findings *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder registers the extraction collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		findings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtime_findings_total",
				Help: "Findings produced, by classifier, classification and priority",
			},
			[]string{"classifier", "classification", "priority"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailtime_extract_errors_total",
				Help: "Failed extractions, by classifier and error kind",
			},
			[]string{"classifier", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailtime_extract_duration_seconds",
				Help:    "Time spent extracting a single message",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
			[]string{"classifier"},
		),
	}
}

// ObserveFinding records a successful extraction.
func (r *Recorder) ObserveFinding(classifier string, f models.Finding, d time.Duration) {
	if r == nil {
		return
	}
	r.findings.WithLabelValues(classifier, string(f.Classification), f.Priority.String()).Inc()
	r.duration.WithLabelValues(classifier).Observe(d.Seconds())
}

// ObserveFailure records a failed extraction.
func (r *Recorder) ObserveFailure(classifier, kind string, d time.Duration) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(classifier, kind).Inc()
	r.duration.WithLabelValues(classifier).Observe(d.Seconds())
}
