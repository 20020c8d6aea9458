package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "welcomepdf"

// Pipeline collects counters for document generation.
type Pipeline struct {
	Generated prometheus.Counter
	WithPhoto prometheus.Counter
	Rejected  prometheus.Counter
	Failures  *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// NewPipeline creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_generated_total",
			Help:      "Documents successfully generated.",
		}),
		WithPhoto: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_attached_total",
			Help:      "Generated documents that embed a submitted photo.",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Submissions rejected for missing required fields.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Pipeline failures by stage.",
		}, []string{"stage"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent producing a document.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Generated, m.WithPhoto, m.Rejected, m.Failures, m.Duration)
	}
	return m
}

// ObserveSuccess records a generated document.
func (m *Pipeline) ObserveSuccess(elapsed time.Duration, photo bool) {
	if m == nil {
		return
	}
	m.Generated.Inc()
	if photo {
		m.WithPhoto.Inc()
	}
	m.Duration.Observe(elapsed.Seconds())
}

// ObserveFailure records a failure in the named stage.
func (m *Pipeline) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(stage).Inc()
}

// ObserveRejection records a submission refused before the pipeline ran.
func (m *Pipeline) ObserveRejection() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}
