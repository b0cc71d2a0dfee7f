package history

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

type submissionMetrics struct {
	outcomes *prometheus.CounterVec
}

// newSubmissionMetrics registers form_submissions_total on reg, reusing an existing
// collector when one is already registered. A nil reg disables the metric.
func newSubmissionMetrics(reg prometheus.Registerer) *submissionMetrics {
	if reg == nil {
		return &submissionMetrics{}
	}

	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Form submissions by outcome.",
		},
		[]string{"outcome"},
	)

	if err := reg.Register(outcomes); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return &submissionMetrics{outcomes: existing}
			}
		}
		return &submissionMetrics{}
	}

	return &submissionMetrics{outcomes: outcomes}
}

func (m *submissionMetrics) observe(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
