// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"errors"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yamabuki"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	operations *prometheus.CounterVec
	undos      prometheus.Counter
	promotions prometheus.Counter
	rejections *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Score operations committed, by kind.",
		}, []string{"kind"}),
		undos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undos_total",
			Help:      "Operations removed by undo.",
		}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_promotions_total",
			Help:      "Waitlisted entries promoted to accepted.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Requests rejected by the engine, by error kind.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.operations, m.undos, m.promotions, m.rejections)
	return m
}

func (m *Metrics) Operation(kind quiz.OperationKind) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Undo() {
	if m == nil {
		return
	}
	m.undos.Inc()
}

func (m *Metrics) Promotions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.promotions.Add(float64(n))
}

// Rejected counts err under its error kind. Infrastructure failures are not counted.
func (m *Metrics) Rejected(err error) {
	if m == nil || err == nil {
		return
	}
	if reason := Reason(err); reason != "" {
		m.rejections.WithLabelValues(reason).Inc()
	}
}

func Reason(err error) string {
	switch {
	case errors.Is(err, quiz.ErrValidation):
		return "validation"
	case errors.Is(err, quiz.ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, quiz.ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, quiz.ErrNotFound):
		return "not_found"
	}
	return ""
}
