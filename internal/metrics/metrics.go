// Package metrics exports retry execution counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/core/retry"
)

const namespace = "resilience"

// RetryMetrics is a retry.Observer that counts execution events.
type RetryMetrics struct {
	RetriesTotal        *prometheus.CounterVec
	ExhaustedTotal      *prometheus.CounterVec
	RejectedTotal       *prometheus.CounterVec
	CanceledTotal       *prometheus.CounterVec
	CallbackErrorsTotal *prometheus.CounterVec
	BackoffSeconds      *prometheus.HistogramVec
}

// NewRetryMetrics creates the collectors and registers them with reg. A nil reg leaves them
// unregistered.
func NewRetryMetrics(reg prometheus.Registerer) *RetryMetrics {
	m := &RetryMetrics{
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retried attempts",
			},
			[]string{"operation", "kind"},
		),
		ExhaustedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exhausted_total",
				Help:      "Total number of executions that used every retry and failed",
			},
			[]string{"operation", "kind"},
		),
		RejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_total",
				Help:      "Total number of failures outside the retryable set",
			},
			[]string{"operation", "kind"},
		),
		CanceledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "canceled_total",
				Help:      "Total number of executions stopped by their context",
			},
			[]string{"operation"},
		),
		CallbackErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callback_errors_total",
				Help:      "Total number of retry callbacks that failed",
			},
			[]string{"operation"},
		),
		BackoffSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backoff_seconds",
				Help:      "Scheduled wait before a retry in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.RetriesTotal,
			m.ExhaustedTotal,
			m.RejectedTotal,
			m.CanceledTotal,
			m.CallbackErrorsTotal,
			m.BackoffSeconds,
		)
	}
	return m
}

func (m *RetryMetrics) Retrying(e retry.Event) {
	m.RetriesTotal.WithLabelValues(e.Operation, failure.Label(e.Err)).Inc()
	m.BackoffSeconds.WithLabelValues(e.Operation).Observe(e.Delay.Seconds())
}

func (m *RetryMetrics) CallbackFailed(e retry.Event) {
	m.CallbackErrorsTotal.WithLabelValues(e.Operation).Inc()
}

func (m *RetryMetrics) Exhausted(e retry.Event) {
	m.ExhaustedTotal.WithLabelValues(e.Operation, failure.Label(e.Err)).Inc()
}

func (m *RetryMetrics) Rejected(e retry.Event) {
	m.RejectedTotal.WithLabelValues(e.Operation, failure.Label(e.Err)).Inc()
}

func (m *RetryMetrics) Canceled(e retry.Event) {
	m.CanceledTotal.WithLabelValues(e.Operation).Inc()
}
