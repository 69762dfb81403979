package metrics

import "github.com/prometheus/client_golang/prometheus"

// RetryMetrics counts replays of units of work after a write conflict.
type RetryMetrics struct {
	retries *prometheus.CounterVec
}

func NewRetryMetrics(reg prometheus.Registerer) *RetryMetrics {
	if reg == nil {
		return &RetryMetrics{}
	}
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Retried units of work by operation.",
	}, []string{"operation"})
	reg.MustRegister(retries)
	return &RetryMetrics{retries: retries}
}

// Hook returns a callback suitable for retry.Policy.OnRetry.
func (r *RetryMetrics) Hook(operation string) func(attempt int, err error) {
	label := normalizeLabel(operation)
	return func(int, error) {
		if r == nil || r.retries == nil {
			return
		}
		r.retries.WithLabelValues(label).Inc()
	}
}
