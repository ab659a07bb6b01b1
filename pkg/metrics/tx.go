package metrics

import "github.com/prometheus/client_golang/prometheus"

// TxRetryMetrics records how often transactional closures are retried
// after transient contention, and how often they give up.
type TxRetryMetrics struct {
	retries    *prometheus.CounterVec
	exhausted  *prometheus.CounterVec
	firstTryOK *prometheus.CounterVec
}

// NewTxRetryMetrics registers the transaction retry metrics on the
// provided registerer.
func NewTxRetryMetrics(reg prometheus.Registerer) *TxRetryMetrics {
	if reg == nil {
		return &TxRetryMetrics{}
	}
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocerly",
		Subsystem: "db",
		Name:      "tx_retry_total",
		Help:      "Transactions retried after transient contention.",
	}, []string{"op"})
	exhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocerly",
		Subsystem: "db",
		Name:      "tx_retry_exhausted_total",
		Help:      "Transactions that failed after exhausting all retry attempts.",
	}, []string{"op"})
	firstTryOK := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocerly",
		Subsystem: "db",
		Name:      "tx_first_attempt_success_total",
		Help:      "Transactions that committed on the first attempt.",
	}, []string{"op"})
	reg.MustRegister(retries, exhausted, firstTryOK)
	return &TxRetryMetrics{
		retries:    retries,
		exhausted:  exhausted,
		firstTryOK: firstTryOK,
	}
}

// IncRetry increments the retry counter for the named operation.
func (m *TxRetryMetrics) IncRetry(op string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncExhausted increments the exhausted counter for the named operation.
func (m *TxRetryMetrics) IncExhausted(op string) {
	if m == nil || m.exhausted == nil {
		return
	}
	m.exhausted.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFirstAttemptSuccess increments the first-attempt success counter.
func (m *TxRetryMetrics) IncFirstAttemptSuccess(op string) {
	if m == nil || m.firstTryOK == nil {
		return
	}
	m.firstTryOK.WithLabelValues(normalizeLabel(op)).Inc()
}
