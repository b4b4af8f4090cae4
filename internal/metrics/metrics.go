package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PaymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vietcart",
			Subsystem: "payment",
			Name:      "requests_total",
			Help:      "Payment endpoint hits by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	CallbackVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vietcart",
			Subsystem: "payment",
			Name:      "callback_verifications_total",
			Help:      "Gateway callback signature checks by result",
		},
		[]string{"result"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vietcart",
			Subsystem: "payment",
			Name:      "request_duration_seconds",
			Help:      "Payment endpoint latency",
			Buckets: []float64{
				0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5,
			},
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(PaymentRequestsTotal, CallbackVerificationsTotal, RequestDuration)
}

func IncRequest(endpoint, status string) {
	PaymentRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func IncVerification(result string) {
	CallbackVerificationsTotal.WithLabelValues(result).Inc()
}

func ObserveDuration(endpoint string, seconds float64) {
	RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}
