package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
    // Labelled by gateway so one query can compare channels.
    PaymentRequestsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "payment",
            Name:      "requests_total",
            Help:      "Payment operations by gateway, stage and result",
        },
        []string{"gateway", "stage", "status"},
    )

    PaymentCallbackDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "payment",
            Name:      "callback_duration_seconds",
            Help:      "Time spent resolving a gateway callback",
            // token-lookup verification includes a remote call, so the
            // buckets reach into seconds
            Buckets: []float64{
                0.01, 0.02, 0.05, 0.1, 0.2, 0.3,
                0.5, 0.8, 1.2, 2, 3, 5, 8,
            },
        },
        []string{"gateway", "status"},
    )
)

func init() {
    prometheus.MustRegister(PaymentRequestsTotal, PaymentCallbackDuration)
}

// Helpers keep the handler call sites short.
func IncRequest(gateway, stage, status string) {
    PaymentRequestsTotal.WithLabelValues(gateway, stage, status).Inc()
}

func ObserveCallback(gateway, status string, seconds float64) {
    PaymentCallbackDuration.WithLabelValues(gateway, status).Observe(seconds)
}
