package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservations"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Reservation submissions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	paymentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_total",
			Help:      "Ledger events by tag and outcome.",
		},
		[]string{"tag", "outcome"},
	)

	webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Provider webhook deliveries by callback status.",
		},
		[]string{"status"},
	)
)

// Register registers the collectors with the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservations, paymentEvents, webhooks)
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncSubmission(kind, outcome string) {
	reservations.WithLabelValues(kind, outcome).Inc()
}

func IncPaymentEvent(tag, outcome string) {
	paymentEvents.WithLabelValues(tag, outcome).Inc()
}

func IncWebhook(status string) {
	webhooks.WithLabelValues(status).Inc()
}
