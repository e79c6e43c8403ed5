package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	eventsLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "events_logged_total",
			Help:      "Count of events logged by type.",
		},
		[]string{"type"},
	)

	eventsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "events_deleted_total",
			Help:      "Count of events deleted.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "notifications_sent_total",
			Help:      "Count of notifications delivered by gateway.",
		},
		[]string{"gateway"},
	)

	notificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "notifications_failed_total",
			Help:      "Count of notification delivery failures by gateway.",
		},
		[]string{"gateway"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(eventsLogged, eventsDeleted, httpRequests,
			notificationsSent, notificationsFailed)
	})
}

func IncEventLogged(eventType string) {
	eventsLogged.WithLabelValues(eventType).Inc()
}

func IncEventDeleted() {
	eventsDeleted.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncNotificationSent(gateway string) {
	notificationsSent.WithLabelValues(gateway).Inc()
}

func IncNotificationFailed(gateway string) {
	notificationsFailed.WithLabelValues(gateway).Inc()
}
