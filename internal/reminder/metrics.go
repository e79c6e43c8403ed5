package reminder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reminder engine. A nil
// *Metrics disables instrumentation.
type Metrics struct {
	// RemindersFiredTotal counts fired reminder stages by kind and stage.
	RemindersFiredTotal *prometheus.CounterVec

	// ActivityNotificationsTotal counts immediate activity broadcasts.
	ActivityNotificationsTotal prometheus.Counter

	// LiveReminders is the current number of tracked reminders.
	LiveReminders prometheus.Gauge

	// TickDuration is the time a scheduler tick takes.
	TickDuration prometheus.Histogram
}

// NewMetrics creates and registers Prometheus metrics for the engine.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RemindersFiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_fired_total",
				Help:      "Total number of reminder stages fired",
			},
			[]string{"kind", "stage"},
		),

		ActivityNotificationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activity_notifications_total",
				Help:      "Total number of immediate activity notifications",
			},
		),

		LiveReminders: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_reminders",
				Help:      "Current number of tracked reminders",
			},
		),

		TickDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Time one scheduler tick takes",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
		),
	}
}

func (m *Metrics) incFired(kind Kind, stage time.Duration) {
	if m == nil {
		return
	}
	m.RemindersFiredTotal.WithLabelValues(string(kind), stage.String()).Inc()
}

func (m *Metrics) incActivity() {
	if m == nil {
		return
	}
	m.ActivityNotificationsTotal.Inc()
}

func (m *Metrics) setLive(n int) {
	if m == nil {
		return
	}
	m.LiveReminders.Set(float64(n))
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
}
