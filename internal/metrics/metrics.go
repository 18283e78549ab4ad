// Package metrics holds the domain counters exported next to the HTTP
// metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	LogWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_log_writes_total",
			Help: "Habit log writes by operation and result",
		},
		[]string{"op", "result"},
	)
	ReorderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habit_reorder_partial_failures_total",
			Help: "Reorder requests where at least one position write failed",
		},
	)
	LiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "habit_live_subscriptions",
			Help: "Open live progress feeds",
		},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(LogWrites, ReorderFailures, LiveSubscriptions)
}

// ObserveWrite counts one log write for op.
func ObserveWrite(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	LogWrites.WithLabelValues(op, result).Inc()
}
