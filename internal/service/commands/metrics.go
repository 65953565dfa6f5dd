package commands

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes recorded by Metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeFault   = "fault"
)

// Metrics counts handled commands by operation and outcome.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the command collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calsched",
		Name:      "commands_total",
		Help:      "Total number of handled calendar commands",
	}, []string{"command", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calsched",
		Name:      "command_duration_seconds",
		Help:      "Duration of calendar command handling in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"command"})

	if reg != nil {
		reg.MustRegister(commands, duration)
	}
	return &Metrics{commands: commands, duration: duration}
}

func (m *Metrics) observe(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := metricLabel(operation)
	m.commands.WithLabelValues(label, outcome).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func metricLabel(operation string) string {
	return strings.ReplaceAll(operation, " ", "_")
}
