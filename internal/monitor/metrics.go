package monitor

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "museum_events"

// Metrics holds the Prometheus collectors for one process. They live in a
// private registry and are exported with WriteTextfile for the node_exporter
// textfile collector.
type Metrics struct {
	registry     *prometheus.Registry
	attempts     *prometheus.CounterVec
	sourceEvents *prometheus.GaugeVec
	feedEvents   prometheus.Gauge
	lastRunTS    prometheus.Gauge
	runDuration  prometheus.Gauge
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_attempts_total",
		Help:      "Source strategy attempts by venue and outcome",
	}, []string{"venue", "status"})
	m.sourceEvents = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_events",
		Help:      "Events built from a venue in the last run",
	}, []string{"venue"})
	m.feedEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_events",
		Help:      "Events in the last written feed",
	})
	m.lastRunTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})
	m.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})

	m.registry.MustRegister(m.attempts, m.sourceEvents, m.feedEvents, m.lastRunTS, m.runDuration)
	return m
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAttempt counts one strategy attempt
func (m *Metrics) ObserveAttempt(venue, status string) {
	m.attempts.WithLabelValues(venue, status).Inc()
}

// SetSourceEvents records how many events a venue contributed
func (m *Metrics) SetSourceEvents(venue string, events int) {
	m.sourceEvents.WithLabelValues(venue).Set(float64(events))
}

// SetFeed records the feed size and completion time
func (m *Metrics) SetFeed(events int, at time.Time) {
	m.feedEvents.Set(float64(events))
	m.lastRunTS.Set(float64(at.Unix()))
}

// SetRunDuration records how long the run took
func (m *Metrics) SetRunDuration(d time.Duration) {
	m.runDuration.Set(d.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
