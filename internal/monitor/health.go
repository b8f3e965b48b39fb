// Package monitor tracks per-venue source health across runs and raises
// alerts when a venue keeps failing or a feed comes out too small.
package monitor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultFailureThreshold   = 3
	DefaultMinEventsThreshold = 10
)

// VenueHealth is the attempt history of one venue
type VenueHealth struct {
	LastSuccess         *time.Time `json:"last_success"`
	LastFailure         *time.Time `json:"last_failure"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	TotalAttempts       int        `json:"total_attempts"`
	TotalSuccesses      int        `json:"total_successes"`
	SuccessRate         float64    `json:"success_rate"`
	LastEventsCount     int        `json:"last_events_count"`
	LastStrategy        string     `json:"last_strategy,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
}

// HealthLog is the persisted monitor state
type HealthLog struct {
	Venues             map[string]*VenueHealth `json:"museums"`
	LastSuccessfulRun  *time.Time              `json:"last_successful_run"`
	TotalEventsScraped int                     `json:"total_events_scraped"`
	LastRunID          string                  `json:"last_run_id,omitempty"`
	LastFeedEvents     int                     `json:"last_feed_events"`
}

// NewHealthLog creates an empty log
func NewHealthLog() *HealthLog {
	return &HealthLog{Venues: make(map[string]*VenueHealth)}
}

// Thresholds controls alerting
type Thresholds struct {
	FailureThreshold   int
	MinEventsThreshold int
}

// Health buckets venues by consecutive failures
type Health struct {
	Healthy  []string `json:"healthy"`
	Warning  []string `json:"warning"`
	Critical []string `json:"critical"`
}

// Alert is a condition worth a human's attention
type Alert struct {
	Subject string
	Body    string
}

// Monitor records source outcomes into a HealthLog.
// All methods are safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	log        *HealthLog
	thresholds Thresholds
	metrics    *Metrics
	now        func() time.Time
}

// New creates a Monitor over log. A nil log starts empty; zero thresholds take
// the defaults.
func New(log *HealthLog, t Thresholds, metrics *Metrics) *Monitor {
	if log == nil {
		log = NewHealthLog()
	}
	if log.Venues == nil {
		log.Venues = make(map[string]*VenueHealth)
	}
	if t.FailureThreshold <= 0 {
		t.FailureThreshold = DefaultFailureThreshold
	}
	if t.MinEventsThreshold < 0 {
		t.MinEventsThreshold = 0
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Monitor{log: log, thresholds: t, metrics: metrics, now: time.Now}
}

// Log returns the underlying health log
func (m *Monitor) Log() *HealthLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log
}

// Metrics returns the Prometheus collectors fed by the monitor
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Record logs one venue's outcome for the current run. A venue succeeds
// when it produced at least one event.
func (m *Monitor) Record(venueID string, events int, strategy string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	h, ok := m.log.Venues[venueID]
	if !ok {
		h = &VenueHealth{}
		m.log.Venues[venueID] = h
	}

	h.TotalAttempts++
	if events > 0 {
		h.TotalSuccesses++
		h.LastSuccess = &now
		h.ConsecutiveFailures = 0
		h.LastEventsCount = events
		h.LastStrategy = strategy
		h.LastError = ""
		m.log.LastSuccessfulRun = &now
		m.log.TotalEventsScraped += events
	} else {
		h.LastFailure = &now
		h.ConsecutiveFailures++
		h.LastEventsCount = 0
		h.LastError = "no events"
		if err != nil {
			h.LastError = err.Error()
		}
	}
	h.SuccessRate = float64(h.TotalSuccesses) / float64(h.TotalAttempts) * 100

	m.metrics.SetSourceEvents(venueID, events)
}

// RecordRun stores run-level facts after the feed has been built
func (m *Monitor) RecordRun(runID string, feedEvents int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.LastRunID = runID
	m.log.LastFeedEvents = feedEvents
	m.metrics.SetFeed(feedEvents, m.now())
}

// CheckHealth buckets venues: no failures is healthy, failures below the
// threshold is a warning, at or above it is critical
func (m *Monitor) CheckHealth() Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	health := Health{Healthy: []string{}, Warning: []string{}, Critical: []string{}}
	for _, id := range m.venueIDs() {
		switch f := m.log.Venues[id].ConsecutiveFailures; {
		case f == 0:
			health.Healthy = append(health.Healthy, id)
		case f < m.thresholds.FailureThreshold:
			health.Warning = append(health.Warning, id)
		default:
			health.Critical = append(health.Critical, id)
		}
	}
	return health
}

// Alerts lists the venues failing at or above the threshold, and a small
// feed
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts := make([]Alert, 0)
	for _, id := range m.venueIDs() {
		h := m.log.Venues[id]
		if h.ConsecutiveFailures < m.thresholds.FailureThreshold {
			continue
		}
		alerts = append(alerts, Alert{
			Subject: fmt.Sprintf("Source alert: %s failing", id),
			Body: fmt.Sprintf("The %s source has failed %d times consecutively.\nLast error: %s\nSuccess rate: %.1f%%",
				id, h.ConsecutiveFailures, valueOr(h.LastError, "unknown"), h.SuccessRate),
		})
	}

	if m.log.LastRunID != "" && m.log.LastFeedEvents < m.thresholds.MinEventsThreshold {
		alerts = append(alerts, Alert{
			Subject: "Low event count",
			Body: fmt.Sprintf("The last feed has %d events.\nThis is below the threshold of %d.",
				m.log.LastFeedEvents, m.thresholds.MinEventsThreshold),
		})
	}

	return alerts
}

// OverallSuccessRate is the share of successful attempts across all venues
func (m *Monitor) OverallSuccessRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overallSuccessRate()
}

func (m *Monitor) overallSuccessRate() float64 {
	attempts, successes := 0, 0
	for _, h := range m.log.Venues {
		attempts += h.TotalAttempts
		successes += h.TotalSuccesses
	}
	if attempts == 0 {
		return 0
	}
	return float64(successes) / float64(attempts) * 100
}

// Report renders the health log as markdown
func (m *Monitor) Report() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Museum Source Status Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", m.now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Overall Statistics\n")
	fmt.Fprintf(&b, "- Total Events Scraped: %d\n", m.log.TotalEventsScraped)
	fmt.Fprintf(&b, "- Last Feed Events: %d\n", m.log.LastFeedEvents)
	fmt.Fprintf(&b, "- Last Successful Run: %s\n", formatTime(m.log.LastSuccessfulRun))
	fmt.Fprintf(&b, "- Overall Success Rate: %.1f%%\n", m.overallSuccessRate())
	if m.log.LastRunID != "" {
		fmt.Fprintf(&b, "- Last Run ID: %s\n", m.log.LastRunID)
	}

	b.WriteString("\n## Venue Status\n")
	for _, id := range m.venueIDs() {
		h := m.log.Venues[id]
		status := "OK"
		if h.ConsecutiveFailures > 0 {
			status = "FAILING"
		}
		fmt.Fprintf(&b, "\n### %s (%s)\n", strings.ToUpper(id), status)
		fmt.Fprintf(&b, "- Success Rate: %.1f%%\n", h.SuccessRate)
		fmt.Fprintf(&b, "- Last Success: %s\n", formatTime(h.LastSuccess))
		fmt.Fprintf(&b, "- Last Event Count: %d\n", h.LastEventsCount)
		if h.LastStrategy != "" {
			fmt.Fprintf(&b, "- Last Strategy: %s\n", h.LastStrategy)
		}
		fmt.Fprintf(&b, "- Consecutive Failures: %d\n", h.ConsecutiveFailures)
		if h.ConsecutiveFailures > 0 {
			fmt.Fprintf(&b, "- Last Error: %s\n", valueOr(h.LastError, "unknown"))
		}
	}

	return b.String()
}

// AlertIssue renders alerts as a markdown issue body with front matter, for a
// CI job to open as an issue. Returns "" when there are no alerts.
func (m *Monitor) AlertIssue(alerts []Alert) string {
	if len(alerts) == 0 {
		return ""
	}

	subjects := make([]string, len(alerts))
	for i, a := range alerts {
		subjects[i] = a.Subject
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", strings.Join(subjects, "; "))
	b.WriteString("labels: [\"scraper-issue\", \"automated\"]\n")
	b.WriteString("---\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", a.Subject, a.Body)
	}
	fmt.Fprintf(&b, "Overall success rate: %.1f%%\n", m.OverallSuccessRate())
	return b.String()
}

func (m *Monitor) venueIDs() []string {
	ids := make([]string, 0, len(m.log.Venues))
	for id := range m.log.Venues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.Format(time.RFC3339)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
