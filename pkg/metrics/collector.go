// Package metrics exposes Prometheus counters for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/cashflow-bot/internal/state"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of bot updates labeled by action and status",
		},
		[]string{"action", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	invoicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_recorded_total",
			Help: "Total number of stored ledger entries by kind",
		},
		[]string{"kind"},
	)
	reportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of reports shown by kind",
		},
		[]string{"kind"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of users in a conversation",
		},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of sessions per conversation state",
		},
		[]string{"state"},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(action, status string, duration time.Duration) {
	botUpdatesTotal.WithLabelValues(orUnknown(action), orUnknown(status)).Inc()
	updateDurationSeconds.WithLabelValues(orUnknown(action)).Observe(duration.Seconds())
}

// RecordStateTransition tracks conversation transitions.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	errorsTotal.WithLabelValues(orUnknown(code), orUnknown(severity)).Inc()
}

// Recorder counts finished dialogues. The zero value is ready to use.
type Recorder struct{}

// InvoiceRecorded counts a stored entry.
func (Recorder) InvoiceRecorded(kind string) {
	invoicesTotal.WithLabelValues(orUnknown(kind)).Inc()
}

// ReportGenerated counts a shown report.
func (Recorder) ReportGenerated(kind string) {
	reportsTotal.WithLabelValues(orUnknown(kind)).Inc()
}

// SessionCollector periodically counts stored sessions per state.
type SessionCollector struct {
	storage  state.Storage
	interval time.Duration
}

// NewSessionCollector builds a collector over the session storage.
func NewSessionCollector(storage state.Storage, interval time.Duration) *SessionCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &SessionCollector{storage: storage, interval: interval}
}

// Run polls the storage until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		_ = c.Collect(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Collect refreshes the session gauges once.
func (c *SessionCollector) Collect(ctx context.Context) error {
	sessions, err := c.storage.ListSessions(ctx)
	if err != nil {
		return err
	}

	activeSessions.Set(float64(len(sessions)))

	counts := make(map[state.State]int, len(sessions))
	for _, s := range sessions {
		counts[s.State]++
	}

	sessionsByState.Reset()
	for st, n := range counts {
		sessionsByState.WithLabelValues(orUnknown(string(st))).Set(float64(n))
	}
	return nil
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
