// pkg/ingest/metrics.go
package ingest

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SheetMetrics tracks progress through one sheet of a batch
type SheetMetrics struct {
	SheetName string
	StartTime time.Time
	EndTime   time.Time
	RowsSeen  int
	Accepted  int
	Skipped   int
	Failed    int
}

// Duration returns the time spent processing the sheet
func (sm *SheetMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// ImportMetrics tracks counters and phase timings for one import batch
type ImportMetrics struct {
	mu     sync.Mutex
	logger *zap.Logger

	StartTime time.Time
	EndTime   time.Time

	SheetMetrics map[string]*SheetMetrics

	RowsSeen      int
	RowsAccepted  int
	RowsSkipped   int
	RowsFailed    int
	EventsEmitted int

	DecodeDuration    time.Duration
	ReconcileDuration time.Duration
	AggregateDuration time.Duration
}

// NewImportMetrics creates a metrics collector for one batch
func NewImportMetrics(logger *zap.Logger) *ImportMetrics {
	return &ImportMetrics{
		logger:       logger,
		StartTime:    time.Now(),
		SheetMetrics: make(map[string]*SheetMetrics),
	}
}

// StartSheet begins tracking one sheet
func (m *ImportMetrics) StartSheet(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SheetMetrics[name] = &SheetMetrics{SheetName: name, StartTime: time.Now()}
}

// EndSheet completes tracking for one sheet
func (m *ImportMetrics) EndSheet(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sm, ok := m.SheetMetrics[name]; ok {
		sm.EndTime = time.Now()
	}
}

// RecordOutcome folds one row outcome into the batch and sheet counters
func (m *ImportMetrics) RecordOutcome(o RowOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RowsSeen++
	sm := m.SheetMetrics[o.Sheet]
	if sm != nil {
		sm.RowsSeen++
	}

	switch o.Kind {
	case OutcomeAccepted:
		m.RowsAccepted++
		m.EventsEmitted += len(o.Events)
		if sm != nil {
			sm.Accepted++
		}
	case OutcomeSkipped:
		m.RowsSkipped++
		if sm != nil {
			sm.Skipped++
		}
	case OutcomeFailed:
		m.RowsFailed++
		if sm != nil {
			sm.Failed++
		}
	}
}

// AddPhase records time spent in a named pipeline phase
func (m *ImportMetrics) AddPhase(phase string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch phase {
	case "decode":
		m.DecodeDuration += d
	case "reconcile":
		m.ReconcileDuration += d
	case "aggregate":
		m.AggregateDuration += d
	}
}

// LogSummary emits the batch totals at completion
func (m *ImportMetrics) LogSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	if m.logger == nil {
		return
	}

	m.logger.Info("Import batch complete",
		zap.Duration("duration", m.EndTime.Sub(m.StartTime)),
		zap.Int("sheets", len(m.SheetMetrics)),
		zap.Int("rows_seen", m.RowsSeen),
		zap.Int("rows_accepted", m.RowsAccepted),
		zap.Int("rows_skipped", m.RowsSkipped),
		zap.Int("rows_failed", m.RowsFailed),
		zap.Int("events_emitted", m.EventsEmitted),
		zap.Duration("decode", m.DecodeDuration),
		zap.Duration("reconcile", m.ReconcileDuration),
		zap.Duration("aggregate", m.AggregateDuration))
}
