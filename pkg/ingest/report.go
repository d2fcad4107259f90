// pkg/ingest/report.go
package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Report is the per-import summary handed back to the caller: creation and
// update tallies, skipped-row counts and the per-row error strings collected
// under partial-success semantics.
type Report struct {
	BatchID   string
	StartTime time.Time
	EndTime   time.Time

	Created int
	Updated int
	Skipped int
	Errors  []string

	SheetsProcessed int
	SheetsSkipped   int
	EventsEmitted   int

	RegionsRecomputed []string
}

// NewReport initializes a report for one import batch
func NewReport() *Report {
	return &Report{
		BatchID:   uuid.New().String(),
		StartTime: time.Now(),
		Errors:    make([]string, 0),
	}
}

// Record folds one row outcome into the report's tallies.
func (r *Report) Record(o RowOutcome) {
	switch o.Kind {
	case OutcomeAccepted:
		if o.Created {
			r.Created++
		} else {
			r.Updated++
		}
		r.EventsEmitted += len(o.Events)
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Errors = append(r.Errors, o.ErrorString())
	}
}

// Finish stamps the report's end time.
func (r *Report) Finish() {
	r.EndTime = time.Now()
}

// Duration returns how long the batch took.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
