// pkg/ingest/outcome.go
package ingest

import (
	"fmt"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// OutcomeKind tags the result of processing one data row.
type OutcomeKind int

const (
	// OutcomeAccepted means the row produced a canonical record that was
	// written to the store.
	OutcomeAccepted OutcomeKind = iota
	// OutcomeSkipped means the row was deliberately not processed.
	OutcomeSkipped
	// OutcomeFailed means mapping or coercion raised an error for the row.
	OutcomeFailed
)

// Skip reasons surfaced in logs and the import report.
const (
	ReasonNoIdentifier     = "no identifier"
	ReasonHeaderEcho       = "header label repeated as data"
	ReasonDuplicateInBatch = "duplicate identifier in batch"
	ReasonEmptyRow         = "empty row"
)

// RowOutcome is the tagged per-row result collected into the batch report.
// A single bad row never aborts the batch; it becomes a Skipped or Failed
// outcome and processing continues.
type RowOutcome struct {
	Kind    OutcomeKind
	Sheet   string
	Row     int // zero-based row index in the raw grid
	Reason  string
	Err     error
	Record  *model.CanonicalRecord
	Created bool
	Events  []model.ChangeEvent
}

// Accepted builds an accepted outcome.
func Accepted(sheet string, row int, rec *model.CanonicalRecord, created bool, events []model.ChangeEvent) RowOutcome {
	return RowOutcome{
		Kind:    OutcomeAccepted,
		Sheet:   sheet,
		Row:     row,
		Record:  rec,
		Created: created,
		Events:  events,
	}
}

// Skipped builds a skipped outcome.
func Skipped(sheet string, row int, reason string) RowOutcome {
	return RowOutcome{Kind: OutcomeSkipped, Sheet: sheet, Row: row, Reason: reason}
}

// Failed builds a failed outcome.
func Failed(sheet string, row int, err error) RowOutcome {
	return RowOutcome{Kind: OutcomeFailed, Sheet: sheet, Row: row, Err: err}
}

// ErrorString renders a failed outcome for the report's errors list.
func (o RowOutcome) ErrorString() string {
	return fmt.Sprintf("sheet %q row %d: %v", o.Sheet, o.Row, o.Err)
}
