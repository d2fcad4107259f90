// pkg/model/record.go
package model

import (
	"strings"
	"time"
)

// Canonical field names. Every header in an uploaded sheet is resolved to one
// of these (or left unmapped) before a row becomes a CanonicalRecord.
const (
	FieldSerialNo    = "sr_no"
	FieldSchemeID    = "scheme_id"
	FieldSchemeName  = "scheme_name"
	FieldRegion      = "region"
	FieldCircle      = "circle"
	FieldDivision    = "division"
	FieldSubDivision = "sub_division"
	FieldBlock       = "block"

	FieldTotalVillages          = "total_villages"
	FieldVillagesIntegrated     = "villages_integrated"
	FieldFunctionalVillages     = "functional_villages"
	FieldPartialVillages        = "partial_villages"
	FieldNonFunctionalVillages  = "non_functional_villages"
	FieldFullyCompletedVillages = "fully_completed_villages"

	FieldTotalESR          = "total_esr"
	FieldESRIntegrated     = "esr_integrated"
	FieldFullyCompletedESR = "fully_completed_esr"
	FieldBalanceESR        = "balance_esr"

	FieldFlowMetersConnected           = "flow_meters_connected"
	FieldPressureTransmittersConnected = "pressure_transmitters_connected"
	FieldResidualChlorineConnected     = "residual_chlorine_connected"

	FieldStatus           = "status"
	FieldFunctionalStatus = "functional_status"
)

// CanonicalRecord is the normalized representation of one scheme after
// mapping and coercion. Exactly one live record exists per Key at any time;
// updates are full replaces, never field-level merges.
type CanonicalRecord struct {
	SchemeID   string `db:"scheme_id"`
	Block      string `db:"block"` // qualifies SchemeID when a scheme spans blocks
	SchemeName string `db:"scheme_name"`

	Region      string `db:"region"`
	Circle      string `db:"circle"`
	Division    string `db:"division"`
	SubDivision string `db:"sub_division"`

	TotalVillages          int `db:"total_villages"`
	VillagesIntegrated     int `db:"villages_integrated"`
	FunctionalVillages     int `db:"functional_villages"`
	PartialVillages        int `db:"partial_villages"`
	NonFunctionalVillages  int `db:"non_functional_villages"`
	FullyCompletedVillages int `db:"fully_completed_villages"`

	TotalESR          int `db:"total_esr"`
	ESRIntegrated     int `db:"esr_integrated"`
	FullyCompletedESR int `db:"fully_completed_esr"`
	BalanceESR        int `db:"balance_esr"`

	FlowMetersConnected           int `db:"flow_meters_connected"`
	PressureTransmittersConnected int `db:"pressure_transmitters_connected"`
	ResidualChlorineConnected     int `db:"residual_chlorine_connected"`

	Status           string `db:"status"`
	FunctionalStatus string `db:"functional_status"`

	UpdatedAt time.Time `db:"updated_at"`
}

// Key returns the stable identifier the store keys records by:
// the scheme id, qualified by block when present.
func (r *CanonicalRecord) Key() string {
	if r.Block == "" {
		return r.SchemeID
	}
	return r.SchemeID + "|" + r.Block
}

// IsFullyCompleted reports whether the record's status counts as a completed
// scheme for aggregation purposes.
func (r *CanonicalRecord) IsFullyCompleted() bool {
	if r.Status == StatusFullyCompleted {
		return true
	}
	return strings.Contains(strings.ToLower(r.Status), "complet")
}

// Canonical status vocabulary produced by the status normalizer.
const (
	StatusFullyCompleted = "Fully Completed"
	StatusInProgress     = "In Progress"
	StatusNotConnected   = "Not-Connected"
	StatusNonFunctional  = "Non Functional"
	StatusFunctional     = "Functional"
)
