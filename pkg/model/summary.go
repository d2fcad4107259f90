// pkg/model/summary.go
package model

import "time"

// RegionSummary is the rollup of every canonical record currently tagged with
// one region. It is recomputed wholesale from the store after each batch and
// replaces the previous row atomically; it is never patched incrementally.
type RegionSummary struct {
	Region string `db:"region"`

	TotalSchemes          int `db:"total_schemes"`
	FullyCompletedSchemes int `db:"fully_completed_schemes"`

	TotalVillages          int `db:"total_villages"`
	VillagesIntegrated     int `db:"villages_integrated"`
	FullyCompletedVillages int `db:"fully_completed_villages"`

	TotalESR          int `db:"total_esr"`
	ESRIntegrated     int `db:"esr_integrated"`
	FullyCompletedESR int `db:"fully_completed_esr"`

	FlowMetersConnected           int `db:"flow_meters_connected"`
	PressureTransmittersConnected int `db:"pressure_transmitters_connected"`
	ResidualChlorineConnected     int `db:"residual_chlorine_connected"`

	ComputedAt time.Time `db:"computed_at"`
}

// Add accumulates one record's counters into the summary.
func (s *RegionSummary) Add(r *CanonicalRecord) {
	s.TotalSchemes++
	if r.IsFullyCompleted() {
		s.FullyCompletedSchemes++
	}
	s.TotalVillages += r.TotalVillages
	s.VillagesIntegrated += r.VillagesIntegrated
	s.FullyCompletedVillages += r.FullyCompletedVillages
	s.TotalESR += r.TotalESR
	s.ESRIntegrated += r.ESRIntegrated
	s.FullyCompletedESR += r.FullyCompletedESR
	s.FlowMetersConnected += r.FlowMetersConnected
	s.PressureTransmittersConnected += r.PressureTransmittersConnected
	s.ResidualChlorineConnected += r.ResidualChlorineConnected
}
