// pkg/model/event.go
package model

import "time"

// MetricType identifies the countable metric a ChangeEvent reports on.
type MetricType string

const (
	MetricScheme              MetricType = "scheme"
	MetricVillage             MetricType = "village"
	MetricESR                 MetricType = "esr"
	MetricFlowMeter           MetricType = "flow_meter"
	MetricPressureTransmitter MetricType = "pressure_transmitter"
	MetricRCA                 MetricType = "rca"
)

// EventStatusNew is the only status a change event carries: events exist to
// announce strictly positive increases, never decreases or corrections.
const EventStatusNew = "new"

// ChangeEvent is an auditable notification that a count metric increased or
// that a brand-new scheme appeared. Events are append-only; they are never
// mutated or deleted once emitted.
type ChangeEvent struct {
	MetricType MetricType `json:"metric_type"`
	DeltaCount int        `json:"delta_count"`
	Status     string     `json:"status"`
	Region     string     `json:"region"`
	Scheme     string     `json:"scheme,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
