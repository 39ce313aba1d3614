// Package telemetry provides population statistics, resolution logs and
// step timing, with CSV output.
package telemetry

import "github.com/pthm-cable/zoo/components"

// ResolutionRecord is one resolved collision, as written to resolutions.csv.
type ResolutionRecord struct {
	Tick          int64   `csv:"tick"`
	SimTime       float64 `csv:"sim_time"`
	RequestedAt   float64 `csv:"requested_at"`
	Outcome       string  `csv:"outcome"`
	InitiatorID   string  `csv:"initiator_id"`
	InitiatorKind string  `csv:"initiator_kind"`
	TargetID      string  `csv:"target_id"`
	TargetKind    string  `csv:"target_kind"`
}

// Latency returns the time from submission to resolution.
func (r ResolutionRecord) Latency() float64 {
	return r.SimTime - r.RequestedAt
}

// Party identifies one side of a resolution.
type Party struct {
	ID   string
	Kind components.Kind
}

// NewResolutionRecord creates a resolution record.
func NewResolutionRecord(tick int64, simTime, requestedAt float64, outcome string, initiator, target Party) ResolutionRecord {
	return ResolutionRecord{
		Tick:          tick,
		SimTime:       simTime,
		RequestedAt:   requestedAt,
		Outcome:       outcome,
		InitiatorID:   initiator.ID,
		InitiatorKind: initiator.Kind.String(),
		TargetID:      target.ID,
		TargetKind:    target.Kind.String(),
	}
}
