// Package models defines the trace record and group kind types shared by tracecheck packages.
package models

// Position marks where a record sits within its event.
type Position string

const (
	// PositionStart opens an event.
	PositionStart Position = "start"
	// PositionEnd closes an event.
	PositionEnd Position = "end"
	// PositionUpdate is a single-label write event. It does not nest.
	PositionUpdate Position = "update"
	// PositionCall marks a call inside an open event. It does not nest.
	PositionCall Position = "call"
)

// Valid returns true if the position is a known value.
func (p Position) Valid() bool {
	switch p {
	case PositionStart, PositionEnd, PositionUpdate, PositionCall:
		return true
	default:
		return false
	}
}

// Nests reports whether the position opens or closes an event.
func (p Position) Nests() bool {
	return p == PositionStart || p == PositionEnd
}

// GroupEventType is the record type of structural group events.
const GroupEventType = "GroupEvent"

// Record is a single marker from an event trace.
// Records are read once from the trace file and never modified.
type Record struct {
	// Position is the start/end discriminator.
	Position Position `json:"pos" yaml:"pos"`
	// EventID is the agent's running event counter, zero when absent.
	EventID int64 `json:"eventId,omitempty" yaml:"event_id,omitempty"`
	// NodeID identifies the source node. Start and End of one event share it.
	NodeID string `json:"nodeId" yaml:"node_id"`
	// Kind is the event kind, e.g. "controlFlow" for group events.
	Kind string `json:"eventType,omitempty" yaml:"kind,omitempty"`
	// Type separates group events from other instrumentation records.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// IsGroupEvent reports whether the record has the given group type.
// An empty groupType falls back to GroupEventType.
func (r Record) IsGroupEvent(groupType string) bool {
	if groupType == "" {
		groupType = GroupEventType
	}
	return r.Type == groupType
}
