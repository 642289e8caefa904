package models

import "time"

// Event types recorded in the switch event log.
const (
	EventCommand  = "COMMAND"
	EventToggle   = "TOGGLE"
	EventReset    = "RESET"
	EventSafeMode = "SAFE_MODE"
	EventRecover  = "RECOVER"
	EventSync     = "SYNC"
	EventFault    = "FAULT"
)

// SwitchEvent is a single log entry.
type SwitchEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // COMMAND | TOGGLE | RESET | SAFE_MODE | RECOVER | SYNC | FAULT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
