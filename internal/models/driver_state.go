package models

import "time"

// Fault identifies the last condition that pushed the supervisor toward
// safe mode. All faults except FaultThreshold self-clear once their
// triggering condition clears; FaultThreshold latches until an explicit
// reset command.
const (
	FaultNone            = "NONE"
	FaultCommandStale    = "COMMAND_STALE"
	FaultZeroCrossLost   = "ZERO_CROSS_LOST"
	FaultImplausibleEdge = "ZERO_CROSS_IMPLAUSIBLE"
	FaultOscillatorDrift = "OSC_DRIFT"
	FaultThreshold       = "FAULT_THRESHOLD"
)

// DriverState is the persisted snapshot of the triac driver.
// Conducting is positive logic (true = triac driving); PinHigh is the
// physical line level after the active-low inversion.
type DriverState struct {
	ID         int       `json:"id"`
	Conducting bool      `json:"conducting"`
	PinHigh    bool      `json:"pin_high"`
	Level      int       `json:"level"`
	SafeMode   bool      `json:"safe_mode"`
	Fault      string    `json:"fault"`                 // NONE | COMMAND_STALE | ...
	SyncState  string    `json:"sync_state"`            // SEARCHING | LOCKED | LOST
	UpdatedAt  time.Time `json:"updated_at"`
}

// SwitchStatus is the live view returned by the status interface.
type SwitchStatus struct {
	Mode             string    `json:"mode"` // SAFE | OFF | ON | DIMMING
	Level            int       `json:"level"`
	SafeMode         bool      `json:"safe_mode"`
	Fault            string    `json:"fault"`
	SyncState        string    `json:"sync_state"`
	DimmingAvailable bool      `json:"dimming_available"`
	LastCommandAgeMs int64     `json:"last_command_age_ms"` // -1 when no command yet
	Conducting       bool      `json:"conducting"`
	PinHigh          bool      `json:"pin_high"`
	Version          string    `json:"version,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Status modes.
const (
	ModeSafe    = "SAFE"
	ModeOff     = "OFF"
	ModeOn      = "ON"
	ModeDimming = "DIMMING"
)
