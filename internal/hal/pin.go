// Package hal abstracts the two physical resources of the switch board:
// the triac gate output and the optional inputs (zero-cross sense, button).
// Implementations here are simulated so the control core can run and be
// tested without hardware; a board build would provide the same interfaces
// over real GPIO.
package hal

import "sync/atomic"

// OutputPin is the positive-logic view of the gate drive:
// Set(true) means the triac is being driven into conduction.
// All control logic works in positive logic only.
type OutputPin interface {
	Set(conducting bool)
	Get() bool
}

// RawPin is a physical line level.
type RawPin interface {
	SetHigh(high bool)
	High() bool
}

// ActiveLow adapts a raw active-low line to positive logic.
// The hardware drives the triac when the line is low, so this is the
// single place where the inversion happens.
func ActiveLow(raw RawPin) OutputPin {
	return &activeLowPin{raw: raw}
}

type activeLowPin struct {
	raw RawPin
}

func (p *activeLowPin) Set(conducting bool) { p.raw.SetHigh(!conducting) }

func (p *activeLowPin) Get() bool { return !p.raw.High() }

// SimPin is a goroutine-safe simulated physical line.
// Pulse callbacks and the supervisor may touch it from different
// goroutines, so the level is stored atomically.
type SimPin struct {
	high atomic.Bool
}

// NewSimPin returns a simulated line at the given initial level.
// The switch board boots with the gate line high (triac off).
func NewSimPin(initialHigh bool) *SimPin {
	p := &SimPin{}
	p.high.Store(initialHigh)
	return p
}

func (p *SimPin) SetHigh(high bool) { p.high.Store(high) }

func (p *SimPin) High() bool { return p.high.Load() }
