// Package supervisor implements the triac driver and its safe-state
// supervisor. All internal logic is positive logic; the active-low
// hardware inversion lives behind hal.ActiveLow and never leaks in here.
package supervisor

import (
	"errors"
	"fmt"
	"sync/atomic"

	"smart_switch/internal/hal"
	"smart_switch/internal/models"
	"smart_switch/internal/phase"
)

// ErrLevelOutOfRange rejects commands outside [0, MaxLevel]. The prior
// driver state is retained on rejection.
var ErrLevelOutOfRange = errors.New("level out of range")

// Timebase is the slice of the phase timebase the supervisor needs.
type Timebase interface {
	phase.Scheduler
	DriftExceeded() bool
}

// Config tunes the supervisor. The source hardware notes give no basis
// for specific numbers, so these are configuration with defaults.
type Config struct {
	MaxLevel       int         // command range is [0, MaxLevel]
	Watchdog       phase.Ticks // command age >= Watchdog is stale
	PulseWidth     phase.Ticks // fixed safety-margined gate pulse width
	FaultThreshold int         // fault count that latches FAULT_THRESHOLD
	DimmingCapable bool        // sense circuit populated, phase dimming possible
	Version        string      // build identifier surfaced in status
}

const (
	defaultMaxLevel       = 100
	defaultWatchdog       = 2 * phase.TicksPerSecond
	defaultPulseWidth     = phase.Ticks(50)
	defaultFaultThreshold = 5
)

// Command is the desired output level plus its freshness timestamp.
// Level and timestamp travel together through one atomic pointer so the
// phase tick never sees a torn pair.
type Command struct {
	Level    int
	IssuedAt phase.Ticks
}

// TickResult tells the caller what happened during one phase tick so it
// can log transitions and persist snapshots.
type TickResult struct {
	State        models.DriverState
	EnteredSafe  bool
	Recovered    bool
	NewFault     string // non-empty when a fault was first recorded this tick
	PulsePlanned bool
	PulseMissed  bool
}

// Supervisor owns the gate pin. It boots in safe mode with the output
// forced off and leaves it only when a fresh valid command exists and,
// for dimming, the phase reference is valid.
//
// SetCommand and RequestReset may be called from any goroutine (they
// are the comms-layer boundary); everything else runs on the single
// phase-tick goroutine.
type Supervisor struct {
	cfg Config
	pin hal.OutputPin
	tb  Timebase

	cmd         atomic.Pointer[Command]
	resetReq    atomic.Bool
	implausible atomic.Bool
	pulseGen    atomic.Uint64

	// phase-tick state, single writer
	safeMode   bool
	fault      string
	faultCount int

	status atomic.Pointer[models.SwitchStatus]
}

// New returns a supervisor holding the output off, in boot safe mode.
func New(cfg Config, pin hal.OutputPin, tb Timebase) *Supervisor {
	if cfg.MaxLevel <= 0 {
		cfg.MaxLevel = defaultMaxLevel
	}
	if cfg.Watchdog <= 0 {
		cfg.Watchdog = defaultWatchdog
	}
	if cfg.PulseWidth <= 0 {
		cfg.PulseWidth = defaultPulseWidth
	}
	if cfg.FaultThreshold <= 0 {
		cfg.FaultThreshold = defaultFaultThreshold
	}
	s := &Supervisor{
		cfg:      cfg,
		pin:      pin,
		tb:       tb,
		safeMode: true,
		fault:    models.FaultNone,
	}
	pin.Set(false)
	s.publish(phase.Searching, 0, phase.PhaseReference{}, false)
	return s
}

// MaxLevel returns the upper bound of the command range.
func (s *Supervisor) MaxLevel() int { return s.cfg.MaxLevel }

// SetCommand validates and stores a new power command. Invalid levels
// are rejected and the previous command stays in effect.
func (s *Supervisor) SetCommand(level int) error {
	if level < 0 || level > s.cfg.MaxLevel {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrLevelOutOfRange, level, s.cfg.MaxLevel)
	}
	s.cmd.Store(&Command{Level: level, IssuedAt: s.tb.Now()})
	return nil
}

// RequestReset asks the next phase tick to clear a latched
// FAULT_THRESHOLD. Nothing else recovers that fault, so a damaged board
// cannot oscillate in and out of it.
func (s *Supervisor) RequestReset() { s.resetReq.Store(true) }

// NoteImplausibleEdge records that the synchronizer saw an edge outside
// tolerance; the next phase tick books it as a fault.
func (s *Supervisor) NoteImplausibleEdge() { s.implausible.Store(true) }

// OnPhase runs the per-half-cycle supervision step: fault evaluation,
// safe-state policy, and at most one firing pulse. It must be called
// once per half-cycle with the current phase reference.
func (s *Supervisor) OnPhase(ref phase.PhaseReference, sync phase.SyncState) TickResult {
	now := s.tb.Now()
	var res TickResult

	if s.resetReq.CompareAndSwap(true, false) && s.fault == models.FaultThreshold {
		s.fault = models.FaultNone
		s.faultCount = 0
	}

	cmd := s.cmd.Load()
	level := 0
	fresh := false
	if cmd != nil {
		level = cmd.Level
		fresh = now-cmd.IssuedAt < s.cfg.Watchdog
	}

	dimming := s.cfg.DimmingCapable && level > 0 && level < s.cfg.MaxLevel
	eff := level
	if !s.cfg.DimmingCapable && level > 0 {
		// No zero-cross sensing: only discrete on/off is safe.
		eff = s.cfg.MaxLevel
	}

	s.evaluateFaults(cmd, fresh, dimming, ref, &res)

	unsafe := s.fault != models.FaultNone || cmd == nil || !fresh
	if unsafe {
		if !s.safeMode {
			s.safeMode = true
			res.EnteredSafe = true
		}
	} else if s.safeMode {
		// Fresh valid command, and a valid reference when dimming.
		s.safeMode = false
		res.Recovered = true
	}

	if s.safeMode || eff == 0 {
		s.forceOff()
	} else {
		s.schedulePulse(ref, eff, now, &res)
	}

	res.State = s.snapshot(sync, level, res.PulsePlanned)
	s.publish(sync, level, ref, res.PulsePlanned)
	return res
}

// evaluateFaults applies the error taxonomy. Exactly one fault is
// current at a time; self-clearing faults drop back to NONE once their
// condition clears, FAULT_THRESHOLD latches.
func (s *Supervisor) evaluateFaults(cmd *Command, fresh, dimming bool, ref phase.PhaseReference, res *TickResult) {
	if s.fault == models.FaultThreshold {
		return
	}

	implausible := s.implausible.CompareAndSwap(true, false)

	next := models.FaultNone
	switch {
	case s.tb.DriftExceeded():
		next = models.FaultOscillatorDrift
	case cmd != nil && !fresh:
		next = models.FaultCommandStale
	case implausible:
		next = models.FaultImplausibleEdge
	case dimming && !ref.Valid:
		next = models.FaultZeroCrossLost
	}

	if next != models.FaultNone && next != s.fault {
		res.NewFault = next
		s.countFault()
	}
	if s.fault != models.FaultThreshold {
		s.fault = next
	}
}

func (s *Supervisor) countFault() {
	s.faultCount++
	if s.faultCount > s.cfg.FaultThreshold {
		s.fault = models.FaultThreshold
	}
}

// Shutdown forces the output off. Called when the control loop stops so
// the gate is never left mid-conduction.
func (s *Supervisor) Shutdown() { s.forceOff() }

// forceOff invalidates any outstanding pulse callbacks and drives the
// output to the non-conducting state. This path must stay reachable
// from the tick handler no matter how inconsistent other state is.
func (s *Supervisor) forceOff() {
	s.pulseGen.Add(1)
	s.pin.Set(false)
}

// schedulePulse places exactly one gate pulse in this half-cycle.
// Level MaxLevel fires at the crossing (delay 0); dimming levels fire
// after a proportional delay, clamped so the fixed-width pulse stays
// inside the half-cycle. A window that has already passed is skipped,
// booked as a fault, and the next half-cycle is attempted normally.
func (s *Supervisor) schedulePulse(ref phase.PhaseReference, eff int, now phase.Ticks, res *TickResult) {
	delay := phase.Ticks(0)
	if eff < s.cfg.MaxLevel {
		delay = ref.HalfCycle * phase.Ticks(s.cfg.MaxLevel-eff) / phase.Ticks(s.cfg.MaxLevel)
		if max := ref.HalfCycle - s.cfg.PulseWidth; delay > max {
			delay = max
		}
	}

	start := ref.ZeroCross + delay
	// The tick may run slightly after the crossing it refers to; allow
	// a quarter half-cycle of slack before declaring the window missed.
	if start+ref.HalfCycle/4 < now {
		res.PulseMissed = true
		s.countFault()
		s.forceOff()
		return
	}
	if start < now {
		start = now
	}

	gen := s.pulseGen.Add(1)
	s.tb.At(start, func() {
		if s.pulseGen.Load() == gen {
			s.pin.Set(true)
		}
	})
	s.tb.At(start+s.cfg.PulseWidth, func() {
		if s.pulseGen.Load() == gen {
			s.pin.Set(false)
		}
	})
	res.PulsePlanned = true
}

// snapshot builds the persistable driver state for this tick.
// Conducting reflects whether a gate pulse was placed this half-cycle,
// not the instantaneous pulse level.
func (s *Supervisor) snapshot(sync phase.SyncState, level int, conducting bool) models.DriverState {
	return models.DriverState{
		ID:         1,
		Conducting: conducting,
		PinHigh:    !conducting,
		Level:      level,
		SafeMode:   s.safeMode,
		Fault:      s.fault,
		SyncState:  sync.String(),
	}
}

// publish refreshes the lock-free status snapshot read by Status.
func (s *Supervisor) publish(sync phase.SyncState, level int, ref phase.PhaseReference, conducting bool) {
	dimAvailable := s.cfg.DimmingCapable && ref.Valid
	mode := models.ModeOff
	switch {
	case s.safeMode:
		mode = models.ModeSafe
	case level > 0 && level < s.cfg.MaxLevel && dimAvailable:
		mode = models.ModeDimming
	case level > 0:
		mode = models.ModeOn
	}
	s.status.Store(&models.SwitchStatus{
		Mode:             mode,
		Level:            level,
		SafeMode:         s.safeMode,
		Fault:            s.fault,
		SyncState:        sync.String(),
		DimmingAvailable: dimAvailable,
		Conducting:       conducting,
		PinHigh:          !conducting,
		Version:          s.cfg.Version,
	})
}

// Status returns the latest published status with the command age
// recomputed at call time (-1 before the first command).
func (s *Supervisor) Status() models.SwitchStatus {
	st := *s.status.Load()
	st.LastCommandAgeMs = -1
	if cmd := s.cmd.Load(); cmd != nil {
		st.LastCommandAgeMs = (s.tb.Now() - cmd.IssuedAt).Duration().Milliseconds()
	}
	return st
}
