package service

import (
	"time"

	"smart_switch/internal/hal"
	"smart_switch/internal/phase"
	"smart_switch/internal/supervisor"
)

// CoreConfig gathers every tunable of the control core. The hardware
// notes never pin these numbers down, so they all come from config with
// the defaults applied by the underlying packages.
type CoreConfig struct {
	NominalHz         float64       // mains line frequency
	TolerancePct      float64       // zero-cross period tolerance
	LockPeriods       int           // consecutive in-tolerance periods before lock
	SensePresent      bool          // zero-cross sense circuit populated
	MaxLevel          int           // command range upper bound
	Watchdog          time.Duration // command staleness bound
	PulseWidth        time.Duration // triac gate pulse width
	FaultThreshold    int           // faults before FAULT_THRESHOLD latches
	DriftTolerancePPM int64         // oscillator drift fault threshold
	ButtonDebounce    time.Duration // physical button settle window
	Version           string        // build identifier for the status interface
}

// Core bundles the control-core singletons: one timebase, one
// synchronizer, one supervisor, and the two physical resources (gate
// line and button). They are passed around explicitly rather than
// living in package globals so tests can build their own.
type Core struct {
	cfg        CoreConfig
	Timebase   *phase.Timebase
	Sync       *phase.Synchronizer
	Supervisor *supervisor.Supervisor
	Button     *hal.Button
	Line       *hal.SimPin // raw gate line, active-low; inspectable in diagnostics
}

// NewCore wires the control core from config. The gate line boots high,
// i.e. triac off, before the supervisor ever runs.
func NewCore(cfg CoreConfig) *Core {
	tb := phase.NewTimebase(cfg.DriftTolerancePPM)
	line := hal.NewSimPin(true)

	sync := phase.NewSynchronizer(phase.SyncConfig{
		NominalHz:    cfg.NominalHz,
		TolerancePct: cfg.TolerancePct,
		LockPeriods:  cfg.LockPeriods,
		SensePresent: cfg.SensePresent,
	}, tb)

	sup := supervisor.New(supervisor.Config{
		MaxLevel:       cfg.MaxLevel,
		Watchdog:       phase.DurationToTicks(cfg.Watchdog),
		PulseWidth:     phase.DurationToTicks(cfg.PulseWidth),
		FaultThreshold: cfg.FaultThreshold,
		DimmingCapable: cfg.SensePresent,
		Version:        cfg.Version,
	}, hal.ActiveLow(line), tb)

	return &Core{
		cfg:        cfg,
		Timebase:   tb,
		Sync:       sync,
		Supervisor: sup,
		Button:     hal.NewButton(cfg.ButtonDebounce),
		Line:       line,
	}
}

// Config returns the configuration the core was built with.
func (c *Core) Config() CoreConfig { return c.cfg }
