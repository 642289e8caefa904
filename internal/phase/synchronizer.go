package phase

// SyncState is the synchronizer lock state.
type SyncState int

const (
	Searching SyncState = iota
	Locked
	Lost
)

func (s SyncState) String() string {
	switch s {
	case Locked:
		return "LOCKED"
	case Lost:
		return "LOST"
	default:
		return "SEARCHING"
	}
}

// PhaseReference is the per-half-cycle output of the synchronizer.
// It is recreated every half-cycle and never persisted. Valid is true
// only while the sense input is present and locked; without it only
// discrete on/off control is safe.
type PhaseReference struct {
	ZeroCross Ticks // most recent detected or estimated crossing
	HalfCycle Ticks // current half-cycle duration estimate
	Valid     bool
}

// Transition records a state change for the event log.
type Transition struct {
	From, To    SyncState
	Implausible bool // edge timing outside tolerance, likely noise
}

// SyncConfig tunes the synchronizer. The original hardware notes give
// no basis for specific numbers, so everything is configuration with
// defaults applied by NewSynchronizer.
type SyncConfig struct {
	NominalHz    float64 // mains line frequency
	TolerancePct float64 // accepted deviation from the nominal half-cycle
	LockPeriods  int     // consecutive in-tolerance periods before LOCKED, min 2
	SensePresent bool    // zero-cross sense circuit populated
}

const (
	defaultNominalHz    = 50.0
	defaultTolerancePct = 10.0
	minLockPeriods      = 2
)

// Synchronizer tracks zero-cross edges through SEARCHING -> LOCKED ->
// LOST -> SEARCHING. With the sense circuit absent it free-runs a
// virtual reference at the nominal frequency and never reports Valid.
//
// Not goroutine-safe: Edge, Check and Reference are all driven from the
// single mains loop, matching the interrupt-context discipline of the
// target.
type Synchronizer struct {
	cfg SyncConfig

	state    SyncState
	lastEdge Ticks
	haveEdge bool
	inTol    int
	estimate Ticks // measured half-cycle while locked

	anchor     Ticks // free-running virtual crossing
	haveAnchor bool

	tb *Timebase // optional, receives calibration marks
}

// NewSynchronizer builds a synchronizer; tb may be nil if no drift
// accounting is wanted.
func NewSynchronizer(cfg SyncConfig, tb *Timebase) *Synchronizer {
	if cfg.NominalHz <= 0 {
		cfg.NominalHz = defaultNominalHz
	}
	if cfg.TolerancePct <= 0 {
		cfg.TolerancePct = defaultTolerancePct
	}
	if cfg.LockPeriods < minLockPeriods {
		cfg.LockPeriods = minLockPeriods
	}
	s := &Synchronizer{cfg: cfg, tb: tb}
	s.estimate = s.nominalHalfCycle()
	return s
}

// nominalHalfCycle is 1/(2*line_frequency) in ticks.
func (s *Synchronizer) nominalHalfCycle() Ticks {
	return Ticks(float64(TicksPerSecond) / (2 * s.cfg.NominalHz))
}

// State returns the current lock state.
func (s *Synchronizer) State() SyncState { return s.state }

// HalfCycle returns the current half-cycle duration estimate.
func (s *Synchronizer) HalfCycle() Ticks { return s.estimate }

// Edge records a sense edge at tick ts. It returns the resulting
// transition, if any. Lock requires LockPeriods consecutive periods
// within tolerance of the nominal half-cycle; a single in-tolerance
// period is never enough, which guards against noise locking us onto
// garbage.
func (s *Synchronizer) Edge(ts Ticks) (Transition, bool) {
	if !s.cfg.SensePresent {
		// No sense circuit: edges are spurious, stay in assumed mode.
		return Transition{}, false
	}

	if s.state == Lost {
		// First edge after a loss restarts the search from scratch.
		s.state = Searching
		s.haveEdge = false
		s.inTol = 0
	}

	if !s.haveEdge {
		s.haveEdge = true
		s.lastEdge = ts
		return Transition{}, false
	}

	period := ts - s.lastEdge
	s.lastEdge = ts

	nominal := s.nominalHalfCycle()
	tol := Ticks(float64(nominal) * s.cfg.TolerancePct / 100)
	dev := period - nominal
	if dev < 0 {
		dev = -dev
	}

	if dev > tol {
		s.inTol = 0
		if s.state == Locked {
			s.state = Lost
			return Transition{From: Locked, To: Lost, Implausible: true}, true
		}
		return Transition{}, false
	}

	s.inTol++
	s.estimate = period
	if s.tb != nil {
		s.tb.MarkCalibration(nominal, period)
	}
	if s.state != Locked && s.inTol >= s.cfg.LockPeriods {
		from := s.state
		s.state = Locked
		return Transition{From: from, To: Locked}, true
	}
	return Transition{}, false
}

// Check detects a missed edge: no edge within 1.5x the expected period
// while locked drops straight to LOST so the supervisor sees the loss
// within one half-cycle. While searching, stale partial tracking is
// discarded so edges separated by a long gap are never glued into one
// period.
func (s *Synchronizer) Check(now Ticks) (Transition, bool) {
	if !s.haveEdge {
		return Transition{}, false
	}
	limit := s.estimate + s.estimate/2
	if now-s.lastEdge <= limit {
		return Transition{}, false
	}
	if s.state == Locked {
		s.state = Lost
		s.inTol = 0
		return Transition{From: Locked, To: Lost}, true
	}
	s.haveEdge = false
	s.inTol = 0
	return Transition{}, false
}

// Reference returns the phase reference for the half-cycle containing
// now. Locked: the last real edge, valid. Otherwise a free-running
// virtual crossing at the nominal rate, never valid.
func (s *Synchronizer) Reference(now Ticks) PhaseReference {
	if s.state == Locked {
		return PhaseReference{ZeroCross: s.lastEdge, HalfCycle: s.estimate, Valid: true}
	}

	nominal := s.nominalHalfCycle()
	if !s.haveAnchor {
		s.anchor = now
		s.haveAnchor = true
	}
	// Advance the virtual crossing to the most recent one at or before now.
	if now > s.anchor {
		steps := (now - s.anchor) / nominal
		s.anchor += steps * nominal
	}
	return PhaseReference{ZeroCross: s.anchor, HalfCycle: nominal, Valid: false}
}
