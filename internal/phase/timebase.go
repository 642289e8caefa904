// Package phase holds the timing side of the control core: a monotonic
// tick timebase derived from the internal oscillator and the zero-cross
// synchronizer that produces the per-half-cycle phase reference.
package phase

import (
	"sync/atomic"
	"time"
)

// Ticks is a monotonic count of microseconds on the internal-oscillator
// timebase. The board has no low-frequency crystal, so all timing is
// derived from the high-frequency RC oscillator; its rated accuracy is
// on the order of 500 ppm, which is the error bound callers should
// assume on any interval measured in Ticks.
type Ticks int64

// TicksPerSecond is the timebase resolution.
const TicksPerSecond Ticks = 1_000_000

// DurationToTicks converts a wall duration to ticks.
func DurationToTicks(d time.Duration) Ticks { return Ticks(d.Microseconds()) }

// Duration converts ticks back to a wall duration.
func (t Ticks) Duration() time.Duration { return time.Duration(int64(t)) * time.Microsecond }

// Scheduler is the "run f at tick T" primitive the supervisor uses to
// place firing pulses. Tests substitute a manual implementation.
type Scheduler interface {
	Now() Ticks
	At(t Ticks, fn func())
}

// Timebase implements Scheduler over the host monotonic clock and keeps
// a running oscillator-drift estimate fed by calibration marks.
type Timebase struct {
	start        time.Time
	driftPPM     atomic.Int64
	tolerancePPM int64
}

// NewTimebase returns a timebase that reports drift once the estimate
// exceeds tolerancePPM (<= 0 disables drift reporting).
func NewTimebase(tolerancePPM int64) *Timebase {
	return &Timebase{start: time.Now(), tolerancePPM: tolerancePPM}
}

// Now returns the current tick count. The underlying reading is
// monotonic, so Now never goes backwards.
func (tb *Timebase) Now() Ticks {
	return Ticks(time.Since(tb.start).Microseconds())
}

// At schedules fn to run at tick t. A tick already in the past runs fn
// as soon as the runtime allows; callers that care about missed
// deadlines must check Now before scheduling.
func (tb *Timebase) At(t Ticks, fn func()) {
	d := (t - tb.Now()).Duration()
	if d < 0 {
		d = 0
	}
	time.AfterFunc(d, fn)
}

// MarkCalibration feeds one expected-vs-measured interval pair into the
// drift estimate. The synchronizer calls this once per locked period,
// comparing the nominal half-cycle against the measured one, so the
// estimate converges on the oscillator error relative to the mains.
func (tb *Timebase) MarkCalibration(expected, measured Ticks) {
	if expected <= 0 {
		return
	}
	diff := int64(measured - expected)
	if diff < 0 {
		diff = -diff
	}
	ppm := diff * 1_000_000 / int64(expected)

	// Smooth over the last few marks so a single noisy period does not
	// trip the drift fault.
	prev := tb.driftPPM.Load()
	tb.driftPPM.Store((prev*3 + ppm) / 4)
}

// DriftPPM returns the smoothed drift estimate.
func (tb *Timebase) DriftPPM() int64 { return tb.driftPPM.Load() }

// DriftExceeded reports whether the estimate is beyond tolerance. The
// supervisor treats this as a fault and falls back to the off state
// rather than mistime a firing pulse.
func (tb *Timebase) DriftExceeded() bool {
	return tb.tolerancePPM > 0 && tb.driftPPM.Load() > tb.tolerancePPM
}
