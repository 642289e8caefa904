package phase

import (
	"testing"
	"time"
)

func TestTicksConversionRoundTrip(t *testing.T) {
	d := 12345 * time.Microsecond
	if got := DurationToTicks(d).Duration(); got != d {
		t.Fatalf("round trip = %v, want %v", got, d)
	}
	if DurationToTicks(time.Second) != TicksPerSecond {
		t.Fatalf("one second != TicksPerSecond")
	}
}

func TestTimebase_NowIsMonotonic(t *testing.T) {
	tb := NewTimebase(0)
	a := tb.Now()
	b := tb.Now()
	if b < a {
		t.Fatalf("Now went backwards: %d then %d", a, b)
	}
}

func TestTimebase_DriftEstimate(t *testing.T) {
	tb := NewTimebase(1000)

	if tb.DriftExceeded() {
		t.Fatalf("fresh timebase reports drift")
	}

	// 10000 expected vs 10200 measured = 20000 ppm; a few marks push
	// the smoothed estimate over the 1000 ppm tolerance.
	for i := 0; i < 8; i++ {
		tb.MarkCalibration(10_000, 10_200)
	}
	if !tb.DriftExceeded() {
		t.Fatalf("drift not reported, estimate=%d ppm", tb.DriftPPM())
	}

	// Accurate marks pull the estimate back below tolerance.
	for i := 0; i < 16; i++ {
		tb.MarkCalibration(10_000, 10_000)
	}
	if tb.DriftExceeded() {
		t.Fatalf("drift still reported after resettling, estimate=%d ppm", tb.DriftPPM())
	}
}

func TestTimebase_DriftDisabled(t *testing.T) {
	tb := NewTimebase(0)
	for i := 0; i < 8; i++ {
		tb.MarkCalibration(10_000, 20_000)
	}
	if tb.DriftExceeded() {
		t.Fatalf("tolerance 0 must disable drift reporting")
	}
}

func TestTimebase_AtRunsScheduledWork(t *testing.T) {
	tb := NewTimebase(0)
	done := make(chan struct{})

	tb.At(tb.Now(), func() { close(done) }) // already due

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduled function never ran")
	}
}

func TestTimebase_IgnoresBadCalibration(t *testing.T) {
	tb := NewTimebase(100)
	tb.MarkCalibration(0, 10_000)
	tb.MarkCalibration(-5, 10_000)
	if tb.DriftPPM() != 0 {
		t.Fatalf("bad calibration marks changed the estimate")
	}
}
