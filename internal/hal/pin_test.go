package hal

import (
	"testing"
	"time"
)

func TestActiveLowInversion(t *testing.T) {
	raw := NewSimPin(true) // board boots with the line high, triac off
	out := ActiveLow(raw)

	if out.Get() {
		t.Fatalf("line high must read as not conducting")
	}

	out.Set(true)
	if raw.High() {
		t.Fatalf("conducting must drive the line low")
	}
	if !out.Get() {
		t.Fatalf("positive-logic readback broken")
	}

	out.Set(false)
	if !raw.High() {
		t.Fatalf("not conducting must drive the line high")
	}
}

func TestSimPinInitialLevel(t *testing.T) {
	if NewSimPin(true).High() != true {
		t.Fatalf("initial high lost")
	}
	if NewSimPin(false).High() != false {
		t.Fatalf("initial low lost")
	}
}

func TestButtonDebounce(t *testing.T) {
	b := NewButton(10 * time.Millisecond)
	t0 := time.Now()

	if !b.Press(t0) {
		t.Fatalf("first press dropped")
	}
	if b.Press(t0.Add(5 * time.Millisecond)) {
		t.Fatalf("bounce inside the window accepted")
	}
	if !b.Press(t0.Add(15 * time.Millisecond)) {
		t.Fatalf("press after the window dropped")
	}

	if got := len(b.Presses()); got != 2 {
		t.Fatalf("queued presses = %d, want 2", got)
	}
}

func TestButtonQueueDoesNotBlock(t *testing.T) {
	b := NewButton(time.Nanosecond)
	at := time.Now()
	for i := 0; i < 64; i++ {
		b.Press(at.Add(time.Duration(i) * time.Millisecond))
	}
	// Overflow presses are dropped, the caller is never stalled.
	select {
	case <-b.Presses():
	default:
		t.Fatalf("expected at least one queued press")
	}
}
