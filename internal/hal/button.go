package hal

import (
	"sync"
	"time"
)

const defaultDebounce = 10 * time.Millisecond

// Button is a debounced momentary input. Presses arriving within the
// debounce window of the previous accepted press are dropped, mirroring
// the settle re-probe the board does on the physical line.
type Button struct {
	mu       sync.Mutex
	last     time.Time
	debounce time.Duration
	presses  chan time.Time
}

// NewButton returns a button with the given debounce window
// (<= 0 selects the default 10ms).
func NewButton(debounce time.Duration) *Button {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Button{
		debounce: debounce,
		presses:  make(chan time.Time, 8),
	}
}

// Press records a falling edge at the given instant. Bounced edges are
// ignored; an accepted press is delivered on Presses without blocking
// (a full queue drops the press rather than stalling the caller).
func (b *Button) Press(at time.Time) bool {
	b.mu.Lock()
	if !b.last.IsZero() && at.Sub(b.last) < b.debounce {
		b.mu.Unlock()
		return false
	}
	b.last = at
	b.mu.Unlock()

	select {
	case b.presses <- at:
		return true
	default:
		return false
	}
}

// Presses is the stream of accepted presses.
func (b *Button) Presses() <-chan time.Time { return b.presses }
