package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze record timestamps
// via SetClock. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// Now returns the current time from the package clock. Tools that stamp
// records outside the parse boundary use this rather than time.Now.
func Now() time.Time {
	return clock.Now()
}

// SetClock swaps the time source used when stamping catalog records. Pass nil
// to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
