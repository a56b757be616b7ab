package clock

import (
	"sync"
	"time"
)

// Clock knows the current time. Stores receive one so timestamps are
// deterministic in tests and always UTC.
type Clock interface {
	Now() time.Time
}

// System is the wall clock, in UTC.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Fake is a clock that advances a fixed step on every call, so consecutive
// timestamps are always strictly increasing.
type Fake struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFake returns a fake clock starting at start.
func NewFake(start time.Time, step time.Duration) *Fake {
	return &Fake{now: start.UTC(), step: step}
}

// Now returns the current fake time and advances the clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.now
	f.now = f.now.Add(f.step)
	return t
}
