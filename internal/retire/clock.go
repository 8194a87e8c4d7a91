package retire

import "time"

// Clock abstracts time for the polling loops so tests can simulate waiting
// without real delays. A cancellation hook can later be threaded through the
// same seam without restructuring the state machine.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewClock returns the wall clock
func NewClock() Clock {
	return realClock{}
}
