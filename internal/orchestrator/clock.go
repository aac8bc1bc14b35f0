package orchestrator

import "time"

// Clock abstracts wall-clock time so the cancellation delay can be
// tested without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real-time clock
func SystemClock() Clock { return systemClock{} }
