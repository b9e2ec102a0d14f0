package clock

import "time"

// Clock is the source of wall time for sessions, tokens and viewer expiry
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns time.Now
func (c *RealClock) Now() time.Time {
	return time.Now()
}
