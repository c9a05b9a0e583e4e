package core

import "time"

// VTimeInSec represents a time in seconds.
type VTimeInSec float64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// WallClock is a TimeTeller that reports the wall-clock time elapsed since
// the process started.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a new WallClock.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// CurrentTime returns the seconds elapsed since the clock was created.
func (c *WallClock) CurrentTime() VTimeInSec {
	return VTimeInSec(time.Since(c.start).Seconds())
}
