// Package framesched provides a wall-clock scheduler implementation.
package framesched

import (
	"time"

	"github.com/user/videoglow/pkg/ports"
)

// defaultFrameInterval approximates a 60 Hz visual frame cadence.
const defaultFrameInterval = time.Second / 60

// Scheduler implements ports.Scheduler with real timers.
type Scheduler struct {
	frameInterval time.Duration
}

// New creates a Scheduler ticking at roughly 60 frames per second.
func New() *Scheduler {
	return &Scheduler{frameInterval: defaultFrameInterval}
}

// NewWithInterval creates a Scheduler with a custom frame interval.
func NewWithInterval(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return &Scheduler{frameInterval: interval}
}

// RequestFrame schedules fn for the next frame tick.
func (s *Scheduler) RequestFrame(fn func(now time.Time)) func() {
	t := time.AfterFunc(s.frameInterval, func() {
		fn(time.Now())
	})
	return func() { t.Stop() }
}

// After schedules fn to run once after d.
func (s *Scheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Ensure Scheduler implements ports.Scheduler
var _ ports.Scheduler = (*Scheduler)(nil)
