package mocks

import (
	"sync"
	"time"

	"github.com/user/videoglow/pkg/ports"
)

// Scheduler is a deterministic ports.Scheduler driven manually by
// tests: Tick delivers pending frame callbacks, FireTimers delivers
// pending delay callbacks. Nothing runs until the test says so.
type Scheduler struct {
	mu     sync.Mutex
	nextID int
	frames []schedEntry
	timers []timerEntry
}

type schedEntry struct {
	id int
	fn func(now time.Time)
}

type timerEntry struct {
	id    int
	delay time.Duration
	fn    func()
}

// NewScheduler creates an empty manual scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) RequestFrame(fn func(now time.Time)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.frames = append(s.frames, schedEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.frames {
			if e.id == id {
				s.frames = append(s.frames[:i:i], s.frames[i+1:]...)
				return
			}
		}
	}
}

func (s *Scheduler) After(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.timers = append(s.timers, timerEntry{id: id, delay: d, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.timers {
			if e.id == id {
				s.timers = append(s.timers[:i:i], s.timers[i+1:]...)
				return
			}
		}
	}
}

// Tick delivers every currently pending frame callback with the given
// timestamp. Callbacks scheduled during delivery wait for the next
// Tick, matching one-callback-per-visual-frame semantics.
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	pending := s.frames
	s.frames = nil
	s.mu.Unlock()
	for _, e := range pending {
		e.fn(now)
	}
}

// FireTimers delivers every currently pending delay callback.
func (s *Scheduler) FireTimers() {
	s.mu.Lock()
	pending := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, e := range pending {
		e.fn()
	}
}

// PendingFrames returns the number of frame callbacks waiting.
func (s *Scheduler) PendingFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// PendingTimers returns the number of delay callbacks waiting.
func (s *Scheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

var _ ports.Scheduler = (*Scheduler)(nil)
