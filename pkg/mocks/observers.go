package mocks

import (
	"sync"

	"github.com/user/videoglow/pkg/ports"
)

// ResizeObserver is a mock implementation of ports.ResizeObserver.
type ResizeObserver struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func()
}

// NewResizeObserver creates an empty resize observer mock.
func NewResizeObserver() *ResizeObserver {
	return &ResizeObserver{fns: make(map[int]func())}
}

func (m *ResizeObserver) Observe(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.fns[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.fns, id)
	}
}

// Fire delivers one resize signal to every observer.
func (m *ResizeObserver) Fire() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.fns))
	for _, fn := range m.fns {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ObserverCount returns the number of attached observers.
func (m *ResizeObserver) ObserverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

var _ ports.ResizeObserver = (*ResizeObserver)(nil)

// VisibilityObserver is a mock implementation of
// ports.VisibilityObserver.
type VisibilityObserver struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(bool)
}

// NewVisibilityObserver creates an empty visibility observer mock.
func NewVisibilityObserver() *VisibilityObserver {
	return &VisibilityObserver{fns: make(map[int]func(bool))}
}

func (m *VisibilityObserver) Observe(fn func(visible bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.fns[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.fns, id)
	}
}

// Fire delivers a visibility change to every observer.
func (m *VisibilityObserver) Fire(visible bool) {
	m.mu.Lock()
	fns := make([]func(bool), 0, len(m.fns))
	for _, fn := range m.fns {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(visible)
	}
}

// ObserverCount returns the number of attached observers.
func (m *VisibilityObserver) ObserverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

var _ ports.VisibilityObserver = (*VisibilityObserver)(nil)
