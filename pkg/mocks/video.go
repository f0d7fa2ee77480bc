// Package mocks provides mock implementations for testing.
package mocks

import (
	"image"
	"sync"

	"github.com/user/videoglow/pkg/ports"
)

// VideoSource is a mock implementation of ports.VideoSource with
// settable transport state and manual event firing.
type VideoSource struct {
	mu sync.Mutex

	ready    ports.ReadyState
	nativeW  int
	nativeH  int
	displayW float64
	displayH float64
	paused   bool
	frame    image.Image
	frameErr error

	CurrentFrameFunc func() (image.Image, error)

	frameCalls int
	nextID     int
	handlers   map[ports.VideoEvent][]videoHandler
}

type videoHandler struct {
	id int
	fn func()
}

// NewVideoSource creates a mock video that is paused with no media.
func NewVideoSource() *VideoSource {
	return &VideoSource{
		paused:   true,
		handlers: make(map[ports.VideoEvent][]videoHandler),
	}
}

func (m *VideoSource) ReadyState() ports.ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *VideoSource) NativeSize() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nativeW, m.nativeH
}

func (m *VideoSource) DisplayedSize() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.displayW, m.displayH
}

func (m *VideoSource) CurrentFrame() (image.Image, error) {
	if m.CurrentFrameFunc != nil {
		return m.CurrentFrameFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameCalls++
	if m.frameErr != nil {
		return nil, m.frameErr
	}
	if m.frame != nil {
		return m.frame, nil
	}
	return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
}

func (m *VideoSource) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *VideoSource) On(event ports.VideoEvent, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.handlers[event] = append(m.handlers[event], videoHandler{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		hs := m.handlers[event]
		for i, h := range hs {
			if h.id == id {
				m.handlers[event] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

// Fire delivers event to all attached handlers.
func (m *VideoSource) Fire(event ports.VideoEvent) {
	m.mu.Lock()
	hs := make([]videoHandler, len(m.handlers[event]))
	copy(hs, m.handlers[event])
	m.mu.Unlock()
	for _, h := range hs {
		h.fn()
	}
}

// HandlerCount returns the total number of attached event handlers.
func (m *VideoSource) HandlerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, hs := range m.handlers {
		n += len(hs)
	}
	return n
}

// FrameCalls returns how many times CurrentFrame was invoked.
func (m *VideoSource) FrameCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameCalls
}

// SetReady sets the reported readiness level.
func (m *VideoSource) SetReady(r ports.ReadyState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = r
}

// SetNativeSize sets the reported decoded dimensions.
func (m *VideoSource) SetNativeSize(w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nativeW, m.nativeH = w, h
}

// SetDisplayedSize sets the reported on-screen box.
func (m *VideoSource) SetDisplayedSize(w, h float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displayW, m.displayH = w, h
}

// SetPaused sets the reported paused flag.
func (m *VideoSource) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

// SetFrame sets the frame (or error) CurrentFrame returns.
func (m *VideoSource) SetFrame(frame image.Image, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame, m.frameErr = frame, err
}

var _ ports.VideoSource = (*VideoSource)(nil)
