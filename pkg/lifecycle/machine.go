// Package lifecycle drives when sampling happens and how the rendering
// surfaces are sized, in response to video transport events and
// viewport signals.
package lifecycle

import (
	"sync"
	"time"

	"github.com/user/videoglow/pkg/blend"
	"github.com/user/videoglow/pkg/ports"
	"github.com/user/videoglow/pkg/sampler"
	"github.com/user/videoglow/pkg/surfaces"
)

// State identifies the machine's position in the video lifecycle.
type State int

const (
	// StateIdle means no video is bound yet.
	StateIdle State = iota
	// StateLoading means loadstart was seen and no frame is available.
	StateLoading
	// StateReady means metadata is known and a frame can be sampled.
	StateReady
	// StatePlaying means the periodic sampling loop is active.
	StatePlaying
	// StatePaused means playback stopped; the backdrop stays frozen.
	StatePaused
	// StateEnded means playback reached the end of the source.
	StateEnded
	// StateDestroyed is terminal; every operation becomes a no-op.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Tuning holds the configuration fields the machine consumes. It is
// replaced wholesale on every option update.
type Tuning struct {
	// UpdateInterval is the minimum time between sampling passes while
	// the periodic loop runs.
	UpdateInterval time.Duration

	// Weights are the temporal blend weights passed to each sample.
	Weights blend.Weights

	// Geometry determines surface dimensions on resize.
	Geometry surfaces.Geometry
}

// resizeQuiet is the debounce window for coalescing resize signals.
const resizeQuiet = 100 * time.Millisecond

// Machine is the lifecycle state machine of one glow effect. Its
// callbacks and public operations are serialized by an internal mutex,
// except that sampling passes run with the mutex released: a video
// source may fire a transport event from inside a frame read, and that
// handler must be able to re-enter the machine. After Destroy every
// entry point degrades to a no-op.
type Machine struct {
	mu sync.Mutex

	video      ports.VideoSource
	sched      ports.Scheduler
	surfaces   *surfaces.Manager
	sampler    *sampler.Sampler
	resize     ports.ResizeObserver
	visibility ports.VisibilityObserver
	logger     ports.Logger

	tuning     Tuning
	state      State
	running    bool
	visible    bool
	sampling   bool
	pendingCut bool

	lastSample     time.Time
	cancelFrame    func()
	cancelDebounce func()
	detachers      []func()
}

// New creates a Machine. The resize and visibility observers may be nil
// when the platform lacks them; absence degrades the behavior, it never
// fails. Call Bind to attach listeners and start operating.
func New(
	video ports.VideoSource,
	sched ports.Scheduler,
	surf *surfaces.Manager,
	smp *sampler.Sampler,
	resize ports.ResizeObserver,
	visibility ports.VisibilityObserver,
	log ports.Logger,
	tuning Tuning,
) *Machine {
	return &Machine{
		video:      video,
		sched:      sched,
		surfaces:   surf,
		sampler:    smp,
		resize:     resize,
		visibility: visibility,
		logger:     log.WithComponent("lifecycle"),
		tuning:     tuning,
		state:      StateIdle,
		visible:    true,
	}
}

// Bind attaches all transport listeners and observers, performs the
// initial force-cut sample, and starts the loop when the video is
// already playing.
func (m *Machine) Bind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}

	m.attach(ports.EventLoadStart, m.onLoadStart)
	m.attach(ports.EventLoadedMetadata, m.onLoadedMetadata)
	m.attach(ports.EventCanPlay, m.onCanPlay)
	m.attach(ports.EventPlay, m.onPlay)
	m.attach(ports.EventPause, m.onPause)
	m.attach(ports.EventEnded, m.onEnded)
	m.attach(ports.EventSeeked, m.onSeeked)

	if m.resize != nil {
		m.detachers = append(m.detachers, m.resize.Observe(m.onResizeSignal))
	}
	if m.visibility != nil {
		m.detachers = append(m.detachers, m.visibility.Observe(m.onVisibility))
	}

	if m.video.ReadyState() >= ports.HaveMetadata {
		m.state = StateReady
	} else {
		m.state = StateLoading
	}

	m.samplePassLocked(true)
	if m.state == StateDestroyed {
		return
	}

	if !m.video.Paused() {
		m.startLoopLocked()
		m.state = StatePlaying
	}
}

// attach registers a video event handler and records its detacher.
func (m *Machine) attach(ev ports.VideoEvent, fn func()) {
	m.detachers = append(m.detachers, m.video.On(ev, fn))
}

// UpdateTuning replaces the machine's tuning values.
func (m *Machine) UpdateTuning(t Tuning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.tuning = t
}

// ResizeNow resizes the surfaces immediately, bypassing the debounce.
func (m *Machine) ResizeNow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.resizeLocked()
}

// SampleNow performs one non-forced sample pass.
func (m *Machine) SampleNow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.samplePassLocked(false)
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Destroyed reports whether the machine reached its terminal state.
func (m *Machine) Destroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateDestroyed
}

// LoopRunning reports whether the periodic sampling loop is active.
func (m *Machine) LoopRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Destroy stops the loop, retires every pending callback, detaches all
// listeners and observers, removes the backdrop and enters the terminal
// state. It is idempotent and safe to call from any state.
func (m *Machine) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}

	m.stopLoopLocked()
	if m.cancelDebounce != nil {
		m.cancelDebounce()
		m.cancelDebounce = nil
	}
	for _, detach := range m.detachers {
		detach()
	}
	m.detachers = nil
	m.surfaces.Release()
	m.state = StateDestroyed
	m.logger.Debug("Lifecycle destroyed")
}

// --- transport event handlers -------------------------------------------

func (m *Machine) onLoadStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.samplePassLocked(true)
	if m.state == StateDestroyed {
		return
	}
	m.state = StateLoading
}

func (m *Machine) onLoadedMetadata() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.resizeLocked()
}

func (m *Machine) onCanPlay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.resizeLocked()
	m.samplePassLocked(false)
	if m.state == StateLoading {
		m.state = StateReady
	}
}

func (m *Machine) onPlay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.samplePassLocked(true)
	// The cut can re-enter the machine; honor whatever state the video
	// drove it to instead of starting a loop against a dead playhead.
	if m.state == StateDestroyed || m.state == StateEnded {
		return
	}
	m.startLoopLocked()
	m.state = StatePlaying
}

func (m *Machine) onPause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.stopLoopLocked()
	m.state = StatePaused
}

func (m *Machine) onEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.stopLoopLocked()
	m.state = StateEnded
}

func (m *Machine) onSeeked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	// Blending across a seek discontinuity would smear two unrelated
	// scenes together.
	m.samplePassLocked(true)
}

// --- viewport signals ---------------------------------------------------

// onResizeSignal coalesces bursts of resize signals: only the last one
// within the quiet window triggers an actual resize and sample.
func (m *Machine) onResizeSignal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	if m.cancelDebounce != nil {
		m.cancelDebounce()
	}
	m.cancelDebounce = m.sched.After(resizeQuiet, m.onResizeQuiet)
}

func (m *Machine) onResizeQuiet() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelDebounce = nil
	if m.state == StateDestroyed {
		return
	}
	m.resizeLocked()
	m.samplePassLocked(false)
}

func (m *Machine) onVisibility(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDestroyed {
		return
	}
	m.visible = visible
	if !visible {
		// Keep the backdrop as-is, just stop burning cycles.
		m.stopLoopLocked()
		return
	}
	if !m.video.Paused() {
		m.startLoopLocked()
	}
}

// --- periodic sampling loop ---------------------------------------------

// startLoopLocked starts the per-frame loop. Starting an already
// running loop is a no-op.
func (m *Machine) startLoopLocked() {
	if m.running {
		return
	}
	m.running = true
	m.lastSample = time.Time{}
	m.scheduleFrameLocked()
}

// stopLoopLocked stops the loop and cancels the pending frame callback.
// Stopping a stopped loop is a no-op.
func (m *Machine) stopLoopLocked() {
	m.running = false
	if m.cancelFrame != nil {
		m.cancelFrame()
		m.cancelFrame = nil
	}
}

// scheduleFrameLocked requests the next frame callback, keeping at most
// one pending handle at a time.
func (m *Machine) scheduleFrameLocked() {
	if m.cancelFrame != nil {
		return
	}
	m.cancelFrame = m.sched.RequestFrame(m.onFrame)
}

// onFrame is the cooperative per-frame callback. It self-reschedules
// every frame but only samples once the configured interval elapsed.
func (m *Machine) onFrame(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelFrame = nil
	if !m.running || m.state == StateDestroyed {
		return
	}

	if m.lastSample.IsZero() {
		m.lastSample = now
		m.samplePassLocked(false)
	} else if elapsed := now.Sub(m.lastSample); elapsed >= m.tuning.UpdateInterval {
		m.samplePassLocked(false)
		// Anchor the next threshold to the cadence grid instead of to
		// now, so frame jitter does not accumulate into drift.
		m.lastSample = now.Add(-(elapsed % m.tuning.UpdateInterval))
	}

	// The pass may have re-entered the machine and stopped the loop.
	if !m.running || m.state == StateDestroyed {
		return
	}
	m.scheduleFrameLocked()
}

// samplePassLocked runs one sampling pass with the mutex released, so a
// transport event the video fires from inside the frame read (an mp4
// playhead crossing the end of the track does this) re-enters the
// machine instead of deadlocking against the lock the pass still holds.
// A pass requested while one is in flight is dropped; a dropped force
// cut still invalidates the previous buffer once the running pass
// returns, so the next sample stays a cut. Callers must re-check state
// afterward.
func (m *Machine) samplePassLocked(force bool) {
	if m.sampling {
		if force {
			m.pendingCut = true
		}
		return
	}
	m.sampling = true
	weights := m.tuning.Weights
	m.mu.Unlock()
	if force {
		m.sampler.ForceCut(weights)
	} else {
		m.sampler.Sample(weights)
	}
	m.mu.Lock()
	m.sampling = false
	if m.pendingCut {
		m.pendingCut = false
		m.sampler.Invalidate()
	}
}

// resizeLocked resizes the surfaces and invalidates the previous buffer
// when the sampling dimensions changed.
func (m *Machine) resizeLocked() {
	if m.surfaces.Resize(m.tuning.Geometry) {
		if m.sampling {
			m.pendingCut = true
			return
		}
		m.sampler.Invalidate()
	}
}
