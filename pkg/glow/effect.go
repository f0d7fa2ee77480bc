package glow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/videoglow/pkg/lifecycle"
	"github.com/user/videoglow/pkg/ports"
	"github.com/user/videoglow/pkg/sampler"
	"github.com/user/videoglow/pkg/surfaces"
)

// Deps bundles the platform capabilities one effect runs against.
// Renderer and Scheduler are required; the observers are optional and
// their absence degrades behavior without ever failing.
type Deps struct {
	Renderer  ports.Renderer
	Scheduler ports.Scheduler

	// Resize observes the video's displayed box. When nil,
	// WindowResize is used as a coarser fallback; when both are nil
	// the effect only resizes on transport events.
	Resize       ports.ResizeObserver
	WindowResize ports.ResizeObserver

	// Visibility observes viewport intersection. When nil the sampling
	// loop never auto-pauses for off-screen video.
	Visibility ports.VisibilityObserver

	// Logger defaults to a no-op logger when nil.
	Logger ports.Logger
}

// Effect is one ambient glow bound to one video source. Instances are
// fully independent of each other; an Effect owns its two surfaces and
// its previous frame buffer exclusively.
type Effect struct {
	mu        sync.Mutex
	cfg       Config
	surfaces  *surfaces.Manager
	machine   *lifecycle.Machine
	logger    ports.Logger
	destroyed bool
}

// New creates an Effect bound to video, resolves opts over the default
// configuration, builds the surfaces and wires the lifecycle machine,
// then performs the first resize and force-cut sample.
//
// The only failures are construction-time: a nil video or required
// capability, or a video with no mount target for the backdrop. Every
// later problem is absorbed and logged instead.
func New(video ports.VideoSource, opts Options, deps Deps) (*Effect, error) {
	if video == nil {
		return nil, errors.New("glow: video source is nil")
	}
	if deps.Renderer == nil {
		return nil, errors.New("glow: renderer capability is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("glow: scheduler capability is required")
	}
	log := deps.Logger
	if log == nil {
		log = noopLogger{}
	}

	cfg := Resolve(opts, DefaultConfig())

	surf, err := surfaces.Create(deps.Renderer, video, cfg.Geometry(), log)
	if err != nil {
		return nil, fmt.Errorf("glow: %w", err)
	}
	surf.ApplyStyle(cfg.Style())

	smp := sampler.New(video, surf, log)

	// Select the resize capability once at construction.
	resize := deps.Resize
	if resize == nil {
		resize = deps.WindowResize
	}

	machine := lifecycle.New(video, deps.Scheduler, surf, smp, resize, deps.Visibility, log, lifecycle.Tuning{
		UpdateInterval: cfg.UpdateInterval,
		Weights:        cfg.Weights(),
		Geometry:       cfg.Geometry(),
	})

	e := &Effect{
		cfg:      cfg,
		surfaces: surf,
		machine:  machine,
		logger:   log.WithComponent("glow"),
	}
	machine.Bind()
	return e, nil
}

// UpdateOptions merges opts over the current configuration. The
// responsiveness-overrides-weights rule applies on every merge, not
// just at construction. Presentation filters are re-applied and one
// non-forced sample pass runs so visual changes show even while
// paused; surfaces resize only when a dimension-affecting field
// changed. After Destroy this is a warned no-op.
func (e *Effect) UpdateOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		e.logger.Warn("UpdateOptions ignored: effect already destroyed")
		return
	}

	prev := e.cfg
	e.cfg = Resolve(opts, prev)

	e.machine.UpdateTuning(lifecycle.Tuning{
		UpdateInterval: e.cfg.UpdateInterval,
		Weights:        e.cfg.Weights(),
		Geometry:       e.cfg.Geometry(),
	})
	e.surfaces.ApplyStyle(e.cfg.Style())

	if e.cfg.SampleDownscale != prev.SampleDownscale || e.cfg.SurfaceScale != prev.SurfaceScale {
		e.machine.ResizeNow()
	}
	e.machine.SampleNow()
}

// Destroy tears the effect down: the sampling loop stops, all pending
// callbacks are retired, listeners and observers detach and the
// backdrop leaves its mount point. Destroy is idempotent; repeated
// calls warn and return.
func (e *Effect) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		e.logger.Warn("Destroy ignored: effect already destroyed")
		return
	}
	e.destroyed = true
	e.machine.Destroy()
}

// IsDestroyed reports whether Destroy has run.
func (e *Effect) IsDestroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// Config returns the current resolved configuration.
func (e *Effect) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// State returns the lifecycle state of the effect.
func (e *Effect) State() lifecycle.State {
	return e.machine.State()
}

// noopLogger discards all messages; it backs a nil Deps.Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...interface{})       {}
func (noopLogger) Info(msg string, args ...interface{})        {}
func (noopLogger) Warn(msg string, args ...interface{})        {}
func (noopLogger) Error(msg string, args ...interface{})       {}
func (noopLogger) WithComponent(component string) ports.Logger { return noopLogger{} }

var _ ports.Logger = noopLogger{}
