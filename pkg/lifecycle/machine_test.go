package lifecycle

import (
	"image"
	"testing"
	"time"

	"github.com/user/videoglow/pkg/blend"
	"github.com/user/videoglow/pkg/mocks"
	"github.com/user/videoglow/pkg/ports"
	"github.com/user/videoglow/pkg/sampler"
	"github.com/user/videoglow/pkg/surfaces"
)

type fixture struct {
	video    *mocks.VideoSource
	sched    *mocks.Scheduler
	renderer *mocks.Renderer
	resize   *mocks.ResizeObserver
	vis      *mocks.VisibilityObserver
	logger   *mocks.Logger
	sampler  *sampler.Sampler
	machine  *Machine
}

func defaultTuning() Tuning {
	return Tuning{
		UpdateInterval: 100 * time.Millisecond,
		Weights:        blend.Weights{Old: 0.85, New: 0.15},
		Geometry:       surfaces.Geometry{SampleDownscale: 0.1, SurfaceScale: 1},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	video := mocks.NewVideoSource()
	video.SetNativeSize(1000, 500)
	video.SetDisplayedSize(500, 250)
	video.SetReady(ports.HaveCurrentData)

	renderer := &mocks.Renderer{}
	logger := mocks.NewLogger()
	surf, err := surfaces.Create(renderer, video, defaultTuning().Geometry, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := &fixture{
		video:    video,
		sched:    mocks.NewScheduler(),
		renderer: renderer,
		resize:   mocks.NewResizeObserver(),
		vis:      mocks.NewVisibilityObserver(),
		logger:   logger,
		sampler:  sampler.New(video, surf, logger),
	}
	f.machine = New(video, f.sched, surf, f.sampler, f.resize, f.vis, logger, defaultTuning())
	return f
}

func (f *fixture) bindPlaying(t *testing.T) {
	t.Helper()
	f.machine.Bind()
	f.video.SetPaused(false)
	f.video.Fire(ports.EventPlay)
	if !f.machine.LoopRunning() {
		t.Fatal("loop must run after play")
	}
}

func TestBind_EntersReadyAndCuts(t *testing.T) {
	f := newFixture(t)
	f.machine.Bind()

	if got := f.machine.State(); got != StateReady {
		t.Errorf("state = %s, want ready", got)
	}
	if f.machine.LoopRunning() {
		t.Error("loop must not run while paused")
	}
	if f.renderer.Backdrop.WriteCalls != 1 {
		t.Errorf("backdrop writes = %d, want the initial cut", f.renderer.Backdrop.WriteCalls)
	}
}

func TestBind_StartsLoopForPlayingVideo(t *testing.T) {
	f := newFixture(t)
	f.video.SetPaused(false)
	f.machine.Bind()

	if got := f.machine.State(); got != StatePlaying {
		t.Errorf("state = %s, want playing", got)
	}
	if f.sched.PendingFrames() != 1 {
		t.Errorf("pending frames = %d, want 1", f.sched.PendingFrames())
	}
}

func TestPlayPause_ControlsLoop(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)

	// Starting again while running stays idempotent.
	f.video.Fire(ports.EventPlay)
	if f.sched.PendingFrames() != 1 {
		t.Errorf("pending frames = %d, want exactly 1", f.sched.PendingFrames())
	}

	f.video.Fire(ports.EventPause)
	if f.machine.LoopRunning() {
		t.Error("loop must stop on pause")
	}
	if got := f.machine.State(); got != StatePaused {
		t.Errorf("state = %s, want paused", got)
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("pause must cancel the pending frame callback")
	}

	// Stopping again stays idempotent.
	f.video.Fire(ports.EventPause)
}

func TestLoop_ThrottlesToUpdateInterval(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)
	base := f.renderer.Backdrop.WriteCalls

	t0 := time.Unix(100, 0)
	f.sched.Tick(t0) // first tick samples immediately
	if got := f.renderer.Backdrop.WriteCalls; got != base+1 {
		t.Fatalf("writes after first tick = %d, want %d", got, base+1)
	}

	f.sched.Tick(t0.Add(50 * time.Millisecond)) // below interval
	if got := f.renderer.Backdrop.WriteCalls; got != base+1 {
		t.Fatalf("a tick below the interval must not sample")
	}

	f.sched.Tick(t0.Add(100 * time.Millisecond))
	if got := f.renderer.Backdrop.WriteCalls; got != base+2 {
		t.Fatalf("writes = %d, want %d after the interval elapsed", got, base+2)
	}

	// The loop keeps rescheduling itself every frame.
	if f.sched.PendingFrames() != 1 {
		t.Errorf("pending frames = %d, want 1", f.sched.PendingFrames())
	}
}

func TestLoop_CadenceDoesNotDrift(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)
	base := f.renderer.Backdrop.WriteCalls

	t0 := time.Unix(100, 0)
	f.sched.Tick(t0)
	// 130ms of jitter: samples, and the next threshold anchors to
	// t0+100ms, not t0+130ms.
	f.sched.Tick(t0.Add(130 * time.Millisecond))
	// 105ms after the anchor, only 75ms after the late sample.
	f.sched.Tick(t0.Add(205 * time.Millisecond))

	if got := f.renderer.Backdrop.WriteCalls; got != base+3 {
		t.Errorf("writes = %d, want %d with an anchored cadence", got, base+3)
	}
}

func TestSeeked_ForcesCut(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)

	f.renderer.Sampling.Fill = 100
	f.sched.Tick(time.Unix(100, 0))
	if !f.sampler.HasPrevious() {
		t.Fatal("previous buffer must be established before the seek")
	}

	f.renderer.Sampling.Fill = 200
	f.video.Fire(ports.EventSeeked)

	// A blend against the pre-seek buffer could not equal the fresh
	// value; only a cut carries it through unchanged.
	for i, v := range f.renderer.Backdrop.LastWritten.Pix {
		if v != 200 {
			t.Fatalf("pix[%d] = %d, want the post-seek cut value 200", i, v)
		}
	}
	if !f.machine.LoopRunning() {
		t.Error("a seek must not stop the loop")
	}
}

func TestLoadStart_EntersLoading(t *testing.T) {
	f := newFixture(t)
	f.machine.Bind()

	f.video.Fire(ports.EventLoadStart)
	if got := f.machine.State(); got != StateLoading {
		t.Errorf("state = %s, want loading", got)
	}

	f.video.Fire(ports.EventCanPlay)
	if got := f.machine.State(); got != StateReady {
		t.Errorf("state = %s, want ready after canplay", got)
	}
}

func TestResizeSignals_AreDebounced(t *testing.T) {
	f := newFixture(t)
	f.machine.Bind()
	base := f.renderer.Backdrop.WriteCalls

	f.resize.Fire()
	f.resize.Fire()
	f.resize.Fire()
	if f.sched.PendingTimers() != 1 {
		t.Fatalf("pending timers = %d, want the signals coalesced into 1", f.sched.PendingTimers())
	}

	f.video.SetDisplayedSize(640, 320)
	f.sched.FireTimers()

	if got := f.renderer.Backdrop.WriteCalls; got != base+1 {
		t.Errorf("writes = %d, want exactly one post-debounce sample", got)
	}
	if f.renderer.Backdrop.DisplayW != 640 {
		t.Errorf("backdrop display width = %.0f, want 640", f.renderer.Backdrop.DisplayW)
	}
}

func TestResize_InvalidatesOnDimensionChange(t *testing.T) {
	f := newFixture(t)
	f.machine.Bind()
	if !f.sampler.HasPrevious() {
		t.Fatal("initial cut must establish the previous buffer")
	}

	f.renderer.Sampling.Fill = 100
	f.machine.SampleNow()

	// Double the native resolution: sampling dimensions change, the
	// next sample must be a cut rather than a mismatched blend.
	f.video.SetNativeSize(2000, 1000)
	f.resize.Fire()
	f.renderer.Sampling.Fill = 200
	f.sched.FireTimers()

	for i, v := range f.renderer.Backdrop.LastWritten.Pix {
		if v != 200 {
			t.Fatalf("pix[%d] = %d, want a cut after resize invalidation", i, v)
		}
	}
}

func TestVisibility_PausesAndResumesLoop(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)

	f.vis.Fire(false)
	if f.machine.LoopRunning() {
		t.Error("leaving the viewport must stop the loop")
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("leaving the viewport must cancel the pending callback")
	}

	f.vis.Fire(true)
	if !f.machine.LoopRunning() {
		t.Error("re-entering the viewport while playing must resume the loop")
	}
	f.vis.Fire(true)
	if f.sched.PendingFrames() != 1 {
		t.Errorf("pending frames = %d, want exactly 1", f.sched.PendingFrames())
	}
}

func TestVisibility_DoesNotResumeWhilePaused(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)
	f.video.Fire(ports.EventPause)
	f.video.SetPaused(true)

	f.vis.Fire(false)
	f.vis.Fire(true)
	if f.machine.LoopRunning() {
		t.Error("re-entering the viewport must not resume a paused video's loop")
	}
}

func TestDestroy_RetiresEverything(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)
	f.resize.Fire() // leave a debounce pending

	f.machine.Destroy()

	if got := f.machine.State(); got != StateDestroyed {
		t.Errorf("state = %s, want destroyed", got)
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("destroy must cancel the pending frame callback")
	}
	if f.sched.PendingTimers() != 0 {
		t.Error("destroy must cancel the pending debounce")
	}
	if f.video.HandlerCount() != 0 {
		t.Errorf("attached handlers = %d, want 0", f.video.HandlerCount())
	}
	if f.resize.ObserverCount() != 0 || f.vis.ObserverCount() != 0 {
		t.Error("destroy must disconnect all observers")
	}
	if !f.renderer.Backdrop.Removed {
		t.Error("destroy must remove the backdrop")
	}
}

func TestDestroy_IsIdempotentAndAbsorbing(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)
	writes := func() int { return f.renderer.Backdrop.WriteCalls }

	f.machine.Destroy()
	f.machine.Destroy()
	before := writes()

	// No event, signal, tick or public operation may sample again.
	f.video.Fire(ports.EventPlay)
	f.video.Fire(ports.EventSeeked)
	f.vis.Fire(true)
	f.sched.Tick(time.Unix(200, 0))
	f.machine.SampleNow()
	f.machine.ResizeNow()

	if writes() != before {
		t.Error("no sampling may happen after destroy")
	}
	if f.machine.LoopRunning() {
		t.Error("the loop must stay stopped after destroy")
	}
}

func TestDestroy_SafeWithCallbackInFlight(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)

	// A frame callback canceled after delivery began must become a
	// no-op once it observes the destroyed state.
	f.sched.Tick(time.Unix(100, 0))
	f.machine.Destroy()
	f.sched.Tick(time.Unix(101, 0))

	if f.sched.PendingFrames() != 0 {
		t.Error("no callback may reschedule itself after destroy")
	}
}

func TestLoop_SurvivesEndedFiredFromFrameRead(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)

	// A file-backed source fires ended from inside the frame read the
	// moment the playhead crosses the end of the track. The handler
	// runs on the same goroutine as the tick, so the machine must not
	// hold its mutex across the read.
	fired := false
	f.video.CurrentFrameFunc = func() (image.Image, error) {
		if !fired {
			fired = true
			f.video.SetPaused(true)
			f.video.Fire(ports.EventEnded)
		}
		return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
	}

	done := make(chan struct{})
	go func() {
		f.sched.Tick(time.Unix(100, 0))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick never returned after ended fired from the frame read")
	}

	if got := f.machine.State(); got != StateEnded {
		t.Errorf("state = %s, want ended", got)
	}
	if f.machine.LoopRunning() {
		t.Error("ended must stop the loop")
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("the stopped loop must not reschedule")
	}
}

func TestLoop_SeekFiredFromFrameReadStillCuts(t *testing.T) {
	f := newFixture(t)
	f.bindPlaying(t)

	f.renderer.Sampling.Fill = 100
	t0 := time.Unix(100, 0)
	f.sched.Tick(t0)
	if !f.sampler.HasPrevious() {
		t.Fatal("previous buffer must be established before the seek")
	}

	// The seek handler re-enters mid-pass; its force cut cannot run
	// while the pass holds the sampler, so it must carry over as an
	// invalidation and make the next pass a cut.
	fired := false
	f.video.CurrentFrameFunc = func() (image.Image, error) {
		if !fired {
			fired = true
			f.video.Fire(ports.EventSeeked)
		}
		return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
	}
	f.renderer.Sampling.Fill = 200
	f.sched.Tick(t0.Add(100 * time.Millisecond))

	f.renderer.Sampling.Fill = 250
	f.sched.Tick(t0.Add(200 * time.Millisecond))
	for i, v := range f.renderer.Backdrop.LastWritten.Pix {
		if v != 250 {
			t.Fatalf("pix[%d] = %d, want the post-seek cut value 250", i, v)
		}
	}
}
