package surfaces

import (
	"errors"
	"testing"

	"github.com/user/videoglow/pkg/mocks"
	"github.com/user/videoglow/pkg/ports"
)

func newFixture() (*mocks.Renderer, *mocks.VideoSource, *mocks.Logger) {
	return &mocks.Renderer{}, mocks.NewVideoSource(), mocks.NewLogger()
}

func TestCreate_BackdropFailureIsFatal(t *testing.T) {
	renderer, video, log := newFixture()
	renderer.CreateBackdropFunc = func(v ports.VideoSource) (ports.BackdropSurface, error) {
		return nil, errors.New("no mount target")
	}

	_, err := Create(renderer, video, Geometry{SampleDownscale: 0.08, SurfaceScale: 1.08}, log)
	if err == nil {
		t.Fatal("expected construction error when the backdrop cannot mount")
	}
}

func TestResize_ComputesDimensions(t *testing.T) {
	renderer, video, log := newFixture()
	video.SetNativeSize(1920, 1080)
	video.SetDisplayedSize(800, 450)

	m, err := Create(renderer, video, Geometry{SampleDownscale: 0.08, SurfaceScale: 1.08}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// round(1920*0.08)=154, round(1080*0.08)=86
	if w, h := m.Sampling().Size(); w != 154 || h != 86 {
		t.Errorf("sampling size = %dx%d, want 154x86", w, h)
	}
	if w, h := renderer.Backdrop.Size(); w != 154 || h != 86 {
		t.Errorf("backdrop pixel size = %dx%d, want 154x86", w, h)
	}
	if renderer.Backdrop.DisplayW != 864 || renderer.Backdrop.DisplayH != 486 {
		t.Errorf("backdrop display size = %.0fx%.0f, want 864x486",
			renderer.Backdrop.DisplayW, renderer.Backdrop.DisplayH)
	}
}

func TestResize_NoOpWithoutUsableDimensions(t *testing.T) {
	renderer, video, log := newFixture()

	m, err := Create(renderer, video, Geometry{SampleDownscale: 0.08, SurfaceScale: 1.08}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if renderer.Sampling.ResizeCalls != 0 {
		t.Errorf("resize calls = %d, want 0 while dimensions are unknown", renderer.Sampling.ResizeCalls)
	}
	if invalidated := m.Resize(Geometry{SampleDownscale: 0.2, SurfaceScale: 1}); invalidated {
		t.Error("resize with zero dimensions must not invalidate")
	}
}

func TestResize_FallsBackToDisplayedBox(t *testing.T) {
	renderer, video, log := newFixture()
	video.SetDisplayedSize(640, 360)

	m, err := Create(renderer, video, Geometry{SampleDownscale: 0.1, SurfaceScale: 1}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w, h := m.Sampling().Size(); w != 64 || h != 36 {
		t.Errorf("sampling size = %dx%d, want 64x36 from the displayed box", w, h)
	}
}

func TestResize_MinimumOnePixel(t *testing.T) {
	renderer, video, log := newFixture()
	video.SetNativeSize(20, 4)

	m, err := Create(renderer, video, Geometry{SampleDownscale: 0.01, SurfaceScale: 1}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w, h := m.Sampling().Size(); w != 1 || h != 1 {
		t.Errorf("sampling size = %dx%d, want 1x1 floor", w, h)
	}
}

func TestResize_ReportsInvalidation(t *testing.T) {
	renderer, video, log := newFixture()
	video.SetNativeSize(1000, 500)
	video.SetDisplayedSize(500, 250)

	m, err := Create(renderer, video, Geometry{SampleDownscale: 0.1, SurfaceScale: 1}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if invalidated := m.Resize(Geometry{SampleDownscale: 0.1, SurfaceScale: 1}); invalidated {
		t.Error("unchanged dimensions must not invalidate")
	}
	if invalidated := m.Resize(Geometry{SampleDownscale: 0.2, SurfaceScale: 1}); !invalidated {
		t.Error("changed sampling dimensions must invalidate the previous buffer")
	}
}

func TestApplyStyleAndRelease(t *testing.T) {
	renderer, video, log := newFixture()

	m, err := Create(renderer, video, Geometry{SampleDownscale: 0.08, SurfaceScale: 1.08}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	style := ports.BackdropStyle{BlurRadius: 96, Opacity: 0.65, Brightness: 1.1, Saturation: 1.2}
	m.ApplyStyle(style)
	if renderer.Backdrop.Style != style {
		t.Errorf("style = %+v, want %+v", renderer.Backdrop.Style, style)
	}

	m.Release()
	if !renderer.Backdrop.Removed {
		t.Error("release must remove the backdrop")
	}

	// Released managers ignore further operations.
	m.ApplyStyle(ports.BackdropStyle{})
	m.Release()
	if renderer.Backdrop.Style != style {
		t.Error("style must not change after release")
	}
}
