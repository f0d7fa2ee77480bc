// Package surfaces manages the sampling and backdrop raster surfaces.
package surfaces

import (
	"fmt"
	"math"

	"github.com/user/videoglow/pkg/ports"
)

// Geometry holds the configuration fields that determine surface
// dimensions.
type Geometry struct {
	// SampleDownscale is the sampling resolution as a fraction of the
	// video's native resolution.
	SampleDownscale float64

	// SurfaceScale is the backdrop's displayed size as a multiple of
	// the video's displayed box.
	SurfaceScale float64
}

// Manager owns the two raster surfaces of one glow effect and keeps
// their dimensions synchronized to the source video. The sampling
// surface and the backdrop share pixel dimensions; the backdrop
// additionally carries a displayed size and a filter style.
type Manager struct {
	video    ports.VideoSource
	sampling ports.Surface
	backdrop ports.BackdropSurface
	logger   ports.Logger
	released bool
}

// Create allocates both surfaces and performs the initial resize.
// Both returned errors are construction-fatal: nothing downstream can
// recover from a missing mount target or a missing raster capability.
func Create(renderer ports.Renderer, video ports.VideoSource, geo Geometry, log ports.Logger) (*Manager, error) {
	backdrop, err := renderer.CreateBackdrop(video)
	if err != nil {
		return nil, fmt.Errorf("create backdrop: %w", err)
	}

	sampling, err := renderer.CreateSamplingSurface(1, 1)
	if err != nil {
		backdrop.Remove()
		return nil, fmt.Errorf("create sampling surface: %w", err)
	}

	m := &Manager{
		video:    video,
		sampling: sampling,
		backdrop: backdrop,
		logger:   log.WithComponent("surfaces"),
	}
	m.Resize(geo)
	return m, nil
}

// Sampling returns the offscreen sampling surface.
func (m *Manager) Sampling() ports.Surface {
	return m.sampling
}

// Backdrop returns the visible backdrop surface.
func (m *Manager) Backdrop() ports.BackdropSurface {
	return m.backdrop
}

// Resize recomputes both surfaces' dimensions from the video's current
// geometry. It reports whether the sampling pixel dimensions changed,
// in which case the caller must discard its previous frame buffer: a
// buffer sized for the old resolution cannot be blended with a
// differently-sized sample.
//
// While the video has no usable dimensions yet (metadata still loading)
// the resize is a no-op.
func (m *Manager) Resize(geo Geometry) (invalidated bool) {
	if m.released {
		return false
	}

	nw, nh := m.video.NativeSize()
	dw, dh := m.video.DisplayedSize()
	if nw <= 0 || nh <= 0 {
		// Decode metadata unavailable, fall back to the displayed box.
		nw, nh = int(dw), int(dh)
	}
	if nw <= 0 || nh <= 0 {
		return false
	}

	sw := scaleDim(nw, geo.SampleDownscale)
	sh := scaleDim(nh, geo.SampleDownscale)

	pw, ph := m.sampling.Size()
	if sw != pw || sh != ph {
		m.sampling.Resize(sw, sh)
		m.backdrop.Resize(sw, sh)
		invalidated = true
		m.logger.Debug("Surfaces resized to %dx%d px", sw, sh)
	}

	m.backdrop.SetDisplaySize(dw*geo.SurfaceScale, dh*geo.SurfaceScale)
	return invalidated
}

// ApplyStyle sets the backdrop's presentation filter descriptor.
// It is independent of pixel contents and callable at any time.
func (m *Manager) ApplyStyle(style ports.BackdropStyle) {
	if m.released {
		return
	}
	m.backdrop.SetStyle(style)
}

// Release removes the backdrop from its mount point. Further calls on
// the manager are no-ops.
func (m *Manager) Release() {
	if m.released {
		return
	}
	m.released = true
	m.backdrop.Remove()
}

// scaleDim scales a native dimension by the downscale factor, floored
// to a minimum of one pixel.
func scaleDim(dim int, downscale float64) int {
	scaled := int(math.Round(float64(dim) * downscale))
	if scaled < 1 {
		return 1
	}
	return scaled
}
