// Package ggcompositor implements the raster surfaces using the gg
// library and golang.org/x/image scaling.
package ggcompositor

import (
	"errors"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/videoglow/pkg/ports"
)

// ErrNoMount is returned when a backdrop cannot attach behind the video.
var ErrNoMount = errors.New("ggcompositor: no mount target for backdrop")

// Compositor implements ports.Renderer. It acts as the mount target for
// backdrop surfaces and can composite backdrop and video into preview
// images.
type Compositor struct {
	mu       sync.Mutex
	closed   bool
	backdrop *Backdrop
}

// New creates a new Compositor.
func New() *Compositor {
	return &Compositor{}
}

// CreateSamplingSurface allocates an offscreen raster target.
func (c *Compositor) CreateSamplingSurface(width, height int) (ports.Surface, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// CreateBackdrop allocates the visible surface mounted on this
// compositor, stacked behind the video in preview compositing order.
func (c *Compositor) CreateBackdrop(video ports.VideoSource) (ports.BackdropSurface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || video == nil {
		return nil, ErrNoMount
	}
	c.backdrop = &Backdrop{
		Surface: Surface{img: image.NewRGBA(image.Rect(0, 0, 1, 1))},
	}
	return c.backdrop, nil
}

// Backdrop returns the most recently created backdrop, or nil.
func (c *Compositor) Backdrop() *Backdrop {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backdrop
}

// Close detaches the compositor; further backdrop creation fails.
func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Ensure Compositor implements ports.Renderer
var _ ports.Renderer = (*Compositor)(nil)

// Surface implements ports.Surface over an RGBA raster.
type Surface struct {
	mu  sync.Mutex
	img *image.RGBA
}

// Size returns the pixel dimensions of the surface.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.Rect.Dx(), s.img.Rect.Dy()
}

// Resize reallocates the raster, discarding its contents.
func (s *Surface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// DrawFrame draws img scaled to cover the full surface. A cheap
// bilinear kernel is enough here: the backdrop blur hides sampling
// artifacts anyway.
func (s *Surface) DrawFrame(img image.Image) error {
	if img == nil {
		return errors.New("ggcompositor: nil frame")
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return errors.New("ggcompositor: empty frame")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.ApproxBiLinear.Scale(s.img, s.img.Rect, img, bounds, draw.Src, nil)
	return nil
}

// ReadPixels returns a copy of the full surface contents.
func (s *Surface) ReadPixels() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out, nil
}

// WritePixels replaces the full surface contents with buf.
func (s *Surface) WritePixels(buf *image.RGBA) error {
	if buf == nil {
		return errors.New("ggcompositor: nil buffer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf.Rect.Dx() != s.img.Rect.Dx() || buf.Rect.Dy() != s.img.Rect.Dy() {
		return errors.New("ggcompositor: buffer size does not match surface")
	}
	copy(s.img.Pix, buf.Pix)
	return nil
}

// Ensure Surface implements ports.Surface
var _ ports.Surface = (*Surface)(nil)

// Backdrop implements ports.BackdropSurface. The display size and the
// filter style only affect preview compositing, never the raw pixels.
type Backdrop struct {
	Surface

	stateMu  sync.Mutex
	displayW float64
	displayH float64
	style    ports.BackdropStyle
	removed  bool
}

// SetDisplaySize sets the on-screen size of the backdrop.
func (b *Backdrop) SetDisplaySize(width, height float64) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.displayW, b.displayH = width, height
}

// DisplaySize returns the on-screen size of the backdrop.
func (b *Backdrop) DisplaySize() (float64, float64) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.displayW, b.displayH
}

// SetStyle applies the presentation filter descriptor.
func (b *Backdrop) SetStyle(style ports.BackdropStyle) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.style = style
}

// Style returns the current filter descriptor.
func (b *Backdrop) Style() ports.BackdropStyle {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.style
}

// Remove detaches the backdrop from the compositor.
func (b *Backdrop) Remove() {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.removed = true
}

// Removed reports whether the backdrop left its mount point.
func (b *Backdrop) Removed() bool {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.removed
}

// Ensure Backdrop implements ports.BackdropSurface
var _ ports.BackdropSurface = (*Backdrop)(nil)
