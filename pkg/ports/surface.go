package ports

import (
	"image"
)

// Surface is a 2D raster target with explicit pixel dimensions.
type Surface interface {
	// Size returns the pixel dimensions of the surface.
	Size() (width, height int)

	// Resize reallocates the raster to width×height pixels.
	// Existing contents are discarded.
	Resize(width, height int)

	// DrawFrame draws img scaled to cover the full surface.
	DrawFrame(img image.Image) error

	// ReadPixels returns the full surface contents as an RGBA buffer.
	ReadPixels() (*image.RGBA, error)

	// WritePixels replaces the full surface contents with buf.
	// buf must match the surface's pixel dimensions.
	WritePixels(buf *image.RGBA) error
}

// BackdropStyle is the presentation filter descriptor applied to the
// visible surface. It is independent of the surface's pixel contents.
type BackdropStyle struct {
	BlurRadius float64 // blur radius in display units
	Opacity    float64 // 0..1
	Brightness float64 // multiplier, 1 = unchanged
	Saturation float64 // multiplier, 1 = unchanged
}

// BackdropSurface is the visible glow layer stacked immediately behind
// the video in paint order.
type BackdropSurface interface {
	Surface

	// SetDisplaySize sets the on-screen size of the backdrop in
	// display units, independent of its pixel dimensions.
	SetDisplaySize(width, height float64)

	// SetStyle applies the presentation filter descriptor.
	SetStyle(style BackdropStyle)

	// Remove detaches the backdrop from its mount point. The surface
	// must not be used afterwards.
	Remove()
}

// Renderer creates the raster surfaces one glow effect owns.
type Renderer interface {
	// CreateSamplingSurface allocates the small offscreen sampling target.
	CreateSamplingSurface(width, height int) (Surface, error)

	// CreateBackdrop allocates the visible surface mounted behind the
	// video. It fails when the video has no mount target to attach to.
	CreateBackdrop(video VideoSource) (BackdropSurface, error)
}
