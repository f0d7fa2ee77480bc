package mocks

import (
	"image"

	"github.com/user/videoglow/pkg/ports"
)

// Surface is a mock implementation of ports.Surface that records every
// operation.
type Surface struct {
	W, H int

	// Fill is the channel value ReadPixels fills fresh buffers with.
	Fill uint8

	DrawErr  error
	ReadErr  error
	WriteErr error

	ResizeCalls int
	DrawCalls   int
	ReadCalls   int
	WriteCalls  int

	// LastWritten is the buffer most recently passed to WritePixels.
	LastWritten *image.RGBA
}

func (s *Surface) Size() (int, int) {
	return s.W, s.H
}

func (s *Surface) Resize(width, height int) {
	s.ResizeCalls++
	s.W, s.H = width, height
}

func (s *Surface) DrawFrame(img image.Image) error {
	if s.DrawErr != nil {
		return s.DrawErr
	}
	s.DrawCalls++
	return nil
}

func (s *Surface) ReadPixels() (*image.RGBA, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	s.ReadCalls++
	buf := image.NewRGBA(image.Rect(0, 0, s.W, s.H))
	for i := range buf.Pix {
		buf.Pix[i] = s.Fill
	}
	return buf, nil
}

func (s *Surface) WritePixels(buf *image.RGBA) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.WriteCalls++
	s.LastWritten = buf
	return nil
}

var _ ports.Surface = (*Surface)(nil)

// Backdrop is a mock implementation of ports.BackdropSurface.
type Backdrop struct {
	Surface

	DisplayW float64
	DisplayH float64
	Style    ports.BackdropStyle

	StyleCalls int
	Removed    bool
}

func (b *Backdrop) SetDisplaySize(width, height float64) {
	b.DisplayW, b.DisplayH = width, height
}

func (b *Backdrop) SetStyle(style ports.BackdropStyle) {
	b.StyleCalls++
	b.Style = style
}

func (b *Backdrop) Remove() {
	b.Removed = true
}

var _ ports.BackdropSurface = (*Backdrop)(nil)

// Renderer is a mock implementation of ports.Renderer. It retains the
// surfaces it creates so tests can inspect them.
type Renderer struct {
	CreateSamplingSurfaceFunc func(width, height int) (ports.Surface, error)
	CreateBackdropFunc        func(video ports.VideoSource) (ports.BackdropSurface, error)

	// Sampling and Backdrop are the most recently created surfaces
	// when the Func fields are unset.
	Sampling *Surface
	Backdrop *Backdrop
}

func (m *Renderer) CreateSamplingSurface(width, height int) (ports.Surface, error) {
	if m.CreateSamplingSurfaceFunc != nil {
		return m.CreateSamplingSurfaceFunc(width, height)
	}
	m.Sampling = &Surface{W: width, H: height}
	return m.Sampling, nil
}

func (m *Renderer) CreateBackdrop(video ports.VideoSource) (ports.BackdropSurface, error) {
	if m.CreateBackdropFunc != nil {
		return m.CreateBackdropFunc(video)
	}
	m.Backdrop = &Backdrop{}
	return m.Backdrop, nil
}

var _ ports.Renderer = (*Renderer)(nil)
