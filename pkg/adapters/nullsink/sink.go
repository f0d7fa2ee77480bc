// Package nullsink provides a no-op preview sink implementation.
package nullsink

import (
	"image"

	"github.com/user/videoglow/pkg/ports"
)

// Sink is a no-op implementation of ports.PreviewSink.
// It discards all preview output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SavePreviewFrame does nothing.
func (s *Sink) SavePreviewFrame(index int, img image.Image) error {
	return nil
}

// SaveBackdropFrame does nothing.
func (s *Sink) SaveBackdropFrame(index int, img image.Image) error {
	return nil
}

// SaveConfigJSON does nothing.
func (s *Sink) SaveConfigJSON(data []byte) error {
	return nil
}

// Ensure Sink implements ports.PreviewSink
var _ ports.PreviewSink = (*Sink)(nil)
