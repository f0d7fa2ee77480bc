package mocks

import (
	"image"

	"github.com/user/videoglow/pkg/ports"
)

// PreviewSink is a mock implementation of ports.PreviewSink.
type PreviewSink struct {
	enabled bool

	SavePreviewFrameFunc  func(index int, img image.Image) error
	SaveBackdropFrameFunc func(index int, img image.Image) error
	SaveConfigJSONFunc    func(data []byte) error

	PreviewFrames  int
	BackdropFrames int
}

// NewPreviewSink creates a mock sink with the given enabled flag.
func NewPreviewSink(enabled bool) *PreviewSink {
	return &PreviewSink{enabled: enabled}
}

func (m *PreviewSink) Enabled() bool {
	return m.enabled
}

func (m *PreviewSink) SavePreviewFrame(index int, img image.Image) error {
	if m.SavePreviewFrameFunc != nil {
		return m.SavePreviewFrameFunc(index, img)
	}
	m.PreviewFrames++
	return nil
}

func (m *PreviewSink) SaveBackdropFrame(index int, img image.Image) error {
	if m.SaveBackdropFrameFunc != nil {
		return m.SaveBackdropFrameFunc(index, img)
	}
	m.BackdropFrames++
	return nil
}

func (m *PreviewSink) SaveConfigJSON(data []byte) error {
	if m.SaveConfigJSONFunc != nil {
		return m.SaveConfigJSONFunc(data)
	}
	return nil
}

var _ ports.PreviewSink = (*PreviewSink)(nil)
