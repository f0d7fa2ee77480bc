package ports

import (
	"image"
)

// PreviewSink abstracts output of composited preview frames.
// It allows saving rendered results for inspection and debugging.
type PreviewSink interface {
	// Enabled returns true if preview output is enabled.
	Enabled() bool

	// SavePreviewFrame saves a composited preview frame (backdrop plus
	// video).
	SavePreviewFrame(index int, img image.Image) error

	// SaveBackdropFrame saves the bare backdrop contents.
	SaveBackdropFrame(index int, img image.Image) error

	// SaveConfigJSON saves the resolved effect configuration as JSON.
	SaveConfigJSON(data []byte) error
}
