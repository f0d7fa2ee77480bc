// Package ports defines interfaces for platform capabilities.
package ports

import (
	"image"
)

// ReadyState mirrors the buffering readiness levels a media source reports.
// Sampling requires at least HaveCurrentData.
type ReadyState int

const (
	// HaveNothing means no media information is available yet.
	HaveNothing ReadyState = iota
	// HaveMetadata means dimensions and duration are known, no frame yet.
	HaveMetadata
	// HaveCurrentData means a frame is decodable at the current position.
	HaveCurrentData
	// HaveFutureData means at least one frame ahead is also buffered.
	HaveFutureData
	// HaveEnoughData means playback can proceed without stalling.
	HaveEnoughData
)

// VideoEvent identifies a transport event emitted by a video source.
type VideoEvent string

const (
	EventLoadStart      VideoEvent = "loadstart"
	EventLoadedMetadata VideoEvent = "loadedmetadata"
	EventCanPlay        VideoEvent = "canplay"
	EventPlay           VideoEvent = "play"
	EventPause          VideoEvent = "pause"
	EventEnded          VideoEvent = "ended"
	EventSeeked         VideoEvent = "seeked"
)

// VideoSource abstracts the media element the glow samples from.
// The effect only reads decode state, dimensions and frames; it never
// alters playback, source or control state.
type VideoSource interface {
	// ReadyState returns the current buffering readiness level.
	ReadyState() ReadyState

	// NativeSize returns the decoded frame dimensions in pixels.
	// Both are zero until metadata has loaded.
	NativeSize() (width, height int)

	// DisplayedSize returns the on-screen box of the video in display units.
	DisplayedSize() (width, height float64)

	// CurrentFrame returns the most recently decoded frame.
	// It fails when the frame cannot be read back (the cross-origin
	// taint case on browser-backed sources).
	CurrentFrame() (image.Image, error)

	// Paused reports whether playback is currently paused or ended.
	Paused() bool

	// On registers fn for the given transport event and returns a
	// detach function. Detaching twice is harmless.
	On(event VideoEvent, fn func()) (detach func())
}
