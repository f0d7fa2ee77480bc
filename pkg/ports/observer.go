package ports

// ResizeObserver reports size changes of the video's displayed box.
// A window-level implementation that fires on any viewport resize is an
// acceptable fallback when per-element observation is unavailable.
type ResizeObserver interface {
	// Observe registers fn and returns a detach function.
	Observe(fn func()) (detach func())
}

// VisibilityObserver reports whether the video intersects the viewport.
// This capability is optional; without it the sampling loop simply never
// auto-pauses for off-screen video.
type VisibilityObserver interface {
	// Observe registers fn and returns a detach function. fn is called
	// with true when the video enters the viewport and false when it
	// leaves.
	Observe(fn func(visible bool)) (detach func())
}
