package ports

import (
	"time"
)

// Scheduler provides the two suspension points the effect relies on:
// a per-visual-frame callback and a one-shot delay timer. Callbacks may
// be delivered from a separate goroutine; callers serialize their own
// state. A returned cancel function prevents a callback that has not
// yet begun executing and is safe to call more than once; callers must
// re-check their own state inside callbacks to tolerate one already in
// flight at cancel time.
type Scheduler interface {
	// RequestFrame schedules fn for the next visual frame. fn receives
	// a monotonic timestamp for that frame.
	RequestFrame(fn func(now time.Time)) (cancel func())

	// After schedules fn to run once after d.
	After(d time.Duration, fn func()) (cancel func())
}
