// Package mp4video provides a file-backed video source. It demuxes a
// progressive MP4 with mp4ff, decodes the H.264 track through ffmpeg
// and plays the frames against a wall-clock playhead.
package mp4video

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/user/videoglow/pkg/ports"
)

// Video implements ports.VideoSource over a decoded MP4 file.
type Video struct {
	mu sync.Mutex

	state      ports.ReadyState
	frames     []*image.RGBA
	timestamps []int
	durationMs int
	nativeW    int
	nativeH    int
	displayW   float64
	displayH   float64

	paused    bool
	ended     bool
	basePosMs int
	startedAt time.Time

	handlers map[ports.VideoEvent]map[int]func()
	nextID   int

	now func() time.Time
}

// Open demuxes and decodes the MP4 at path. The returned video starts
// paused at position zero with all data available.
func Open(path string) (*Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}

	track, err := demux(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("demux video: %w", err)
	}

	var stream []byte
	for _, sample := range track.Samples {
		stream = append(stream, sample.Data...)
	}
	decoded, err := decodeStream(stream, track.Width, track.Height)
	if err != nil {
		return nil, fmt.Errorf("decode video: %w", err)
	}

	v := &Video{
		state:      ports.HaveNothing,
		durationMs: track.DurationMs,
		nativeW:    track.Width,
		nativeH:    track.Height,
		displayW:   float64(track.Width),
		displayH:   float64(track.Height),
		paused:     true,
		handlers:   make(map[ports.VideoEvent]map[int]func()),
		now:        time.Now,
	}
	// The decoder may emit fewer frames than the track has samples
	// when trailing B-frames are still buffered at EOF.
	n := len(decoded)
	if n > len(track.Samples) {
		n = len(track.Samples)
	}
	for i := 0; i < n; i++ {
		v.frames = append(v.frames, decoded[i])
		v.timestamps = append(v.timestamps, track.Samples[i].TimestampMs)
	}
	return v, nil
}

// Announce walks the readiness ladder and fires the matching events.
// Call it after event handlers are attached so they observe the load.
func (v *Video) Announce() {
	v.setState(ports.HaveNothing)
	v.emit(ports.EventLoadStart)
	v.setState(ports.HaveMetadata)
	v.emit(ports.EventLoadedMetadata)
	v.setState(ports.HaveEnoughData)
	v.emit(ports.EventCanPlay)
}

// ReadyState reports how much of the media is available.
func (v *Video) ReadyState() ports.ReadyState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// NativeSize returns the intrinsic pixel dimensions of the track.
func (v *Video) NativeSize() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nativeW, v.nativeH
}

// DisplayedSize returns the size the video occupies on screen.
func (v *Video) DisplayedSize() (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayW, v.displayH
}

// SetDisplayedSize overrides the on-screen box, defaulting to native.
func (v *Video) SetDisplayedSize(w, h float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.displayW, v.displayH = w, h
}

// Paused reports whether playback is stopped.
func (v *Video) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paused
}

// FrameCount returns the number of decoded frames.
func (v *Video) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.frames)
}

// Duration returns the track length.
func (v *Video) Duration() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return time.Duration(v.durationMs) * time.Millisecond
}

// Position returns the current playhead.
func (v *Video) Position() time.Duration {
	v.mu.Lock()
	pos, hitEnd := v.positionLocked()
	v.mu.Unlock()
	if hitEnd {
		v.emit(ports.EventEnded)
	}
	return time.Duration(pos) * time.Millisecond
}

// CurrentFrame returns the decoded frame under the playhead.
func (v *Video) CurrentFrame() (image.Image, error) {
	v.mu.Lock()
	if len(v.frames) == 0 {
		v.mu.Unlock()
		return nil, errors.New("mp4video: no frames decoded")
	}
	pos, hitEnd := v.positionLocked()
	idx := sort.Search(len(v.timestamps), func(i int) bool {
		return v.timestamps[i] > pos
	}) - 1
	if idx < 0 {
		idx = 0
	}
	frame := v.frames[idx]
	v.mu.Unlock()

	if hitEnd {
		v.emit(ports.EventEnded)
	}
	return frame, nil
}

// Play starts or resumes playback. Playing past the end restarts from
// the beginning, like the HTML media element does.
func (v *Video) Play() {
	v.mu.Lock()
	if !v.paused {
		v.mu.Unlock()
		return
	}
	if v.ended {
		v.basePosMs = 0
		v.ended = false
	}
	v.paused = false
	v.startedAt = v.now()
	v.mu.Unlock()
	v.emit(ports.EventPlay)
}

// Pause freezes the playhead.
func (v *Video) Pause() {
	v.mu.Lock()
	if v.paused {
		v.mu.Unlock()
		return
	}
	pos, _ := v.positionLocked()
	v.basePosMs = pos
	v.paused = true
	v.mu.Unlock()
	v.emit(ports.EventPause)
}

// SeekTo moves the playhead, clamped to the track bounds.
func (v *Video) SeekTo(pos time.Duration) {
	ms := int(pos / time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	v.mu.Lock()
	if ms > v.durationMs {
		ms = v.durationMs
	}
	v.basePosMs = ms
	v.ended = false
	if !v.paused {
		v.startedAt = v.now()
	}
	v.mu.Unlock()
	v.emit(ports.EventSeeked)
}

// On registers an event handler and returns its detach function.
func (v *Video) On(event ports.VideoEvent, fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.handlers[event] == nil {
		v.handlers[event] = make(map[int]func())
	}
	id := v.nextID
	v.nextID++
	v.handlers[event][id] = fn

	detached := false
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if detached {
			return
		}
		detached = true
		delete(v.handlers[event], id)
	}
}

// positionLocked computes the playhead in milliseconds. The second
// return value is true exactly once when playback first crosses the
// end of the track; the caller fires ended outside the lock.
func (v *Video) positionLocked() (int, bool) {
	if v.paused {
		return v.basePosMs, false
	}
	pos := v.basePosMs + int(v.now().Sub(v.startedAt)/time.Millisecond)
	if pos < v.durationMs {
		return pos, false
	}
	v.basePosMs = v.durationMs
	v.paused = true
	hitEnd := !v.ended
	v.ended = true
	return v.durationMs, hitEnd
}

func (v *Video) setState(s ports.ReadyState) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

// emit runs the handlers for event. The set is copied first so a
// handler may detach itself or call back into the video.
func (v *Video) emit(event ports.VideoEvent) {
	v.mu.Lock()
	fns := make([]func(), 0, len(v.handlers[event]))
	for _, fn := range v.handlers[event] {
		fns = append(fns, fn)
	}
	v.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Ensure Video implements ports.VideoSource
var _ ports.VideoSource = (*Video)(nil)
