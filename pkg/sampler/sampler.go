// Package sampler produces individual glow updates from the video.
package sampler

import (
	"image"

	"github.com/user/videoglow/pkg/blend"
	"github.com/user/videoglow/pkg/ports"
	"github.com/user/videoglow/pkg/surfaces"
)

// Sampler draws the current video frame into the sampling surface,
// blends it with the previous frame buffer and writes the result onto
// the backdrop. It is the sole owner of the previous frame buffer.
type Sampler struct {
	video    ports.VideoSource
	surfaces *surfaces.Manager
	logger   ports.Logger
	prev     *image.RGBA
}

// New creates a Sampler bound to one video and its surfaces.
func New(video ports.VideoSource, surf *surfaces.Manager, log ports.Logger) *Sampler {
	return &Sampler{
		video:    video,
		surfaces: surf,
		logger:   log.WithComponent("sampler"),
	}
}

// Invalidate drops the previous frame buffer so the next sample is a
// hard cut with no temporal blending. Used whenever continuity with the
// prior buffer would be wrong: new source, seek, resume, surface resize.
func (s *Sampler) Invalidate() {
	s.prev = nil
}

// HasPrevious reports whether a previous frame buffer is established.
func (s *Sampler) HasPrevious() bool {
	return s.prev != nil
}

// Sample performs one sampling pass. When the video has no decodable
// frame yet, or any pixel transfer fails, the pass degrades to a no-op
// and the backdrop keeps its last good contents.
func (s *Sampler) Sample(w blend.Weights) {
	if s.video.ReadyState() < ports.HaveCurrentData {
		return
	}
	sw, _ := s.surfaces.Sampling().Size()
	if sw == 0 {
		return
	}

	frame, err := s.video.CurrentFrame()
	if err != nil {
		s.logger.Warn("Frame read failed, keeping last glow: %s", err)
		return
	}
	if frame == nil {
		return
	}

	if err := s.surfaces.Sampling().DrawFrame(frame); err != nil {
		s.logger.Warn("Frame draw failed, keeping last glow: %s", err)
		return
	}

	fresh, err := s.surfaces.Sampling().ReadPixels()
	if err != nil {
		s.logger.Warn("Pixel readback failed, keeping last glow: %s", err)
		return
	}

	out := fresh
	if s.prev != nil && sameSize(s.prev, fresh) {
		out = blend.Apply(s.prev, fresh, w.Old, w.New)
	}

	if err := s.surfaces.Backdrop().WritePixels(out); err != nil {
		s.logger.Warn("Backdrop write failed, keeping last glow: %s", err)
		return
	}
	s.prev = out
}

// ForceCut discards the previous buffer and samples, writing the fresh
// frame directly without blending.
func (s *Sampler) ForceCut(w blend.Weights) {
	s.Invalidate()
	s.Sample(w)
}

func sameSize(a, b *image.RGBA) bool {
	return a.Rect.Dx() == b.Rect.Dx() && a.Rect.Dy() == b.Rect.Dy()
}
