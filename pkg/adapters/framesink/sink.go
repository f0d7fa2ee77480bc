// Package framesink provides a file-based preview sink implementation.
package framesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/user/videoglow/pkg/ports"
)

// Sink saves preview output as PNG files under a base directory.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new frame sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SavePreviewFrame saves a composited preview frame.
func (s *Sink) SavePreviewFrame(index int, img image.Image) error {
	return s.savePNG(filepath.Join("preview", fmt.Sprintf("frame-%04d.png", index)), img)
}

// SaveBackdropFrame saves the bare backdrop contents.
func (s *Sink) SaveBackdropFrame(index int, img image.Image) error {
	return s.savePNG(filepath.Join("backdrop", fmt.Sprintf("frame-%04d.png", index)), img)
}

// SaveConfigJSON saves the resolved effect configuration as JSON.
func (s *Sink) SaveConfigJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "config.json"), data)
}

func (s *Sink) savePNG(rel string, img image.Image) error {
	dir := filepath.Join(s.baseDir, filepath.Dir(rel))
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, rel), buf.Bytes())
}

// Ensure Sink implements ports.PreviewSink
var _ ports.PreviewSink = (*Sink)(nil)
