package mp4video

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"runtime"
)

// ErrFFmpegNotFound is returned when no usable ffmpeg binary exists.
var ErrFFmpegNotFound = errors.New("mp4video: ffmpeg not found")

var customFFmpegPath string

// SetFFmpegPath overrides ffmpeg discovery with an explicit binary path.
func SetFFmpegPath(path string) {
	customFFmpegPath = path
}

// findFFmpeg searches for ffmpeg in PATH and common locations.
func findFFmpeg() (string, error) {
	if customFFmpegPath != "" {
		if _, err := os.Stat(customFFmpegPath); err == nil {
			return customFFmpegPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customFFmpegPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// decodeStream decodes a whole Annex B H.264 stream in a single ffmpeg
// run, reading raw RGBA planes off stdout. One invocation for the whole
// track beats per-frame processes by a wide margin.
func decodeStream(annexB []byte, width, height int) ([]*image.RGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("mp4video: invalid frame size %dx%d", width, height)
	}
	ffmpegPath, err := findFFmpeg()
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(ffmpegPath,
		"-f", "h264",
		"-i", "-",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-",
	)
	cmd.Stdin = bytes.NewReader(annexB)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w\nstderr: %s", err, stderr.String())
	}

	frameSize := width * height * 4
	raw := stdout.Bytes()
	count := len(raw) / frameSize
	if count == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frames\nstderr: %s", stderr.String())
	}

	frames := make([]*image.RGBA, 0, count)
	for i := 0; i < count; i++ {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		copy(img.Pix, raw[i*frameSize:(i+1)*frameSize])
		frames = append(frames, img)
	}
	return frames, nil
}
