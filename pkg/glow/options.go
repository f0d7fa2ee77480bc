// Package glow provides the public ambient glow effect API.
package glow

import (
	"time"

	"github.com/user/videoglow/pkg/blend"
	"github.com/user/videoglow/pkg/ports"
	"github.com/user/videoglow/pkg/surfaces"
)

// Options is a partially-specified effect configuration. Nil fields
// keep their previous (or default) values when resolved.
type Options struct {
	// BlurRadius is the backdrop blur radius in display units.
	BlurRadius *float64 `yaml:"blur"`

	// Opacity is the backdrop opacity, 0..1.
	Opacity *float64 `yaml:"opacity"`

	// Brightness is the backdrop brightness multiplier.
	Brightness *float64 `yaml:"brightness"`

	// Saturation is the backdrop saturation multiplier.
	Saturation *float64 `yaml:"saturate"`

	// SurfaceScale is the backdrop displayed size as a multiple of the
	// video's displayed box.
	SurfaceScale *float64 `yaml:"scale"`

	// SampleDownscale is the sampling resolution as a fraction of the
	// native video resolution, 0.01..0.5.
	SampleDownscale *float64 `yaml:"downscale"`

	// UpdateIntervalMs is the minimum time between sampling passes
	// while playing, in milliseconds.
	UpdateIntervalMs *int `yaml:"update_interval_ms"`

	// BlendOld and BlendNew are the temporal blend weights, each 0..1.
	// They are not required to sum to 1; sums above or below 1 drift
	// the glow brighter or darker on purpose.
	BlendOld *float64 `yaml:"blend_old"`
	BlendNew *float64 `yaml:"blend_new"`

	// Responsiveness derives both blend weights as new=r, old=1-r and
	// overrides BlendOld/BlendNew whenever it is set.
	Responsiveness *float64 `yaml:"responsiveness"`
}

// Config is a fully resolved effect configuration. Every field carries
// a usable value; no component ever reads a partial configuration.
type Config struct {
	BlurRadius      float64
	Opacity         float64
	Brightness      float64
	Saturation      float64
	SurfaceScale    float64
	SampleDownscale float64
	UpdateInterval  time.Duration
	BlendOld        float64
	BlendNew        float64
}

// DefaultConfig returns the default effect configuration.
func DefaultConfig() Config {
	return Config{
		BlurRadius:      96,
		Opacity:         0.65,
		Brightness:      1.1,
		Saturation:      1.2,
		SurfaceScale:    1.08,
		SampleDownscale: 0.08,
		UpdateInterval:  100 * time.Millisecond,
		BlendOld:        0.85,
		BlendNew:        0.15,
	}
}

// Resolve merges opts over prev and returns the resolved configuration.
// The same function runs at construction (with prev = DefaultConfig)
// and on every update; option resolution is never stateful beyond the
// previous resolved value. Responsiveness, when present, wins over
// explicit blend weights supplied in the same call.
func Resolve(opts Options, prev Config) Config {
	cfg := prev

	if opts.BlurRadius != nil {
		cfg.BlurRadius = clampMin(*opts.BlurRadius, 0)
	}
	if opts.Opacity != nil {
		cfg.Opacity = clampRange(*opts.Opacity, 0, 1)
	}
	if opts.Brightness != nil {
		cfg.Brightness = clampMin(*opts.Brightness, 0.01)
	}
	if opts.Saturation != nil {
		cfg.Saturation = clampMin(*opts.Saturation, 0)
	}
	if opts.SurfaceScale != nil {
		cfg.SurfaceScale = clampMin(*opts.SurfaceScale, 0.01)
	}
	if opts.SampleDownscale != nil {
		cfg.SampleDownscale = clampRange(*opts.SampleDownscale, 0.01, 0.5)
	}
	if opts.UpdateIntervalMs != nil && *opts.UpdateIntervalMs > 0 {
		cfg.UpdateInterval = time.Duration(*opts.UpdateIntervalMs) * time.Millisecond
	}
	if opts.BlendOld != nil {
		cfg.BlendOld = clampRange(*opts.BlendOld, 0, 1)
	}
	if opts.BlendNew != nil {
		cfg.BlendNew = clampRange(*opts.BlendNew, 0, 1)
	}
	if opts.Responsiveness != nil {
		r := clampRange(*opts.Responsiveness, 0, 1)
		cfg.BlendNew = r
		cfg.BlendOld = 1 - r
	}

	return cfg
}

// Style returns the backdrop presentation descriptor for cfg.
func (c Config) Style() ports.BackdropStyle {
	return ports.BackdropStyle{
		BlurRadius: c.BlurRadius,
		Opacity:    c.Opacity,
		Brightness: c.Brightness,
		Saturation: c.Saturation,
	}
}

// Geometry returns the surface geometry fields of cfg.
func (c Config) Geometry() surfaces.Geometry {
	return surfaces.Geometry{
		SampleDownscale: c.SampleDownscale,
		SurfaceScale:    c.SurfaceScale,
	}
}

// Weights returns the temporal blend weights of cfg.
func (c Config) Weights() blend.Weights {
	return blend.Weights{Old: c.BlendOld, New: c.BlendNew}
}

func clampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
