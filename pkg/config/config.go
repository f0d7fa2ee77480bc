// Package config provides configuration loading and management.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/videoglow/pkg/glow"
)

// Config represents the full configuration for glowcast.
type Config struct {
	// Input/Output
	InputPath string `yaml:"input"`
	OutputDir string `yaml:"output"`

	// Effect
	Effect glow.Options `yaml:"effect"`

	// Sampling run
	DurationMs int     `yaml:"duration_ms"`
	StartMs    int     `yaml:"start_ms"`
	FFmpegPath string  `yaml:"ffmpeg_path"`
	DisplayW   float64 `yaml:"display_width"`
	DisplayH   float64 `yaml:"display_height"`

	// Browser mode
	URL           string `yaml:"url"`
	VideoSelector string `yaml:"video_selector"`
	Headless      bool   `yaml:"headless"`
	ChromePath    string `yaml:"chrome_path"`

	// Debug
	Debug bool `yaml:"debug"`
	Quiet bool `yaml:"quiet"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputDir:     "./glow-preview",
		DurationMs:    3000,
		VideoSelector: "video",
		Headless:      true,
	}
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
