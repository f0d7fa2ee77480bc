// Package main provides the CLI entry point for glowcast.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/videoglow/pkg/adapters/chromevideo"
	"github.com/user/videoglow/pkg/adapters/framesched"
	"github.com/user/videoglow/pkg/adapters/framesink"
	"github.com/user/videoglow/pkg/adapters/ggcompositor"
	"github.com/user/videoglow/pkg/adapters/logger"
	"github.com/user/videoglow/pkg/adapters/mp4video"
	"github.com/user/videoglow/pkg/adapters/nullsink"
	"github.com/user/videoglow/pkg/adapters/osfilesystem"
	"github.com/user/videoglow/pkg/config"
	"github.com/user/videoglow/pkg/glow"
	"github.com/user/videoglow/pkg/ports"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:  "glowcast",
		Usage: "Render ambient glow previews from video files or live pages",
		Commands: []*cli.Command{
			previewCommand(),
			attachCommand(),
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("glowcast version %s", version))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// effectFlags are shared by both commands and map onto the effect
// options one to one.
func effectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"C"}, Usage: "YAML configuration file"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory for preview frames"},
		&cli.IntFlag{Name: "duration", Usage: "How long to sample, in milliseconds"},
		&cli.Float64Flag{Name: "blur", Usage: "Backdrop blur radius"},
		&cli.Float64Flag{Name: "opacity", Usage: "Backdrop opacity (0-1)"},
		&cli.Float64Flag{Name: "brightness", Usage: "Backdrop brightness multiplier"},
		&cli.Float64Flag{Name: "saturate", Usage: "Backdrop saturation multiplier"},
		&cli.Float64Flag{Name: "scale", Usage: "Backdrop size as a multiple of the video box"},
		&cli.Float64Flag{Name: "downscale", Usage: "Sampling resolution as a fraction of native (0.01-0.5)"},
		&cli.IntFlag{Name: "interval", Usage: "Minimum milliseconds between samples"},
		&cli.Float64Flag{Name: "blend-old", Usage: "Weight of the previous glow (0-1)"},
		&cli.Float64Flag{Name: "blend-new", Usage: "Weight of the incoming frame (0-1)"},
		&cli.Float64Flag{Name: "responsiveness", Usage: "Derive both blend weights from one knob (0-1)"},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "Log level (debug, info, warn, error)"},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "Enable debug output"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: "Suppress all log output"},
	}
}

func previewCommand() *cli.Command {
	flags := append(effectFlags(),
		&cli.IntFlag{Name: "start", Usage: "Playback start position in milliseconds"},
		&cli.StringFlag{Name: "ffmpeg-path", Usage: "Path to the ffmpeg executable"},
		&cli.Float64Flag{Name: "display-width", Usage: "Displayed video width in px (default: native)"},
		&cli.Float64Flag{Name: "display-height", Usage: "Displayed video height in px (default: native)"},
	)
	return &cli.Command{
		Name:      "preview",
		Usage:     "Sample an MP4 file and write glow preview frames as PNG",
		ArgsUsage: "<input.mp4>",
		Flags:     flags,
		Action:    runPreview,
	}
}

func attachCommand() *cli.Command {
	flags := append(effectFlags(),
		&cli.StringFlag{Name: "selector", Value: "video", Usage: "CSS selector of the video element"},
		&cli.StringFlag{Name: "chrome-path", Usage: "Path to Chrome executable (falls back to CHROME_PATH env)"},
		&cli.BoolFlag{Name: "no-headless", Usage: "Run the browser with a visible window"},
	)
	return &cli.Command{
		Name:      "attach",
		Usage:     "Attach the glow to a video element on a live page",
		ArgsUsage: "<url>",
		Flags:     flags,
		Action:    runAttach,
	}
}

// loadConfig merges the optional YAML file and the CLI flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("duration") {
		cfg.DurationMs = c.Int("duration")
	}
	if c.IsSet("start") {
		cfg.StartMs = c.Int("start")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("display-width") {
		cfg.DisplayW = c.Float64("display-width")
	}
	if c.IsSet("display-height") {
		cfg.DisplayH = c.Float64("display-height")
	}
	if c.IsSet("selector") {
		cfg.VideoSelector = c.String("selector")
	}
	if c.IsSet("chrome-path") {
		cfg.ChromePath = c.String("chrome-path")
	}
	if c.Bool("no-headless") {
		cfg.Headless = false
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.Bool("quiet") {
		cfg.Quiet = true
	}

	mergeEffectFlags(c, &cfg.Effect)
	return cfg, nil
}

// mergeEffectFlags overlays set flags onto the effect options.
func mergeEffectFlags(c *cli.Context, opts *glow.Options) {
	f64 := func(name string, dst **float64) {
		if c.IsSet(name) {
			v := c.Float64(name)
			*dst = &v
		}
	}
	f64("blur", &opts.BlurRadius)
	f64("opacity", &opts.Opacity)
	f64("brightness", &opts.Brightness)
	f64("saturate", &opts.Saturation)
	f64("scale", &opts.SurfaceScale)
	f64("downscale", &opts.SampleDownscale)
	f64("blend-old", &opts.BlendOld)
	f64("blend-new", &opts.BlendNew)
	f64("responsiveness", &opts.Responsiveness)
	if c.IsSet("interval") {
		v := c.Int("interval")
		opts.UpdateIntervalMs = &v
	}
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if cfg.Quiet {
		return logger.NewNoop()
	}
	if cfg.Debug {
		return logger.NewConsole(ports.LevelDebug)
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()
	return ctx, cancel
}

// runPreview samples an MP4 file offline and writes each glow pass as
// a PNG pair: the raw backdrop pixels and the composited preview.
func runPreview(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file")
	}
	input := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	if cfg.FFmpegPath != "" {
		mp4video.SetFFmpegPath(cfg.FFmpegPath)
	}

	log.Info(l10n.F("Previewing %s...", input))
	video, err := mp4video.Open(input)
	if err != nil {
		log.Error(l10n.F("Failed to open video: %s", err.Error()))
		return err
	}
	log.Debug(l10n.F("Decoded %d frames from %s", video.FrameCount(), input))
	if cfg.DisplayW > 0 && cfg.DisplayH > 0 {
		video.SetDisplayedSize(cfg.DisplayW, cfg.DisplayH)
	}

	compositor := ggcompositor.New()
	defer compositor.Close()

	effect, err := glow.New(video, cfg.Effect, glow.Deps{
		Renderer:  compositor,
		Scheduler: framesched.New(),
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer effect.Destroy()

	fs := osfilesystem.New()
	if err := fs.MkdirAll(cfg.OutputDir); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	sink := framesink.New(cfg.OutputDir, fs)

	if data, err := json.MarshalIndent(effect.Config(), "", "  "); err == nil {
		_ = sink.SaveConfigJSON(data)
	}

	video.Announce()
	if cfg.StartMs > 0 {
		video.SeekTo(time.Duration(cfg.StartMs) * time.Millisecond)
	}
	video.Play()

	frames, err := captureFrames(ctx, compositor, video, effect, sink, cfg.DurationMs)
	if err != nil {
		return err
	}

	video.Pause()
	log.Info(l10n.F("Wrote %d preview frames to %s", frames, cfg.OutputDir))
	log.Info(l10n.T("Preview completed"))
	return nil
}

// captureFrames snapshots the glow at the effect's own cadence until
// the duration elapses or ctx is cancelled.
func captureFrames(ctx context.Context, compositor *ggcompositor.Compositor, video ports.VideoSource, effect *glow.Effect, sink ports.PreviewSink, durationMs int) (int, error) {
	interval := effect.Config().UpdateInterval
	deadline := time.After(time.Duration(durationMs) * time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return frames, ctx.Err()
		case <-deadline:
			return frames, nil
		case <-ticker.C:
		}

		if !sink.Enabled() {
			continue
		}
		backdrop := compositor.Backdrop()
		if backdrop == nil {
			continue
		}
		if raw, err := backdrop.ReadPixels(); err == nil {
			_ = sink.SaveBackdropFrame(frames, raw)
		}
		frame, err := video.CurrentFrame()
		if err != nil {
			continue
		}
		vw, vh := video.DisplayedSize()
		preview, err := compositor.RenderPreview(backdrop, frame, vw, vh)
		if err != nil {
			continue
		}
		if err := sink.SavePreviewFrame(frames, preview); err != nil {
			return frames, err
		}
		frames++
	}
}

// runAttach drives the glow against a video element on a live page.
func runAttach(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one URL")
	}
	url := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	session, err := chromevideo.Launch(ctx, chromevideo.Options{
		ChromePath: cfg.ChromePath,
		Headless:   cfg.Headless,
	})
	if err != nil {
		return err
	}
	defer func() {
		session.Close()
		log.Debug(l10n.T("Video source closed"))
	}()

	if err := session.Navigate(url); err != nil {
		return err
	}

	video, err := session.Attach(cfg.VideoSelector)
	if err != nil {
		log.Error(l10n.F("Failed to observe element: %s", err.Error()))
		return err
	}

	compositor := ggcompositor.New()
	defer compositor.Close()

	effect, err := glow.New(video, cfg.Effect, glow.Deps{
		Renderer:   compositor,
		Scheduler:  framesched.New(),
		Resize:     video.ResizeSignal(),
		Visibility: video.VisibilitySignal(),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer effect.Destroy()

	// Frames are written only in debug mode; attach otherwise just
	// drives the effect against the live page.
	var sink ports.PreviewSink = nullsink.New()
	if cfg.Debug {
		fs := osfilesystem.New()
		if err := fs.MkdirAll(cfg.OutputDir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		sink = framesink.New(cfg.OutputDir, fs)
	}

	frames, err := captureFrames(ctx, compositor, video, effect, sink, cfg.DurationMs)
	if err != nil && ctx.Err() == nil {
		return err
	}

	if cfg.Debug {
		log.Info(l10n.F("Wrote %d preview frames to %s", frames, cfg.OutputDir))
	}
	return nil
}
