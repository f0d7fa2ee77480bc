// Package chromevideo attaches to a <video> element in a live Chrome
// page over the DevTools protocol and exposes it as a video source.
package chromevideo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/chromedp/chromedp"
)

// Options configures the browser session.
type Options struct {
	// ChromePath overrides browser discovery.
	ChromePath string
	// Headless runs Chrome without a visible window.
	Headless bool
	// WindowWidth and WindowHeight set the browser window size.
	WindowWidth  int
	WindowHeight int
}

// Session owns a Chrome process and a single page target.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// Launch starts Chrome and opens a blank page.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	chromedpOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	}

	if opts.Headless {
		chromedpOpts = append(chromedpOpts, chromedp.Flag("headless", "new"))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		chromedpOpts = append(chromedpOpts,
			chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
			chromedp.Flag("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight)))
	}

	chromePath := resolveChromePath(opts.ChromePath)
	if chromePath == "" {
		return nil, fmt.Errorf("chrome not found: install Chrome/Chromium, set CHROME_PATH, or pass an explicit path")
	}
	chromedpOpts = append(chromedpOpts, chromedp.ExecPath(chromePath))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedpOpts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	// Force Chrome to actually start before returning.
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	return &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         pageCtx,
		cancel:      pageCancel,
	}, nil
}

// Navigate loads the given URL in the page.
func (s *Session) Navigate(url string) error {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// Close shuts down the browser.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	// Give Chrome a moment to shut down gracefully before the allocator
	// force-kills it.
	time.Sleep(100 * time.Millisecond)
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

// resolveChromePath picks the browser binary: explicit path, then
// CHROME_PATH, then well-known install locations.
func resolveChromePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return env
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		candidates = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	default:
		candidates = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
