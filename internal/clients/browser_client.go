/**
 * Browser Client - Chrome driven through the DevTools protocol
 *
 * Opens the monitored page once and serves clipped screenshots of the
 * BOLL legend region for every capture cycle.
 */

package clients

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/disintegration/imaging"

	"github.com/adverant/nexus/boll-capture-worker/internal/config"
	"github.com/adverant/nexus/boll-capture-worker/internal/logging"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

const (
	viewportWidth  = 1400
	viewportHeight = 900
)

// BrowserConfig holds browser client configuration
type BrowserConfig struct {
	TargetURL         string
	Headless          bool
	UserDataDir       string
	NavigationTimeout time.Duration
	StartDelay        time.Duration
	Region            config.Region
	DebugImagePath    string
	EnableIndicator   bool
}

// BrowserClient captures the configured region of one page
type BrowserClient struct {
	config      *BrowserConfig
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *logging.Logger
}

// NewBrowserClient launches Chrome, opens the target page and waits for
// the warm-up delay. Any failure here is a setup failure.
func NewBrowserClient(ctx context.Context, cfg *BrowserConfig) (*BrowserClient, error) {
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("TargetURL is required")
	}

	if cfg.DebugImagePath == "" {
		return nil, fmt.Errorf("DebugImagePath is required")
	}

	userDataDir := cfg.UserDataDir
	if userDataDir != "" {
		abs, err := filepath.Abs(userDataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user data dir: %w", err)
		}
		userDataDir = abs
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg.Headless, userDataDir)...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	b := &BrowserClient{
		config:      cfg,
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      logging.NewLogger("browser"),
	}

	// Start the browser on the long-lived context before any timeout applies.
	if err := chromedp.Run(tabCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	b.logger.Info("Opening page", "url", cfg.TargetURL, "headless", cfg.Headless)

	navCtx, navCancel := context.WithTimeout(tabCtx, cfg.NavigationTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		chromedp.Navigate(cfg.TargetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open %s: %w", cfg.TargetURL, err)
	}

	if cfg.EnableIndicator {
		if err := b.EnableIndicator(ctx); err != nil {
			if ctx.Err() != nil {
				b.Close()
				return nil, ctx.Err()
			}
			b.logger.Warn("Could not enable BOLL indicator, relying on saved chart layout", "error", err)
		}
	}

	b.logger.Info("Page opened, waiting before first capture", "delay", cfg.StartDelay.String())

	select {
	case <-time.After(cfg.StartDelay):
	case <-ctx.Done():
		b.Close()
		return nil, ctx.Err()
	}

	return b, nil
}

func allocatorOptions(headless bool, userDataDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(userDataDir))
	}
	return opts
}

// Capture takes one clipped PNG screenshot, overwrites the debug copy and
// decodes it. A decode failure is not an error: the frame is returned
// without an image.
func (b *BrowserClient) Capture(ctx context.Context) (*processor.Frame, error) {
	region := b.config.Region

	// Run on the tab context; the caller's ctx can still abort the call.
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{
				X:      float64(region.X),
				Y:      float64(region.Y),
				Width:  float64(region.Width),
				Height: float64(region.Height),
				Scale:  1,
			}).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	capturedAt := time.Now()

	if err := os.WriteFile(b.config.DebugImagePath, buf, 0644); err != nil {
		return nil, fmt.Errorf("failed to write debug image: %w", err)
	}

	frame := &processor.Frame{PNG: buf, CapturedAt: capturedAt}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		b.logger.Warn("Screenshot could not be decoded, color OCR skipped", "error", err)
		return frame, nil
	}
	frame.Image = img

	return frame, nil
}

// Close shuts down the tab and the browser process
func (b *BrowserClient) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}
