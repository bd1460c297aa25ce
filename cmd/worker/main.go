/**
 * BOLL Capture Worker - Main Entry Point
 *
 * Watches the Bollinger Bands legend of a live chart page and prints the
 * upper, middle and lower band values once per capture interval.
 *
 * Architecture:
 * - Headless Chrome (chromedp) keeps the chart page open and clips the legend
 * - Color masks split the three band values; Tesseract reads each one
 * - Whole-region UP/MB/DN label parsing when the color path falls short
 * - Optional fan-out of every reading to Redis pub/sub and a websocket feed
 *
 * Output (stdout, one line per cycle):
 *   [YYYY-MM-DD HH:MM:SS] BOLL 上轨:<upper> 中轨:<middle> 下轨:<lower>
 *   [YYYY-MM-DD HH:MM:SS] 发生错误: <message>
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/adverant/nexus/boll-capture-worker/internal/capture"
	"github.com/adverant/nexus/boll-capture-worker/internal/clients"
	"github.com/adverant/nexus/boll-capture-worker/internal/config"
	"github.com/adverant/nexus/boll-capture-worker/internal/errors"
	"github.com/adverant/nexus/boll-capture-worker/internal/logging"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor/tesseract"
	"github.com/adverant/nexus/boll-capture-worker/internal/server"
	"github.com/adverant/nexus/boll-capture-worker/internal/storage"
)

func main() {
	logger := logging.NewLogger("main")

	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		logger.Warn(".env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", "details", errors.NewInvalidConfigError(err).ToMap())
	}

	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn("Ignoring LOG_LEVEL", "error", err)
	}

	logger.Info("BOLL capture worker starting...",
		"target", cfg.TargetURL,
		"region", cfg.CaptureRegion.String(),
		"interval", cfg.CaptureInterval.String(),
		"color_ocr", cfg.ColorOCR)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// closers run in reverse order on shutdown or fatal setup errors
	var closers []func() error
	shutdown := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Error during shutdown", "error", err)
			}
		}
	}
	fail := func(component string, err error) {
		shutdown()
		logger.Fatal("Startup failed", "details", errors.NewSetupFailedError(component, err).ToMap())
	}

	// Initialize OCR session
	logger.Info("Initializing Tesseract session...", "language", cfg.OCRLanguage, "workers", cfg.OCRWorkers)
	session, err := tesseract.NewSession(&tesseract.Config{
		Language:       cfg.OCRLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
		Workers:        cfg.OCRWorkers,
	})
	if err != nil {
		fail("tesseract", err)
	}
	closers = append(closers, session.Close)

	recognizer, err := processor.NewRecognizer(&processor.RecognizerConfig{
		Session:  session,
		ColorOCR: cfg.ColorOCR,
	})
	if err != nil {
		fail("recognizer", err)
	}

	// Launch browser and open the chart page
	logger.Info("Launching browser...", "headless", cfg.Headless, "user_data_dir", cfg.UserDataDir)
	browser, err := clients.NewBrowserClient(ctx, &clients.BrowserConfig{
		TargetURL:         cfg.TargetURL,
		Headless:          cfg.Headless,
		UserDataDir:       cfg.UserDataDir,
		NavigationTimeout: cfg.NavigationTimeout,
		StartDelay:        config.StartDelay,
		Region:            cfg.CaptureRegion,
		DebugImagePath:    cfg.DebugImagePath,
		EnableIndicator:   cfg.AutoEnableIndicator,
	})
	if err != nil {
		if ctx.Err() != nil {
			shutdown()
			logger.Info("Interrupted during startup")
			return
		}
		fail("browser", err)
	}
	closers = append(closers, browser.Close)

	// Optional reading sinks
	var sinks []capture.Sink

	if cfg.RedisURL != "" {
		publisher, err := storage.NewReadingPublisher(ctx, &storage.PublisherConfig{
			RedisURL:  cfg.RedisURL,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			fail("redis publisher", err)
		}
		closers = append(closers, publisher.Close)
		sinks = append(sinks, publisher)
	}

	feedDone := make(chan struct{})
	if cfg.FeedAddr != "" {
		feed := server.NewFeed()
		sinks = append(sinks, feed)
		go func() {
			defer close(feedDone)
			if err := feed.Run(ctx, cfg.FeedAddr); err != nil {
				logger.Error("Live feed stopped", "error", err)
			}
		}()
	} else {
		close(feedDone)
	}

	// Start capture loop
	loopCfg := &capture.LoopConfig{
		Source:     browser,
		Recognizer: recognizer,
		Reporter:   capture.NewReporter(os.Stdout),
		Sinks:      sinks,
		Interval:   cfg.CaptureInterval,
		Stale:      capture.NewStaleDetector(cfg.StaleFrameThreshold),
	}
	if cfg.AutoEnableIndicator {
		loopCfg.Indicator = browser
		loopCfg.IndicatorRetryCycles = cfg.IndicatorRetryCycles
	}
	loop, err := capture.NewLoop(loopCfg)
	if err != nil {
		fail("capture loop", err)
	}
	loop.Start()

	logger.Info("===========================================")
	logger.Info("BOLL capture worker is READY")
	logger.Info("===========================================")
	logger.Info("Startup summary",
		"interval", cfg.CaptureInterval.String(),
		"region", cfg.CaptureRegion.String(),
		"debug_image", cfg.DebugImagePath,
		"redis", cfg.RedisURL != "",
		"feed_addr", cfg.FeedAddr)
	logger.Info("===========================================")

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Received shutdown signal, initiating graceful shutdown...")

	loop.Stop()
	<-feedDone
	shutdown()

	logger.Info("Shutdown complete")
}
