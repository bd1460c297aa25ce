/**
 * Capture Loop for the BOLL capture worker
 *
 * One goroutine runs capture → recognize → report cycles at a fixed
 * cadence. A failed cycle becomes an error line; the loop only ends on Stop.
 */

package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/nexus/boll-capture-worker/internal/errors"
	"github.com/adverant/nexus/boll-capture-worker/internal/logging"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

// Source supplies one frame per call
type Source interface {
	Capture(ctx context.Context) (*processor.Frame, error)
}

// Sink receives every cycle's reading after its line is written
type Sink interface {
	Name() string
	Publish(ctx context.Context, event *processor.ReadingEvent) error
}

// Indicator re-enables the chart indicator when readings go missing
type Indicator interface {
	EnableIndicator(ctx context.Context) error
}

// LoopConfig holds loop configuration
type LoopConfig struct {
	Source     Source
	Recognizer processor.RecognizerInterface
	Reporter   *Reporter
	Sinks      []Sink
	Interval   time.Duration
	Stale      *StaleDetector

	// Indicator is asked to re-enable BOLL after IndicatorRetryCycles
	// consecutive cycles without a reading; zero disables it.
	Indicator            Indicator
	IndicatorRetryCycles int

	// Now defaults to time.Now
	Now func() time.Time
}

// Loop drives capture cycles
type Loop struct {
	config *LoopConfig
	now    func() time.Time
	misses int
	logger *logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoop creates a new capture loop
func NewLoop(cfg *LoopConfig) (*Loop, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("Source is required")
	}

	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("Recognizer is required")
	}

	if cfg.Reporter == nil {
		return nil, fmt.Errorf("Reporter is required")
	}

	if cfg.Interval < 0 {
		return nil, fmt.Errorf("Interval must not be negative")
	}

	if cfg.IndicatorRetryCycles < 0 {
		return nil, fmt.Errorf("IndicatorRetryCycles must not be negative")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Loop{
		config: cfg,
		now:    now,
		logger: logging.NewLogger("capture"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start begins the capture cycles in the background
func (l *Loop) Start() {
	l.logger.Info("Starting capture loop", "interval", l.config.Interval.String(), "sinks", len(l.config.Sinks))

	l.wg.Add(1)
	go l.run()
}

// Stop ends the loop after the current cycle and waits for it
func (l *Loop) Stop() {
	l.logger.Info("Stopping capture loop...")
	l.cancel()
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		start := time.Now()
		l.RunCycle(l.ctx)

		if l.ctx.Err() != nil {
			return
		}

		delay := PacingDelay(l.config.Interval, time.Since(start))
		if delay == 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-l.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// PacingDelay is the sleep that keeps cycles on interval. Slow cycles get
// no sleep at all; missed time is never made up.
func PacingDelay(interval, elapsed time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// RunCycle performs one capture → recognize → report cycle and returns
// the event handed to sinks.
func (l *Loop) RunCycle(ctx context.Context) *processor.ReadingEvent {
	cycleID := uuid.New().String()
	startTime := time.Now()

	rec, err := l.captureAndRecognize(ctx, cycleID)

	ts := l.now()
	event := &processor.ReadingEvent{CycleID: cycleID, Timestamp: ts}

	var line string
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the cycle; nothing to report.
			return nil
		}
		line = FormatError(ts, err)
		event.Error = err.Error()
		l.logCycleError(cycleID, err)
	} else {
		line = FormatReading(ts, rec)
		event.Path = rec.Path
		if rec.Found {
			event.Found = true
			event.Upper = rec.Reading.Upper
			event.Middle = rec.Reading.Middle
			event.Lower = rec.Reading.Lower
		}
		l.logger.Debug("Cycle completed",
			"cycle_id", cycleID,
			"found", rec.Found,
			"path", rec.Path,
			"ocr_ms", rec.Duration.Milliseconds(),
			"elapsed_ms", time.Since(startTime).Milliseconds())
	}

	if err := l.config.Reporter.Line(line); err != nil {
		l.logger.Error("Failed to write result line", "cycle_id", cycleID, "error", err)
	}

	l.publish(ctx, event)

	if err == nil {
		l.trackMisses(ctx, rec.Found)
	}
	return event
}

func (l *Loop) trackMisses(ctx context.Context, found bool) {
	if found {
		l.misses = 0
		return
	}

	l.misses++
	if l.config.Indicator == nil || l.config.IndicatorRetryCycles == 0 || l.misses < l.config.IndicatorRetryCycles {
		return
	}

	l.logger.Info("No BOLL reading, re-enabling indicator", "missed_cycles", l.misses)
	l.misses = 0
	if err := l.config.Indicator.EnableIndicator(ctx); err != nil && ctx.Err() == nil {
		l.logger.Warn("Failed to re-enable BOLL indicator", "error", err)
	}
}

func (l *Loop) captureAndRecognize(ctx context.Context, cycleID string) (*processor.Recognition, error) {
	frame, err := l.config.Source.Capture(ctx)
	if err != nil {
		return nil, errors.NewCaptureFailedError(cycleID, err)
	}

	l.observeFrame(frame)

	return l.config.Recognizer.Recognize(ctx, &processor.RecognizeRequest{
		CycleID: cycleID,
		Frame:   frame,
	})
}

func (l *Loop) observeFrame(frame *processor.Frame) {
	if l.config.Stale == nil {
		return
	}
	switch l.config.Stale.Observe(frame.Image) {
	case StaleEntered:
		l.logger.Warn("Captured region has not changed, page may be frozen",
			"identical_frames", l.config.Stale.Repeats())
	case StaleRecovered:
		l.logger.Info("Captured region is changing again")
	}
}

func (l *Loop) publish(ctx context.Context, event *processor.ReadingEvent) {
	for _, sink := range l.config.Sinks {
		if err := sink.Publish(ctx, event); err != nil {
			publishErr := errors.NewPublishFailedError(event.CycleID, sink.Name(), err)
			l.logger.Warn("Failed to publish reading", "details", publishErr.ToMap())
		}
	}
}

func (l *Loop) logCycleError(cycleID string, err error) {
	var pe *errors.ProcessingError
	if errors.As(err, &pe) {
		l.logger.Error("Cycle failed", "details", pe.ToMap())
		return
	}
	l.logger.Error("Cycle failed", "cycle_id", cycleID, "error", err)
}
