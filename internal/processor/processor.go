/**
 * BOLL Recognizer
 *
 * Two-stage recognition of the Bollinger legend:
 * - color stage: one mask per legend color, digits-only OCR per mask
 * - label stage: whole-region OCR, UP/MB/DN label parsing
 * The label stage runs whenever the color stage cannot supply all three values.
 */

package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/adverant/nexus/boll-capture-worker/internal/errors"
	"github.com/adverant/nexus/boll-capture-worker/internal/logging"
)

// RecognizerInterface defines the interface used by the capture loop
type RecognizerInterface interface {
	Recognize(ctx context.Context, req *RecognizeRequest) (*Recognition, error)
}

// RecognizerConfig holds recognizer configuration
type RecognizerConfig struct {
	Session  Session
	Ranges   BandRanges
	ColorOCR bool // false forces the whole-image path
}

// RecognizeRequest represents one recognition request
type RecognizeRequest struct {
	CycleID string
	Frame   *Frame
}

// Recognizer turns frames into readings
type Recognizer struct {
	session  Session
	ranges   BandRanges
	colorOCR bool
	logger   *logging.Logger

	// held for a whole Recognize call so mode switches never interleave
	mu sync.Mutex
}

// colorStage is the tagged result of the color stage
type colorStage struct {
	reading       Reading
	needsFallback bool
}

// NewRecognizer creates a new recognizer
func NewRecognizer(cfg *RecognizerConfig) (*Recognizer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Session == nil {
		return nil, fmt.Errorf("OCR session is required")
	}

	ranges := cfg.Ranges
	if ranges == (BandRanges{}) {
		ranges = DefaultBandRanges
	}

	return &Recognizer{
		session:  cfg.Session,
		ranges:   ranges,
		colorOCR: cfg.ColorOCR,
		logger:   logging.NewLogger("recognizer"),
	}, nil
}

// Recognize reads the three band values from one frame. A result with
// Found == false is a valid outcome; OCR engine failures are returned as
// errors.
func (r *Recognizer) Recognize(ctx context.Context, req *RecognizeRequest) (*Recognition, error) {
	if req == nil || req.Frame == nil {
		return nil, fmt.Errorf("frame is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	startTime := time.Now()

	if r.colorOCR && req.Frame.Image != nil {
		stage, err := r.recognizeByColor(ctx, req.CycleID, req.Frame.Image)
		if err != nil {
			return nil, err
		}
		if !stage.needsFallback {
			return &Recognition{
				Reading:  stage.reading,
				Found:    true,
				Path:     PathColor,
				Duration: time.Since(startTime),
			}, nil
		}
		r.logger.Debug("Color stage incomplete, falling back to labels",
			"cycle_id", req.CycleID,
			"upper", stage.reading.Upper,
			"middle", stage.reading.Middle,
			"lower", stage.reading.Lower)
	}

	reading, found, err := r.recognizeByLabel(ctx, req.CycleID, req.Frame)
	if err != nil {
		return nil, err
	}

	return &Recognition{
		Reading:  reading,
		Found:    found,
		Path:     PathLabel,
		Duration: time.Since(startTime),
	}, nil
}

// recognizeByColor masks each legend color and reads one number per mask
func (r *Recognizer) recognizeByColor(ctx context.Context, cycleID string, img image.Image) (colorStage, error) {
	ranges := [3]ColorRange{r.ranges.Upper, r.ranges.Middle, r.ranges.Lower}

	var masks [3][]byte
	for i, rng := range ranges {
		png, err := encodePNG(Mask(img, rng))
		if err != nil {
			return colorStage{}, fmt.Errorf("failed to encode mask: %w", err)
		}
		masks[i] = png
	}

	if err := r.session.Configure(ctx, DigitsMode); err != nil {
		return colorStage{}, errors.NewOCRFailedError(cycleID, DigitsMode.Name, err)
	}

	var (
		wg    sync.WaitGroup
		texts [3]string
		errs  [3]error
	)
	for i := range masks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			texts[i], errs[i] = r.session.Recognize(ctx, masks[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return colorStage{}, errors.NewOCRFailedError(cycleID, DigitsMode.Name, err)
		}
	}

	var values [3]string
	for i, text := range texts {
		values[i], _ = ExtractNumeric(text)
	}

	reading := Reading{Upper: values[0], Middle: values[1], Lower: values[2]}
	return colorStage{reading: reading, needsFallback: !reading.Complete()}, nil
}

// recognizeByLabel reads the unmasked region and parses the UP/MB/DN labels
func (r *Recognizer) recognizeByLabel(ctx context.Context, cycleID string, frame *Frame) (Reading, bool, error) {
	png := frame.PNG
	if len(png) == 0 {
		if frame.Image == nil {
			return Reading{}, false, fmt.Errorf("frame has neither PNG data nor an image")
		}
		var err error
		if png, err = encodePNG(frame.Image); err != nil {
			return Reading{}, false, fmt.Errorf("failed to encode frame: %w", err)
		}
	}

	if err := r.session.Configure(ctx, LabelMode); err != nil {
		return Reading{}, false, errors.NewOCRFailedError(cycleID, LabelMode.Name, err)
	}

	text, err := r.session.Recognize(ctx, png)
	if err != nil {
		return Reading{}, false, errors.NewOCRFailedError(cycleID, LabelMode.Name, err)
	}

	reading, ok := ExtractTriplet(text)
	if !ok || !reading.Complete() {
		r.logger.Debug("No BOLL labels in OCR text", "cycle_id", cycleID, "text", text)
		return Reading{}, false, nil
	}

	return reading, true, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
