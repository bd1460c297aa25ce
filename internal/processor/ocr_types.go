/**
 * OCR Types - Shared data structures for BOLL recognition
 *
 * Used by the recognizer, the capture loop and the reading sinks
 */

package processor

import (
	"context"
	"image"
	"time"
)

// Frame is one captured screenshot of the monitored region.
// Image is nil when the PNG could not be decoded; only the whole-image
// path is available for such frames.
type Frame struct {
	PNG        []byte
	Image      image.Image
	CapturedAt time.Time
}

// Reading holds the three band values as recognized text
type Reading struct {
	Upper  string
	Middle string
	Lower  string
}

// Complete reports whether all three values are present
func (r Reading) Complete() bool {
	return r.Upper != "" && r.Middle != "" && r.Lower != ""
}

// Path identifies which recognition stage produced a result
type Path string

const (
	PathColor Path = "color"
	PathLabel Path = "label"
)

// Recognition is the outcome of one Recognize call. Found is false when
// no confident triplet was read; Reading is then empty.
type Recognition struct {
	Reading  Reading
	Found    bool
	Path     Path
	Duration time.Duration
}

// SegmentationMode mirrors tesseract's page segmentation modes
type SegmentationMode int

const (
	SegmentSingleBlock SegmentationMode = 6
	SegmentSingleLine  SegmentationMode = 7
)

// Mode is a session-wide OCR configuration
type Mode struct {
	Name         string
	Whitelist    string
	Segmentation SegmentationMode
}

var (
	// DigitsMode reads a single line of one color-masked number
	DigitsMode = Mode{
		Name:         "digits",
		Whitelist:    "0123456789.,",
		Segmentation: SegmentSingleLine,
	}

	// LabelMode reads the whole region including the UP/MB/DN markers
	LabelMode = Mode{
		Name:         "label",
		Whitelist:    "UPMBDN0123456789., ",
		Segmentation: SegmentSingleBlock,
	}
)

// Session is a long-lived OCR engine handle whose mode is shared by all
// recognitions. Configure must not run while Recognize calls that depend
// on the previous mode are in flight; callers configure and then
// recognize within one logical step.
type Session interface {
	Configure(ctx context.Context, mode Mode) error
	Recognize(ctx context.Context, png []byte) (string, error)
	Close() error
}

// ReadingEvent is the per-cycle record handed to sinks
type ReadingEvent struct {
	CycleID   string    `json:"cycleId"`
	Timestamp time.Time `json:"timestamp"`
	Found     bool      `json:"found"`
	Upper     string    `json:"upper,omitempty"`
	Middle    string    `json:"middle,omitempty"`
	Lower     string    `json:"lower,omitempty"`
	Path      Path      `json:"path,omitempty"`
	Error     string    `json:"error,omitempty"`
}
