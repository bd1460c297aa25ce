package capture

import (
	"image"

	"github.com/corona10/goimagehash"
)

// StaleDetector notices when the captured region stops changing, which
// usually means the page froze or lost its websocket feed.
type StaleDetector struct {
	threshold int
	last      *goimagehash.ImageHash
	repeats   int
	stale     bool
}

func NewStaleDetector(threshold int) *StaleDetector {
	if threshold < 1 {
		threshold = 1
	}
	return &StaleDetector{threshold: threshold}
}

// StaleEvent reports a transition of the detector
type StaleEvent int

const (
	StaleNone StaleEvent = iota
	StaleEntered
	StaleRecovered
)

// Observe feeds one frame and returns a transition, if any. Frames that
// cannot be hashed are ignored.
func (d *StaleDetector) Observe(img image.Image) StaleEvent {
	if img == nil {
		return StaleNone
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return StaleNone
	}

	if d.last != nil {
		if dist, err := d.last.Distance(hash); err == nil && dist == 0 {
			d.repeats++
			if !d.stale && d.repeats >= d.threshold {
				d.stale = true
				return StaleEntered
			}
			return StaleNone
		}
	}

	d.last = hash
	d.repeats = 0
	if d.stale {
		d.stale = false
		return StaleRecovered
	}
	return StaleNone
}

// Repeats is the number of consecutive frames identical to the last change
func (d *StaleDetector) Repeats() int {
	return d.repeats
}
