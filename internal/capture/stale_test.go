package capture

import (
	"image"
	"image/color"
	"testing"
)

// halfWhite returns a frame whose left or right half is white
func halfWhite(left bool) image.Image {
	img := image.NewGray(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			if (x < 16) == left {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestStaleDetectorTransitions(t *testing.T) {
	d := NewStaleDetector(2)
	a, b := halfWhite(true), halfWhite(false)

	steps := []struct {
		img  image.Image
		want StaleEvent
	}{
		{a, StaleNone},
		{a, StaleNone},
		{a, StaleEntered},
		{a, StaleNone},
		{b, StaleRecovered},
		{b, StaleNone},
	}

	for i, step := range steps {
		if got := d.Observe(step.img); got != step.want {
			t.Fatalf("step %d: Observe = %v, want %v", i, got, step.want)
		}
	}
	if d.Repeats() != 1 {
		t.Errorf("Repeats = %d, want 1", d.Repeats())
	}
}

func TestStaleDetectorIgnoresUndecodedFrames(t *testing.T) {
	d := NewStaleDetector(1)
	a := halfWhite(true)

	d.Observe(a)
	if got := d.Observe(nil); got != StaleNone {
		t.Errorf("Observe(nil) = %v", got)
	}
	if got := d.Observe(a); got != StaleEntered {
		t.Errorf("Observe = %v, want StaleEntered", got)
	}
}
