package processor

import (
	"image"
	"image/color"
	"testing"
)

func TestMaskSeparatesLegendColors(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 240, G: 240, B: 240, A: 255}) // white
	img.SetNRGBA(1, 0, color.NRGBA{R: 240, G: 200, B: 40, A: 255})  // yellow
	img.SetNRGBA(2, 0, color.NRGBA{R: 50, G: 160, B: 220, A: 255})  // blue
	img.SetNRGBA(3, 0, color.NRGBA{R: 20, G: 20, B: 20, A: 255})    // background
	img.SetNRGBA(0, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 0})   // transparent white
	img.SetNRGBA(1, 1, color.NRGBA{R: 230, G: 230, B: 230, A: 1})   // range edge, barely visible

	testCases := []struct {
		name  string
		rng   ColorRange
		white map[image.Point]bool
	}{
		{name: "white", rng: WhiteRange, white: map[image.Point]bool{image.Pt(0, 0): true, image.Pt(1, 1): true}},
		{name: "yellow", rng: YellowRange, white: map[image.Point]bool{image.Pt(1, 0): true}},
		{name: "blue", rng: BlueRange, white: map[image.Point]bool{image.Pt(2, 0): true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Mask(img, tc.rng)
			if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 2 {
				t.Fatalf("mask size = %v, want 4x2", out.Bounds())
			}
			for y := 0; y < 2; y++ {
				for x := 0; x < 4; x++ {
					got := out.NRGBAAt(x, y)
					want := color.NRGBA{A: 255}
					if tc.white[image.Pt(x, y)] {
						want = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
					}
					if got != want {
						t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestMaskOutputIsBinaryAndSameSize(t *testing.T) {
	// Offset bounds and a gradient to cover every channel value.
	img := image.NewRGBA(image.Rect(10, 5, 74, 21))
	for y := 5; y < 21; y++ {
		for x := 10; x < 74; x++ {
			v := uint8((x - 10) * 4)
			img.SetRGBA(x, y, color.RGBA{R: v, G: uint8(y * 12), B: 255 - v, A: 255})
		}
	}

	for _, rng := range []ColorRange{WhiteRange, YellowRange, BlueRange} {
		out := Mask(img, rng)
		if out.Bounds().Dx() != img.Bounds().Dx() || out.Bounds().Dy() != img.Bounds().Dy() {
			t.Fatalf("mask size %v differs from input %v", out.Bounds(), img.Bounds())
		}
		for i := 0; i < len(out.Pix); i += 4 {
			p := out.Pix[i : i+4]
			black := p[0] == 0 && p[1] == 0 && p[2] == 0
			white := p[0] == 255 && p[1] == 255 && p[2] == 255
			if p[3] != 255 || !(black || white) {
				t.Fatalf("pixel %d = %v is not pure black or white", i/4, p)
			}
		}
	}
}

func TestColorRangeInclusive(t *testing.T) {
	rng := ColorRange{Min: RGB{10, 20, 30}, Max: RGB{40, 50, 60}}
	if !rng.Contains(10, 20, 30) || !rng.Contains(40, 50, 60) {
		t.Error("range bounds should be inclusive")
	}
	if rng.Contains(9, 20, 30) || rng.Contains(40, 51, 60) {
		t.Error("values outside the range should not match")
	}
}
