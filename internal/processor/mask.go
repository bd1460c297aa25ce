package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// RGB is an 8-bit color triple
type RGB [3]uint8

// ColorRange is an inclusive per-channel RGB band
type ColorRange struct {
	Min RGB
	Max RGB
}

// Contains reports whether r,g,b lie inside the range on all channels
func (c ColorRange) Contains(r, g, b uint8) bool {
	return r >= c.Min[0] && r <= c.Max[0] &&
		g >= c.Min[1] && g <= c.Max[1] &&
		b >= c.Min[2] && b <= c.Max[2]
}

// Legend colors of the three Bollinger values
var (
	WhiteRange  = ColorRange{Min: RGB{230, 230, 230}, Max: RGB{255, 255, 255}}
	YellowRange = ColorRange{Min: RGB{220, 170, 0}, Max: RGB{255, 255, 90}}
	BlueRange   = ColorRange{Min: RGB{0, 120, 180}, Max: RGB{100, 220, 255}}
)

// BandRanges assigns a color range to each band
type BandRanges struct {
	Upper  ColorRange
	Middle ColorRange
	Lower  ColorRange
}

// DefaultBandRanges matches the chart legend: white upper, yellow middle, blue lower
var DefaultBandRanges = BandRanges{
	Upper:  WhiteRange,
	Middle: YellowRange,
	Lower:  BlueRange,
}

// Mask returns an opaque black image of the same size as img in which
// every visible pixel inside rng is white. Fully transparent pixels are
// background regardless of their color.
func Mask(img image.Image, rng ColorRange) *image.NRGBA {
	src := imaging.Clone(img)
	out := image.NewNRGBA(src.Rect)

	for i := 0; i+3 < len(src.Pix); i += 4 {
		r, g, b, a := src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3]
		var v uint8
		if a > 0 && rng.Contains(r, g, b) {
			v = 255
		}
		out.Pix[i] = v
		out.Pix[i+1] = v
		out.Pix[i+2] = v
		out.Pix[i+3] = 255
	}

	return out
}
