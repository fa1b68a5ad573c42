package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// RoundedMask returns a w x h alpha mask holding a filled rounded rectangle.
// A pixel is opaque when its center lies inside the shape.
func RoundedMask(w, h, radius int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r := float64(radius)
	if limit := float64(min(w, h)) / 2; r > limit {
		r = limit
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideRounded(float64(x)+0.5, float64(y)+0.5, float64(w), float64(h), r) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

func insideRounded(px, py, w, h, r float64) bool {
	cx, cy := px, py
	switch {
	case px < r:
		cx = r
	case px > w-r:
		cx = w - r
	}
	switch {
	case py < r:
		cy = r
	case py > h-r:
		cy = h - r
	}
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= r*r
}

// ApplyMask returns a copy of img whose alpha is scaled by mask. The mask is
// expected to match img's size; pixels outside it become transparent.
func ApplyMask(img image.Image, mask *image.Alpha) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := y*out.Stride + x*4 + 3
			a := uint32(0)
			if (image.Point{X: x, Y: y}).In(mask.Rect) {
				a = uint32(mask.AlphaAt(x, y).A)
			}
			out.Pix[i] = uint8(uint32(out.Pix[i]) * a / 0xff)
		}
	}
	return out
}
