package termimg

import (
	"image"

	"github.com/nfnt/resize"
)

// Cell assumptions used to turn the character grid into a pixel budget.
const (
	// ReservedColumns are left free on the right edge of the terminal.
	ReservedColumns = 2
	// ReservedRows are left free for the prompt below a halfblock image.
	ReservedRows = 4

	kittyPixelsPerColumn  = 8
	sixelPixelsPerColumn  = 8
	iterm2PixelsPerColumn = 10
)

// PixelsPerColumn returns how many source pixels one character column is
// assumed to hold for the protocol. Halfblocks paint one pixel per column
// and two pixel rows per terminal row.
func PixelsPerColumn(p Protocol) int {
	switch p {
	case ITerm2:
		return iterm2PixelsPerColumn
	case Kitty:
		return kittyPixelsPerColumn
	case Sixel:
		return sixelPixelsPerColumn
	default:
		return 1
	}
}

// Fit scales img down so it fits the terminal grid for the given protocol.
// Images that already fit are returned unchanged, without resampling.
func Fit(img image.Image, geo Geometry, p Protocol) *image.NRGBA {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w < 1 || h < 1 {
		return src
	}

	cols := max(int(geo.Columns)-ReservedColumns, 1)

	if p == Halfblocks {
		maxW := cols
		maxH := max((int(geo.Rows)-ReservedRows)*2, 1)
		if w <= maxW && h <= maxH {
			return src
		}
		scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		return ResizeImage(src, uint(scaleDim(w, scale, maxW)), uint(scaleDim(h, scale, maxH)))
	}

	maxW := cols * PixelsPerColumn(p)
	if w <= maxW {
		return src
	}
	scale := float64(maxW) / float64(w)
	return ResizeImage(src, uint(maxW), uint(scaleDim(h, scale, h)))
}

// scaleDim truncates v*scale to an integer in [1, limit]. The epsilon keeps
// a dimension that scales to exactly its bound from landing one pixel short.
func scaleDim(v int, scale float64, limit int) int {
	return min(max(int(float64(v)*scale+1e-9), 1), limit)
}

// ResizeImage resamples img to exactly width x height with a Lanczos3 filter.
func ResizeImage(img image.Image, width, height uint) *image.NRGBA {
	b := img.Bounds()
	if uint(b.Dx()) == width && uint(b.Dy()) == height {
		return toNRGBA(img)
	}
	return toNRGBA(resize.Resize(width, height, img, resize.Lanczos3))
}
