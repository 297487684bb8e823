package termimg

import (
	"image"
	"strconv"

	"github.com/charmbracelet/x/mosaic"
)

const (
	upperHalfBlock = "▀"
	sgrReset       = "\x1b[0m"
)

// HalfblockOptions tunes the ANSI fallback renderer.
type HalfblockOptions struct {
	// Mosaic renders through charmbracelet/x/mosaic instead of the plain
	// one-glyph-per-two-pixels encoder.
	Mosaic bool
	// Dither enables mosaic's dithering. Ignored unless Mosaic is set.
	Dither bool
}

// EncodeHalfblocks paints two vertically stacked pixels per character cell:
// the foreground colour is the top pixel, the background colour the bottom
// one, and the glyph is the upper half block. An odd last row reuses the top
// pixel as the bottom. Each terminal row ends with an SGR reset and newline.
func EncodeHalfblocks(img image.Image) []byte {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	// ~40 bytes of escapes per cell
	out := make([]byte, 0, w*((h+1)/2)*40)
	for y := 0; y < h; y += 2 {
		bottom := y + 1
		if bottom >= h {
			bottom = y
		}
		for x := range w {
			top := src.PixOffset(x, y)
			bot := src.PixOffset(x, bottom)
			out = appendTrueColor(out, "\x1b[38;2;", src.Pix[top:top+3])
			out = appendTrueColor(out, "\x1b[48;2;", src.Pix[bot:bot+3])
			out = append(out, upperHalfBlock...)
		}
		out = append(out, sgrReset...)
		out = append(out, '\n')
	}
	return out
}

// appendTrueColor appends "<prefix>R;G;Bm".
func appendTrueColor(dst []byte, prefix string, rgb []uint8) []byte {
	dst = append(dst, prefix...)
	dst = strconv.AppendUint(dst, uint64(rgb[0]), 10)
	dst = append(dst, ';')
	dst = strconv.AppendUint(dst, uint64(rgb[1]), 10)
	dst = append(dst, ';')
	dst = strconv.AppendUint(dst, uint64(rgb[2]), 10)
	return append(dst, 'm')
}

// encodeMosaic renders img with mosaic using one column per pixel and one
// row per two pixel rows, matching the grid EncodeHalfblocks would produce.
func encodeMosaic(img image.Image, dither bool) []byte {
	b := img.Bounds()
	m := mosaic.New().
		Width(b.Dx()).
		Height((b.Dy() + 1) / 2).
		Dither(dither)
	return []byte(m.Render(img))
}
