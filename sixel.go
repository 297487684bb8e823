package termimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/mattn/go-sixel"
	"github.com/soniakeys/quant/median"
)

const (
	// PaletteSize is the number of entries in the 6x6x6 colour cube.
	PaletteSize = 216
	// Transparent marks a pixel that is never painted.
	Transparent uint8 = 255

	alphaThreshold  = 128
	cubeLevels      = 6
	sixelBandHeight = 6
	sixelCharOffset = 63

	sixelEnd = "\x1b\\"
)

// SixelPalette selects how pixels are mapped to Sixel colour registers.
type SixelPalette int

const (
	// PaletteCube quantizes to the fixed 216 colour cube.
	PaletteCube SixelPalette = iota
	// PaletteAdaptive builds a median cut palette from the image itself.
	PaletteAdaptive
)

func (p SixelPalette) String() string {
	if p == PaletteAdaptive {
		return "adaptive"
	}
	return "cube"
}

// SixelOptions tunes the Sixel encoder. The zero value selects the colour
// cube encoder.
type SixelOptions struct {
	Palette SixelPalette
	// Colors is the adaptive palette size, clamped to 2..256 (default 256).
	Colors int
	// Dither applies Stucki error diffusion against the adaptive palette.
	Dither bool
}

func (o SixelOptions) colors() int {
	switch {
	case o.Colors <= 0:
		return 256
	case o.Colors < 2:
		return 2
	case o.Colors > 256:
		return 256
	default:
		return o.Colors
	}
}

// CubeLevel maps an 8-bit channel to its nearest cube level 0..5.
func CubeLevel(c uint8) uint8 {
	return uint8((uint16(c)*(cubeLevels-1) + 127) / 255)
}

// Quantize maps an RGB triple to its colour cube index in 0..215.
func Quantize(r, g, b uint8) uint8 {
	return CubeLevel(r)*36 + CubeLevel(g)*6 + CubeLevel(b)
}

// CubeComponents splits a cube index back into its r, g, b levels (0..5).
func CubeComponents(i uint8) (r, g, b uint8) {
	return i / 36, (i % 36) / 6, i % 6
}

// PaletteRGB returns the Sixel colour register value (0..100 per channel)
// for cube index i.
func PaletteRGB(i uint8) (r, g, b uint8) {
	lr, lg, lb := CubeComponents(i)
	return levelPercent(lr), levelPercent(lg), levelPercent(lb)
}

func levelPercent(level uint8) uint8 {
	return uint8((uint16(level)*100 + 2) / (cubeLevels - 1))
}

// indexedImage is an image mapped onto the colour cube.
type indexedImage struct {
	width  int
	height int
	pix    []uint8 // row-major cube indices or Transparent
	used   [PaletteSize]bool
}

func quantizeImage(src *image.NRGBA) *indexedImage {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	ix := &indexedImage{
		width:  w,
		height: h,
		pix:    make([]uint8, w*h),
	}
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+4*w]
		for x := range w {
			p := row[4*x : 4*x+4]
			if p[3] < alphaThreshold {
				ix.pix[y*w+x] = Transparent
				continue
			}
			c := Quantize(p[0], p[1], p[2])
			ix.pix[y*w+x] = c
			ix.used[c] = true
		}
	}
	return ix
}

// EncodeSixel encodes img as a Sixel stream using the 216 colour cube:
//
//	ESC P0;0;0q"1;1;W;H  #i;2;r;g;b ...  bands ...  ESC \
//
// Pixels with alpha below 128 are left unpainted so the terminal background
// shows through. A fully transparent image still yields a valid stream.
func EncodeSixel(img image.Image) []byte {
	ix := quantizeImage(toNRGBA(img))

	out := make([]byte, 0, 64+PaletteSize*16+ix.width*ix.height/2)
	out = appendSixelHeader(out, ix.width, ix.height)
	out = appendSixelPalette(out, &ix.used)
	out = appendSixelBands(out, ix)
	return append(out, sixelEnd...)
}

// EncodeSixelWithOptions encodes img with the palette strategy in opts.
func EncodeSixelWithOptions(img image.Image, opts SixelOptions) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image cannot be nil", ErrEncodeFailed)
	}
	if opts.Palette == PaletteAdaptive {
		return encodeSixelAdaptive(img, opts)
	}
	return EncodeSixel(img), nil
}

// appendSixelHeader writes the DCS introducer (aspect 0, background left
// untouched, default grid) and raster attributes with a 1:1 pixel aspect.
func appendSixelHeader(dst []byte, w, h int) []byte {
	dst = append(dst, "\x1bP0;0;0q\"1;1;"...)
	dst = strconv.AppendInt(dst, int64(w), 10)
	dst = append(dst, ';')
	return strconv.AppendInt(dst, int64(h), 10)
}

func appendSixelPalette(dst []byte, used *[PaletteSize]bool) []byte {
	for i := range PaletteSize {
		if !used[i] {
			continue
		}
		r, g, b := PaletteRGB(uint8(i))
		dst = append(dst, '#')
		dst = strconv.AppendInt(dst, int64(i), 10)
		dst = append(dst, ";2;"...)
		dst = strconv.AppendUint(dst, uint64(r), 10)
		dst = append(dst, ';')
		dst = strconv.AppendUint(dst, uint64(g), 10)
		dst = append(dst, ';')
		dst = strconv.AppendUint(dst, uint64(b), 10)
	}
	return dst
}

// appendSixelBands emits every 6-row band. Within a band each colour present
// gets "#c", its run-length encoded column masks and a "$" carriage return;
// the band ends with "-". Colours absent from a band are skipped.
func appendSixelBands(dst []byte, ix *indexedImage) []byte {
	w, h := ix.width, ix.height

	var (
		masks   [PaletteSize][]uint8
		present [PaletteSize]bool
	)

	for y := 0; y < h; y += sixelBandHeight {
		rows := min(sixelBandHeight, h-y)
		present = [PaletteSize]bool{}

		for r := range rows {
			line := ix.pix[(y+r)*w : (y+r+1)*w]
			bit := uint8(1) << r
			for x, c := range line {
				if c == Transparent {
					continue
				}
				if !present[c] {
					present[c] = true
					if masks[c] == nil {
						masks[c] = make([]uint8, w)
					} else {
						clear(masks[c])
					}
				}
				masks[c][x] |= bit
			}
		}

		for c := range PaletteSize {
			if !present[c] {
				continue
			}
			dst = append(dst, '#')
			dst = strconv.AppendInt(dst, int64(c), 10)
			dst = appendSixelRuns(dst, masks[c])
			dst = append(dst, '$')
		}
		dst = append(dst, '-')
	}
	return dst
}

// appendSixelRuns run-length encodes column masks: a run of n > 1 equal
// masks v becomes "!n" followed by v+63, a single mask is just v+63.
func appendSixelRuns(dst []byte, masks []uint8) []byte {
	for x := 0; x < len(masks); {
		v := masks[x]
		n := 1
		for x+n < len(masks) && masks[x+n] == v {
			n++
		}
		if n > 1 {
			dst = append(dst, '!')
			dst = strconv.AppendInt(dst, int64(n), 10)
		}
		dst = append(dst, v+sixelCharOffset)
		x += n
	}
	return dst
}

// encodeSixelAdaptive reduces img to a median cut palette, optionally with
// Stucki dithering, and hands the result to go-sixel.
func encodeSixelAdaptive(img image.Image, opts SixelOptions) ([]byte, error) {
	colors := opts.colors()
	bounds := img.Bounds()

	pal := median.Quantizer(colors).Palette(img).ColorPalette()
	if len(pal) == 0 {
		return nil, fmt.Errorf("%w: median cut produced an empty palette", ErrEncodeFailed)
	}

	var reduced image.Image
	if opts.Dither {
		reduced = ditherImage(img, pal)
	} else {
		paletted := image.NewPaletted(bounds, pal)
		draw.Draw(paletted, bounds, img, bounds.Min, draw.Src)
		reduced = paletted
	}

	var buf bytes.Buffer
	enc := sixel.NewEncoder(&buf)
	enc.Colors = colors
	enc.Dither = false // already reduced above

	if err := enc.Encode(reduced); err != nil {
		return nil, fmt.Errorf("%w: failed to encode sixel: %w", ErrEncodeFailed, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: sixel encoding produced empty output", ErrEncodeFailed)
	}
	return buf.Bytes(), nil
}

// ditherImage applies Stucki error diffusion against pal. The ditherer works
// in place when it can, so it is given a private copy.
func ditherImage(img image.Image, pal color.Palette) image.Image {
	bounds := img.Bounds()
	work := image.NewRGBA(bounds)
	draw.Draw(work, bounds, img, bounds.Min, draw.Src)

	ditherer := dither.NewDitherer(pal)
	if ditherer == nil {
		return work
	}
	ditherer.Matrix = dither.Stucki
	if out := ditherer.Dither(work); out != nil {
		return out
	}
	return work
}
