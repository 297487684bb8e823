package termimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// decodeSixelRuns expands a run-length encoded sixel string back into the
// column masks it was produced from.
func decodeSixelRuns(t *testing.T, s string) []uint8 {
	t.Helper()
	var masks []uint8
	for i := 0; i < len(s); {
		n := 1
		if s[i] == '!' {
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			var err error
			n, err = strconv.Atoi(s[i+1 : j])
			require.NoError(t, err)
			i = j
		}
		require.Less(t, i, len(s), "repeat without a sixel character")
		ch := s[i]
		require.True(t, ch >= '?' && ch <= '~', "invalid sixel character %q", ch)
		for range n {
			masks = append(masks, ch-sixelCharOffset)
		}
		i++
	}
	return masks
}

type sixelBand map[int]string // colour index -> RLE body

// parseSixelBody splits the band section of a cube encoded stream (between
// the palette and the terminator) into per-band colour runs.
func parseSixelBody(t *testing.T, out []byte, width, height int) (palette map[int]string, bands []sixelBand) {
	t.Helper()
	s := string(out)
	header := fmt.Sprintf("\x1bP0;0;0q\"1;1;%d;%d", width, height)
	require.True(t, strings.HasPrefix(s, header), "missing header in %q", s)
	require.True(t, strings.HasSuffix(s, sixelEnd), "missing terminator in %q", s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, header), sixelEnd)

	palette = map[int]string{}
	for strings.HasPrefix(s, "#") {
		end := strings.IndexAny(s[1:], "#-") + 1
		if end == 0 {
			end = len(s)
		}
		entry := s[1:end]
		idx, rest, ok := strings.Cut(entry, ";")
		if !ok {
			break // colour select, palette is over
		}
		n, err := strconv.Atoi(idx)
		require.NoError(t, err)
		palette[n] = strings.TrimPrefix(rest, "2;")
		s = s[end:]
	}

	for _, raw := range strings.Split(s, "-") {
		if raw == "" {
			continue
		}
		band := sixelBand{}
		for _, sel := range strings.Split(raw, "$") {
			if sel == "" {
				continue
			}
			require.True(t, strings.HasPrefix(sel, "#"), "colour run without select: %q", sel)
			i := 1
			for i < len(sel) && sel[i] >= '0' && sel[i] <= '9' {
				i++
			}
			c, err := strconv.Atoi(sel[1:i])
			require.NoError(t, err)
			band[c] = sel[i:]
		}
		bands = append(bands, band)
	}
	require.Equal(t, (height+sixelBandHeight-1)/sixelBandHeight, strings.Count(s, "-"), "one '-' per band")
	return palette, bands
}

func TestQuantizeRangeAndDeterminism(t *testing.T) {
	for r := 0; r < 256; r++ {
		for g := 0; g < 256; g += 3 {
			for b := 0; b < 256; b += 7 {
				got := Quantize(uint8(r), uint8(g), uint8(b))
				require.Less(t, int(got), PaletteSize)
				require.Equal(t, got, Quantize(uint8(r), uint8(g), uint8(b)))
			}
		}
	}
}

func TestCubeLevel(t *testing.T) {
	tests := []struct {
		in   uint8
		want uint8
	}{
		{0, 0},
		{25, 0},
		{26, 1},
		{51, 1},
		{127, 2},
		{128, 3},
		{204, 4},
		{229, 4},
		{230, 5},
		{255, 5},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(int(tt.in)), func(t *testing.T) {
			assert.Equal(t, tt.want, CubeLevel(tt.in))
		})
	}
}

func TestPaletteRoundTrip(t *testing.T) {
	for i := range PaletteSize {
		r, g, b := CubeComponents(uint8(i))
		assert.Less(t, r, uint8(cubeLevels))
		assert.Less(t, g, uint8(cubeLevels))
		assert.Less(t, b, uint8(cubeLevels))
		assert.Equal(t, i, int(r)*36+int(g)*6+int(b))
	}
}

func TestPaletteRGB(t *testing.T) {
	r, g, b := PaletteRGB(180)
	assert.Equal(t, []uint8{100, 0, 0}, []uint8{r, g, b})

	r, g, b = PaletteRGB(215)
	assert.Equal(t, []uint8{100, 100, 100}, []uint8{r, g, b})

	r, g, b = PaletteRGB(Quantize(51, 102, 153))
	assert.Equal(t, []uint8{20, 40, 60}, []uint8{r, g, b})
}

func TestEncodeSixelSolidRed(t *testing.T) {
	img := solidImage(2, 2, color.NRGBA{R: 255, A: 255})

	out := EncodeSixel(img)

	assert.Equal(t, "\x1bP0;0;0q\"1;1;2;2#180;2;100;0;0#180!2B$-\x1b\\", string(out))
	assert.Equal(t, 1, strings.Count(string(out), ";2;"), "exactly one palette entry")
}

func TestEncodeSixelSinglePixel(t *testing.T) {
	img := solidImage(1, 1, color.NRGBA{A: 255})
	assert.Equal(t, "\x1bP0;0;0q\"1;1;1;1#0;2;0;0;0#0@$-\x1b\\", string(EncodeSixel(img)))
}

func TestEncodeSixelUnevenLastBand(t *testing.T) {
	img := solidImage(1, 7, color.NRGBA{B: 255, A: 255})

	out := EncodeSixel(img)

	// full band: all six bits set ('~'); short band: only row 0 ('@')
	assert.Equal(t, "\x1bP0;0;0q\"1;1;1;7#5;2;0;0;100#5~$-#5@$-\x1b\\", string(out))
}

func TestEncodeSixelFullyTransparent(t *testing.T) {
	img := solidImage(3, 7, color.NRGBA{R: 255, A: 10})

	out := EncodeSixel(img)

	assert.Equal(t, "\x1bP0;0;0q\"1;1;3;7--\x1b\\", string(out))
}

func TestEncodeSixelTransparencyExclusion(t *testing.T) {
	img := solidImage(4, 3, color.NRGBA{G: 255, A: 255})
	// column 1 fully transparent, one stray pixel with a colour of its own
	for y := range 3 {
		img.SetNRGBA(1, y, color.NRGBA{R: 255, A: 127})
	}
	img.SetNRGBA(3, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 0})

	out := EncodeSixel(img)
	palette, bands := parseSixelBody(t, out, 4, 3)

	green := int(Quantize(0, 255, 0))
	assert.Equal(t, map[int]string{green: "0;100;0"}, palette, "transparent colours never reach the palette")
	require.Len(t, bands, 1)
	require.Len(t, bands[0], 1)

	masks := decodeSixelRuns(t, bands[0][green])
	assert.Equal(t, []uint8{0b111, 0, 0b111, 0b011}, masks)
}

func TestEncodeSixelBandsReconstructImage(t *testing.T) {
	const width, height = 17, 13
	rng := rand.New(rand.NewSource(42))
	colors := []color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
		{R: 255, G: 255, A: 255},
		{A: 0},
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, colors[rng.Intn(len(colors))])
		}
	}

	out := EncodeSixel(img)
	_, bands := parseSixelBody(t, out, width, height)
	require.Len(t, bands, 3)

	for bi, band := range bands {
		y0 := bi * sixelBandHeight
		rows := min(sixelBandHeight, height-y0)
		for c, body := range band {
			masks := decodeSixelRuns(t, body)
			require.Len(t, masks, width, "band %d colour %d", bi, c)

			for x := range width {
				var want uint8
				for r := range rows {
					p := img.NRGBAAt(x, y0+r)
					if p.A >= alphaThreshold && int(Quantize(p.R, p.G, p.B)) == c {
						want |= 1 << r
					}
				}
				assert.Equal(t, want, masks[x], "band %d colour %d column %d", bi, c, x)
			}
		}
	}
}

func TestAppendSixelRuns(t *testing.T) {
	tests := []struct {
		name  string
		masks []uint8
		want  string
	}{
		{name: "single", masks: []uint8{0}, want: "?"},
		{name: "run", masks: []uint8{63, 63, 63}, want: "!3~"},
		{name: "mixed", masks: []uint8{1, 1, 2, 0, 0, 0, 0}, want: "!2@A!4?"},
		{name: "alternating", masks: []uint8{1, 2, 1}, want: "@A@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendSixelRuns(nil, tt.masks)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.masks, decodeSixelRuns(t, string(got)))
		})
	}
}

func TestAppendSixelRunsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := range 50 {
		masks := make([]uint8, 1+rng.Intn(200))
		for x := range masks {
			// few distinct values so runs actually happen
			masks[x] = uint8(rng.Intn(4)) * 21
		}
		got := decodeSixelRuns(t, string(appendSixelRuns(nil, masks)))
		require.Equal(t, masks, got, "iteration %d", i)
	}
}

func TestEncodeSixelWithOptions(t *testing.T) {
	img := createTestImage(24, 18)

	t.Run("cube default", func(t *testing.T) {
		out, err := EncodeSixelWithOptions(img, SixelOptions{})
		require.NoError(t, err)
		assert.Equal(t, EncodeSixel(img), out)
	})

	for _, dither := range []bool{false, true} {
		t.Run(fmt.Sprintf("adaptive dither=%v", dither), func(t *testing.T) {
			out, err := EncodeSixelWithOptions(img, SixelOptions{
				Palette: PaletteAdaptive,
				Colors:  16,
				Dither:  dither,
			})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("\x1bP")), "DCS introducer")
			assert.True(t, bytes.HasSuffix(out, []byte("\x1b\\")), "string terminator")
		})
	}

	t.Run("nil image", func(t *testing.T) {
		_, err := EncodeSixelWithOptions(nil, SixelOptions{})
		assert.ErrorIs(t, err, ErrEncodeFailed)
	})
}

func TestSixelOptionsColors(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 256},
		{-3, 256},
		{1, 2},
		{16, 16},
		{1000, 256},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SixelOptions{Colors: tt.in}.colors(), "Colors=%d", tt.in)
	}
}
