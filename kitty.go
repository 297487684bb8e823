package termimg

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Kitty graphics protocol framing for a single transmit-and-display action
// of PNG data (f=100, a=T).
const (
	kittyStart = "\x1b_Gf=100,a=T;"
	kittyEnd   = "\x1b\\"
)

// EncodeKitty encodes img as PNG and wraps it in one Kitty graphics APC:
//
//	ESC _G f=100,a=T;<base64 png> ESC \
func EncodeKitty(img image.Image) ([]byte, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(kittyStart)+len(kittyEnd)+(len(data)+2)/3*4)
	out = append(out, kittyStart...)
	out = AppendBase64(out, data)
	out = append(out, kittyEnd...)
	return out, nil
}

// encodePNG losslessly encodes img as PNG in memory.
func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image cannot be nil", ErrEncodeFailed)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: failed to encode PNG: %w", ErrEncodeFailed, err)
	}
	return buf.Bytes(), nil
}
