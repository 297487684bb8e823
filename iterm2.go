package termimg

import "image"

const (
	iterm2Start = "\x1b]1337;File=inline=1:"
	iterm2End   = "\x07"
)

// EncodeITerm2 encodes img as PNG and wraps it in an iTerm2 inline file OSC:
//
//	ESC ]1337;File=inline=1:<base64 png> BEL
func EncodeITerm2(img image.Image) ([]byte, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(iterm2Start)+len(iterm2End)+(len(data)+2)/3*4)
	out = append(out, iterm2Start...)
	out = AppendBase64(out, data)
	out = append(out, iterm2End...)
	return out, nil
}
