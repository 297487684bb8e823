package termimg

import (
	"bytes"
	"fmt"
	"strings"
)

// PassthroughMode controls tmux DCS passthrough wrapping of graphics output.
type PassthroughMode int

const (
	// PassthroughOff writes sequences unchanged.
	PassthroughOff PassthroughMode = iota
	// PassthroughOn always wraps graphics sequences.
	PassthroughOn
	// PassthroughAuto wraps only when the environment says we are inside tmux.
	PassthroughAuto
)

func (m PassthroughMode) String() string {
	switch m {
	case PassthroughOn:
		return "on"
	case PassthroughAuto:
		return "auto"
	default:
		return "off"
	}
}

// ParsePassthroughMode accepts "off", "on" and "auto" (case-insensitive).
func ParsePassthroughMode(s string) (PassthroughMode, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return PassthroughOff, nil
	case "on":
		return PassthroughOn, nil
	case "auto":
		return PassthroughAuto, nil
	default:
		return PassthroughOff, fmt.Errorf("invalid tmux passthrough mode: %s. valid options: off, on, auto", s)
	}
}

func (m PassthroughMode) active(env Environment) bool {
	switch m {
	case PassthroughOn:
		return true
	case PassthroughAuto:
		return inTmux(env)
	default:
		return false
	}
}

// wrapTmuxPassthrough wraps a graphics escape sequence so tmux forwards it to
// the outer terminal: \ePtmux;{sequence with every ESC doubled}\e\\
func wrapTmuxPassthrough(out []byte) []byte {
	if !bytes.HasPrefix(out, []byte("\x1b")) {
		return out
	}
	wrapped := make([]byte, 0, len(out)+len(out)/16+16)
	wrapped = append(wrapped, "\x1bPtmux;"...)
	wrapped = append(wrapped, bytes.ReplaceAll(out, []byte("\x1b"), []byte("\x1b\x1b"))...)
	wrapped = append(wrapped, "\x1b\\"...)
	return wrapped
}
