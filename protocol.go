package termimg

import (
	"fmt"
	"strings"
)

// Protocol identifies a terminal image wire protocol.
type Protocol int

const (
	Unsupported Protocol = iota
	Kitty
	Sixel
	ITerm2
	Halfblocks
)

// Auto is the protocol name that asks SelectProtocol to run detection.
const Auto = "auto"

func (p Protocol) String() string {
	switch p {
	case Kitty:
		return "kitty"
	case Sixel:
		return "sixel"
	case ITerm2:
		return "iterm2"
	case Halfblocks:
		return "halfblock"
	default:
		return "unsupported"
	}
}

// ParseProtocol maps a protocol name (case-insensitive) to its Protocol.
// "auto" is not a protocol and is rejected here; use SelectProtocol.
func ParseProtocol(name string) (Protocol, error) {
	switch strings.ToLower(name) {
	case "kitty":
		return Kitty, nil
	case "sixel":
		return Sixel, nil
	case "iterm2":
		return ITerm2, nil
	case "halfblock", "halfblocks":
		return Halfblocks, nil
	default:
		return Unsupported, fmt.Errorf("%w: invalid protocol: %s. valid options: kitty, sixel, iterm2, halfblock",
			ErrUnknownProtocol, name)
	}
}

// SelectProtocol resolves the requested protocol name. "auto" (or an empty
// name) runs the environment heuristic in DetectProtocol and never fails.
func SelectProtocol(requested string, env Environment) (Protocol, error) {
	if requested == "" || strings.EqualFold(requested, Auto) {
		return DetectProtocol(env), nil
	}
	return ParseProtocol(requested)
}
