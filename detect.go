package termimg

import (
	"os"
	"strings"
)

// Environment is the key/value lookup used by protocol detection.
type Environment interface {
	Getenv(key string) string
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

func (OSEnvironment) Getenv(key string) string { return os.Getenv(key) }

// MapEnvironment is a fixed environment, mostly useful in tests.
type MapEnvironment map[string]string

func (m MapEnvironment) Getenv(key string) string { return m[key] }

// DetectProtocol picks a protocol from TERM_PROGRAM, TERM and COLORTERM.
// It is a heuristic only: the terminal is never queried, and Halfblocks is
// returned when nothing better is advertised.
func DetectProtocol(env Environment) Protocol {
	if env == nil {
		env = OSEnvironment{}
	}

	term := env.Getenv("TERM")

	switch {
	case env.Getenv("TERM_PROGRAM") == "iTerm.app":
		return ITerm2
	case strings.Contains(term, "kitty"):
		return Kitty
	case strings.Contains(term, "xterm"):
		return Sixel
	}

	switch env.Getenv("COLORTERM") {
	case "truecolor", "24bit":
		return Halfblocks
	}

	return Halfblocks
}

// inTmux reports whether env describes a session running inside tmux.
func inTmux(env Environment) bool {
	return env.Getenv("TMUX") != "" || env.Getenv("TERM_PROGRAM") == "tmux"
}
