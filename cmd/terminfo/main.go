package main

import (
	"fmt"
	"io"
	"os"

	"github.com/termgfx/termimg"
)

func main() {
	if err := report(os.Stdout, termimg.OSEnvironment{}, termimg.StdoutSize()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func report(w io.Writer, env termimg.Environment, size termimg.SizeProvider) error {
	fmt.Fprintln(w, "=== Terminal Image Support ===")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Terminal Environment:")
	for _, key := range []string{"TERM", "TERM_PROGRAM", "COLORTERM", "TMUX"} {
		value := env.Getenv(key)
		if value == "" {
			value = "(unset)"
		}
		fmt.Fprintf(w, "  %s: %s\n", key, value)
	}
	fmt.Fprintln(w)

	geo := termimg.QueryGeometry(size)
	fmt.Fprintln(w, "Window Size:")
	fmt.Fprintf(w, "  %dx%d characters\n", geo.Columns, geo.Rows)
	fmt.Fprintln(w)

	detected := termimg.DetectProtocol(env)
	fmt.Fprintln(w, "Image Budget (width in pixels):")
	for _, p := range []termimg.Protocol{termimg.Kitty, termimg.Sixel, termimg.ITerm2, termimg.Halfblocks} {
		cols := max(int(geo.Columns)-termimg.ReservedColumns, 1)
		marker := ""
		if p == detected {
			marker = " <- auto"
		}
		fmt.Fprintf(w, "  %-9s %5d%s\n", p, cols*termimg.PixelsPerColumn(p), marker)
	}
	fmt.Fprintln(w)

	_, err := fmt.Fprintf(w, "Auto-detected protocol: %s\n", detected)
	return err
}
