/*
Package termimg displays raster images inline in a text terminal.

An image is loaded from a local path or an http(s) URL, scaled to fit the
character grid, and encoded for one of four wire protocols:

  - Kitty graphics protocol (PNG, base64, APC)
  - Sixel (216 colour cube, 6-row bands, run-length encoded)
  - iTerm2 inline images (PNG, base64, OSC 1337)
  - ANSI truecolor halfblocks (works almost everywhere)

Basic Usage:

	// Detect the protocol from TERM_PROGRAM, TERM and COLORTERM
	if err := termimg.Render(ctx, "image.png", "auto"); err != nil {
	    log.Fatal(err)
	}

Custom pipeline:

	r := termimg.NewRenderer()
	r.Env = termimg.MapEnvironment{"TERM": "xterm-256color"}
	r.Size = termimg.FixedSize{Columns: 120, Rows: 40}
	r.Out = &buf
	err := r.Render(ctx, "https://example.com/cat.jpg", "auto")

Encoders:

The encoders are pure functions and can be used on their own:

	out := termimg.EncodeSixel(img)
	out, err := termimg.EncodeKitty(img)
	out, err := termimg.EncodeITerm2(img)
	out := termimg.EncodeHalfblocks(img)

Protocol detection is a heuristic over environment variables only; the
terminal is never queried.
*/
package termimg
