package termimg

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

// Renderer runs the load, select, fit, encode and write pipeline. The zero
// value is not usable; build one with NewRenderer and override fields as
// needed. A Renderer keeps no state between calls.
type Renderer struct {
	Loader *Loader
	Env    Environment
	Size   SizeProvider
	Out    io.Writer

	Passthrough PassthroughMode
	Sixel       SixelOptions
	Halfblock   HalfblockOptions
}

// NewRenderer returns a Renderer bound to the real process: the local
// filesystem and HTTP, the process environment, the stdout terminal size
// and os.Stdout.
func NewRenderer() *Renderer {
	return &Renderer{
		Loader: NewLoader(DefaultHTTPTimeout),
		Env:    OSEnvironment{},
		Size:   StdoutSize(),
		Out:    os.Stdout,
	}
}

// Render displays the image at location (a path or an http(s) URL) using the
// named protocol ("auto" detects one from the environment). Escape sequences
// are written to standard output.
func Render(ctx context.Context, location, protocol string) error {
	return NewRenderer().Render(ctx, location, protocol)
}

// Render loads the image at location and writes it to r.Out. The first
// failing step aborts the call and its error is returned unchanged.
func (r *Renderer) Render(ctx context.Context, location, protocol string) error {
	if r.Loader == nil {
		return fmt.Errorf("%w: no loader configured", ErrLoadFailed)
	}

	start := time.Now()
	img, err := r.Loader.Load(ctx, location)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"source": location,
		"width":  img.Rect.Dx(),
		"height": img.Rect.Dy(),
		"took":   time.Since(start),
	}).Debug("loaded image")

	return r.RenderImage(img, protocol)
}

// RenderImage writes an already decoded image to r.Out.
func (r *Renderer) RenderImage(img image.Image, protocol string) error {
	if img == nil {
		return fmt.Errorf("%w: image cannot be nil", ErrLoadFailed)
	}

	proto, err := SelectProtocol(protocol, r.env())
	if err != nil {
		return err
	}

	geo := QueryGeometry(r.Size)
	scaled := Fit(img, geo, proto)
	log.WithFields(log.Fields{
		"protocol": proto.String(),
		"columns":  geo.Columns,
		"rows":     geo.Rows,
		"width":    scaled.Rect.Dx(),
		"height":   scaled.Rect.Dy(),
	}).Debug("fitted image to terminal")

	out, err := r.Encode(scaled, proto)
	if err != nil {
		return err
	}
	log.WithField("size", humanize.Bytes(uint64(len(out)))).Debugf("encoded %s sequence", proto)

	return r.write(out)
}

// Encode turns an already fitted image into the bytes for protocol p,
// including tmux passthrough wrapping when enabled.
func (r *Renderer) Encode(img image.Image, p Protocol) ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch p {
	case Kitty:
		out, err = EncodeKitty(img)
	case ITerm2:
		out, err = EncodeITerm2(img)
	case Sixel:
		out, err = EncodeSixelWithOptions(img, r.Sixel)
	case Halfblocks:
		if r.Halfblock.Mosaic {
			return encodeMosaic(img, r.Halfblock.Dither), nil
		}
		return EncodeHalfblocks(img), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, p)
	}
	if err != nil {
		return nil, err
	}

	if r.Passthrough.active(r.env()) {
		out = wrapTmuxPassthrough(out)
	}
	if p == Sixel {
		// keep the prompt below the image
		out = append(out, '\n')
	}
	return out, nil
}

func (r *Renderer) env() Environment {
	if r.Env == nil {
		return OSEnvironment{}
	}
	return r.Env
}

type flusher interface {
	Flush() error
}

// write emits out with a single Write call and flushes buffered writers.
func (r *Renderer) write(out []byte) error {
	w := r.Out
	if w == nil {
		w = os.Stdout
	}

	n, err := w.Write(out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n != len(out) {
		return fmt.Errorf("%w: %w", ErrWriteFailed, io.ErrShortWrite)
	}

	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: failed to flush: %w", ErrWriteFailed, err)
		}
	}
	return nil
}
