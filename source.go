package termimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultHTTPTimeout bounds a single image download.
const DefaultHTTPTimeout = 30 * time.Second

// ByteSource fetches the raw, still encoded, bytes of an image.
type ByteSource interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileSource reads images from the local filesystem.
type FileSource struct{}

func (FileSource) Fetch(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// HTTPSource downloads images with a single GET request. There are no retries.
type HTTPSource struct {
	Client *http.Client
}

// NewHTTPSource returns an HTTPSource whose client gives up after timeout.
// A non-positive timeout selects DefaultHTTPTimeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSource{Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch image: status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// Loader resolves a path or URL to a decoded image.
type Loader struct {
	Files ByteSource
	HTTP  ByteSource
}

// NewLoader returns a Loader backed by the local filesystem and an HTTP
// client with the given timeout.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		Files: FileSource{},
		HTTP:  NewHTTPSource(timeout),
	}
}

// IsURL reports whether location should be fetched over HTTP(S).
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load fetches and decodes the image at location. The format is sniffed from
// the content. Every failure wraps ErrLoadFailed.
func (l *Loader) Load(ctx context.Context, location string) (*image.NRGBA, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrLoadFailed)
	}

	src := l.Files
	if IsURL(location) {
		src = l.HTTP
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no source configured for %s", ErrLoadFailed, location)
	}

	data, err := src.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return Decode(data)
}

// Decode decodes an encoded image (PNG, JPEG, GIF, BMP, TIFF or WebP). Only
// the first frame of animated formats is kept.
func Decode(data []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", ErrLoadFailed, err)
	}
	if b := img.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("%w: image has no pixels (%dx%d)", ErrLoadFailed, b.Dx(), b.Dy())
	}
	return toNRGBA(img), nil
}

// toNRGBA returns img as a zero-origin, tightly packed, non-premultiplied
// RGBA image. Images already in that layout are returned as is.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}
