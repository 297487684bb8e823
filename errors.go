package termimg

import "errors"

// Error kinds returned by the render pipeline. Every error produced by this
// package wraps exactly one of them, so callers can branch with errors.Is.
var (
	// ErrLoadFailed covers filesystem, network, HTTP status and decode failures.
	ErrLoadFailed = errors.New("load failed")
	// ErrUnknownProtocol is returned for a protocol name that is not recognised.
	ErrUnknownProtocol = errors.New("unknown protocol")
	// ErrEncodeFailed signals a broken encoder invariant.
	ErrEncodeFailed = errors.New("encode failed")
	// ErrWriteFailed is returned when the escape sequence could not be written.
	ErrWriteFailed = errors.New("write failed")
)
