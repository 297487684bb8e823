package termimg

import (
	"encoding/base64"
	"sync"
)

// payload buffers are reused between encodes; PNG payloads for a full
// terminal width routinely reach a few hundred KB.
var base64BufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 64*1024)
		return &buf
	},
}

// Base64Encode returns the standard (RFC 4648, padded) base64 encoding of src.
func Base64Encode(src []byte) string {
	return string(AppendBase64(nil, src))
}

// AppendBase64 appends the padded base64 encoding of src to dst.
func AppendBase64(dst, src []byte) []byte {
	bufPtr := base64BufferPool.Get().(*[]byte)
	defer base64BufferPool.Put(bufPtr)

	n := base64.StdEncoding.EncodedLen(len(src))
	if cap(*bufPtr) < n {
		*bufPtr = make([]byte, n)
	}
	buf := (*bufPtr)[:n]
	base64.StdEncoding.Encode(buf, src)

	return append(dst, buf...)
}
