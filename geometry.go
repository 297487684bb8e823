package termimg

import (
	"math"
	"os"

	"golang.org/x/term"
)

// Fallback grid used when the terminal size cannot be queried, e.g. when
// stdout is redirected to a file or pipe.
const (
	DefaultColumns = 80
	DefaultRows    = 24
)

// Geometry is the terminal size in character cells. Both fields are >= 1.
type Geometry struct {
	Columns uint16
	Rows    uint16
}

// SizeProvider reports the current terminal size in character cells.
type SizeProvider interface {
	Size() (columns, rows int, err error)
}

// FdSize queries the terminal attached to a file descriptor.
type FdSize struct {
	Fd int
}

// StdoutSize returns a SizeProvider for the terminal on standard output.
func StdoutSize() FdSize {
	return FdSize{Fd: int(os.Stdout.Fd())}
}

func (s FdSize) Size() (int, int, error) {
	return term.GetSize(s.Fd)
}

// FixedSize is a SizeProvider that always reports the same grid.
type FixedSize Geometry

func (s FixedSize) Size() (int, int, error) {
	return int(s.Columns), int(s.Rows), nil
}

// QueryGeometry asks p for the terminal size, falling back to 80x24 when the
// query fails or reports a degenerate grid.
func QueryGeometry(p SizeProvider) Geometry {
	if p == nil {
		return Geometry{Columns: DefaultColumns, Rows: DefaultRows}
	}
	cols, rows, err := p.Size()
	if err != nil || cols < 1 || rows < 1 {
		return Geometry{Columns: DefaultColumns, Rows: DefaultRows}
	}
	return Geometry{Columns: clampUint16(cols), Rows: clampUint16(rows)}
}

func clampUint16(v int) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}
