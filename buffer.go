package minigpu

import (
	"fmt"
	"strings"
)

// Buffer is a named, shaped float32 array. Input and output buffers are
// owned by the caller and shared by every simulated thread of every block;
// the simulator never copies them. Shared-memory buffers are block-private
// and handed out by SharedArena.
//
// All element access goes through At/Set (1D) or At2/Set2 (2D), which check
// the index against the buffer's declared extent. A kernel that computes an
// index outside the extent triggers a fatal out-of-bounds error identifying
// the buffer and the offending index, instead of the silent corruption real
// hardware would produce.
type Buffer struct {
	name string
	dims int // 1 or 2
	rows int
	cols int
	data []float32
}

// NewBuffer creates a zero-filled 1D buffer of n elements.
func NewBuffer(name string, n int) *Buffer {
	return &Buffer{name: name, dims: 1, rows: 1, cols: n, data: make([]float32, n)}
}

// NewBuffer2D creates a zero-filled 2D buffer of rows x cols elements,
// stored row-major.
func NewBuffer2D(name string, rows, cols int) *Buffer {
	return &Buffer{name: name, dims: 2, rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// FromSlice creates a 1D buffer backed by a copy of data.
func FromSlice(name string, data []float32) *Buffer {
	b := NewBuffer(name, len(data))
	copy(b.data, data)
	return b
}

// Arange creates a 1D buffer holding 0, 1, ..., n-1.
func Arange(name string, n int) *Buffer {
	b := NewBuffer(name, n)
	for i := range b.data {
		b.data[i] = float32(i)
	}
	return b
}

// Arange2D creates a rows x cols buffer holding 0, 1, ... in row-major order.
func Arange2D(name string, rows, cols int) *Buffer {
	b := NewBuffer2D(name, rows, cols)
	for i := range b.data {
		b.data[i] = float32(i)
	}
	return b
}

// Ones creates a 1D buffer filled with 1.
func Ones(name string, n int) *Buffer {
	b := NewBuffer(name, n)
	for i := range b.data {
		b.data[i] = 1
	}
	return b
}

// Ones2D creates a rows x cols buffer filled with 1.
func Ones2D(name string, rows, cols int) *Buffer {
	b := NewBuffer2D(name, rows, cols)
	for i := range b.data {
		b.data[i] = 1
	}
	return b
}

// Name returns the buffer's name, used in diagnostics.
func (b *Buffer) Name() string { return b.name }

// Len returns the total number of elements.
func (b *Buffer) Len() int { return len(b.data) }

// Rows returns the number of rows (1 for 1D buffers).
func (b *Buffer) Rows() int { return b.rows }

// Cols returns the number of columns (the length for 1D buffers).
func (b *Buffer) Cols() int { return b.cols }

// Is2D reports whether the buffer was declared with two dimensions.
func (b *Buffer) Is2D() bool { return b.dims == 2 }

// Data returns the backing storage. Mutating it bypasses bounds checking.
func (b *Buffer) Data() []float32 { return b.data }

// At returns element i of a 1D buffer.
func (b *Buffer) At(i int) float32 {
	b.check1D("Buffer.At", i)
	return b.data[i]
}

// Set stores v at element i of a 1D buffer.
func (b *Buffer) Set(i int, v float32) {
	b.check1D("Buffer.Set", i)
	b.data[i] = v
}

// At2 returns element (i, j) of a 2D buffer.
func (b *Buffer) At2(i, j int) float32 {
	b.check2D("Buffer.At2", i, j)
	return b.data[i*b.cols+j]
}

// Set2 stores v at element (i, j) of a 2D buffer.
func (b *Buffer) Set2(i, j int, v float32) {
	b.check2D("Buffer.Set2", i, j)
	b.data[i*b.cols+j] = v
}

// Clone returns a buffer with the same name, shape, and contents.
func (b *Buffer) Clone() *Buffer {
	c := *b
	c.data = make([]float32, len(b.data))
	copy(c.data, b.data)
	return &c
}

// zeroed returns a zero-filled buffer with the given name and b's shape.
func (b *Buffer) zeroed(name string) *Buffer {
	c := *b
	c.name = name
	c.data = make([]float32, len(b.data))
	return &c
}

// sameShape reports whether o has the same dimensionality and extents.
func (b *Buffer) sameShape(o *Buffer) bool {
	return b.dims == o.dims && b.rows == o.rows && b.cols == o.cols
}

// coordAt converts a linear element offset into the buffer's coordinate
// space: (x) for 1D, (row, col) for 2D.
func (b *Buffer) coordAt(linear int) Coord {
	if b.dims == 1 {
		return Coord{X: linear, Y: 0}
	}
	return Coord{X: linear / b.cols, Y: linear % b.cols}
}

// elemName formats a single element reference for reports, e.g. out[3] or
// out[1, 2].
func (b *Buffer) elemName(linear int) string {
	if b.dims == 1 {
		return fmt.Sprintf("%s[%d]", b.name, linear)
	}
	return fmt.Sprintf("%s[%d, %d]", b.name, linear/b.cols, linear%b.cols)
}

// String formats the buffer contents on one line.
func (b *Buffer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[", b.name)
	for i, v := range b.data {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%g", v)
	}
	sb.WriteString("]")
	return sb.String()
}

// Access violations panic with a structured error; the scheduler recovers
// the panic at the thread-step boundary and turns it into a fatal launch
// error carrying the thread's coordinates.

func (b *Buffer) check1D(op string, i int) {
	if b.dims != 1 {
		panic(NewConfigError(op, fmt.Sprintf("buffer %q is 2D (%dx%d); use 2D indexing", b.name, b.rows, b.cols)))
	}
	if i < 0 || i >= b.cols {
		panic(NewOutOfBoundsError(op,
			fmt.Sprintf("index %d outside buffer %q extent [0, %d)", i, b.name, b.cols), b.name))
	}
}

func (b *Buffer) check2D(op string, i, j int) {
	if b.dims != 2 {
		panic(NewConfigError(op, fmt.Sprintf("buffer %q is 1D (%d); use 1D indexing", b.name, b.cols)))
	}
	if i < 0 || i >= b.rows || j < 0 || j >= b.cols {
		panic(NewOutOfBoundsError(op,
			fmt.Sprintf("index (%d, %d) outside buffer %q extent %dx%d", i, j, b.name, b.rows, b.cols), b.name))
	}
}
