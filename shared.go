package minigpu

import "fmt"

// SharedArena is the per-block scratch allocator standing in for CUDA
// shared memory. One arena exists per block per kernel launch; it is owned
// exclusively by that block's threads and discarded when they all finish.
//
// Buffers are named and fixed-shape. Allocation is idempotent within the
// block's lifetime: the first Alloc for a name creates a zero-filled buffer,
// and every later Alloc with the same name and shape (typically from the
// block's other threads) returns the same buffer. Zero contents are only
// guaranteed at creation; whatever the block's threads write afterwards
// persists across barriers.
//
// Requesting an existing name with a different shape is a fatal
// configuration error: on hardware the shape is a compile-time constant, so
// a conflict can only mean the kernel is wrong.
type SharedArena struct {
	block Coord
	bufs  map[string]*Buffer
}

// newSharedArena creates the arena for one block invocation. Only the
// owning block's threads touch it, and the scheduler steps them one at a
// time, so no locking is needed.
func newSharedArena(block Coord) *SharedArena {
	return &SharedArena{block: block, bufs: make(map[string]*Buffer)}
}

// Alloc returns the block's 1D shared buffer with the given name and
// length, creating it zero-filled on first use.
func (a *SharedArena) Alloc(name string, n int) *Buffer {
	if b, ok := a.bufs[name]; ok {
		a.checkShape(b, 1, 1, n)
		return b
	}
	b := NewBuffer(name, n)
	a.bufs[name] = b
	return b
}

// Alloc2D returns the block's 2D shared buffer with the given name and
// shape, creating it zero-filled on first use.
func (a *SharedArena) Alloc2D(name string, rows, cols int) *Buffer {
	if b, ok := a.bufs[name]; ok {
		a.checkShape(b, 2, rows, cols)
		return b
	}
	b := NewBuffer2D(name, rows, cols)
	a.bufs[name] = b
	return b
}

func (a *SharedArena) checkShape(b *Buffer, dims, rows, cols int) {
	if b.dims != dims || b.rows != rows || b.cols != cols {
		panic(NewConfigError("SharedArena.Alloc",
			fmt.Sprintf("shared buffer %q in block %v re-declared with shape %dx%d (have %dx%d)",
				b.name, a.block, rows, cols, b.rows, b.cols)))
	}
}
