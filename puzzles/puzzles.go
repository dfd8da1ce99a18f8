// Package puzzles contains the classic GPU-programming exercises expressed
// as minigpu problems: map, zip, guarded access, 2D grids, shared memory,
// pooling, dot product, convolution, prefix sums, and matrix multiply.
// Each constructor returns a fresh problem with its own buffers, launch
// shape, and reference function, ready for Run or Check.
//
// The kernels are deliberately small; the point of the package is to
// exercise the simulator (index binding, shared arenas, barriers) and to
// serve as an end-to-end corpus for its tests and the puzzles command.
package puzzles

import (
	"github.com/minigpu/minigpu"
)

type (
	// Aliases to keep kernel bodies close to how the exercises are written.
	Buffer  = minigpu.Buffer
	Context = minigpu.ThreadContext
)

// Map adds 10 to each position of a 4-element vector, one thread per
// position.
func Map() *minigpu.Problem {
	const size = 4
	return &minigpu.Problem{
		Name: "Map",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			i := tc.ThreadIdx.X
			out.Set(i, a.At(i)+10)
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size)},
		Output:          minigpu.NewBuffer("out", size),
		ThreadsPerBlock: minigpu.Coord{X: size, Y: 1},
		Reference:       addConstRef(10),
	}
}

// Zip adds vectors a and b element-wise, one thread per position.
func Zip() *minigpu.Problem {
	const size = 4
	return &minigpu.Problem{
		Name: "Zip",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a, b := ins[0], ins[1]
			i := tc.ThreadIdx.X
			out.Set(i, a.At(i)+b.At(i))
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size), minigpu.Arange("b", size)},
		Output:          minigpu.NewBuffer("out", size),
		ThreadsPerBlock: minigpu.Coord{X: size, Y: 1},
		Reference:       zipRef,
	}
}

// Guard adds 10 to each position with more threads than positions; excess
// threads must no-op behind an explicit bounds check.
func Guard() *minigpu.Problem {
	const size = 4
	return &minigpu.Problem{
		Name: "Guard",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			i := tc.ThreadIdx.X
			size := args[0]
			if i < size {
				out.Set(i, a.At(i)+10)
			}
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size)},
		Output:          minigpu.NewBuffer("out", size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: 8, Y: 1},
		Reference:       addConstRef(10),
	}
}

// Map2D adds 10 to each position of a square 2D array with a 3x3 block
// over a 2x2 array.
func Map2D() *minigpu.Problem {
	const size = 2
	return &minigpu.Problem{
		Name: "Map 2D",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			i, j := tc.ThreadIdx.X, tc.ThreadIdx.Y
			size := args[0]
			if i < size && j < size {
				out.Set2(i, j, a.At2(i, j)+10)
			}
		},
		Inputs:          []*Buffer{minigpu.Arange2D("a", size, size)},
		Output:          minigpu.NewBuffer2D("out", size, size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: 3, Y: 3},
		Reference:       addConstRef(10),
	}
}

// Broadcast adds a column vector and a row vector into a square array.
func Broadcast() *minigpu.Problem {
	const size = 2
	return &minigpu.Problem{
		Name: "Broadcast",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a, b := ins[0], ins[1]
			i, j := tc.ThreadIdx.X, tc.ThreadIdx.Y
			size := args[0]
			if i < size && j < size {
				out.Set2(i, j, a.At2(i, 0)+b.At2(0, j))
			}
		},
		Inputs:          []*Buffer{minigpu.Arange2D("a", size, 1), minigpu.Arange2D("b", 1, size)},
		Output:          minigpu.NewBuffer2D("out", size, size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: 3, Y: 3},
		Reference:       broadcastRef,
	}
}

// Blocks adds 10 to each position with fewer threads per block than
// positions, so the global index spans blocks.
func Blocks() *minigpu.Problem {
	const size = 9
	return &minigpu.Problem{
		Name: "Blocks",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			i := tc.GlobalX()
			size := args[0]
			if i < size {
				out.Set(i, a.At(i)+10)
			}
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size)},
		Output:          minigpu.NewBuffer("out", size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: 4, Y: 1},
		BlocksPerGrid:   minigpu.Coord{X: 3, Y: 1},
		Reference:       addConstRef(10),
	}
}

// Blocks2D is the same map in 2D with a 2x2 grid of 3x3 blocks over a 5x5
// array.
func Blocks2D() *minigpu.Problem {
	const size = 5
	return &minigpu.Problem{
		Name: "Blocks 2D",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			i, j := tc.GlobalX(), tc.GlobalY()
			size := args[0]
			if i < size && j < size {
				out.Set2(i, j, a.At2(i, j)+10)
			}
		},
		Inputs:          []*Buffer{minigpu.Ones2D("a", size, size)},
		Output:          minigpu.NewBuffer2D("out", size, size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: 3, Y: 3},
		BlocksPerGrid:   minigpu.Coord{X: 2, Y: 2},
		Reference:       addConstRef(10),
	}
}

// Shared stages each block's slice of the input through shared memory,
// synchronizes, then adds 10 and writes out.
func Shared() *minigpu.Problem {
	const (
		size = 8
		tpb  = 4
	)
	return &minigpu.Problem{
		Name: "Shared",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			shared := tc.Shared().Alloc("shared", tpb)
			i := tc.GlobalX()
			li := tc.ThreadIdx.X
			size := args[0]
			if i < size {
				shared.Set(li, a.At(i))
			}
			tc.SyncThreads()
			if i < size {
				out.Set(i, shared.At(li)+10)
			}
		},
		Inputs:          []*Buffer{minigpu.Ones("a", size)},
		Output:          minigpu.NewBuffer("out", size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: 1},
		BlocksPerGrid:   minigpu.Coord{X: 2, Y: 1},
		Reference:       addConstRef(10),
	}
}

// Pooling computes a sliding-window sum of width 3 in stages, each followed
// by a barrier, with one global read and one global write per stage per
// thread.
func Pooling() *minigpu.Problem {
	const (
		size = 8
		tpb  = 8
	)
	return &minigpu.Problem{
		Name: "Pooling",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			shared := tc.Shared().Alloc("shared", tpb)
			i := tc.GlobalX()
			li := tc.ThreadIdx.X
			size := args[0]
			if i < size {
				shared.Set(li, a.At(i))
			}
			tc.SyncThreads()
			if i >= 1 && i < size {
				shared.Set(li, a.At(i-1)+shared.At(li))
			}
			tc.SyncThreads()
			if i >= 2 && i < size {
				shared.Set(li, a.At(i-2)+shared.At(li))
			}
			tc.SyncThreads()
			if i < size {
				out.Set(i, shared.At(li))
			}
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size)},
		Output:          minigpu.NewBuffer("out", size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: 1},
		Reference:       poolRef,
	}
}

// Dot computes the dot product of two vectors: one multiply per thread into
// shared memory, a barrier, then a single-thread reduction.
func Dot() *minigpu.Problem {
	const (
		size = 8
		tpb  = 8
	)
	return &minigpu.Problem{
		Name: "Dot",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a, b := ins[0], ins[1]
			shared := tc.Shared().Alloc("shared", tpb)
			i := tc.GlobalX()
			li := tc.ThreadIdx.X
			size := args[0]
			if i < size {
				shared.Set(li, a.At(i)*b.At(i))
			}
			tc.SyncThreads()
			if li == 0 {
				var sum float32
				for j := 0; j < size; j++ {
					sum += shared.At(j)
				}
				out.Set(0, sum)
			}
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size), minigpu.Arange("b", size)},
		Output:          minigpu.NewBuffer("out", 1),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: 1},
		Reference:       dotRef,
	}
}

// conv1D builds the general 1D convolution kernel: each block stages its
// slice of a plus a halo of len(b) extra elements, and b itself, through
// shared memory.
func conv1D(name string, aSize, bSize int, blocks minigpu.Coord) *minigpu.Problem {
	const (
		tpb     = 8
		maxConv = 4
	)
	return &minigpu.Problem{
		Name: name,
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a, b := ins[0], ins[1]
			sharedA := tc.Shared().Alloc("a", tpb+maxConv)
			sharedB := tc.Shared().Alloc("b", maxConv)
			i := tc.GlobalX()
			li := tc.ThreadIdx.X
			aSize, bSize := args[0], args[1]
			if i < aSize {
				sharedA.Set(li, a.At(i))
			}
			if li < bSize {
				sharedB.Set(li, b.At(li))
			} else {
				// Threads not loading b fetch the halo: the next
				// bSize elements past this block's slice of a.
				li2 := li - bSize
				i2 := i - bSize
				if i2+tpb < aSize && li2 < bSize {
					sharedA.Set(tpb+li2, a.At(i2+tpb))
				}
			}
			tc.SyncThreads()
			var acc float32
			for j := 0; j < bSize; j++ {
				if i+j < aSize {
					acc += sharedA.At(li+j) * sharedB.At(j)
				}
			}
			if i < aSize {
				out.Set(i, acc)
			}
		},
		Inputs:          []*Buffer{minigpu.Arange("a", aSize), minigpu.Arange("b", bSize)},
		Output:          minigpu.NewBuffer("out", aSize),
		Args:            []int{aSize, bSize},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: 1},
		BlocksPerGrid:   blocks,
		Reference:       convRef,
	}
}

// Conv1DSimple is the single-block convolution case.
func Conv1DSimple() *minigpu.Problem {
	return conv1D("1D Conv (Simple)", 6, 3, minigpu.Coord{X: 1, Y: 1})
}

// Conv1DFull is the multi-block convolution case with halo loading.
func Conv1DFull() *minigpu.Problem {
	return conv1D("1D Conv (Full)", 15, 4, minigpu.Coord{X: 2, Y: 1})
}

// blockSum builds the parallel prefix-sum reduction: each block reduces its
// slice of a in shared memory, halving the live elements per barrier round,
// and writes one partial sum.
func blockSum(name string, size int, blocks minigpu.Coord) *minigpu.Problem {
	const tpb = 8
	return &minigpu.Problem{
		Name: name,
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			cache := tc.Shared().Alloc("cache", tpb)
			i := tc.GlobalX()
			li := tc.ThreadIdx.X
			size := args[0]
			if i < size {
				cache.Set(li, a.At(i))
			}
			tc.SyncThreads()
			if li%2 == 0 {
				cache.Set(li, cache.At(li)+cache.At(li+1))
			}
			tc.SyncThreads()
			if li%4 == 0 {
				cache.Set(li, cache.At(li)+cache.At(li+2))
			}
			tc.SyncThreads()
			if li%8 == 0 {
				cache.Set(li, cache.At(li)+cache.At(li+4))
			}
			tc.SyncThreads()
			if li == 0 {
				out.Set(tc.BlockIdx.X, cache.At(0))
			}
		},
		Inputs:          []*Buffer{minigpu.Arange("a", size)},
		Output:          minigpu.NewBuffer("out", blocks.Size()),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: 1},
		BlocksPerGrid:   blocks,
		Reference:       blockSumRef(tpb),
	}
}

// SumSimple reduces one full block.
func SumSimple() *minigpu.Problem {
	return blockSum("Sum (Simple)", 8, minigpu.Coord{X: 1, Y: 1})
}

// SumFull reduces across two blocks, one partial sum each.
func SumFull() *minigpu.Problem {
	return blockSum("Sum (Full)", 15, minigpu.Coord{X: 2, Y: 1})
}

// AxisSum reduces each row of a batch of vectors; one block per row.
func AxisSum() *minigpu.Problem {
	const (
		batch = 4
		size  = 6
		tpb   = 8
	)
	return &minigpu.Problem{
		Name: "Axis Sum",
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a := ins[0]
			cache := tc.Shared().Alloc("cache", tpb)
			i := tc.GlobalX()
			li := tc.ThreadIdx.X
			batch := tc.BlockIdx.Y
			size := args[0]
			if i < size {
				cache.Set(li, a.At2(batch, i))
			}
			tc.SyncThreads()
			for k := 0; k < 3; k++ {
				p := 1 << k
				if li%(p*2) == 0 && i+p < size {
					cache.Set(li, cache.At(li)+cache.At(li+p))
				}
				tc.SyncThreads()
			}
			if li == 0 {
				out.Set2(batch, 0, cache.At(0))
			}
		},
		Inputs:          []*Buffer{minigpu.Arange2D("a", batch, size)},
		Output:          minigpu.NewBuffer2D("out", batch, 1),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: 1},
		BlocksPerGrid:   minigpu.Coord{X: 1, Y: batch},
		Reference:       axisSumRef,
	}
}

// matmul builds the tiled square matrix multiply: each iteration stages a
// tile of a and b into shared memory between barriers and accumulates a
// partial dot product.
func matmul(name string, size int, blocks minigpu.Coord) *minigpu.Problem {
	const tpb = 3
	a := minigpu.Arange2D("a", size, size)
	b := minigpu.NewBuffer2D("b", size, size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			b.Set2(i, j, a.At2(j, i))
		}
	}
	return &minigpu.Problem{
		Name: name,
		Kernel: func(tc *Context, out *Buffer, ins []*Buffer, args []int) {
			a, b := ins[0], ins[1]
			sharedA := tc.Shared().Alloc2D("a", tpb, tpb)
			sharedB := tc.Shared().Alloc2D("b", tpb, tpb)
			i := tc.GlobalX()
			j := tc.GlobalY()
			li := tc.ThreadIdx.X
			lj := tc.ThreadIdx.Y
			size := args[0]
			var acc float32
			for k := 0; k < size; k += tpb {
				if i < size && k+lj < size {
					sharedA.Set2(li, lj, a.At2(i, k+lj))
				}
				if j < size && k+li < size {
					sharedB.Set2(li, lj, b.At2(k+li, j))
				}
				tc.SyncThreads()
				for lk := 0; lk < tpb && k+lk < size; lk++ {
					acc += sharedA.At2(li, lk) * sharedB.At2(lk, lj)
				}
				// Tiles are rewritten next iteration; everyone must be
				// done reading first.
				tc.SyncThreads()
			}
			if i < size && j < size {
				out.Set2(i, j, acc)
			}
		},
		Inputs:          []*Buffer{a, b},
		Output:          minigpu.NewBuffer2D("out", size, size),
		Args:            []int{size},
		ThreadsPerBlock: minigpu.Coord{X: tpb, Y: tpb},
		BlocksPerGrid:   blocks,
		Reference:       matmulRef,
	}
}

// MatmulSimple multiplies matrices that fit in one block's tile.
func MatmulSimple() *minigpu.Problem {
	return matmul("Matmul (Simple)", 2, minigpu.Coord{X: 1, Y: 1})
}

// MatmulFull multiplies matrices larger than a tile across a 3x3 grid.
func MatmulFull() *minigpu.Problem {
	return matmul("Matmul (Full)", 8, minigpu.Coord{X: 3, Y: 3})
}

// All returns every puzzle in teaching order.
func All() []*minigpu.Problem {
	return []*minigpu.Problem{
		Map(),
		Zip(),
		Guard(),
		Map2D(),
		Broadcast(),
		Blocks(),
		Blocks2D(),
		Shared(),
		Pooling(),
		Dot(),
		Conv1DSimple(),
		Conv1DFull(),
		SumSimple(),
		SumFull(),
		AxisSum(),
		MatmulSimple(),
		MatmulFull(),
	}
}
