// Package minigpu simulates the CUDA execution model on a single CPU for
// teaching and testing GPU kernels.
//
// A kernel is an ordinary Go function that receives a ThreadContext and is
// run once per simulated thread across a two-dimensional grid of thread
// blocks. The simulator reproduces the observable semantics of SIMT
// hardware: per-thread index binding, block-private shared memory, and
// barrier synchronization, including detection of barrier divergence and
// out-of-bounds buffer accesses that real hardware would let silently
// corrupt memory.
//
// Threads of a block are stepped cooperatively in a deliberately shuffled
// order, so kernels that depend on an undocumented execution order fail
// verification instead of passing by accident. Blocks never share state and
// are executed concurrently across a worker pool.
//
// Example usage:
//
//	a := minigpu.Arange("a", 4)
//	out := minigpu.NewBuffer("out", 4)
//
//	p := &minigpu.Problem{
//		Name: "Map",
//		Kernel: func(tc *minigpu.ThreadContext, out *minigpu.Buffer, ins []*minigpu.Buffer, args []int) {
//			i := tc.ThreadIdx.X
//			out.Set(i, ins[0].At(i)+10)
//		},
//		Inputs:          []*minigpu.Buffer{a},
//		Output:          out,
//		ThreadsPerBlock: minigpu.Coord{X: 4, Y: 1},
//		Reference: func(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
//			for i := 0; i < ins[0].Len(); i++ {
//				out.Set(i, ins[0].At(i)+10)
//			}
//		},
//	}
//
//	result, err := p.Check()
package minigpu
