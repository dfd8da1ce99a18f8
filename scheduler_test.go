package minigpu

import (
	"strings"
	"testing"
)

// gid computes the linear global id of a thread across the whole grid.
func gid(tc *ThreadContext) int {
	blockLinear := tc.BlockIdx.Y*tc.GridDim.X + tc.BlockIdx.X
	threadLinear := tc.ThreadIdx.Y*tc.BlockDim.X + tc.ThreadIdx.X
	return blockLinear*tc.BlockDim.Size() + threadLinear
}

func TestSchedulerValidation(t *testing.T) {
	tests := []struct {
		name  string
		grid  Coord
		block Coord
	}{
		{"zero grid x", Coord{X: 0, Y: 1}, Coord{X: 1, Y: 1}},
		{"negative grid y", Coord{X: 1, Y: -1}, Coord{X: 1, Y: 1}},
		{"zero block", Coord{X: 1, Y: 1}, Coord{X: 0, Y: 0}},
		{"block too large", Coord{X: 1, Y: 1}, Coord{X: MaxThreadsPerBlock + 1, Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduler(tt.grid, tt.block)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !IsConfigError(err) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}
}

// The scheduler must visit exactly gridSize*blockSize distinct
// (blockIdx, threadIdx) pairs, no duplicates, no omissions.
func TestThreadEnumeration(t *testing.T) {
	grid := Coord{X: 3, Y: 2}
	block := Coord{X: 4, Y: 2}
	total := grid.Size() * block.Size()
	out := NewBuffer("out", total)

	s, err := NewScheduler(grid, block, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		i := gid(tc)
		out.Set(i, out.At(i)+1)
	}
	if err := s.Launch(kernel, out, nil, nil); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < total; i++ {
		if out.At(i) != 1 {
			t.Errorf("thread %d visited %g times, want exactly 1", i, out.At(i))
		}
	}
}

// All statements before a barrier, across all threads of a block, must
// execute before any statement after it, whatever the scheduling order.
func TestBarrierOrdering(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		flag := tc.Shared().Alloc("flag", 1)
		if tc.ThreadIdx.X == 3 {
			flag.Set(0, 7)
		}
		tc.SyncThreads()
		out.Set(gid(tc), flag.At(0))
	}
	for seed := uint64(1); seed <= 20; seed++ {
		out := NewBuffer("out", 8)
		s, err := NewScheduler(Coord{X: 2, Y: 1}, Coord{X: 4, Y: 1}, WithSeed(seed))
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Launch(kernel, out, nil, nil); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for i := 0; i < 8; i++ {
			if out.At(i) != 7 {
				t.Fatalf("seed %d: thread %d read %g before barrier write, want 7", seed, i, out.At(i))
			}
		}
	}
}

// A correctly synchronized kernel must produce identical output under any
// thread-scheduling order and any block schedule.
func TestOrderAndBlockIndependence(t *testing.T) {
	const size = 16
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		a := ins[0]
		shared := tc.Shared().Alloc("shared", 4)
		i := tc.GlobalX()
		li := tc.ThreadIdx.X
		shared.Set(li, a.At(i)*2)
		tc.SyncThreads()
		// Read a neighbor's slot: only correct because of the barrier.
		out.Set(i, shared.At((li+1)%4))
	}

	var baseline []float32
	for seed := uint64(1); seed <= 10; seed++ {
		for _, workers := range []int{1, 4} {
			a := Arange("a", size)
			out := NewBuffer("out", size)
			s, err := NewScheduler(Coord{X: 4, Y: 1}, Coord{X: 4, Y: 1},
				WithSeed(seed), WithWorkers(workers))
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Launch(kernel, out, []*Buffer{a}, nil); err != nil {
				t.Fatalf("seed %d workers %d: %v", seed, workers, err)
			}
			if baseline == nil {
				baseline = append([]float32{}, out.Data()...)
				continue
			}
			for i, v := range out.Data() {
				if v != baseline[i] {
					t.Fatalf("seed %d workers %d: out[%d] = %g, want %g", seed, workers, i, v, baseline[i])
				}
			}
		}
	}
}

// The same seed must reproduce the same interleaving, even for a racy
// kernel whose result depends on execution order.
func TestSeedReproducibility(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		out.Set(0, float32(tc.ThreadIdx.X))
	}
	run := func() float32 {
		out := NewBuffer("out", 1)
		s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 8, Y: 1}, WithSeed(42))
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Launch(kernel, out, nil, nil); err != nil {
			t.Fatal(err)
		}
		return out.At(0)
	}
	first := run()
	for i := 0; i < 5; i++ {
		if got := run(); got != first {
			t.Fatalf("same seed produced different order: winner %g then %g", first, got)
		}
	}
}

func TestDivergenceEarlyExit(t *testing.T) {
	// Thread 0 returns without syncing; the rest wait forever.
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		if tc.ThreadIdx.X == 0 {
			return
		}
		tc.SyncThreads()
	}
	out := NewBuffer("out", 4)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 4, Y: 1}, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Launch(kernel, out, nil, nil)
	if err == nil {
		t.Fatal("expected divergence error, got nil")
	}
	if !IsDivergenceError(err) {
		t.Fatalf("error = %v, want divergence", err)
	}
	if !strings.Contains(err.Error(), "block (0, 0)") {
		t.Errorf("divergence report %q does not identify the block", err.Error())
	}
}

func TestDivergenceConditionalBarrier(t *testing.T) {
	// A barrier inside a conditional taken by only some threads.
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		if tc.ThreadIdx.X < 2 {
			tc.SyncThreads()
		}
	}
	out := NewBuffer("out", 4)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 4, Y: 1}, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Launch(kernel, out, nil, nil)
	if !IsDivergenceError(err) {
		t.Fatalf("error = %v, want divergence", err)
	}
}

func TestDivergenceDifferentCallSites(t *testing.T) {
	// Every thread syncs once, but at two different program positions.
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		if tc.ThreadIdx.X%2 == 0 {
			tc.SyncThreads()
		} else {
			tc.SyncThreads()
		}
	}
	out := NewBuffer("out", 4)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 4, Y: 1}, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Launch(kernel, out, nil, nil)
	if !IsDivergenceError(err) {
		t.Fatalf("error = %v, want divergence", err)
	}
	if !strings.Contains(err.Error(), "call sites") {
		t.Errorf("divergence report %q does not mention call sites", err.Error())
	}
}

func TestRunawayKernelHitsRoundLimit(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		for {
			tc.SyncThreads()
		}
	}
	out := NewBuffer("out", 2)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 2, Y: 1}, WithSeed(1), WithMaxRounds(16))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Launch(kernel, out, nil, nil)
	if !IsDivergenceError(err) {
		t.Fatalf("error = %v, want divergence after round limit", err)
	}
}

func TestOutOfBoundsSurfacesFromLaunch(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		out.Set(tc.ThreadIdx.X, 1) // no guard; threads 4..7 run off the end
	}
	out := NewBuffer("out", 4)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 8, Y: 1}, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Launch(kernel, out, nil, nil)
	if err == nil {
		t.Fatal("expected out-of-bounds error, got nil")
	}
	if !IsOutOfBoundsError(err) {
		t.Fatalf("error = %v, want out-of-bounds", err)
	}
	e := err.(*Error)
	ctx, ok := e.Context.(string)
	if !ok || !strings.Contains(ctx, "thread") {
		t.Errorf("error context %v does not identify the thread", e.Context)
	}
	if !strings.Contains(e.Message, `"out"`) {
		t.Errorf("error message %q does not name the buffer", e.Message)
	}
}

func TestKernelPanicBecomesExecutionError(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		panic("boom")
	}
	out := NewBuffer("out", 1)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 1, Y: 1}, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Launch(kernel, out, nil, nil)
	if !IsExecutionError(err) {
		t.Fatalf("error = %v, want execution error", err)
	}
}

// A block with one thread must still be able to sync with itself.
func TestSingleThreadBarrier(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		tc.SyncThreads()
		tc.SyncThreads()
		out.Set(0, 1)
	}
	out := NewBuffer("out", 1)
	s, err := NewScheduler(Coord{X: 1, Y: 1}, Coord{X: 1, Y: 1}, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Launch(kernel, out, nil, nil); err != nil {
		t.Fatal(err)
	}
	if out.At(0) != 1 {
		t.Errorf("out[0] = %g, want 1", out.At(0))
	}
}

// Shared buffer contents must persist across barriers within one block
// invocation, and each block must get its own arena.
func TestSharedMemoryBlockIsolation(t *testing.T) {
	kernel := func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
		shared := tc.Shared().Alloc("shared", 4)
		li := tc.ThreadIdx.X
		shared.Set(li, float32(100*(tc.BlockIdx.X+1)+li))
		tc.SyncThreads()
		tc.SyncThreads()
		out.Set(gid(tc), shared.At(li))
	}
	out := NewBuffer("out", 8)
	s, err := NewScheduler(Coord{X: 2, Y: 1}, Coord{X: 4, Y: 1}, WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Launch(kernel, out, nil, nil); err != nil {
		t.Fatal(err)
	}
	for block := 0; block < 2; block++ {
		for li := 0; li < 4; li++ {
			want := float32(100*(block+1) + li)
			if got := out.At(block*4 + li); got != want {
				t.Errorf("block %d thread %d saw %g, want %g (arena leaked across blocks?)",
					block, li, got, want)
			}
		}
	}
}
