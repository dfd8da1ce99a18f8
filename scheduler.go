package minigpu

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// KernelFunc is a simulated GPU kernel: the per-thread function executed
// once for every (blockIdx, threadIdx) pair in the launch. It communicates
// results only by writing to out or to shared buffers; thread identity,
// shared memory, and barriers come from the ThreadContext, never from
// package state, so independent launches cannot interfere.
type KernelFunc func(tc *ThreadContext, out *Buffer, ins []*Buffer, args []int)

// ThreadContext is the per-thread capability bundle handed to a kernel:
// the thread's fixed index coordinates plus access to the owning block's
// shared arena and barrier. Created once per simulated thread at scheduling
// time and immutable for that thread's lifetime.
type ThreadContext struct {
	ThreadIdx Coord // Thread index within the block
	BlockIdx  Coord // Block index within the grid
	BlockDim  Coord // Dimensions of the block
	GridDim   Coord // Dimensions of the grid

	shared  *SharedArena
	barrier *Barrier
	t       *simThread
}

// GlobalX returns the thread's global X index.
func (tc *ThreadContext) GlobalX() int {
	return tc.BlockIdx.X*tc.BlockDim.X + tc.ThreadIdx.X
}

// GlobalY returns the thread's global Y index.
func (tc *ThreadContext) GlobalY() int {
	return tc.BlockIdx.Y*tc.BlockDim.Y + tc.ThreadIdx.Y
}

// Shared returns the block's shared-memory arena.
func (tc *ThreadContext) Shared() *SharedArena {
	return tc.shared
}

// SyncThreads suspends the calling thread at this program point until every
// thread of the block has arrived at the same point, mirroring CUDA's
// __syncthreads. Statements before the barrier, across all threads of the
// block, execute before any statement after it. If the rendezvous can never
// complete the launch fails with a divergence error instead of hanging.
func (tc *ThreadContext) SyncThreads() {
	tc.barrier.arrive(tc.t.slot, callSite(1))
	tc.t.park()
}

// Per-thread state machine: Runnable -> WaitingAtBarrier <-> Runnable ->
// Finished. Failed covers kernels that panic (out-of-bounds access, shape
// conflicts) and threads abandoned after another thread's fatal error.
type threadState int

const (
	threadRunnable threadState = iota
	threadWaiting
	threadFinished
	threadFailed
)

// stepResult is what a thread reports back to the scheduler at the end of
// one step: it either parked at a barrier, returned from the kernel body,
// or died.
type stepResult int

const (
	stepWaiting stepResult = iota
	stepFinished
	stepFailed
)

// abandonSignal unwinds a parked thread's goroutine after the block has
// already failed, so no goroutine outlives its launch.
type abandonSignal struct{}

// simThread is one simulated thread: a goroutine stepped cooperatively by
// the block scheduler. The goroutine only ever runs between a gate send and
// the matching report receive, so exactly one thread of a block executes at
// a time and suspension happens only at barrier calls.
type simThread struct {
	slot    int
	idx     Coord
	state   threadState
	gate    chan struct{}
	report  chan stepResult
	err     error
	abandon bool
}

// park suspends the thread's goroutine until the scheduler resumes it.
// Called with the thread's barrier arrival already recorded.
func (t *simThread) park() {
	t.report <- stepWaiting
	<-t.gate
	if t.abandon {
		panic(abandonSignal{})
	}
}

// run is the thread goroutine's body: wait to be started, execute the
// kernel to completion, and convert panics into structured errors.
func (t *simThread) run(k KernelFunc, tc *ThreadContext, out *Buffer, ins []*Buffer, args []int) {
	<-t.gate
	if t.abandon {
		t.report <- stepFailed
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abandonSignal); ok {
				t.report <- stepFailed
				return
			}
			if e, ok := r.(*Error); ok {
				e.Context = fmt.Sprintf("block %v thread %v", tc.BlockIdx, tc.ThreadIdx)
				t.err = e
			} else {
				t.err = NewExecutionError("Launch",
					fmt.Sprintf("kernel panic in block %v thread %v: %v", tc.BlockIdx, tc.ThreadIdx, r), nil)
			}
			t.report <- stepFailed
			return
		}
		t.report <- stepFinished
	}()
	k(tc, out, ins, args)
}

// Scheduler drives one grid launch: it enumerates every block of the grid,
// gives each block a fresh shared arena and barrier, and steps the block's
// threads in rounds. Within a round each runnable thread executes until its
// next barrier call or until the kernel body returns; the order of steps is
// shuffled from a per-run seed so kernels relying on an undocumented
// execution order are exposed by ordinary test runs.
//
// Blocks never share state, so the grid is fanned out over a worker pool
// sized from the CPU core count; any schedule of blocks, including fully
// sequential, must produce the same output.
type Scheduler struct {
	grid      Coord // blocks per grid
	block     Coord // threads per block
	seed      uint64
	maxRounds int
	workers   int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSeed pins the scheduling-order seed, making thread interleaving
// reproducible. By default each launch draws a fresh seed from the clock.
func WithSeed(seed uint64) Option {
	return func(s *Scheduler) { s.seed = seed }
}

// WithMaxRounds bounds the number of barrier rounds per block before the
// launch is declared stalled.
func WithMaxRounds(n int) Option {
	return func(s *Scheduler) { s.maxRounds = n }
}

// WithWorkers sets the number of goroutines blocks are spread over.
func WithWorkers(n int) Option {
	return func(s *Scheduler) { s.workers = n }
}

// NewScheduler validates the launch shape and returns a scheduler for it.
func NewScheduler(blocksPerGrid, threadsPerBlock Coord, opts ...Option) (*Scheduler, error) {
	if !blocksPerGrid.positive() {
		return nil, NewConfigError("NewScheduler",
			fmt.Sprintf("blocksPerGrid %v: both dimensions must be >= 1", blocksPerGrid))
	}
	if !threadsPerBlock.positive() {
		return nil, NewConfigError("NewScheduler",
			fmt.Sprintf("threadsPerBlock %v: both dimensions must be >= 1", threadsPerBlock))
	}
	if threadsPerBlock.Size() > MaxThreadsPerBlock {
		return nil, NewConfigError("NewScheduler",
			fmt.Sprintf("threadsPerBlock %v: %d threads exceeds limit of %d",
				threadsPerBlock, threadsPerBlock.Size(), MaxThreadsPerBlock))
	}
	s := &Scheduler{
		grid:      blocksPerGrid,
		block:     threadsPerBlock,
		seed:      uint64(time.Now().UnixNano()),
		maxRounds: DefaultMaxRounds,
		workers:   CPU().NumCores,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s, nil
}

// Grid returns the blocks-per-grid shape.
func (s *Scheduler) Grid() Coord { return s.grid }

// Block returns the threads-per-block shape.
func (s *Scheduler) Block() Coord { return s.block }

// Launch runs the kernel across the full grid and blocks until every
// simulated thread has finished or a block has failed. The first fatal
// error (divergence, out-of-bounds access, kernel panic) aborts the launch.
func (s *Scheduler) Launch(k KernelFunc, out *Buffer, ins []*Buffer, args []int) error {
	numBlocks := s.grid.Size()
	workers := s.workers
	if workers > numBlocks {
		workers = numBlocks
	}
	blocksPerWorker := (numBlocks + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for workerID := 0; workerID < workers; workerID++ {
		startBlock := workerID * blocksPerWorker
		endBlock := startBlock + blocksPerWorker
		if endBlock > numBlocks {
			endBlock = numBlocks
		}
		if startBlock >= endBlock {
			continue
		}
		wg.Add(1)
		go func(startBlock, endBlock int, wID uint64) {
			defer wg.Done()
			// Distinct stream per worker so block schedules stay
			// independent without sharing an RNG across goroutines.
			rng := rand.New(rand.NewSource(s.seed + wID*0x9e3779b97f4a7c15))
			for blockID := startBlock; blockID < endBlock; blockID++ {
				blockIdx := linearToCoord(blockID, s.grid)
				if err := s.runBlock(blockIdx, k, out, ins, args, rng); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}(startBlock, endBlock, uint64(workerID))
	}
	wg.Wait()
	return firstErr
}

// runBlock executes one block to completion. Threads are goroutines stepped
// one at a time; each round steps every runnable thread once, in shuffled
// order, to its next barrier call or to completion. A completed rendezvous
// releases the whole block for another round. A rendezvous that can never
// complete (some threads finished while others wait, or arrivals at
// different call sites) is a divergence error.
func (s *Scheduler) runBlock(blockIdx Coord, k KernelFunc, out *Buffer, ins []*Buffer, args []int, rng *rand.Rand) error {
	n := s.block.Size()
	arena := newSharedArena(blockIdx)
	barrier := newBarrier(blockIdx, n)

	threads := make([]*simThread, n)
	for slot := range threads {
		t := &simThread{
			slot:   slot,
			idx:    linearToCoord(slot, s.block),
			gate:   make(chan struct{}),
			report: make(chan stepResult),
		}
		tc := &ThreadContext{
			ThreadIdx: t.idx,
			BlockIdx:  blockIdx,
			BlockDim:  s.block,
			GridDim:   s.grid,
			shared:    arena,
			barrier:   barrier,
			t:         t,
		}
		threads[slot] = t
		go t.run(k, tc, out, ins, args)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	finished := 0
	for round := 0; ; round++ {
		if round >= s.maxRounds {
			s.abandonBlock(threads)
			return NewDivergenceError("Launch",
				fmt.Sprintf("block %v made no progress after %d barrier rounds", blockIdx, s.maxRounds),
				blockIdx)
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, slot := range order {
			t := threads[slot]
			if t.state != threadRunnable {
				continue
			}
			t.gate <- struct{}{}
			switch <-t.report {
			case stepWaiting:
				t.state = threadWaiting
			case stepFinished:
				t.state = threadFinished
				finished++
			case stepFailed:
				t.state = threadFailed
				err := t.err
				s.abandonBlock(threads)
				return err
			}
		}

		if finished == n {
			return nil
		}

		// Every unfinished thread is now parked at a barrier.
		if finished > 0 {
			waiting := barrier.waitingSet(s.block)
			s.abandonBlock(threads)
			return NewDivergenceError("Launch",
				fmt.Sprintf("block %v: threads %s wait at a barrier the block's finished threads never reached",
					blockIdx, formatCoords(waiting)),
				blockIdx)
		}
		if _, ok := barrier.commonSite(); !ok {
			sites := barrier.waitingSites()
			s.abandonBlock(threads)
			return NewDivergenceError("Launch",
				fmt.Sprintf("block %v: threads arrived at different barrier call sites (%v)", blockIdx, sites),
				blockIdx)
		}

		barrier.reset()
		for _, t := range threads {
			if t.state == threadWaiting {
				t.state = threadRunnable
			}
		}
	}
}

// abandonBlock unwinds every still-parked thread goroutine after a fatal
// error so the launch leaks nothing.
func (s *Scheduler) abandonBlock(threads []*simThread) {
	for _, t := range threads {
		if t.state == threadFinished || t.state == threadFailed {
			continue
		}
		t.abandon = true
		t.gate <- struct{}{}
		<-t.report
		t.state = threadFailed
	}
}
