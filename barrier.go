package minigpu

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Barrier is the block-scoped rendezvous behind ThreadContext.SyncThreads.
// One barrier exists per block per kernel launch. It records which threads
// have arrived in the current round and at which call site; the scheduler
// releases the whole block once every thread has arrived, then resets the
// barrier so the same instance serves every sync point in the kernel body.
//
// A thread arrives by recording itself here and then parking its goroutine;
// the actual suspend/resume lives in simThread, so the barrier itself is
// pure bookkeeping and needs no locking (the scheduler runs one thread of
// the block at a time).
type Barrier struct {
	block   Coord
	size    int
	arrived []bool
	sites   []string
	count   int
}

func newBarrier(block Coord, size int) *Barrier {
	return &Barrier{
		block:   block,
		size:    size,
		arrived: make([]bool, size),
		sites:   make([]string, size),
	}
}

// arrive records that the thread in the given slot reached a barrier call
// at site. Called from the thread's goroutine just before it parks.
func (b *Barrier) arrive(slot int, site string) {
	if !b.arrived[slot] {
		b.arrived[slot] = true
		b.count++
	}
	b.sites[slot] = site
}

// full reports whether every registered thread has arrived.
func (b *Barrier) full() bool {
	return b.count == b.size
}

// commonSite returns the single call site shared by all arrivals, or false
// if threads are parked at different program positions.
func (b *Barrier) commonSite() (string, bool) {
	site := ""
	for slot, ok := range b.arrived {
		if !ok {
			continue
		}
		if site == "" {
			site = b.sites[slot]
		} else if site != b.sites[slot] {
			return "", false
		}
	}
	return site, true
}

// waitingSites lists the distinct call sites threads are parked at, for
// divergence diagnostics.
func (b *Barrier) waitingSites() []string {
	seen := make(map[string]bool)
	var sites []string
	for slot, ok := range b.arrived {
		if ok && !seen[b.sites[slot]] {
			seen[b.sites[slot]] = true
			sites = append(sites, b.sites[slot])
		}
	}
	sort.Strings(sites)
	return sites
}

// waitingSet returns the coordinates of the threads currently parked at the
// barrier, for divergence diagnostics.
func (b *Barrier) waitingSet(dim Coord) []Coord {
	var set []Coord
	for slot, ok := range b.arrived {
		if ok {
			set = append(set, linearToCoord(slot, dim))
		}
	}
	return set
}

// reset clears arrivals after a completed rendezvous so the barrier can be
// reused for the kernel's next sync point.
func (b *Barrier) reset() {
	for i := range b.arrived {
		b.arrived[i] = false
		b.sites[i] = ""
	}
	b.count = 0
}

// callSite formats the file:line of the kernel statement that invoked
// SyncThreads. Threads of a block must rendezvous at the same program
// position; arrivals at different sites are reported as divergence.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func formatCoords(coords []Coord) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
