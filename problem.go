package minigpu

import (
	"fmt"
	"strings"
)

// ReferenceFunc computes the expected output from the same inputs the
// kernel sees. It is the verification oracle: pure, caller-supplied, and
// invoked exactly once per Check.
type ReferenceFunc func(out *Buffer, ins ...*Buffer)

// Problem binds a kernel, its buffers, launch shape, and reference function
// into one reusable unit, mirroring how the exercises are posed: build the
// problem once, then Run it or Check it against the reference.
//
// Zero values get the usual defaults: BlocksPerGrid (1, 1), and scheduling
// options from the package constants. Args carries extra scalar arguments
// (array sizes, kernel widths) through to the kernel unchanged.
type Problem struct {
	Name            string
	Kernel          KernelFunc
	Inputs          []*Buffer
	Output          *Buffer
	Args            []int
	ThreadsPerBlock Coord
	BlocksPerGrid   Coord
	Reference       ReferenceFunc

	// Scheduling options applied to every launch, e.g. WithSeed for
	// reproducing an order-dependent failure.
	Options []Option
}

// scheduler builds the launch scheduler, applying shape defaults.
func (p *Problem) scheduler(extra ...Option) (*Scheduler, error) {
	if p.Kernel == nil {
		return nil, NewConfigError("Problem", fmt.Sprintf("problem %q has no kernel", p.Name))
	}
	if p.Output == nil {
		return nil, NewConfigError("Problem", fmt.Sprintf("problem %q has no output buffer", p.Name))
	}
	grid := p.BlocksPerGrid
	if grid == (Coord{}) {
		grid = Coord{X: 1, Y: 1}
	}
	opts := append(append([]Option{}, p.Options...), extra...)
	return NewScheduler(grid, p.ThreadsPerBlock, opts...)
}

// Run executes the kernel across the grid and returns the filled output
// buffer. The output is the caller's buffer; Run writes only what the
// kernel writes.
func (p *Problem) Run(opts ...Option) (*Buffer, error) {
	s, err := p.scheduler(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Launch(p.Kernel, p.Output, p.Inputs, p.Args); err != nil {
		return nil, err
	}
	return p.Output, nil
}

// Check runs the kernel and the reference function and compares their
// outputs. Fatal kernel errors come back as the error; wrong answers come
// back inside the CheckResult.
func (p *Problem) Check(opts ...Option) (*CheckResult, error) {
	v := NewVerifier()
	if len(opts) == 0 {
		return v.Check(p)
	}
	clone := *p
	clone.Options = append(append([]Option{}, p.Options...), opts...)
	return v.Check(&clone)
}

// Show prints a launch summary. Diagram rendering of grid state belongs to
// an external visualization layer; this is the plain-text stand-in.
func (p *Problem) Show() {
	fmt.Print(p.Summary())
}

// Summary formats the launch configuration.
func (p *Problem) Summary() string {
	grid := p.BlocksPerGrid
	if grid == (Coord{}) {
		grid = Coord{X: 1, Y: 1}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", p.Name)
	fmt.Fprintf(&sb, "  threadsPerBlock=%v blocksPerGrid=%v (%d threads total)\n",
		p.ThreadsPerBlock, grid, grid.Size()*p.ThreadsPerBlock.Size())
	names := make([]string, len(p.Inputs))
	for i, in := range p.Inputs {
		names[i] = fmt.Sprintf("%s %dx%d", in.name, in.rows, in.cols)
	}
	fmt.Fprintf(&sb, "  in: [%s]  out: %s %dx%d  args: %v\n",
		strings.Join(names, ", "), p.Output.name, p.Output.rows, p.Output.cols, p.Args)
	return sb.String()
}
