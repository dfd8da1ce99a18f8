package minigpu

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
)

// Mismatch is one output element that differs from the reference.
type Mismatch struct {
	Index    Coord // (x, 0) for 1D buffers, (row, col) for 2D
	Elem     string
	Expected float32
	Actual   float32
}

// CheckResult is the outcome of verifying a kernel's output against its
// reference function. A wrong answer is data here, not an error: fatal
// errors (divergence, out-of-bounds) surface from Run/Check as errors, and
// everything else lands in this report so test assertions can be built on
// Passed directly.
type CheckResult struct {
	Name            string
	Passed          bool
	Compared        int
	TotalMismatches int
	Mismatches      []Mismatch // first DefaultMaxMismatches only
	MaxAbsError     float64
	MaxRelError     float64
}

// String renders a one-pass or multi-line failure report.
func (r *CheckResult) String() string {
	if r.Passed {
		return fmt.Sprintf("PASS %s (%d elements)", r.Name, r.Compared)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "FAIL %s: %d of %d elements mismatch (max abs err %.3g, max rel err %.3g)",
		r.Name, r.TotalMismatches, r.Compared, r.MaxAbsError, r.MaxRelError)
	for _, m := range r.Mismatches {
		fmt.Fprintf(&sb, "\n  %s = %g, want %g", m.Elem, m.Actual, m.Expected)
	}
	if r.TotalMismatches > len(r.Mismatches) {
		fmt.Fprintf(&sb, "\n  ... and %d more", r.TotalMismatches-len(r.Mismatches))
	}
	return sb.String()
}

// Verifier compares a kernel's output buffer against the reference
// function's output, element-wise, within absolute/relative tolerance.
type Verifier struct {
	AbsTol        float64
	RelTol        float64
	MaxMismatches int
}

// NewVerifier returns a verifier with the default tolerances.
func NewVerifier() *Verifier {
	return &Verifier{
		AbsTol:        DefaultAbsTol,
		RelTol:        DefaultRelTol,
		MaxMismatches: DefaultMaxMismatches,
	}
}

// Compare checks actual against expected element-wise. Integral data passes
// through exactly; float results are accepted within AbsTol/RelTol. Neither
// buffer is mutated.
func (v *Verifier) Compare(name string, expected, actual *Buffer) (*CheckResult, error) {
	if !expected.sameShape(actual) {
		return nil, NewConfigError("Verifier.Compare",
			fmt.Sprintf("shape mismatch: %q is %dx%d, %q is %dx%d",
				expected.name, expected.rows, expected.cols,
				actual.name, actual.rows, actual.cols))
	}
	r := &CheckResult{Name: name, Compared: expected.Len()}
	for i := range expected.data {
		e := float64(expected.data[i])
		a := float64(actual.data[i])
		if scalar.EqualWithinAbsOrRel(e, a, v.AbsTol, v.RelTol) {
			continue
		}
		absErr := e - a
		if absErr < 0 {
			absErr = -absErr
		}
		if absErr > r.MaxAbsError {
			r.MaxAbsError = absErr
		}
		if e != 0 {
			relErr := absErr / abs64(e)
			if relErr > r.MaxRelError {
				r.MaxRelError = relErr
			}
		}
		r.TotalMismatches++
		if len(r.Mismatches) < v.MaxMismatches {
			r.Mismatches = append(r.Mismatches, Mismatch{
				Index:    actual.coordAt(i),
				Elem:     actual.elemName(i),
				Expected: expected.data[i],
				Actual:   actual.data[i],
			})
		}
	}
	r.Passed = r.TotalMismatches == 0
	return r, nil
}

// Check runs the problem's reference function and its kernel, then compares
// the two outputs. The reference runs exactly once, against the inputs as
// given; only the kernel writes to the caller's output buffer.
func (v *Verifier) Check(p *Problem) (*CheckResult, error) {
	if p.Reference == nil {
		return nil, NewConfigError("Verifier.Check",
			fmt.Sprintf("problem %q has no reference function", p.Name))
	}
	if p.Output == nil {
		return nil, NewConfigError("Verifier.Check",
			fmt.Sprintf("problem %q has no output buffer", p.Name))
	}
	expected := p.Output.zeroed("expected")
	p.Reference(expected, p.Inputs...)

	actual, err := p.Run()
	if err != nil {
		return nil, err
	}
	return v.Compare(p.Name, expected, actual)
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
