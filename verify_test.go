package minigpu

import (
	"strings"
	"testing"
)

func TestCompareEqual(t *testing.T) {
	expected := Arange("expected", 8)
	actual := Arange("out", 8)
	r, err := NewVerifier().Compare("Test", expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Passed {
		t.Errorf("identical buffers did not pass: %v", r)
	}
	if r.Compared != 8 {
		t.Errorf("Compared = %d, want 8", r.Compared)
	}
}

func TestCompareWithinTolerance(t *testing.T) {
	expected := FromSlice("expected", []float32{1, 2, 3})
	actual := FromSlice("out", []float32{1 + 1e-7, 2, 3 - 1e-7})
	r, err := NewVerifier().Compare("Test", expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Passed {
		t.Errorf("values within tolerance did not pass: %v", r)
	}
}

func TestCompareMismatchReportBounded(t *testing.T) {
	expected := NewBuffer("expected", 8)
	actual := FromSlice("out", []float32{1, 2, 3, 4, 5, 0, 0, 0})
	r, err := NewVerifier().Compare("Test", expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	if r.Passed {
		t.Fatal("mismatching buffers passed")
	}
	if r.TotalMismatches != 5 {
		t.Errorf("TotalMismatches = %d, want 5", r.TotalMismatches)
	}
	if len(r.Mismatches) != DefaultMaxMismatches {
		t.Errorf("reported %d mismatches, want %d", len(r.Mismatches), DefaultMaxMismatches)
	}
	m := r.Mismatches[0]
	if m.Elem != "out[0]" || m.Expected != 0 || m.Actual != 1 {
		t.Errorf("first mismatch = %+v, want out[0] actual 1 expected 0", m)
	}
	report := r.String()
	if !strings.Contains(report, "FAIL") || !strings.Contains(report, "and 2 more") {
		t.Errorf("report %q missing FAIL marker or overflow note", report)
	}
}

func TestCompare2DCoordinates(t *testing.T) {
	expected := NewBuffer2D("expected", 2, 3)
	actual := NewBuffer2D("out", 2, 3)
	actual.Set2(1, 2, 9)
	r, err := NewVerifier().Compare("Test", expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	if r.Passed || len(r.Mismatches) != 1 {
		t.Fatalf("unexpected result: %v", r)
	}
	m := r.Mismatches[0]
	if m.Elem != "out[1, 2]" {
		t.Errorf("mismatch element = %q, want out[1, 2]", m.Elem)
	}
	if (m.Index != Coord{X: 1, Y: 2}) {
		t.Errorf("mismatch index = %v, want (1, 2)", m.Index)
	}
}

func TestCompareShapeMismatch(t *testing.T) {
	_, err := NewVerifier().Compare("Test", NewBuffer("a", 4), NewBuffer("b", 5))
	if !IsConfigError(err) {
		t.Errorf("error = %v, want configuration error", err)
	}
	_, err = NewVerifier().Compare("Test", NewBuffer("a", 6), NewBuffer2D("b", 2, 3))
	if !IsConfigError(err) {
		t.Errorf("dims mismatch error = %v, want configuration error", err)
	}
}

func TestCheckResultPassString(t *testing.T) {
	r := &CheckResult{Name: "Map", Passed: true, Compared: 4}
	if got := r.String(); !strings.Contains(got, "PASS Map") {
		t.Errorf("String() = %q, want PASS Map", got)
	}
}
