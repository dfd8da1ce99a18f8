package minigpu

import "testing"

func TestCoordSize(t *testing.T) {
	tests := []struct {
		c    Coord
		want int
	}{
		{Coord{X: 1, Y: 1}, 1},
		{Coord{X: 4, Y: 1}, 4},
		{Coord{X: 3, Y: 3}, 9},
		{Coord{X: 2, Y: 5}, 10},
	}
	for _, tt := range tests {
		if got := tt.c.Size(); got != tt.want {
			t.Errorf("%v.Size() = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestCoordString(t *testing.T) {
	if got := (Coord{X: 3, Y: 7}).String(); got != "(3, 7)" {
		t.Errorf("String() = %q, want %q", got, "(3, 7)")
	}
}

func TestLinearToCoord(t *testing.T) {
	dim := Coord{X: 3, Y: 2}
	seen := make(map[Coord]bool)
	for i := 0; i < dim.Size(); i++ {
		c := linearToCoord(i, dim)
		if c.X < 0 || c.X >= dim.X || c.Y < 0 || c.Y >= dim.Y {
			t.Fatalf("linearToCoord(%d, %v) = %v out of range", i, dim, c)
		}
		if seen[c] {
			t.Fatalf("linearToCoord(%d, %v) = %v visited twice", i, dim, c)
		}
		seen[c] = true
	}
	if len(seen) != dim.Size() {
		t.Errorf("visited %d coordinates, want %d", len(seen), dim.Size())
	}
}
