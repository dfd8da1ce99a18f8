package minigpu

import "fmt"

// Coord is a two-dimensional integer pair used for both extents and
// indices: threads per block, blocks per grid, a thread's index within its
// block, and a block's index within the grid. This matches CUDA's dim3
// restricted to the two dimensions the simulator supports.
type Coord struct {
	X, Y int
}

// Size returns the total number of positions covered by the coordinate
// when interpreted as an extent.
func (c Coord) Size() int {
	return c.X * c.Y
}

// String formats the coordinate as "(x, y)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// positive reports whether both components are at least 1, the requirement
// for launch shapes.
func (c Coord) positive() bool {
	return c.X >= 1 && c.Y >= 1
}

// linearToCoord converts a linear index to a 2D coordinate within dim,
// x-major.
func linearToCoord(linear int, dim Coord) Coord {
	return Coord{X: linear % dim.X, Y: linear / dim.X}
}
