// Package minigpu configuration constants
package minigpu

// Thread and block dimensions
const (
	// Maximum threads per block (CUDA compatibility)
	MaxThreadsPerBlock = 1024
)

// Scheduling parameters
const (
	// Maximum barrier rounds before a block is declared stalled
	DefaultMaxRounds = 4096
)

// Verification parameters
const (
	// Number of mismatching coordinates included in a failure report
	DefaultMaxMismatches = 3

	// Absolute tolerance for float comparisons
	DefaultAbsTol = 1e-5

	// Relative tolerance for float comparisons
	DefaultRelTol = 1e-5
)
