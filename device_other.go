//go:build !linux

package minigpu

// getSystemMemory returns total system memory in bytes, or 0 when the
// platform offers no cheap way to ask.
func getSystemMemory() uint64 {
	return 0
}
