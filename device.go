package minigpu

import (
	"runtime"
	"sync"
)

// Device describes the host executing the simulation. There is exactly one:
// the CPU. Core count decides how many blocks run concurrently by default.
type Device struct {
	ID       int    // Unique device identifier
	Name     string // Human-readable device name
	TotalMem uint64 // Total system memory in bytes, 0 if unknown
	NumCores int    // Number of CPU cores
}

var (
	defaultDevice *Device
	deviceOnce    sync.Once
)

// CPU returns the simulated compute device.
func CPU() *Device {
	deviceOnce.Do(func() {
		defaultDevice = &Device{
			ID:       0,
			Name:     "CPU",
			TotalMem: getSystemMemory(),
			NumCores: runtime.NumCPU(),
		}
	})
	return defaultDevice
}
