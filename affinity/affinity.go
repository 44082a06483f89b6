// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, affinity_stub.go) guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"
)

// SetAffinity pins the current OS thread to a given logical CPU on supported platforms.
// Callers normally hold runtime.LockOSThread so the goroutine stays on the pinned thread.
func SetAffinity(cpuID int) error {
	if cpuID < 0 || cpuID >= runtime.NumCPU() {
		return fmt.Errorf("affinity: cpu %d out of range [0,%d)", cpuID, runtime.NumCPU())
	}
	return setAffinityPlatform(cpuID)
}

// PinCurrentGoroutine locks the calling goroutine to its OS thread and pins that
// thread to cpuID. The returned func undoes the thread lock.
func PinCurrentGoroutine(cpuID int) (func(), error) {
	runtime.LockOSThread()
	if err := SetAffinity(cpuID); err != nil {
		runtime.UnlockOSThread()
		return func() {}, err
	}
	return runtime.UnlockOSThread, nil
}
