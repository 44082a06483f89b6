// File: pool/alloc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Allocator abstraction. Platform-specific allocators live in alloc_unix.go,
// alloc_windows.go and alloc_other.go.

package pool

// Allocator provides raw frame memory.
type Allocator interface {
	// Name identifies the allocator in stats and logs.
	Name() string
	// Alloc returns a zeroed region of exactly size bytes.
	Alloc(size int) ([]byte, error)
	// Free releases a region previously returned by Alloc.
	Free(buf []byte) error
}

// Locker is implemented by allocators able to pin memory resident (mlock).
type Locker interface {
	Lock(buf []byte) error
	Unlock(buf []byte) error
}

// heapAllocator uses the Go heap. Buffers must not be retained by native code.
type heapAllocator struct{}

// HeapAllocator returns an allocator backed by the Go heap.
func HeapAllocator() Allocator { return heapAllocator{} }

func (heapAllocator) Name() string { return "heap" }

func (heapAllocator) Alloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heapAllocator) Free(_ []byte) error { return nil }

// PlatformAllocator returns the default off-heap allocator for this OS.
func PlatformAllocator() Allocator { return newPlatformAllocator() }
