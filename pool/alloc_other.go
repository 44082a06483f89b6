//go:build !linux && !darwin && !freebsd && !windows

// File: pool/alloc_other.go
// Author: momentics <momentics@gmail.com>
//
// Fallback for platforms without an off-heap allocator.

package pool

import "os"

func newPlatformAllocator() Allocator { return heapAllocator{} }

// PageSize reports the VM page size.
func PageSize() int { return os.Getpagesize() }
