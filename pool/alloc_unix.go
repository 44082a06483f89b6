//go:build linux || darwin || freebsd

// File: pool/alloc_unix.go
// Author: momentics <momentics@gmail.com>
//
// Anonymous private mmap regions, page-aligned and outside the Go heap.

package pool

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type mmapAllocator struct{}

func newPlatformAllocator() Allocator { return mmapAllocator{} }

func (mmapAllocator) Name() string { return "mmap" }

func (mmapAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	return buf, nil
}

func (mmapAllocator) Free(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Munmap(buf)
}

func (mmapAllocator) Lock(buf []byte) error { return unix.Mlock(buf) }

func (mmapAllocator) Unlock(buf []byte) error { return unix.Munlock(buf) }

// PageSize reports the VM page size used to round frame regions.
func PageSize() int { return unix.Getpagesize() }
