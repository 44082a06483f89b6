//go:build windows

// File: pool/alloc_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type virtualAllocator struct{}

func newPlatformAllocator() Allocator { return virtualAllocator{} }

func (virtualAllocator) Name() string { return "virtualalloc" }

func (virtualAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("virtualalloc: invalid size %d", size)
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("virtualalloc %d bytes: %w", size, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func (virtualAllocator) Free(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&buf[0])), 0, windows.MEM_RELEASE)
}

func (virtualAllocator) Lock(buf []byte) error {
	return windows.VirtualLock(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
}

func (virtualAllocator) Unlock(buf []byte) error {
	return windows.VirtualUnlock(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
}

// PageSize reports the allocation granularity assumed for frame regions.
func PageSize() int { return windows.Getpagesize() }
