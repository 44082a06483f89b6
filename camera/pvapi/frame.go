//go:build (linux || darwin) && (amd64 || arm64)

// File: camera/pvapi/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// pvFrame mirrors tPvFrame on LP64 targets.
type pvFrame struct {
	ImageBuffer         uintptr
	ImageBufferSize     uint64
	AncillaryBuffer     uintptr
	AncillaryBufferSize uint64
	Context             [4]uintptr
	_                   [8]uint64

	Status        int32
	ImageSize     uint64
	AncillarySize uint64
	Width         uint64
	Height        uint64
	RegionX       uint64
	RegionY       uint64
	Format        int32
	BitDepth      uint64
	BayerPattern  int32
	FrameCount    uint64
	TimestampLo   uint64
	TimestampHi   uint64
	_             [32]uint64
}

// Context slots used by this package.
const (
	ctxCamera = 0
	ctxIndex  = 1
)

// cameraInfo mirrors tPvCameraInfo on LP64 targets.
type cameraInfo struct {
	UniqueID        uint64
	SerialString    [32]byte
	PartNumber      uint64
	PartVersion     uint64
	PermittedAccess uint64
	InterfaceID     uint64
	InterfaceType   int32
	DisplayName     [16]byte
	_               [4]uint64
}

func (ci *cameraInfo) export() CameraInfo {
	return CameraInfo{
		UniqueID:        ci.UniqueID,
		Serial:          unix.ByteSliceToString(ci.SerialString[:]),
		Name:            unix.ByteSliceToString(ci.DisplayName[:]),
		PartNumber:      ci.PartNumber,
		PartVersion:     ci.PartVersion,
		PermittedAccess: AccessMode(ci.PermittedAccess),
		InterfaceID:     ci.InterfaceID,
		Interface:       interfaceName(ci.InterfaceType),
	}
}

// descriptors is a table of frame descriptors outside the Go heap, so the
// driver may keep pointers to them while frames are queued.
type descriptors struct {
	mem []byte
	n   int
}

var frameSize = int(unsafe.Sizeof(pvFrame{}))

func newDescriptors(n int) (*descriptors, error) {
	mem, err := unix.Mmap(-1, 0, n*frameSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &descriptors{mem: mem, n: n}, nil
}

func (d *descriptors) at(i int) *pvFrame {
	return (*pvFrame)(unsafe.Pointer(&d.mem[i*frameSize]))
}

func (d *descriptors) free() error {
	if d.mem == nil {
		return nil
	}
	err := unix.Munmap(d.mem)
	d.mem = nil
	return err
}
