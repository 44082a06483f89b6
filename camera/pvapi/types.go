// File: camera/pvapi/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import "log/slog"

// AccessMode selects how a camera is opened.
type AccessMode uint32

const (
	AccessMonitor AccessMode = 2
	AccessMaster  AccessMode = 4
)

// DefaultMaxFrames bounds how many buffers may be queued at once.
const DefaultMaxFrames = 16

// Options configures Open.
type Options struct {
	// MaxFrames is the number of frame descriptors; slot indices must be below it.
	MaxFrames int
	Access    AccessMode
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxFrames <= 0 {
		o.MaxFrames = DefaultMaxFrames
	}
	if o.Access == 0 {
		o.Access = AccessMaster
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// CameraInfo describes a discovered camera.
type CameraInfo struct {
	UniqueID        uint64
	Serial          string
	Name            string
	PartNumber      uint64
	PartVersion     uint64
	PermittedAccess AccessMode
	InterfaceID     uint64
	Interface       string
}

func interfaceName(t int32) string {
	switch t {
	case 1:
		return "firewire"
	case 2:
		return "ethernet"
	default:
		return "unknown"
	}
}
