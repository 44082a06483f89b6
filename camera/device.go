// Package camera
// Author: momentics <momentics@gmail.com>
//
// Frame sources that feed a capture pipeline.

package camera

import (
	"context"

	"github.com/momentics/frameq/api"
)

// Info describes the images a device produces.
type Info struct {
	Name        string
	Width       int
	Height      int
	Format      api.PixelFormat
	PayloadSize int // bytes per frame
}

// Device is a producer that also controls acquisition.
type Device interface {
	api.Producer
	api.Canceler

	Info() Info
	// Run acquires frames into queued buffers until ctx is done.
	Run(ctx context.Context) error
	// Close cancels queued buffers and releases the device.
	Close() error
}
