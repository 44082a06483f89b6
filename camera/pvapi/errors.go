// File: camera/pvapi/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import (
	"errors"
	"fmt"

	"github.com/momentics/frameq/api"
)

// Code is a driver result code (tPvErr).
type Code int32

const (
	ErrSuccess Code = iota
	ErrCameraFault
	ErrInternalFault
	ErrBadHandle
	ErrBadParameter
	ErrBadSequence
	ErrNotFound
	ErrAccessDenied
	ErrUnplugged
	ErrInvalidSetup
	ErrResources
	ErrBandwidth
	ErrQueueFull
	ErrBufferTooSmall
	ErrCancelled
	ErrDataLost
	ErrDataMissing
	ErrTimeout
	ErrOutOfRange
	ErrWrongType
	ErrForbidden
	ErrUnavailable
	ErrFirewall
)

var codeNames = [...]string{
	"success", "camera fault", "internal fault", "bad handle", "bad parameter",
	"bad sequence", "not found", "access denied", "unplugged", "invalid setup",
	"resources unavailable", "bandwidth exceeded", "queue full", "buffer too small",
	"frame cancelled", "data lost", "data missing", "timeout", "out of range",
	"wrong type", "attribute forbidden", "attribute unavailable", "blocked by firewall",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("unknown error %d", int32(c))
}

// DriverError is a failed library call.
type DriverError struct {
	Op   string
	Code Code
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("pvapi: %s: %s", e.Op, e.Code)
}

// ErrClosed is returned by operations on a closed camera.
var ErrClosed = errors.New("pvapi: camera closed")

// ErrLibraryNotFound is returned when libPvAPI cannot be loaded.
var ErrLibraryNotFound = errors.New("pvapi: PvAPI library not found")

func check(op string, rc int32) error {
	if rc == 0 {
		return nil
	}
	return &DriverError{Op: op, Code: Code(rc)}
}

// IsCode reports whether err is a DriverError with code c.
func IsCode(err error, c Code) bool {
	var de *DriverError
	return errors.As(err, &de) && de.Code == c
}

// statusOf maps a frame completion code to the pipeline status.
func statusOf(c Code) api.Status {
	switch c {
	case ErrSuccess:
		return api.StatusSuccess
	case ErrDataLost:
		return api.StatusDataLost
	case ErrDataMissing:
		return api.StatusDataMissing
	case ErrCancelled:
		return api.StatusCancelled
	default:
		return api.StatusHardwareError
	}
}

// Image formats (tPvImageFormat).
const (
	fmtMono8  = 0
	fmtMono16 = 1
	fmtBayer8 = 2
	fmtRGB24  = 4
)

func formatOf(f int32) api.PixelFormat {
	switch f {
	case fmtMono8:
		return api.PixelMono8
	case fmtMono16:
		return api.PixelMono16
	case fmtBayer8:
		return api.PixelBayer8
	case fmtRGB24:
		return api.PixelRGB24
	default:
		return api.PixelUnknown
	}
}

// formatByName maps the PixelFormat enum attribute value.
func formatByName(name string) api.PixelFormat {
	switch name {
	case "Mono8":
		return api.PixelMono8
	case "Mono16":
		return api.PixelMono16
	case "Bayer8":
		return api.PixelBayer8
	case "Rgb24":
		return api.PixelRGB24
	default:
		return api.PixelUnknown
	}
}

func notSupported(err error) error {
	return api.NewError(api.ErrCodeNotSupported, "pvapi: camera support unavailable").Wrap(err)
}
