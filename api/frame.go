// Package api
// Author: momentics <momentics@gmail.com>
//
// Frame views handed to consumers and completion status codes reported by producers.
//
// Frame.Data aliases pool memory. It is valid only between a successful
// acquire and the matching Release; no copy is made.

package api

import "time"

// Status is the outcome a producer reports for one submitted buffer.
type Status int

const (
	StatusSuccess Status = iota
	StatusDataLost
	StatusDataMissing
	StatusCancelled
	StatusHardwareError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDataLost:
		return "data-lost"
	case StatusDataMissing:
		return "data-missing"
	case StatusCancelled:
		return "cancelled"
	default:
		return "hardware-error"
	}
}

// Deliverable reports whether a frame with this status goes to the ready-queue.
// Lost or missing data is still delivered; the consumer decides whether to use it.
func (s Status) Deliverable() bool {
	return s == StatusSuccess || s == StatusDataLost || s == StatusDataMissing
}

// Degraded reports whether the frame was delivered with incomplete payload.
func (s Status) Degraded() bool {
	return s == StatusDataLost || s == StatusDataMissing
}

// PixelFormat names the layout of frame payload bytes.
type PixelFormat int

const (
	PixelUnknown PixelFormat = iota
	PixelMono8
	PixelMono16
	PixelBayer8
	PixelRGB24
)

func (p PixelFormat) String() string {
	switch p {
	case PixelMono8:
		return "mono8"
	case PixelMono16:
		return "mono16"
	case PixelBayer8:
		return "bayer8"
	case PixelRGB24:
		return "rgb24"
	default:
		return "unknown"
	}
}

// FrameInfo is optional producer-reported metadata for a completed buffer.
type FrameInfo struct {
	Width     int
	Height    int
	Format    PixelFormat
	ImageSize int    // valid payload bytes; 0 means the whole buffer
	Count     uint64 // producer-side frame counter
	Timestamp uint64 // producer clock ticks
}

// Frame is the consumer view of one Ready slot.
type Frame struct {
	Index       int
	Data        []byte
	Status      Status
	Seq         uint64 // completion sequence assigned by the queue manager
	Info        FrameInfo
	CompletedAt time.Time
}

// Payload returns the valid bytes of the frame.
func (f Frame) Payload() []byte {
	if f.Info.ImageSize > 0 && f.Info.ImageSize <= len(f.Data) {
		return f.Data[:f.Info.ImageSize]
	}
	return f.Data
}
