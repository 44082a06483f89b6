// File: pipeline/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"log/slog"

	"github.com/momentics/frameq/api"
)

// Defaults match the original single-camera eye-tracker setup.
const (
	DefaultBufferCount   = 5
	DefaultHighWaterMark = 2
	DefaultWidth         = 659
	DefaultHeight        = 493
	DefaultBufferSize    = DefaultWidth * DefaultHeight
)

// Config controls a Manager.
type Config struct {
	// BufferCount is N, the number of slots cycled through the producer.
	BufferCount int
	// BufferSize is the byte size of each slot.
	BufferSize int
	// HighWaterMark is H. A completion arriving while more than H frames are
	// ready evicts the oldest ready frame back to the producer. H ≥ N-1 never evicts.
	HighWaterMark int
	// ResubmitRetries bounds extra attempts when resubmitting an evicted slot.
	ResubmitRetries int
	// StrictRelease panics on an invalid Release instead of returning an error.
	StrictRelease bool
	// DispatchCPU pins the completion dispatcher thread; negative disables pinning.
	DispatchCPU int
	// Logger receives pipeline events; nil means slog.Default().
	Logger *slog.Logger
	// OnSubmitError is told about slots retired because resubmission failed.
	// It runs with the manager lock held and must not call back into the Manager.
	OnSubmitError func(index int, err error)
}

// DefaultConfig returns a Config with the stock geometry.
func DefaultConfig() Config {
	return Config{
		BufferCount:     DefaultBufferCount,
		BufferSize:      DefaultBufferSize,
		HighWaterMark:   DefaultHighWaterMark,
		ResubmitRetries: 1,
		DispatchCPU:     -1,
	}
}

// Validate checks N ≥ 1, size > 0, H ≥ 0 and retries ≥ 0.
func (c Config) Validate() error {
	switch {
	case c.BufferCount < 1:
		return api.NewError(api.ErrCodeInvalidArgument, "pipeline: buffer count must be at least 1").
			WithContext("buffers", c.BufferCount)
	case c.BufferSize < 1:
		return api.NewError(api.ErrCodeInvalidArgument, "pipeline: buffer size must be positive").
			WithContext("size", c.BufferSize)
	case c.HighWaterMark < 0:
		return api.NewError(api.ErrCodeInvalidArgument, "pipeline: high-water mark must not be negative").
			WithContext("hwm", c.HighWaterMark)
	case c.ResubmitRetries < 0:
		return api.NewError(api.ErrCodeInvalidArgument, "pipeline: resubmit retries must not be negative").
			WithContext("retries", c.ResubmitRetries)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
