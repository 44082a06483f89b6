// Package api
// Author: momentics <momentics@gmail.com>
//
// Producer contract: the camera/driver side that fills submitted buffers.

package api

// CompletionFunc is invoked by a producer exactly once per accepted submission,
// possibly from a driver-owned thread.
type CompletionFunc func(index int, status Status, info FrameInfo)

// Producer accepts buffers for asynchronous filling.
type Producer interface {
	// Submit hands buf (identified by index) to the producer.
	// It must not block. A nil error means done will be called exactly once
	// for this submission; a non-nil error means it will never be called.
	Submit(index int, buf []byte, done CompletionFunc) error
}

// Canceler is implemented by producers able to abort queued work.
// CancelPending completes every outstanding submission with StatusCancelled.
type Canceler interface {
	CancelPending() error
}

// ProducerFunc adapts a plain function to Producer.
type ProducerFunc func(index int, buf []byte, done CompletionFunc) error

// Submit calls f.
func (f ProducerFunc) Submit(index int, buf []byte, done CompletionFunc) error {
	return f(index, buf, done)
}
