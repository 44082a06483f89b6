// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-size frame buffer pool for the capture pipeline.
// A FramePool owns N identically sized buffers for its whole lifetime; each
// buffer is wrapped in a Slot with a stable index and a state word.
// Memory comes from the platform allocator (anonymous mmap on unix,
// VirtualAlloc on windows) so buffers stay outside the Go heap and may be
// handed to native drivers. See framepool.go, slot.go and alloc_*.go.
package pool
