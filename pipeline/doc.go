// File: pipeline/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package pipeline implements the multi-buffer frame-queue manager.
//
// A Manager keeps a fixed pool of N frame buffers cycling through a
// producer (camera driver):
//
//	Idle ──Start──▶ Pending ──completion──▶ Ready ──AcquireNext──▶ InUse
//	                   ▲                      │                      │
//	                   └──────eviction────────┘◀──────Release────────┘
//
// Completed buffers are appended to a FIFO ready-queue in completion order.
// When a completion arrives while more than HighWaterMark frames are ready,
// the oldest ready frame is evicted and resubmitted, so under overload the
// consumer always sees the freshest bounded window of frames and memory
// stays fixed.
//
// Completion callbacks never block on the manager lock: they push an event
// into a lock-free inbox and try-lock; if the lock is busy the current
// holder, or the dispatcher goroutine, applies the event before releasing.
//
// Frames completed with StatusCancelled or StatusHardwareError are retired
// to Idle and not resubmitted until the next Start.
package pipeline
