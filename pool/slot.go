// File: pool/slot.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"
	"time"

	"github.com/momentics/frameq/api"
)

// SlotState is the lifecycle position of one buffer.
type SlotState int32

const (
	// SlotIdle: owned by nobody; before the first start or after retirement.
	SlotIdle SlotState = iota
	// SlotPending: submitted to the producer, awaiting completion.
	SlotPending
	// SlotReady: completed and queued for the consumer.
	SlotReady
	// SlotInUse: handed to the consumer, not yet released.
	SlotInUse
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotPending:
		return "pending"
	case SlotReady:
		return "ready"
	case SlotInUse:
		return "in-use"
	default:
		return "invalid"
	}
}

// Slot is one pool buffer plus its metadata.
// Index and Data never change after allocation. The remaining fields are
// written by the queue manager under its own lock.
type Slot struct {
	Index int
	Data  []byte

	state atomic.Int32

	Status      api.Status
	Seq         uint64
	Info        api.FrameInfo
	CompletedAt time.Time
}

// State returns the current state.
func (s *Slot) State() SlotState { return SlotState(s.state.Load()) }

// SetState moves the slot to st.
func (s *Slot) SetState(st SlotState) { s.state.Store(int32(st)) }

// Frame builds the consumer view of the slot.
func (s *Slot) Frame() api.Frame {
	return api.Frame{
		Index:       s.Index,
		Data:        s.Data,
		Status:      s.Status,
		Seq:         s.Seq,
		Info:        s.Info,
		CompletedAt: s.CompletedAt,
	}
}
