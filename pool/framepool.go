// File: pool/framepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FramePool: N fixed buffers allocated once, torn down once.

package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/momentics/frameq/api"
)

// Option configures a FramePool.
type Option func(*options)

type options struct {
	alloc  Allocator
	locked bool
}

// WithAllocator overrides the platform allocator.
func WithAllocator(a Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithHeapMemory allocates frames on the Go heap.
func WithHeapMemory() Option {
	return func(o *options) { o.alloc = heapAllocator{} }
}

// WithLockedMemory pins every frame resident. Ignored by allocators without Locker.
func WithLockedMemory() Option {
	return func(o *options) { o.locked = true }
}

// FramePool owns the frame memory of one capture pipeline.
type FramePool struct {
	mu       sync.Mutex
	alloc    Allocator
	locked   bool
	size     int
	slots    []*Slot
	released bool
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Slots     int
	SlotSize  int
	Bytes     int64
	Allocator string
	Locked    bool
	Released  bool
	States    map[SlotState]int
}

// New allocates n buffers of size bytes each. If any allocation fails every
// buffer allocated so far is released and an api.ErrCodeAllocation error is returned.
func New(n, size int, opts ...Option) (*FramePool, error) {
	if n < 1 || size < 1 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pool: buffer count and size must be positive").
			WithContext("count", n).WithContext("size", size)
	}
	o := options{alloc: newPlatformAllocator()}
	for _, opt := range opts {
		opt(&o)
	}
	p := &FramePool{
		alloc: o.alloc,
		size:  size,
		slots: make([]*Slot, 0, n),
	}
	locker, canLock := o.alloc.(Locker)
	p.locked = o.locked && canLock

	for i := 0; i < n; i++ {
		buf, err := o.alloc.Alloc(size)
		if err == nil && len(buf) != size {
			err = fmt.Errorf("allocator %s returned %d bytes, want %d", o.alloc.Name(), len(buf), size)
			_ = o.alloc.Free(buf)
		}
		if err == nil && p.locked {
			if lerr := locker.Lock(buf); lerr != nil {
				_ = o.alloc.Free(buf)
				err = fmt.Errorf("lock frame memory: %w", lerr)
			}
		}
		if err != nil {
			rerr := p.freeAll()
			return nil, api.NewError(api.ErrCodeAllocation, "pool: frame allocation failed").
				WithContext("index", i).
				WithContext("size", size).
				Wrap(errors.Join(err, rerr))
		}
		p.slots = append(p.slots, &Slot{Index: i, Data: buf})
	}
	return p, nil
}

// Len returns the number of slots.
func (p *FramePool) Len() int { return len(p.slots) }

// SlotSize returns the byte size of every slot.
func (p *FramePool) SlotSize() int { return p.size }

// Slot returns the slot with index i, or nil if i is out of range.
func (p *FramePool) Slot(i int) *Slot {
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

// Slots returns the slot array. The slice must not be modified.
func (p *FramePool) Slots() []*Slot { return p.slots }

// Teardown releases all frame memory. Every slot must be Idle or Ready;
// tearing down while a slot is Pending or InUse is a programming error and panics,
// because the producer or the consumer still owns that memory.
func (p *FramePool) Teardown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	for _, s := range p.slots {
		if st := s.State(); st == SlotPending || st == SlotInUse {
			panic(fmt.Sprintf("pool: teardown with slot %d %s", s.Index, st))
		}
	}
	p.released = true
	return p.freeAll()
}

func (p *FramePool) freeAll() error {
	var errs []error
	locker, _ := p.alloc.(Locker)
	for _, s := range p.slots {
		if s.Data == nil {
			continue
		}
		if p.locked && locker != nil {
			if err := locker.Unlock(s.Data); err != nil {
				errs = append(errs, err)
			}
		}
		if err := p.alloc.Free(s.Data); err != nil {
			errs = append(errs, fmt.Errorf("free slot %d: %w", s.Index, err))
		}
		s.Data = nil
	}
	return errors.Join(errs...)
}

// Stats reports pool occupancy.
func (p *FramePool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Stats{
		Slots:     len(p.slots),
		SlotSize:  p.size,
		Bytes:     int64(len(p.slots)) * int64(p.size),
		Allocator: p.alloc.Name(),
		Locked:    p.locked,
		Released:  p.released,
		States:    make(map[SlotState]int, 4),
	}
	for _, s := range p.slots {
		st.States[s.State()]++
	}
	return st
}
