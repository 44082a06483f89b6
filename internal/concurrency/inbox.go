// File: internal/concurrency/inbox.go
// Package concurrency provides lock-free primitives for the capture pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Inbox is a bounded MPMC queue (Vyukov sequence-cell scheme). Producer
// callback threads push completion events without taking the manager lock;
// whoever holds that lock pops them in FIFO order.

package concurrency

import "sync/atomic"

const cacheLinePad = 64

type cell[T any] struct {
	seq  atomic.Uint64
	data T
}

// Inbox is a fixed-capacity multi-producer multi-consumer FIFO.
type Inbox[T any] struct {
	head  atomic.Uint64
	_     [cacheLinePad]byte
	tail  atomic.Uint64
	_     [cacheLinePad]byte
	mask  uint64
	cells []cell[T]
}

// NewInbox creates an inbox holding at least capacity items (rounded up to a power of two).
func NewInbox[T any](capacity int) *Inbox[T] {
	size := 2
	for size < capacity {
		size <<= 1
	}
	q := &Inbox[T]{
		mask:  uint64(size - 1),
		cells: make([]cell[T], size),
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

// Push appends v; returns false if the inbox is full.
func (q *Inbox[T]) Push(v T) bool {
	for {
		tail := q.tail.Load()
		c := &q.cells[tail&q.mask]
		dif := int64(c.seq.Load()) - int64(tail)
		switch {
		case dif == 0:
			if q.tail.CompareAndSwap(tail, tail+1) {
				c.data = v
				c.seq.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false
		}
	}
}

// Pop removes the oldest item; ok is false if the inbox is empty.
func (q *Inbox[T]) Pop() (v T, ok bool) {
	for {
		head := q.head.Load()
		c := &q.cells[head&q.mask]
		dif := int64(c.seq.Load()) - int64(head+1)
		switch {
		case dif == 0:
			if q.head.CompareAndSwap(head, head+1) {
				v = c.data
				var zero T
				c.data = zero
				c.seq.Store(head + q.mask + 1)
				return v, true
			}
		case dif < 0:
			return v, false
		}
	}
}

// Len is the number of items pushed and not yet popped. It may include
// items whose Push is still in flight.
func (q *Inbox[T]) Len() int {
	n := int64(q.tail.Load()) - int64(q.head.Load())
	if n < 0 {
		return 0
	}
	return int(n)
}

// Cap returns the fixed capacity.
func (q *Inbox[T]) Cap() int { return len(q.cells) }
