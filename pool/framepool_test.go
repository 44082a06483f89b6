// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package pool_test

import (
	"errors"
	"testing"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/pool"
)

// countingAllocator fails the Nth allocation and tracks live regions.
type countingAllocator struct {
	failAt int
	calls  int
	live   int
	freed  int
}

func (a *countingAllocator) Name() string { return "counting" }

func (a *countingAllocator) Alloc(size int) ([]byte, error) {
	a.calls++
	if a.calls == a.failAt {
		return nil, errors.New("out of memory")
	}
	a.live++
	return make([]byte, size), nil
}

func (a *countingAllocator) Free(_ []byte) error {
	a.live--
	a.freed++
	return nil
}

func TestFramePool_Basic(t *testing.T) {
	p, err := pool.New(5, 4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Len() != 5 || p.SlotSize() != 4096 {
		t.Fatalf("unexpected geometry: %d x %d", p.Len(), p.SlotSize())
	}
	for i := 0; i < p.Len(); i++ {
		s := p.Slot(i)
		if s.Index != i {
			t.Errorf("slot %d has index %d", i, s.Index)
		}
		if len(s.Data) != 4096 {
			t.Errorf("slot %d length %d", i, len(s.Data))
		}
		if s.State() != pool.SlotIdle {
			t.Errorf("slot %d initial state %s", i, s.State())
		}
	}
	copy(p.Slot(2).Data, "frame")
	if string(p.Slot(2).Data[:5]) != "frame" {
		t.Error("slot memory not writable")
	}
	if p.Slot(-1) != nil || p.Slot(5) != nil {
		t.Error("out of range slot lookup should return nil")
	}
	if err := p.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if !p.Stats().Released {
		t.Error("pool not marked released")
	}
	if err := p.Teardown(); err != nil {
		t.Errorf("second Teardown: %v", err)
	}
}

func TestFramePool_InvalidArguments(t *testing.T) {
	for _, tc := range []struct{ n, size int }{{0, 10}, {3, 0}, {-1, -1}} {
		if _, err := pool.New(tc.n, tc.size, pool.WithHeapMemory()); !errors.Is(err, api.ErrInvalidArgument) {
			t.Errorf("New(%d, %d): expected invalid argument, got %v", tc.n, tc.size, err)
		}
	}
}

func TestFramePool_AllocationRollback(t *testing.T) {
	a := &countingAllocator{failAt: 4}
	p, err := pool.New(6, 128, pool.WithAllocator(a))
	if p != nil {
		t.Fatal("expected nil pool on allocation failure")
	}
	if !errors.Is(err, api.ErrAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if a.live != 0 {
		t.Errorf("leaked %d buffers after rollback", a.live)
	}
	if a.freed != 3 {
		t.Errorf("expected 3 buffers freed, got %d", a.freed)
	}
}

func TestFramePool_TeardownPanicsWhileOwned(t *testing.T) {
	for _, st := range []pool.SlotState{pool.SlotPending, pool.SlotInUse} {
		p, err := pool.New(2, 64, pool.WithHeapMemory())
		if err != nil {
			t.Fatal(err)
		}
		p.Slot(1).SetState(st)
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("teardown with %s slot did not panic", st)
				}
			}()
			_ = p.Teardown()
		}()
		p.Slot(1).SetState(pool.SlotReady)
		if err := p.Teardown(); err != nil {
			t.Errorf("teardown with ready slot: %v", err)
		}
	}
}

func TestFramePool_Stats(t *testing.T) {
	p, err := pool.New(4, 256, pool.WithHeapMemory(), pool.WithLockedMemory())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Teardown()
	p.Slot(0).SetState(pool.SlotReady)
	st := p.Stats()
	if st.Bytes != 1024 || st.Allocator != "heap" {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.Locked {
		t.Error("heap allocator cannot lock memory")
	}
	if st.States[pool.SlotIdle] != 3 || st.States[pool.SlotReady] != 1 {
		t.Errorf("unexpected state counts %v", st.States)
	}
}
