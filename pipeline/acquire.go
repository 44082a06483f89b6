// File: pipeline/acquire.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Consumer side: blocking acquire, bounded-wait variants and release.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/pool"
)

// AcquireNext blocks until a frame is ready and hands the oldest one to the
// caller (Ready→InUse). It returns api.ErrEndOfStream after Stop once no
// ready frames remain and always after Close, a timeout error
// (api.ErrCodeTimeout) when ctx's deadline passes, or ctx.Err() when ctx
// is cancelled.
// The frame must be returned with Release.
func (m *Manager) AcquireNext(ctx context.Context) (api.Frame, error) {
	return m.acquire(ctx, true)
}

// AcquireTimeout is AcquireNext bounded by d. A d ≤ 0 never waits.
func (m *Manager) AcquireTimeout(d time.Duration) (api.Frame, error) {
	if d <= 0 {
		return m.acquire(context.Background(), false)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return m.acquire(ctx, true)
}

// TryAcquire takes a ready frame without waiting.
func (m *Manager) TryAcquire() (api.Frame, error) {
	return m.acquire(context.Background(), false)
}

func (m *Manager) acquire(ctx context.Context, wait bool) (api.Frame, error) {
	stop := context.AfterFunc(ctx, m.wake)
	defer stop()

	m.lock()
	defer m.unlock()
	if m.closed {
		return api.Frame{}, api.NewError(api.ErrCodeEndOfStream, "pipeline: manager closed")
	}
	for m.ready.Length() == 0 {
		if m.eos || m.closed {
			return api.Frame{}, api.NewError(api.ErrCodeEndOfStream, "pipeline: end of stream")
		}
		if !wait {
			return api.Frame{}, api.NewError(api.ErrCodeTimeout, "pipeline: no frame ready")
		}
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return api.Frame{}, api.NewError(api.ErrCodeTimeout, "pipeline: acquire timed out").Wrap(err)
			}
			return api.Frame{}, err
		}
		m.notEmpty.Wait()
		m.drainLocked()
	}
	slot := m.ready.Remove().(*pool.Slot)
	slot.SetState(pool.SlotInUse)
	m.stats.acquired++
	return slot.Frame(), nil
}

// Release returns a frame obtained from AcquireNext and resubmits its slot.
// Releasing a slot that is not InUse (double release, unknown index) is an
// api.ErrCodeInvalidState error, or a panic with Config.StrictRelease.
// If the producer rejects the buffer the slot stays InUse and the
// submission error is returned so the caller may retry.
func (m *Manager) Release(index int) error {
	m.lock()
	defer m.unlock()
	slot := m.pool.Slot(index)
	if slot == nil || slot.State() != pool.SlotInUse {
		state := "unknown"
		if slot != nil {
			state = slot.State().String()
		}
		err := api.NewError(api.ErrCodeInvalidState, "pipeline: release of slot not in use").
			WithContext("index", index).WithContext("state", state)
		if m.cfg.StrictRelease {
			panic(fmt.Sprintf("%v", err))
		}
		return err
	}
	m.stats.released++
	if !m.running || m.stopping {
		slot.SetState(pool.SlotIdle)
		return nil
	}
	if err := m.submitLocked(slot); err != nil {
		slot.SetState(pool.SlotInUse)
		m.stats.submitFailures++
		m.log.Warn("pipeline: release resubmission failed", "index", index, "err", err)
		return err
	}
	return nil
}
