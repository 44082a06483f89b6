// File: pipeline/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"github.com/momentics/frameq/affinity"
	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/internal/concurrency"
	"github.com/momentics/frameq/pool"
)

type completion struct {
	index  int
	status api.Status
	info   api.FrameInfo
	at     time.Time
}

type counters struct {
	completions    uint64
	delivered      uint64
	evicted        uint64
	degraded       uint64
	retired        uint64
	submitFailures uint64
	acquired       uint64
	released       uint64
}

// Manager is the frame-queue manager for one pool and one producer.
// All methods are safe for concurrent use. OnCompletion may be called from
// any thread; AcquireNext/Release are meant for consumer goroutines.
type Manager struct {
	cfg      Config
	log      *slog.Logger
	pool     *pool.FramePool
	ownsPool bool
	producer api.Producer
	complete api.CompletionFunc

	inbox     *concurrency.Inbox[completion]
	kick      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// mu guards everything below plus slot state transitions.
	mu       sync.Mutex
	notEmpty *sync.Cond
	drained  *sync.Cond
	ready    *queue.Queue // of *pool.Slot, front = oldest completion
	hwm      int
	pending  int
	running  bool
	stopping bool
	eos      bool
	closed   bool
	seq      uint64
	session  uuid.UUID
	stats    counters
}

// New binds a manager to an existing pool. Zero BufferCount/BufferSize in cfg
// are taken from the pool; non-zero values must match it.
func New(cfg Config, fp *pool.FramePool, producer api.Producer) (*Manager, error) {
	if fp == nil || producer == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pipeline: pool and producer are required")
	}
	if cfg.BufferCount == 0 {
		cfg.BufferCount = fp.Len()
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = fp.SlotSize()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BufferCount != fp.Len() || cfg.BufferSize > fp.SlotSize() {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pipeline: config does not match pool").
			WithContext("buffers", cfg.BufferCount).WithContext("pool_buffers", fp.Len()).
			WithContext("size", cfg.BufferSize).WithContext("pool_size", fp.SlotSize())
	}
	m := &Manager{
		cfg:      cfg,
		log:      cfg.logger(),
		pool:     fp,
		producer: producer,
		inbox:    concurrency.NewInbox[completion](2 * cfg.BufferCount),
		kick:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		ready:    queue.New(),
		hwm:      cfg.HighWaterMark,
	}
	m.notEmpty = sync.NewCond(&m.mu)
	m.drained = sync.NewCond(&m.mu)
	m.complete = m.OnCompletionInfo
	go m.dispatch()
	return m, nil
}

// Open allocates a pool sized by cfg and binds a manager to it.
// The pool is torn down by Close.
func Open(cfg Config, producer api.Producer, opts ...pool.Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fp, err := pool.New(cfg.BufferCount, cfg.BufferSize, opts...)
	if err != nil {
		return nil, err
	}
	m, err := New(cfg, fp, producer)
	if err != nil {
		_ = fp.Teardown()
		return nil, err
	}
	m.ownsPool = true
	return m, nil
}

// Pool returns the frame pool the manager cycles.
func (m *Manager) Pool() *pool.FramePool { return m.pool }

// lock acquires mu and applies queued completions.
func (m *Manager) lock() {
	m.mu.Lock()
	m.drainLocked()
}

// unlock applies queued completions and releases mu. A completion pushed
// after the final drain either wins its own TryLock or has kicked the dispatcher.
func (m *Manager) unlock() {
	for {
		m.drainLocked()
		m.mu.Unlock()
		if m.inbox.Len() == 0 || !m.mu.TryLock() {
			return
		}
	}
}

// dispatch applies completions whose callback could not take the lock.
func (m *Manager) dispatch() {
	defer close(m.done)
	if m.cfg.DispatchCPU >= 0 {
		undo, err := affinity.PinCurrentGoroutine(m.cfg.DispatchCPU)
		if err != nil {
			m.log.Warn("pipeline: dispatcher affinity not applied", "cpu", m.cfg.DispatchCPU, "err", err)
		}
		defer undo()
	}
	for {
		select {
		case <-m.quit:
			return
		case <-m.kick:
			m.lock()
			m.unlock()
		}
	}
}

// OnCompletion is the producer completion callback without frame metadata.
func (m *Manager) OnCompletion(index int, status api.Status) {
	m.OnCompletionInfo(index, status, api.FrameInfo{})
}

// OnCompletionInfo records a completion for slot index. It never waits for
// the manager lock.
func (m *Manager) OnCompletionInfo(index int, status api.Status, info api.FrameInfo) {
	c := completion{index: index, status: status, info: info, at: time.Now()}
	if !m.inbox.Push(c) {
		// more completions in flight than submissions: producer contract broken
		m.log.Error("pipeline: completion inbox overflow", "index", index, "status", status)
		m.mu.Lock()
		m.drainLocked()
		m.applyLocked(c)
		m.unlock()
		return
	}
	if m.mu.TryLock() {
		m.unlock()
		return
	}
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Manager) drainLocked() {
	for {
		c, ok := m.inbox.Pop()
		if !ok {
			return
		}
		m.applyLocked(c)
	}
}

func (m *Manager) applyLocked(c completion) {
	slot := m.pool.Slot(c.index)
	if slot == nil {
		m.log.Warn("pipeline: completion for unknown slot", "index", c.index)
		return
	}
	if st := slot.State(); st != pool.SlotPending {
		m.log.Warn("pipeline: completion for slot not pending", "index", c.index, "state", st)
		return
	}
	m.stats.completions++

	if !c.status.Deliverable() {
		slot.Status = c.status
		slot.SetState(pool.SlotIdle)
		m.stats.retired++
		m.pending--
		if c.status != api.StatusCancelled {
			m.log.Warn("pipeline: slot retired", "index", c.index, "status", c.status)
		}
		if m.pending == 0 {
			m.drained.Broadcast()
		}
		return
	}

	// Drop check precedes the append: the queue may hold H+1 afterwards.
	if m.ready.Length() > m.hwm {
		old := m.ready.Remove().(*pool.Slot)
		m.stats.evicted++
		m.log.Debug("pipeline: frame evicted", "index", old.Index, "seq", old.Seq)
		m.recycleLocked(old)
	}

	m.seq++
	slot.Status = c.status
	slot.Seq = m.seq
	slot.Info = c.info
	slot.CompletedAt = c.at
	slot.SetState(pool.SlotReady)
	m.ready.Add(slot)
	m.stats.delivered++
	if c.status.Degraded() {
		m.stats.degraded++
		m.log.Debug("pipeline: degraded frame", "index", c.index, "status", c.status)
	}
	m.pending--
	m.notEmpty.Broadcast()
	if m.pending == 0 {
		m.drained.Broadcast()
	}
}

// submitLocked hands slot to the producer. On failure the caller decides the slot's state.
func (m *Manager) submitLocked(slot *pool.Slot) error {
	slot.SetState(pool.SlotPending)
	m.pending++
	if err := m.producer.Submit(slot.Index, slot.Data, m.complete); err != nil {
		m.pending--
		return api.NewError(api.ErrCodeSubmission, "pipeline: producer rejected submission").
			WithContext("index", slot.Index).Wrap(err)
	}
	return nil
}

// recycleLocked resubmits an evicted slot, retiring it if the producer keeps refusing.
func (m *Manager) recycleLocked(slot *pool.Slot) {
	if m.stopping || !m.running {
		slot.SetState(pool.SlotIdle)
		m.stats.retired++
		return
	}
	var err error
	for attempt := 0; attempt <= m.cfg.ResubmitRetries; attempt++ {
		if err = m.submitLocked(slot); err == nil {
			return
		}
	}
	slot.SetState(pool.SlotIdle)
	m.stats.retired++
	m.stats.submitFailures++
	m.log.Error("pipeline: resubmit failed, slot retired", "index", slot.Index, "err", err)
	if m.cfg.OnSubmitError != nil {
		m.cfg.OnSubmitError(slot.Index, err)
	}
}

// wake rouses every waiter so it re-checks its condition and context.
func (m *Manager) wake() {
	m.lock()
	m.notEmpty.Broadcast()
	m.drained.Broadcast()
	m.unlock()
}

// Start submits every slot to the producer. It stops at the first rejected
// submission and returns it; slots accepted so far stay Pending and the
// session remains running, so the caller decides whether to Stop.
func (m *Manager) Start() error {
	m.lock()
	defer m.unlock()
	if m.closed {
		return api.NewError(api.ErrCodeNotRunning, "pipeline: manager closed")
	}
	if m.running {
		return api.NewError(api.ErrCodeAlreadyRunning, "pipeline: capture already running").
			WithContext("session", m.session.String())
	}
	for _, s := range m.pool.Slots() {
		if st := s.State(); st == pool.SlotPending || st == pool.SlotInUse {
			return api.NewError(api.ErrCodeInvalidState, "pipeline: slot still owned from previous session").
				WithContext("index", s.Index).WithContext("state", st.String())
		}
	}
	for m.ready.Length() > 0 {
		m.ready.Remove().(*pool.Slot).SetState(pool.SlotIdle)
	}
	m.running, m.stopping, m.eos = true, false, false
	m.session = uuid.New()
	m.log.Info("pipeline: capture starting",
		"session", m.session.String(),
		"buffers", m.pool.Len(),
		"buffer_size", m.pool.SlotSize(),
		"hwm", m.hwm)

	for _, s := range m.pool.Slots() {
		if err := m.submitLocked(s); err != nil {
			s.SetState(pool.SlotIdle)
			m.stats.submitFailures++
			m.log.Error("pipeline: initial submission failed", "index", s.Index, "err", err)
			return err
		}
	}
	return nil
}

// Stop ends the capture session: no further resubmission, pending work is
// cancelled (when the producer implements api.Canceler) and awaited, and
// consumers blocked in AcquireNext receive api.ErrEndOfStream once the
// ready-queue is empty. If ctx ends first the session stays stopping and
// Stop may be called again.
func (m *Manager) Stop(ctx context.Context) error {
	m.lock()
	if !m.running {
		m.eos = true
		m.notEmpty.Broadcast()
		m.unlock()
		return nil
	}
	m.stopping = true
	m.unlock()

	if c, ok := m.producer.(api.Canceler); ok {
		if err := c.CancelPending(); err != nil {
			m.log.Warn("pipeline: producer cancel failed", "err", err)
		}
	}

	stop := context.AfterFunc(ctx, m.wake)
	defer stop()

	m.lock()
	defer m.unlock()
	for m.pending > 0 {
		if err := ctx.Err(); err != nil {
			m.eos = true
			m.notEmpty.Broadcast()
			return api.NewError(api.ErrCodeTimeout, "pipeline: stop interrupted with pending submissions").
				WithContext("pending", m.pending).Wrap(err)
		}
		m.drained.Wait()
		m.drainLocked()
	}
	m.running = false
	m.stopping = false
	m.eos = true
	m.notEmpty.Broadcast()
	m.log.Info("pipeline: capture stopped",
		"session", m.session.String(),
		"delivered", m.stats.delivered,
		"evicted", m.stats.evicted,
		"retired", m.stats.retired)
	return nil
}

// Close stops the session, ends the dispatcher and, for pools created by
// Open, releases frame memory. Ready frames are retired and later acquires
// return api.ErrEndOfStream. Frames still held by a consumer keep the pool
// alive and are reported as an invalid-state error.
func (m *Manager) Close(ctx context.Context) error {
	err := m.Stop(ctx)
	m.closeOnce.Do(func() {
		m.lock()
		m.closed = true
		m.eos = true
		for m.ready.Length() > 0 {
			m.ready.Remove().(*pool.Slot).SetState(pool.SlotIdle)
		}
		m.notEmpty.Broadcast()
		inUse := 0
		for _, s := range m.pool.Slots() {
			if s.State() == pool.SlotInUse {
				inUse++
			}
		}
		switch {
		case !m.ownsPool || err != nil:
		case inUse > 0:
			err = api.NewError(api.ErrCodeInvalidState, "pipeline: frames still held by consumer").
				WithContext("in_use", inUse)
		default:
			// acquire reads slot memory under this same lock.
			err = m.pool.Teardown()
		}
		m.unlock()
		close(m.quit)
		<-m.done
	})
	return err
}

// SetHighWaterMark changes H for subsequent completions.
func (m *Manager) SetHighWaterMark(h int) error {
	if h < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "pipeline: high-water mark must not be negative").
			WithContext("hwm", h)
	}
	m.lock()
	defer m.unlock()
	if h != m.hwm {
		m.log.Info("pipeline: high-water mark changed", "from", m.hwm, "to", h)
	}
	m.hwm = h
	return nil
}

// HighWaterMark returns the current H.
func (m *Manager) HighWaterMark() int {
	m.lock()
	defer m.unlock()
	return m.hwm
}
