// File: pipeline/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"github.com/google/uuid"

	"github.com/momentics/frameq/pool"
)

// Stats is a consistent snapshot of manager state.
type Stats struct {
	Session       string
	Running       bool
	Stopping      bool
	EndOfStream   bool
	HighWaterMark int

	// Slot partition; Idle+Pending+Ready+InUse equals the pool size.
	Idle    int
	Pending int
	Ready   int
	InUse   int

	// ReadyOrder lists ready slot indices, oldest completion first.
	ReadyOrder []int
	// Outstanding is the submissions counter (equals Pending).
	Outstanding int

	Completions    uint64
	Delivered      uint64
	Evicted        uint64
	Degraded       uint64
	Retired        uint64
	SubmitFailures uint64
	Acquired       uint64
	Released       uint64
}

// Stats returns a snapshot taken under the manager lock after applying
// every completion reported so far.
func (m *Manager) Stats() Stats {
	m.lock()
	defer m.unlock()
	st := Stats{
		Running:        m.running,
		Stopping:       m.stopping,
		EndOfStream:    m.eos,
		HighWaterMark:  m.hwm,
		Outstanding:    m.pending,
		ReadyOrder:     make([]int, 0, m.ready.Length()),
		Completions:    m.stats.completions,
		Delivered:      m.stats.delivered,
		Evicted:        m.stats.evicted,
		Degraded:       m.stats.degraded,
		Retired:        m.stats.retired,
		SubmitFailures: m.stats.submitFailures,
		Acquired:       m.stats.acquired,
		Released:       m.stats.released,
	}
	if m.session != uuid.Nil {
		st.Session = m.session.String()
	}
	for _, s := range m.pool.Slots() {
		switch s.State() {
		case pool.SlotIdle:
			st.Idle++
		case pool.SlotPending:
			st.Pending++
		case pool.SlotReady:
			st.Ready++
		case pool.SlotInUse:
			st.InUse++
		}
	}
	for i := 0; i < m.ready.Length(); i++ {
		st.ReadyOrder = append(st.ReadyOrder, m.ready.Get(i).(*pool.Slot).Index)
	}
	return st
}

// Metrics flattens the snapshot into metric keys.
func (st Stats) Metrics() map[string]any {
	return map[string]any{
		"pipeline.session":         st.Session,
		"pipeline.running":         st.Running,
		"pipeline.hwm":             st.HighWaterMark,
		"pipeline.slots.idle":      st.Idle,
		"pipeline.slots.pending":   st.Pending,
		"pipeline.slots.ready":     st.Ready,
		"pipeline.slots.in_use":    st.InUse,
		"pipeline.completions":     st.Completions,
		"pipeline.delivered":       st.Delivered,
		"pipeline.evicted":         st.Evicted,
		"pipeline.degraded":        st.Degraded,
		"pipeline.retired":         st.Retired,
		"pipeline.submit_failures": st.SubmitFailures,
		"pipeline.acquired":        st.Acquired,
		"pipeline.released":        st.Released,
	}
}
