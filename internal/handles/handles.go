// File: internal/handles/handles.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package handles maps Go objects to integer IDs that can be stored in
// memory owned by a C library and resolved again inside callbacks.
package handles

import "sync"

// Table is a thread-safe registry of handles. ID 0 is never issued.
type Table struct {
	mu     sync.RWMutex
	values map[uintptr]any
	next   uintptr
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{values: make(map[uintptr]any), next: 1}
}

// Register stores v and returns its handle.
func (t *Table) Register(v any) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.values[id] = v
	return id
}

// Lookup returns the object for id, or nil.
func (t *Table) Lookup(id uintptr) any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[id]
}

// Unregister drops id so the object can be collected.
func (t *Table) Unregister(id uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, id)
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

var global = NewTable()

// Register stores v in the process-wide table.
func Register(v any) uintptr { return global.Register(v) }

// Lookup resolves id in the process-wide table.
func Lookup(id uintptr) any { return global.Lookup(id) }

// Unregister removes id from the process-wide table.
func Unregister(id uintptr) { global.Unregister(id) }

// Count returns the number of live handles in the process-wide table.
func Count() int { return global.Len() }
