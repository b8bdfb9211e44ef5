package ecs

import "iter"

// SlotMap is an arena keyed by generational ids: each slot holds a payload
// alongside the generation and occupancy tracked by its SlotAllocator.
// Unlike the allocator, lookups and removals with stale ids fail softly.
type SlotMap[T any] struct {
	slots  *SlotAllocator
	values []T
}

// NewSlotMap creates an empty slot map.
func NewSlotMap[T any](opts ...AllocatorOption) *SlotMap[T] {
	return &SlotMap[T]{
		slots: NewSlotAllocator(opts...),
	}
}

// Insert stores v in a fresh slot and returns its id.
func (m *SlotMap[T]) Insert(v T) EntityId {
	id := m.slots.Allocate()
	index := int(id.Index())
	if index >= len(m.values) {
		m.values = append(m.values, make([]T, index-len(m.values)+1)...)
	}
	m.values[index] = v
	return id
}

// Get returns a pointer to the payload for a live id.
func (m *SlotMap[T]) Get(id EntityId) (*T, bool) {
	if !m.slots.IsAlive(id) {
		return nil, false
	}
	return &m.values[id.Index()], true
}

// Contains reports whether id is live.
func (m *SlotMap[T]) Contains(id EntityId) bool {
	return m.slots.IsAlive(id)
}

// Remove releases the slot for id and returns its payload. Stale ids are
// reported with ok=false and leave the map untouched.
func (m *SlotMap[T]) Remove(id EntityId) (T, bool) {
	var zero T
	if !m.slots.IsAlive(id) {
		return zero, false
	}
	index := id.Index()
	v := m.values[index]
	m.values[index] = zero
	m.slots.Release(id)
	return v, true
}

// Len returns the number of live entries.
func (m *SlotMap[T]) Len() int {
	return m.slots.Live()
}

// Allocator exposes the underlying allocator for inspection.
func (m *SlotMap[T]) Allocator() *SlotAllocator {
	return m.slots
}

// All iterates live entries in index order.
func (m *SlotMap[T]) All() iter.Seq2[EntityId, *T] {
	return func(yield func(EntityId, *T) bool) {
		for id := range m.slots.All() {
			if !yield(id, &m.values[id.Index()]) {
				return
			}
		}
	}
}
