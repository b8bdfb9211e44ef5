package ecs

import (
	"iter"

	"github.com/bits-and-blooms/bitset"
	"gopkg.in/eapache/queue.v1"
)

// MinDeletedElements is the default number of freed slots that must pile up
// before any of them is handed out again.
const MinDeletedElements = 1024

// SlotAllocator issues generational ids and recycles released slots.
// It is not safe for concurrent mutation.
type SlotAllocator struct {
	generations []uint8
	freeIndices *queue.Queue
	live        *bitset.BitSet
	liveCount   int
	retired     int

	minDeleted int
	sentinel   Sentinel
	reserved   uint32
}

type allocatorOptions struct {
	minDeleted int
	sentinel   Sentinel
	capacity   int
}

// AllocatorOption configures a SlotAllocator.
type AllocatorOption func(*allocatorOptions)

// WithMinDeletedElements sets the recycling delay. Values below 1 mean freed
// slots are reused as soon as one is available.
func WithMinDeletedElements(n int) AllocatorOption {
	return func(o *allocatorOptions) {
		o.minDeleted = n
	}
}

// WithSentinel selects the invalid id policy.
func WithSentinel(s Sentinel) AllocatorOption {
	return func(o *allocatorOptions) {
		o.sentinel = s
	}
}

// WithCapacity preallocates room for n slots.
func WithCapacity(n int) AllocatorOption {
	return func(o *allocatorOptions) {
		o.capacity = n
	}
}

// NewSlotAllocator creates an empty allocator.
func NewSlotAllocator(opts ...AllocatorOption) *SlotAllocator {
	o := allocatorOptions{
		minDeleted: MinDeletedElements,
		sentinel:   SentinelMax,
		capacity:   256,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.minDeleted < 1 {
		o.minDeleted = 1
	}

	a := &SlotAllocator{
		generations: make([]uint8, 0, o.capacity),
		freeIndices: queue.New(),
		live:        bitset.New(uint(o.capacity)),
		minDeleted:  o.minDeleted,
		sentinel:    o.sentinel,
	}

	// Index 0 with generation 0 is the zero sentinel; the slot is never issued.
	if o.sentinel == SentinelZero {
		a.generations = append(a.generations, 0)
		a.reserved = 1
	}
	return a
}

// Allocate returns a fresh live id. Freed slots are only reused once at least
// minDeleted of them are queued, oldest first. When the index space is full
// any queued slot is reused regardless of the delay.
func (a *SlotAllocator) Allocate() EntityId {
	var index uint32
	switch {
	case a.freeIndices.Length() >= a.minDeleted:
		index = a.freeIndices.Remove().(uint32)
	case len(a.generations) <= IndexMask:
		index = uint32(len(a.generations))
		a.generations = append(a.generations, 0)
	case a.freeIndices.Length() > 0:
		index = a.freeIndices.Remove().(uint32)
	default:
		violation("allocate", a.sentinel.Id(), ErrIndexSpaceExhausted)
	}

	a.live.Set(uint(index))
	a.liveCount++
	return NewEntityId(index, uint32(a.generations[index]))
}

// IsAlive reports whether id was issued by this allocator and has not been
// released since.
func (a *SlotAllocator) IsAlive(id EntityId) bool {
	if !a.sentinel.IsValid(id) {
		return false
	}
	index := id.Index()
	if index < a.reserved || int(index) >= len(a.generations) {
		return false
	}
	return uint32(a.generations[index]) == id.Generation() && a.live.Test(uint(index))
}

// Release invalidates id and queues its slot for reuse. A slot whose next
// generation would be MaxGeneration is retired instead and never issued
// again, so generations cannot wrap. Releasing an id that is not alive
// panics.
func (a *SlotAllocator) Release(id EntityId) {
	if !a.IsAlive(id) {
		violation("release", id, ErrEntityNotAlive)
	}
	index := id.Index()
	next := id.BumpGeneration().Generation()
	a.generations[index] = uint8(next)
	a.live.Clear(uint(index))
	a.liveCount--
	if next >= MaxGeneration {
		a.retired++
		return
	}
	a.freeIndices.Add(index)
}

// Sentinel returns the invalid id policy.
func (a *SlotAllocator) Sentinel() Sentinel {
	return a.sentinel
}

// Live returns the number of live ids.
func (a *SlotAllocator) Live() int {
	return a.liveCount
}

// Free returns the number of released slots waiting for reuse.
func (a *SlotAllocator) Free() int {
	return a.freeIndices.Length()
}

// Retired returns the number of slots withdrawn after using up their
// generations.
func (a *SlotAllocator) Retired() int {
	return a.retired
}

// Cap returns the number of slots ever created, reserved slot excluded.
// Cap == Live + Free + Retired.
func (a *SlotAllocator) Cap() int {
	return len(a.generations) - int(a.reserved)
}

// MinDeleted returns the configured recycling delay.
func (a *SlotAllocator) MinDeleted() int {
	return a.minDeleted
}

// GenerationOf returns the current stored generation for index.
func (a *SlotAllocator) GenerationOf(index uint32) (uint32, bool) {
	if index < a.reserved || int(index) >= len(a.generations) {
		return 0, false
	}
	return uint32(a.generations[index]), true
}

// All iterates live ids in index order.
func (a *SlotAllocator) All() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for i, ok := a.live.NextSet(0); ok; i, ok = a.live.NextSet(i + 1) {
			id := NewEntityId(uint32(i), uint32(a.generations[i]))
			if !yield(id) {
				return
			}
		}
	}
}
