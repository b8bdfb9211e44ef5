package ecs

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
)

// ComponentTable stores one component kind for the entities that have it.
// It is keyed by the allocator's slot index; internally a sparse map points
// each index at a dense position, so compaction never renumbers slot indices.
type ComponentTable[T any] struct {
	name    string
	sparse  *intmap.Map[uint32, int]
	dense   []T
	owners  []uint32
	release func(index uint32, v *T)
}

// NewComponentTable creates an empty table. The release hook, if non-nil,
// runs on each record just before Remove drops it.
func NewComponentTable[T any](name string, release func(index uint32, v *T)) *ComponentTable[T] {
	return &ComponentTable[T]{
		name:    name,
		sparse:  intmap.New[uint32, int](256),
		release: release,
	}
}

// Name returns the component kind name.
func (t *ComponentTable[T]) Name() string {
	return t.name
}

// Type returns the stored component type.
func (t *ComponentTable[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

// Add inserts or overwrites the record at index. An overwritten record goes
// through the release hook first.
func (t *ComponentTable[T]) Add(index uint32, v T) {
	if pos, ok := t.sparse.Get(index); ok {
		if t.release != nil {
			t.release(index, &t.dense[pos])
		}
		t.dense[pos] = v
		return
	}
	t.sparse.Put(index, len(t.dense))
	t.dense = append(t.dense, v)
	t.owners = append(t.owners, index)
}

// Remove drops the record at index, moving the last record into its dense
// position. Returns false if nothing was stored.
func (t *ComponentTable[T]) Remove(index uint32) bool {
	pos, ok := t.sparse.Get(index)
	if !ok {
		return false
	}
	if t.release != nil {
		t.release(index, &t.dense[pos])
	}

	last := len(t.dense) - 1
	if pos != last {
		t.dense[pos] = t.dense[last]
		t.owners[pos] = t.owners[last]
		t.sparse.Put(t.owners[pos], pos)
	}

	var zero T
	t.dense[last] = zero
	t.dense = t.dense[:last]
	t.owners = t.owners[:last]
	t.sparse.Del(index)
	return true
}

// Get returns the record at index and panics if there is none.
func (t *ComponentTable[T]) Get(index uint32) *T {
	v, ok := t.TryGet(index)
	if !ok {
		panic(fmt.Sprintf("ecs: no %s component at index %d", t.name, index))
	}
	return v
}

// TryGet returns the record at index, if present. The pointer is valid until
// the next Add or Remove on this table.
func (t *ComponentTable[T]) TryGet(index uint32) (*T, bool) {
	pos, ok := t.sparse.Get(index)
	if !ok {
		return nil, false
	}
	return &t.dense[pos], true
}

// Has reports whether a record exists at index.
func (t *ComponentTable[T]) Has(index uint32) bool {
	_, ok := t.sparse.Get(index)
	return ok
}

// Len returns the number of stored records.
func (t *ComponentTable[T]) Len() int {
	return len(t.dense)
}

// All iterates records in dense order.
func (t *ComponentTable[T]) All() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		for pos := range t.dense {
			if !yield(t.owners[pos], &t.dense[pos]) {
				return
			}
		}
	}
}

// addAny accepts either T or *T.
func (t *ComponentTable[T]) addAny(index uint32, item any) error {
	var v T
	if ptr, ok := item.(*T); ok {
		if ptr == nil {
			return fmt.Errorf("%w: nil %s", ErrInvalidComponent, t.name)
		}
		v = *ptr
	} else if val, ok := item.(T); ok {
		v = val
	} else {
		return fmt.Errorf("%w: %T is not %s", ErrInvalidComponent, item, t.name)
	}

	if err := validateComponent(&v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidComponent, t.name, err)
	}
	t.Add(index, v)
	return nil
}

func (t *ComponentTable[T]) getAny(index uint32) any {
	v, ok := t.TryGet(index)
	if !ok {
		return nil
	}
	return v
}

// Validator is implemented by components that can reject bad payloads at
// creation time.
type Validator interface {
	Validate() error
}

func validateComponent(v any) error {
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}
