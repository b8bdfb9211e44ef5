package ecs

import "iter"

// Query caches the entities holding component T for one frame.
// The cached pointers stay valid as long as no entity is created or removed,
// which the scheduler guarantees between Execute and the end-of-frame flush.
type Query[T any] struct {
	directory *Directory
	table     *ComponentTable[T]

	cachedEntities   []EntityId
	cachedComponents []*T
	cacheValid       bool
}

// NewQuery creates a Query over dir.
func NewQuery[T any](dir *Directory) *Query[T] {
	q := &Query[T]{}
	q.Init(dir)
	return q
}

// Init initializes or re-initializes the Query with a directory.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(dir *Directory) {
	q.directory = dir
	q.table = nil
	q.cacheValid = false
}

// Execute rebuilds the entity and component caches.
// Called automatically by the Scheduler before the owning system runs.
func (q *Query[T]) Execute() {
	q.cachedEntities = q.cachedEntities[:0]
	clear(q.cachedComponents)
	q.cachedComponents = q.cachedComponents[:0]

	if q.table == nil {
		// The table may be registered after the query is initialized.
		q.table, _ = LookupTable[T](q.directory)
	}
	if q.table != nil {
		slots := q.directory.Allocator()
		for index, item := range q.table.All() {
			gen, _ := slots.GenerationOf(index)
			q.cachedEntities = append(q.cachedEntities, NewEntityId(index, gen))
			q.cachedComponents = append(q.cachedComponents, item)
		}
	}

	q.cacheValid = true
}

// Len returns the number of cached entities.
func (q *Query[T]) Len() int {
	return len(q.cachedEntities)
}

// Iter returns an iterator over entity IDs and component data.
// Panics if Execute() has not been called.
func (q *Query[T]) Iter() iter.Seq2[EntityId, *T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(EntityId, *T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
// Panics if Execute() has not been called.
func (q *Query[T]) Values() iter.Seq[*T] {
	if !q.cacheValid {
		panic("Query.Values() called before Query.Execute()")
	}

	return func(yield func(*T) bool) {
		for _, item := range q.cachedComponents {
			if !yield(item) {
				return
			}
		}
	}
}
