package ecs_test

import (
	"math/rand"
	"testing"

	"github.com/plus3/slotcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFreshSlots(t *testing.T) {
	slots := ecs.NewSlotAllocator()

	a := slots.Allocate()
	b := slots.Allocate()

	assert.Equal(t, ecs.NewEntityId(0, 0), a)
	assert.Equal(t, ecs.NewEntityId(1, 0), b)
	assert.True(t, slots.IsAlive(a))
	assert.True(t, slots.IsAlive(b))
	assert.Equal(t, 2, slots.Live())
	assert.Equal(t, 2, slots.Cap())
	assert.Equal(t, 0, slots.Free())
}

func TestReleaseMakesIdStale(t *testing.T) {
	slots := ecs.NewSlotAllocator()
	id := slots.Allocate()

	slots.Release(id)

	assert.False(t, slots.IsAlive(id))
	gen, ok := slots.GenerationOf(id.Index())
	require.True(t, ok)
	assert.Equal(t, uint32(1), gen)
	assert.Equal(t, 1, slots.Free())
	assert.Equal(t, 0, slots.Live())
}

func TestReleaseTwicePanics(t *testing.T) {
	slots := ecs.NewSlotAllocator()
	id := slots.Allocate()
	slots.Release(id)

	requireContractPanic(t, ecs.ErrEntityNotAlive, func() {
		slots.Release(id)
	})
}

func TestReleaseUnknownIdPanics(t *testing.T) {
	slots := ecs.NewSlotAllocator()

	requireContractPanic(t, ecs.ErrEntityNotAlive, func() {
		slots.Release(ecs.NewEntityId(42, 0))
	})
	requireContractPanic(t, ecs.ErrEntityNotAlive, func() {
		slots.Release(ecs.InvalidEntityId)
	})
}

func TestIsAliveRejectsForeignIds(t *testing.T) {
	slots := ecs.NewSlotAllocator()
	id := slots.Allocate()

	assert.False(t, slots.IsAlive(ecs.InvalidEntityId))
	assert.False(t, slots.IsAlive(ecs.NewEntityId(50, 0)))
	assert.False(t, slots.IsAlive(ecs.NewEntityId(id.Index(), 1)))
}

func TestRecyclingDelay(t *testing.T) {
	slots := ecs.NewSlotAllocator()

	ids := make([]ecs.EntityId, 2000)
	for i := range ids {
		ids[i] = slots.Allocate()
	}

	for _, id := range ids[:ecs.MinDeletedElements-1] {
		slots.Release(id)
	}
	require.Equal(t, ecs.MinDeletedElements-1, slots.Free())

	fresh := slots.Allocate()
	assert.Equal(t, uint32(2000), fresh.Index(), "reuse must wait for the threshold")

	slots.Release(ids[ecs.MinDeletedElements-1])
	require.Equal(t, ecs.MinDeletedElements, slots.Free())

	reused := slots.Allocate()
	assert.Equal(t, uint32(0), reused.Index(), "oldest freed slot is reused first")
	assert.Equal(t, uint32(1), reused.Generation())
	assert.False(t, slots.IsAlive(ids[0]))

	next := slots.Allocate()
	assert.Equal(t, uint32(2001), next.Index())
}

func TestIndicesIncreaseBelowThreshold(t *testing.T) {
	slots := ecs.NewSlotAllocator()
	rng := rand.New(rand.NewSource(7))

	var live []ecs.EntityId
	last := int64(-1)
	for i := 0; i < 5000; i++ {
		if len(live) > 0 && rng.Intn(3) == 0 && slots.Free() < ecs.MinDeletedElements-1 {
			k := rng.Intn(len(live))
			slots.Release(live[k])
			live = append(live[:k], live[k+1:]...)
			continue
		}
		id := slots.Allocate()
		require.Greater(t, int64(id.Index()), last)
		last = int64(id.Index())
		live = append(live, id)
	}
}

func TestFreeListIsFIFO(t *testing.T) {
	slots := ecs.NewSlotAllocator(ecs.WithMinDeletedElements(1))

	a := slots.Allocate()
	b := slots.Allocate()
	c := slots.Allocate()

	slots.Release(c)
	slots.Release(a)
	slots.Release(b)

	assert.Equal(t, c.Index(), slots.Allocate().Index())
	assert.Equal(t, a.Index(), slots.Allocate().Index())
	assert.Equal(t, b.Index(), slots.Allocate().Index())
	assert.Equal(t, uint32(3), slots.Allocate().Index())
}

func TestNoAliasingAcrossRecycle(t *testing.T) {
	slots := ecs.NewSlotAllocator(ecs.WithMinDeletedElements(1))

	issued := []ecs.EntityId{slots.Allocate()}
	for i := 0; i < 10; i++ {
		prev := issued[len(issued)-1]
		slots.Release(prev)
		next := slots.Allocate()

		require.Equal(t, prev.Index(), next.Index())
		require.Greater(t, next.Generation(), prev.Generation())
		for _, old := range issued {
			require.False(t, slots.IsAlive(old))
		}
		issued = append(issued, next)
	}
}

func TestSlotRetiresBeforeGenerationExhaustion(t *testing.T) {
	slots := ecs.NewSlotAllocator(ecs.WithMinDeletedElements(1))

	id := slots.Allocate()
	first := id.Index()
	reuses := 0
	for i := 0; i < 300; i++ {
		slots.Release(id)
		id = slots.Allocate()
		if id.Index() != first {
			break
		}
		reuses++
	}

	assert.Equal(t, ecs.MaxGeneration-1, reuses)
	assert.NotEqual(t, first, id.Index(), "retired slot is never reissued")
	assert.Equal(t, uint32(0), id.Generation())
	assert.Equal(t, 1, slots.Retired())
	assert.Equal(t, 0, slots.Free())
	assert.Equal(t, slots.Cap(), slots.Live()+slots.Free()+slots.Retired())

	gen, ok := slots.GenerationOf(first)
	require.True(t, ok)
	assert.Equal(t, uint32(ecs.MaxGeneration), gen)
	assert.False(t, slots.IsAlive(ecs.NewEntityId(first, ecs.MaxGeneration-1)))
	assert.False(t, slots.IsAlive(ecs.NewEntityId(first, ecs.MaxGeneration)))

	// Keep churning: only fresh indices ever come back, never a wrapped one.
	for i := 0; i < 1000; i++ {
		slots.Release(id)
		id = slots.Allocate()
		require.Less(t, id.Generation(), uint32(ecs.MaxGeneration))
	}
	assert.Equal(t, 1, slots.Live())
	assert.Equal(t, slots.Cap(), slots.Live()+slots.Free()+slots.Retired())
}

func TestIndexSpaceExhaustionPanics(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates the full index space")
	}
	slots := ecs.NewSlotAllocator(ecs.WithCapacity(ecs.IndexMask + 1))

	var last ecs.EntityId
	for i := 0; i <= ecs.IndexMask; i++ {
		last = slots.Allocate()
	}
	assert.Equal(t, uint32(ecs.IndexMask), last.Index())

	// With the index space full, a queued slot is reused before the
	// recycling delay has been reached.
	slots.Release(last)
	require.Less(t, slots.Free(), slots.MinDeleted())
	reused := slots.Allocate()
	assert.Equal(t, last.Index(), reused.Index())
	assert.Equal(t, uint32(1), reused.Generation())

	requireContractPanic(t, ecs.ErrIndexSpaceExhausted, func() {
		slots.Allocate()
	})
}

func TestCountConservation(t *testing.T) {
	slots := ecs.NewSlotAllocator(ecs.WithMinDeletedElements(16))
	rng := rand.New(rand.NewSource(42))

	var live []ecs.EntityId
	creates, removes := 0, 0
	for i := 0; i < 10000; i++ {
		if len(live) > 0 && rng.Intn(2) == 0 {
			k := rng.Intn(len(live))
			slots.Release(live[k])
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
			removes++
			continue
		}
		live = append(live, slots.Allocate())
		creates++
	}

	assert.Equal(t, creates-removes, slots.Live())

	seen := 0
	for id := range slots.All() {
		require.True(t, slots.IsAlive(id))
		seen++
	}
	assert.Equal(t, creates-removes, seen)
}

func TestZeroSentinelReservesIndexZero(t *testing.T) {
	slots := ecs.NewSlotAllocator(ecs.WithSentinel(ecs.SentinelZero))

	id := slots.Allocate()
	assert.Equal(t, uint32(1), id.Index())
	assert.NotEqual(t, ecs.EntityId(0), id)
	assert.False(t, slots.IsAlive(0))
	assert.Equal(t, 1, slots.Cap())

	_, ok := slots.GenerationOf(0)
	assert.False(t, ok)

	requireContractPanic(t, ecs.ErrEntityNotAlive, func() {
		slots.Release(0)
	})
}

func TestAllIteratesLiveIdsInIndexOrder(t *testing.T) {
	slots := ecs.NewSlotAllocator()
	a := slots.Allocate()
	b := slots.Allocate()
	c := slots.Allocate()
	slots.Release(b)

	var got []ecs.EntityId
	for id := range slots.All() {
		got = append(got, id)
	}
	assert.Equal(t, []ecs.EntityId{a, c}, got)
}
