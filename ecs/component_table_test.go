package ecs_test

import (
	"testing"

	"github.com/plus3/slotcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTableAddGet(t *testing.T) {
	table := ecs.NewComponentTable[Health]("health", nil)

	table.Add(3, Health{Current: 10, Max: 10})
	table.Add(7, Health{Current: 5, Max: 20})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "health", table.Name())
	assert.Equal(t, 10, table.Get(3).Current)
	assert.Equal(t, 20, table.Get(7).Max)

	_, ok := table.TryGet(4)
	assert.False(t, ok)
	assert.False(t, table.Has(4))
	assert.Panics(t, func() { table.Get(4) })
}

func TestComponentTableOverwrite(t *testing.T) {
	released := 0
	table := ecs.NewComponentTable[Health]("health", func(index uint32, h *Health) {
		released++
	})

	table.Add(1, Health{Current: 1})
	table.Add(1, Health{Current: 2})

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 2, table.Get(1).Current)
	assert.Equal(t, 1, released)
}

func TestComponentTableRemoveKeepsOtherIndices(t *testing.T) {
	table := ecs.NewComponentTable[Tag]("tag", nil)
	for i, tag := range []Tag{"a", "b", "c", "d", "e"} {
		table.Add(uint32(i*10), tag)
	}

	require.True(t, table.Remove(10))
	require.True(t, table.Remove(0))
	assert.False(t, table.Remove(0))
	assert.False(t, table.Remove(99))

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, Tag("c"), *table.Get(20))
	assert.Equal(t, Tag("d"), *table.Get(30))
	assert.Equal(t, Tag("e"), *table.Get(40))
	assert.False(t, table.Has(10))

	got := map[uint32]Tag{}
	for index, tag := range table.All() {
		got[index] = *tag
	}
	assert.Equal(t, map[uint32]Tag{20: "c", 30: "d", 40: "e"}, got)
}

func TestComponentTableReleaseHook(t *testing.T) {
	var releasedAt []uint32
	table := ecs.NewComponentTable[Health]("health", func(index uint32, h *Health) {
		releasedAt = append(releasedAt, index)
	})

	table.Add(4, Health{})
	table.Add(5, Health{})
	table.Remove(4)
	table.Remove(4)

	assert.Equal(t, []uint32{4}, releasedAt)
}
