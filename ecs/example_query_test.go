package ecs_test

import (
	"fmt"
	"slices"

	"github.com/plus3/slotcore/ecs"
)

// ExampleQuery demonstrates iterating one component table with the ids of
// the entities that own each record. A Query snapshots the table on Execute,
// so repeated iteration within a frame does no lookups.
func ExampleQuery() {
	dir := ecs.NewDirectory()
	ecs.RegisterComponent[Velocity](dir)

	dir.Create(ecs.Descriptor{Transform: transformAt(0, 0, 0), Components: []any{Velocity{DX: 1}}})
	dir.Create(ecs.Descriptor{Transform: transformAt(10, 10, 0), Components: []any{Velocity{DY: 1}}})
	dir.Create(ecs.Descriptor{Transform: transformAt(20, 20, 0)})
	dir.Create(ecs.Descriptor{Transform: transformAt(30, 30, 0), Components: []any{Velocity{DX: -1, DY: -1}}})

	query := ecs.NewQuery[Velocity](dir)
	query.Execute()

	var lines []string
	for id, vel := range query.Iter() {
		pos := dir.GetTransform(id).Position
		lines = append(lines, fmt.Sprintf("%s (%.0f, %.0f) -> (%.0f, %.0f)",
			id, pos.X, pos.Y, pos.X+vel.DX, pos.Y+vel.DY))
	}
	slices.Sort(lines)

	fmt.Println("Moving entities:")
	for _, line := range lines {
		fmt.Println(line)
	}

	// Output:
	// Moving entities:
	// 0:0 (0, 0) -> (1, 0)
	// 1:0 (10, 10) -> (10, 11)
	// 3:0 (30, 30) -> (29, 29)
}
