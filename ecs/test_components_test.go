package ecs_test

import (
	"testing"

	"github.com/plus3/slotcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Health struct {
	Current int
	Max     int
}

type Velocity struct {
	DX, DY, DZ float32
}

type Tag string

type Unregistered struct{}

func newTestDirectory(opts ...ecs.DirectoryOption) *ecs.Directory {
	dir := ecs.NewDirectory(opts...)
	ecs.RegisterComponent[Health](dir)
	ecs.RegisterComponent[Velocity](dir)
	ecs.RegisterComponent[Tag](dir)
	return dir
}

func transformAt(x, y, z float32) *ecs.Transform {
	t := ecs.IdentityTransform()
	t.Position = ecs.Vec3{X: x, Y: y, Z: z}
	return &t
}

// countingBehavior records updates and closes.
type countingBehavior struct {
	updates int
	closed  int
	err     error
}

func (b *countingBehavior) Update(frame *ecs.UpdateFrame, self ecs.EntityId) error {
	b.updates++
	return b.err
}

func (b *countingBehavior) Close() {
	b.closed++
}

// requireContractPanic fails the test unless fn panics with an error that
// matches target.
func requireContractPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)

		var contract *ecs.ContractError
		assert.ErrorAs(t, err, &contract)
	}()
	fn()
}
