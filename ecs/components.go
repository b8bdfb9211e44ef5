package ecs

import (
	"errors"
	"math"
)

type Vec3 struct {
	X, Y, Z float32
}

type Quat struct {
	X, Y, Z, W float32
}

// Transform is mandatory for every entity.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: Quat{W: 1},
		Scale:    Vec3{X: 1, Y: 1, Z: 1},
	}
}

func (t Transform) Validate() error {
	for _, f := range []float32{
		t.Position.X, t.Position.Y, t.Position.Z,
		t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W,
		t.Scale.X, t.Scale.Y, t.Scale.Z,
	} {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return errors.New("non-finite transform value")
		}
	}
	q := t.Rotation
	if q.X == 0 && q.Y == 0 && q.Z == 0 && q.W == 0 {
		return errors.New("zero rotation quaternion")
	}
	return nil
}

// Geometry references renderer-owned mesh and material resources.
type Geometry struct {
	Mesh     uint32
	Material uint32
}

func (g Geometry) Validate() error {
	if g.Mesh == 0 {
		return errors.New("mesh 0 is the null mesh")
	}
	return nil
}

// Script binds an entity to a behavior produced by a named creator.
type Script struct {
	Name     string
	Behavior Behavior
}

// ScriptRef names the creator to run when an entity is created.
type ScriptRef struct {
	Name string
}

// Descriptor lists the components an entity is created with. Transform is
// required; the other fields are optional.
type Descriptor struct {
	Name       string
	Transform  *Transform
	Script     *ScriptRef
	Geometry   *Geometry
	Components []any
}
