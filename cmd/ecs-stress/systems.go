package main

import (
	"math/rand"

	"github.com/plus3/slotcore/ecs"
)

type Velocity struct {
	X, Y, Z float32
}

// Lifetime counts down; the entity is removed when it reaches zero.
type Lifetime struct {
	Remaining float64
}

func randomDescriptor(rng *rand.Rand) ecs.Descriptor {
	t := ecs.IdentityTransform()
	t.Position = ecs.Vec3{X: rng.Float32() * 100, Y: rng.Float32() * 100}
	desc := ecs.Descriptor{Transform: &t}

	if rng.Intn(2) == 0 {
		desc.Components = append(desc.Components, Velocity{X: rng.Float32() - 0.5, Y: rng.Float32() - 0.5})
	}
	if rng.Intn(4) == 0 {
		desc.Components = append(desc.Components, Lifetime{Remaining: rng.Float64() * 5})
	}
	if rng.Intn(3) == 0 {
		desc.Geometry = &ecs.Geometry{Mesh: uint32(rng.Intn(16) + 1), Material: uint32(rng.Intn(4))}
	}
	return desc
}

type MovementSystem struct {
	Movers ecs.Query[Velocity]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for id, v := range s.Movers.Iter() {
		t := frame.Directory.GetTransform(id)
		t.Position.X += v.X * dt
		t.Position.Y += v.Y * dt
		t.Position.Z += v.Z * dt
	}
}

type AgingSystem struct {
	Lifetimes ecs.Query[Lifetime]
}

func (s *AgingSystem) Execute(frame *ecs.UpdateFrame) {
	for id, l := range s.Lifetimes.Iter() {
		l.Remaining -= frame.DeltaTime
		if l.Remaining <= 0 {
			frame.Commands.Remove(id)
		}
	}
}

// ChurnSystem removes a random share of live entities each frame and
// queues fresh ones to hold the population near Target, cycling slots
// through the free list. Expirations queued by AgingSystem are made up one
// frame later.
type ChurnSystem struct {
	Rate   float64
	Target int

	Created int64
	Removed int64

	rng     *rand.Rand
	victims []ecs.EntityId
}

func (s *ChurnSystem) Execute(frame *ecs.UpdateFrame) {
	dir := frame.Directory

	s.victims = s.victims[:0]
	for id := range dir.All() {
		if s.rng.Float64() < s.Rate {
			s.victims = append(s.victims, id)
		}
	}
	for _, id := range s.victims {
		frame.Commands.Remove(id)
	}
	s.Removed += int64(len(s.victims))

	missing := s.Target - (dir.Len() - len(s.victims))
	for i := 0; i < missing; i++ {
		frame.Commands.Create(randomDescriptor(s.rng))
	}
	s.Created += int64(max(missing, 0))
}
