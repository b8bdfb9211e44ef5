package ecs_test

import (
	"fmt"

	"github.com/plus3/slotcore/ecs"
)

type Hitpoints struct {
	Current, Max int
}

type HealingSystem struct {
	Entities  ecs.Query[Hitpoints]
	RegenRate float32
}

func (s *HealingSystem) Execute(frame *ecs.UpdateFrame) {
	for hp := range s.Entities.Values() {
		if hp.Current < hp.Max {
			hp.Current += int(s.RegenRate * float32(frame.DeltaTime))
			if hp.Current > hp.Max {
				hp.Current = hp.Max
			}
		}
	}
}

// ExampleScheduler demonstrates a frame loop with plain systems and a
// scripted behavior. Systems run in registration order; each Query field is
// refreshed right before its system executes.
func ExampleScheduler() {
	scripts := ecs.NewScriptRegistry()
	scripts.Register("drift", func(self ecs.EntityId) (ecs.Behavior, error) {
		return ecs.BehaviorFunc(func(frame *ecs.UpdateFrame, self ecs.EntityId) error {
			frame.Directory.GetTransform(self).Position.X += float32(frame.DeltaTime)
			return nil
		}), nil
	})

	dir := ecs.NewDirectory(ecs.WithScriptRegistry(scripts))
	ecs.RegisterComponent[Hitpoints](dir)

	player, _ := dir.Create(ecs.Descriptor{
		Name:       "player",
		Transform:  transformAt(0, 0, 0),
		Script:     &ecs.ScriptRef{Name: "drift"},
		Components: []any{Hitpoints{Current: 50, Max: 100}},
	})

	scheduler := ecs.NewScheduler(dir)
	scheduler.Register(&ecs.ScriptSystem{})
	scheduler.Register(&HealingSystem{RegenRate: 20})

	for frame := 0; frame < 3; frame++ {
		scheduler.Once(1.0)
	}

	hp, _ := ecs.ReadComponent[Hitpoints](dir, player)
	fmt.Printf("%s x=%.0f hp=%d/%d\n", dir.Name(player), dir.GetTransform(player).Position.X, hp.Current, hp.Max)

	// Output:
	// player x=3 hp=100/100
}
