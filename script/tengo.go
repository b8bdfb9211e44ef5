package script

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/plus3/slotcore/ecs"
)

// Globals visible to tengo scripts. Host functions are rebound per entity.
var tengoGlobals = []string{"dt", "entity", "state", "position", "translate", "set_position", "remove"}

// CompileTengo compiles src once and returns a creator that hands every
// entity its own clone of the program. The whole script body runs on each
// update with dt, entity and state bound; state persists between updates.
func CompileTengo(name string, src []byte) (ecs.ScriptCreator, error) {
	s := tengo.NewScript(src)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	for _, g := range tengoGlobals {
		if err := s.Add(g, tengo.UndefinedValue); err != nil {
			return nil, fmt.Errorf("tengo %s: %w", name, err)
		}
	}

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("tengo %s: %w", name, err)
	}

	return func(self ecs.EntityId) (ecs.Behavior, error) {
		b := &tengoBehavior{
			name:     name,
			compiled: compiled.Clone(),
			state:    &tengo.Map{Value: map[string]tengo.Object{}},
		}
		if err := b.bind(self); err != nil {
			return nil, err
		}
		return b, nil
	}, nil
}

type tengoBehavior struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map

	frame *ecs.UpdateFrame
	self  ecs.EntityId
}

func (b *tengoBehavior) bind(self ecs.EntityId) error {
	b.self = self
	values := map[string]any{
		"entity":       int64(self),
		"state":        b.state,
		"position":     &tengo.UserFunction{Name: "position", Value: b.position},
		"translate":    &tengo.UserFunction{Name: "translate", Value: b.translate},
		"set_position": &tengo.UserFunction{Name: "set_position", Value: b.setPosition},
		"remove":       &tengo.UserFunction{Name: "remove", Value: b.remove},
	}
	for k, v := range values {
		if err := b.compiled.Set(k, v); err != nil {
			return fmt.Errorf("tengo %s: bind %s: %w", b.name, k, err)
		}
	}
	return nil
}

func (b *tengoBehavior) Update(frame *ecs.UpdateFrame, self ecs.EntityId) error {
	b.frame = frame
	defer func() { b.frame = nil }()

	if err := b.compiled.Set("dt", frame.DeltaTime); err != nil {
		return err
	}
	if err := b.compiled.Run(); err != nil {
		return fmt.Errorf("tengo %s: %w", b.name, err)
	}
	return nil
}

func (b *tengoBehavior) transform() (*ecs.Transform, error) {
	if b.frame == nil {
		return nil, fmt.Errorf("host function called outside update")
	}
	return b.frame.Directory.GetTransform(b.self), nil
}

func (b *tengoBehavior) position(args ...tengo.Object) (tengo.Object, error) {
	tr, err := b.transform()
	if err != nil {
		return nil, err
	}
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"x": &tengo.Float{Value: float64(tr.Position.X)},
		"y": &tengo.Float{Value: float64(tr.Position.Y)},
		"z": &tengo.Float{Value: float64(tr.Position.Z)},
	}}, nil
}

func (b *tengoBehavior) translate(args ...tengo.Object) (tengo.Object, error) {
	v, err := vecArgs("translate", args)
	if err != nil {
		return nil, err
	}
	tr, err := b.transform()
	if err != nil {
		return nil, err
	}
	tr.Position.X += v.X
	tr.Position.Y += v.Y
	tr.Position.Z += v.Z
	return tengo.UndefinedValue, nil
}

func (b *tengoBehavior) setPosition(args ...tengo.Object) (tengo.Object, error) {
	v, err := vecArgs("set_position", args)
	if err != nil {
		return nil, err
	}
	tr, err := b.transform()
	if err != nil {
		return nil, err
	}
	tr.Position = v
	return tengo.UndefinedValue, nil
}

func (b *tengoBehavior) remove(args ...tengo.Object) (tengo.Object, error) {
	if b.frame == nil {
		return nil, fmt.Errorf("host function called outside update")
	}
	b.frame.Commands.Remove(b.self)
	return tengo.UndefinedValue, nil
}

func vecArgs(fn string, args []tengo.Object) (ecs.Vec3, error) {
	if len(args) != 3 {
		return ecs.Vec3{}, tengo.ErrWrongNumArguments
	}
	var out [3]float32
	for i, arg := range args {
		f, ok := tengo.ToFloat64(arg)
		if !ok {
			return ecs.Vec3{}, tengo.ErrInvalidArgumentType{
				Name:     fmt.Sprintf("%s arg %d", fn, i+1),
				Expected: "float",
				Found:    arg.TypeName(),
			}
		}
		out[i] = float32(f)
	}
	return ecs.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}
