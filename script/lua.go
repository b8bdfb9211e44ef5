package script

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/plus3/slotcore/ecs"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

var errNoLuaUpdate = errors.New("script does not define update(entity, dt)")

// CompileLua parses src once. Each entity gets its own VM so globals never
// leak between entities; the VM is closed when the entity is removed.
// Scripts must define a global update(entity, dt).
func CompileLua(name string, src []byte) (ecs.ScriptCreator, error) {
	chunk, err := parse.Parse(bytes.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}

	// Catch a missing update at load time rather than on the first frame.
	probe, err := newLuaBehavior(name, proto, ecs.InvalidEntityId)
	if err != nil {
		return nil, err
	}
	probe.Close()

	return func(self ecs.EntityId) (ecs.Behavior, error) {
		return newLuaBehavior(name, proto, self)
	}, nil
}

type luaBehavior struct {
	name   string
	vm     *lua.LState
	update lua.LValue

	frame *ecs.UpdateFrame
	self  ecs.EntityId
}

func newLuaBehavior(name string, proto *lua.FunctionProto, self ecs.EntityId) (*luaBehavior, error) {
	vm := lua.NewState()
	b := &luaBehavior{name: name, vm: vm, self: self}

	vm.SetGlobal("position", vm.NewFunction(b.position))
	vm.SetGlobal("translate", vm.NewFunction(b.translate))
	vm.SetGlobal("set_position", vm.NewFunction(b.setPosition))
	vm.SetGlobal("remove", vm.NewFunction(b.remove))

	vm.Push(vm.NewFunctionFromProto(proto))
	if err := vm.PCall(0, lua.MultRet, nil); err != nil {
		vm.Close()
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}

	b.update = vm.GetGlobal("update")
	if b.update.Type() != lua.LTFunction {
		vm.Close()
		return nil, fmt.Errorf("lua %s: %w", name, errNoLuaUpdate)
	}
	return b, nil
}

func (b *luaBehavior) Update(frame *ecs.UpdateFrame, self ecs.EntityId) error {
	b.frame = frame
	defer func() { b.frame = nil }()

	err := b.vm.CallByParam(lua.P{
		Fn:      b.update,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(self), lua.LNumber(frame.DeltaTime))
	if err != nil {
		return fmt.Errorf("lua %s: %w", b.name, err)
	}
	return nil
}

func (b *luaBehavior) Close() {
	b.vm.Close()
}

func (b *luaBehavior) transform(L *lua.LState) *ecs.Transform {
	if b.frame == nil {
		L.RaiseError("host function called outside update")
		return nil
	}
	return b.frame.Directory.GetTransform(b.self)
}

func (b *luaBehavior) position(L *lua.LState) int {
	tr := b.transform(L)
	L.Push(lua.LNumber(tr.Position.X))
	L.Push(lua.LNumber(tr.Position.Y))
	L.Push(lua.LNumber(tr.Position.Z))
	return 3
}

func (b *luaBehavior) translate(L *lua.LState) int {
	dx, dy, dz := L.CheckNumber(1), L.CheckNumber(2), L.CheckNumber(3)
	tr := b.transform(L)
	tr.Position.X += float32(dx)
	tr.Position.Y += float32(dy)
	tr.Position.Z += float32(dz)
	return 0
}

func (b *luaBehavior) setPosition(L *lua.LState) int {
	x, y, z := L.CheckNumber(1), L.CheckNumber(2), L.CheckNumber(3)
	tr := b.transform(L)
	tr.Position = ecs.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
	return 0
}

func (b *luaBehavior) remove(L *lua.LState) int {
	if b.frame == nil {
		L.RaiseError("host function called outside update")
		return 0
	}
	b.frame.Commands.Remove(b.self)
	return 0
}
