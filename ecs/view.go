package ecs

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"unsafe"
)

// View joins several component tables. T must be a struct whose fields are
// pointers to component types; named fields may be tagged `ecs:"optional"`.
//
//	type Mover struct {
//		*Transform
//		*Velocity
//		Geometry *Geometry `ecs:"optional"`
//	}
//
// Views hold pointers into the tables, so results are only valid until the
// next structural change of the directory.
type View[T any] struct {
	directory   *Directory
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr

	// Resolved lazily since tables may be registered after the view.
	kinds    []int
	required uint64
	resolved bool
}

// NewView creates a view over dir. Panics if T is not a struct of pointer
// fields.
func NewView[T any](dir *Directory) *View[T] {
	v := &View[T]{}
	v.parse()
	v.Init(dir)
	return v
}

func (v *View[T]) parse() {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v.types = make([]reflect.Type, 0, structType.NumField())
	v.optional = make([]bool, 0, structType.NumField())
	v.fieldOffset = make([]uintptr, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		// Embedded fields are always required.
		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		v.types = append(v.types, field.Type.Elem())
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}
}

// Init binds the view to a directory. Called by the Scheduler during
// system registration.
func (v *View[T]) Init(dir *Directory) {
	if v.types == nil {
		v.parse()
	}
	v.directory = dir
	v.resolved = false
}

// Execute resolves component tables registered since the last frame.
func (v *View[T]) Execute() {
	if !v.resolved {
		v.resolve()
	}
}

// resolve maps each field to its table. A required type with no table
// leaves the view matching nothing until it is registered.
func (v *View[T]) resolve() {
	v.kinds = make([]int, len(v.types))
	v.required = 0
	complete := true
	for i, t := range v.types {
		kind, ok := v.directory.byType[t]
		if !ok {
			v.kinds[i] = -1
			if !v.optional[i] {
				complete = false
			}
			continue
		}
		v.kinds[i] = kind
		if !v.optional[i] {
			v.required |= 1 << kind
		}
	}
	v.resolved = complete
}

func (v *View[T]) ready() bool {
	if !v.resolved {
		v.resolve()
	}
	return v.resolved
}

// Fill points the fields of ptr at the components of a live entity.
// Returns false if the entity is missing a required component. Missing
// optional components are set to nil.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	meta := v.directory.mustGet("view", id)
	if !v.ready() || meta.mask&v.required != v.required {
		return false
	}
	return v.populate(unsafe.Pointer(ptr), id.Index())
}

func (v *View[T]) populate(structPtr unsafe.Pointer, index uint32) bool {
	for i, kind := range v.kinds {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])

		var component any
		if kind >= 0 {
			component = v.directory.tables[kind].getAny(index)
		}
		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		// getAny yields a *C, so the interface data word is the pointer.
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}
	return true
}

// Get returns a populated view struct for a live entity, or nil if it lacks
// a required component.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// Iter yields every live entity holding all required components, in index
// order.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		if !v.ready() {
			return
		}
		var result T
		resultPtr := unsafe.Pointer(&result)
		for id, meta := range v.directory.entities.All() {
			if meta.mask&v.required != v.required {
				continue
			}
			if !v.populate(resultPtr, id.Index()) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Values iterates the view structs without their ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// ErrViewScript is returned by Spawn for views carrying a *Script field;
// behaviors are created from a ScriptRef, never copied.
var ErrViewScript = errors.New("ecs: cannot spawn a view holding a script")

// Spawn creates an entity from the non-nil fields of data. Transform and
// Geometry fields fill the matching descriptor slots; everything else
// becomes a registered component.
func (v *View[T]) Spawn(name string, data T) (EntityId, error) {
	structPtr := unsafe.Pointer(&data)
	desc := Descriptor{Name: name}

	for i, t := range v.types {
		componentPtr := *(*unsafe.Pointer)(unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i]))
		if componentPtr == nil {
			if !v.optional[i] {
				return v.directory.Invalid(), fmt.Errorf("%w: required %s is nil", ErrInvalidComponent, t)
			}
			continue
		}

		component := reflect.NewAt(t, componentPtr).Interface()
		switch c := component.(type) {
		case *Transform:
			desc.Transform = c
		case *Geometry:
			desc.Geometry = c
		case *Script:
			return v.directory.Invalid(), ErrViewScript
		default:
			desc.Components = append(desc.Components, c)
		}
	}
	return v.directory.Create(desc)
}
