package ecs

import "reflect"

// iComponentTable is the type-erased view of a ComponentTable used by the
// directory to fan out creation and removal.
type iComponentTable interface {
	Name() string
	Type() reflect.Type
	Remove(index uint32) bool
	Has(index uint32) bool
	Len() int
	addAny(index uint32, item any) error
	getAny(index uint32) any
}
