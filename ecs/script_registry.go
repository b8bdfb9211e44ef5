package ecs

import (
	"fmt"
	"slices"
)

// Behavior is the per-entity hook driven by ScriptSystem each frame.
type Behavior interface {
	Update(frame *UpdateFrame, self EntityId) error
}

// BehaviorFunc adapts a plain function to Behavior.
type BehaviorFunc func(frame *UpdateFrame, self EntityId) error

func (f BehaviorFunc) Update(frame *UpdateFrame, self EntityId) error {
	return f(frame, self)
}

// closer is implemented by behaviors holding resources that must be freed
// when their entity is removed.
type closer interface {
	Close()
}

// ScriptCreator builds a behavior for a newly created entity.
type ScriptCreator func(self EntityId) (Behavior, error)

// ScriptRegistry maps script names to creators.
type ScriptRegistry struct {
	creators map[string]ScriptCreator
}

// NewScriptRegistry creates an empty registry.
func NewScriptRegistry() *ScriptRegistry {
	return &ScriptRegistry{
		creators: make(map[string]ScriptCreator),
	}
}

// Register adds a creator. Registering a name twice is an error.
func (r *ScriptRegistry) Register(name string, creator ScriptCreator) error {
	if name == "" || creator == nil {
		return fmt.Errorf("ecs: invalid script registration %q", name)
	}
	if _, ok := r.creators[name]; ok {
		return fmt.Errorf("ecs: script %q already registered", name)
	}
	r.creators[name] = creator
	return nil
}

// Replace installs creator under name whether or not one exists. Entities
// already created keep the behavior they were built with.
func (r *ScriptRegistry) Replace(name string, creator ScriptCreator) {
	r.creators[name] = creator
}

// Lookup returns the creator for name.
func (r *ScriptRegistry) Lookup(name string) (ScriptCreator, bool) {
	c, ok := r.creators[name]
	return c, ok
}

// Names returns the registered names in sorted order.
func (r *ScriptRegistry) Names() []string {
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
