package ecs

import (
	"errors"
	"reflect"

	"go.uber.org/zap"
)

// Commands buffers structural changes made while systems run and applies
// them at the end of the frame, so no table is resized mid-iteration.
type Commands struct {
	creates []Descriptor
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []deferCommand
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Create queues an entity creation.
func (c *Commands) Create(desc Descriptor) {
	c.creates = append(c.creates, desc)
}

// Remove queues an entity removal.
func (c *Commands) Remove(id EntityId) {
	c.deletes = append(c.deletes, id)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(id EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{entity: id, component: component})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(id EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{entity: id, compType: compType})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies removals, component removals, component additions,
// creations and deferred functions in that order, then resets the buffer.
// Operations on ids that are not alive at flush time are skipped, so a
// removal queued by two systems only happens once. Failed creations and
// additions are joined into the returned error; the rest of the buffer is
// still applied.
func (c *Commands) Flush(dir *Directory) error {
	for _, id := range c.deletes {
		if !dir.IsAlive(id) {
			dir.Logger().Debug("skipping removal of dead entity", zap.Stringer("id", id))
			continue
		}
		dir.Remove(id)
	}

	for _, cmd := range c.removes {
		if dir.IsAlive(cmd.entity) {
			dir.RemoveComponent(cmd.entity, cmd.compType)
		}
	}

	var errs []error
	for _, cmd := range c.adds {
		if !dir.IsAlive(cmd.entity) {
			continue
		}
		if err := dir.AddComponent(cmd.entity, cmd.component); err != nil {
			errs = append(errs, err)
		}
	}

	for _, desc := range c.creates {
		if _, err := dir.Create(desc); err != nil {
			errs = append(errs, err)
		}
	}

	for _, df := range c.defers {
		df.fn()
	}

	clear(c.creates)
	clear(c.adds)
	c.creates = c.creates[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
	return errors.Join(errs...)
}
