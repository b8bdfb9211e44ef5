package ecs

import (
	"fmt"
	"iter"
	"reflect"

	"go.uber.org/zap"
)

const maxComponentKinds = 64

// Built-in component kinds, in registration order.
const (
	transformKind = iota
	scriptKind
	geometryKind
)

type entityMeta struct {
	name string
	mask uint64
}

// Directory owns the entity slots and every component table. Creation and
// removal fan out to the tables; all mutation must happen on one goroutine.
type Directory struct {
	entities *SlotMap[entityMeta]
	tables   []iComponentTable
	byType   map[reflect.Type]int

	transforms *ComponentTable[Transform]
	scripts    *ComponentTable[Script]
	geometries *ComponentTable[Geometry]

	creators *ScriptRegistry
	log      *zap.Logger
}

type directoryOptions struct {
	log       *zap.Logger
	creators  *ScriptRegistry
	allocator []AllocatorOption
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*directoryOptions)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) DirectoryOption {
	return func(o *directoryOptions) {
		o.log = log
	}
}

// WithScriptRegistry sets the registry used to resolve script names.
func WithScriptRegistry(r *ScriptRegistry) DirectoryOption {
	return func(o *directoryOptions) {
		o.creators = r
	}
}

// WithAllocatorOptions configures the underlying slot allocator.
func WithAllocatorOptions(opts ...AllocatorOption) DirectoryOption {
	return func(o *directoryOptions) {
		o.allocator = append(o.allocator, opts...)
	}
}

// NewDirectory creates an empty directory with the transform, script and
// geometry tables registered.
func NewDirectory(opts ...DirectoryOption) *Directory {
	var o directoryOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.creators == nil {
		o.creators = NewScriptRegistry()
	}

	d := &Directory{
		entities: NewSlotMap[entityMeta](o.allocator...),
		byType:   make(map[reflect.Type]int),
		creators: o.creators,
		log:      o.log,
	}

	d.transforms = NewComponentTable[Transform]("transform", nil)
	d.scripts = NewComponentTable[Script]("script", func(_ uint32, s *Script) {
		if c, ok := s.Behavior.(closer); ok {
			c.Close()
		}
	})
	d.geometries = NewComponentTable[Geometry]("geometry", nil)

	d.register(d.transforms)
	d.register(d.scripts)
	d.register(d.geometries)
	return d
}

func (d *Directory) register(table iComponentTable) int {
	if len(d.tables) >= maxComponentKinds {
		panic("ecs: too many component kinds")
	}
	if _, ok := d.byType[table.Type()]; ok {
		panic("ecs: component type " + table.Type().String() + " already registered")
	}
	kind := len(d.tables)
	d.tables = append(d.tables, table)
	d.byType[table.Type()] = kind
	return kind
}

// RegisterComponent adds a table for component type T, or returns the
// existing one. Entities receive T through Descriptor.Components.
func RegisterComponent[T any](d *Directory) *ComponentTable[T] {
	if table, ok := LookupTable[T](d); ok {
		return table
	}
	table := NewComponentTable[T](reflect.TypeFor[T]().String(), nil)
	d.register(table)
	return table
}

// LookupTable returns the table for component type T, if registered.
func LookupTable[T any](d *Directory) (*ComponentTable[T], bool) {
	kind, ok := d.byType[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	table, ok := d.tables[kind].(*ComponentTable[T])
	return table, ok
}

// Create allocates an entity and materializes every component in desc. On
// failure nothing is left behind and the invalid id is returned with the error.
func (d *Directory) Create(desc Descriptor) (EntityId, error) {
	if desc.Transform == nil {
		d.log.Warn("entity creation failed", zap.String("name", desc.Name), zap.Error(ErrMissingTransform))
		return d.Invalid(), ErrMissingTransform
	}

	id := d.entities.Insert(entityMeta{name: desc.Name})
	mask, err := d.materialize(id, desc)
	if err != nil {
		d.dropComponents(id.Index(), mask)
		d.entities.Remove(id)
		d.log.Warn("entity creation failed", zap.String("name", desc.Name), zap.Error(err))
		return d.Invalid(), err
	}

	meta, _ := d.entities.Get(id)
	meta.mask = mask
	d.log.Debug("entity created", zap.Stringer("id", id), zap.String("name", desc.Name))
	return id, nil
}

func (d *Directory) materialize(id EntityId, desc Descriptor) (uint64, error) {
	index := id.Index()
	var mask uint64
	add := func(kind int, item any) error {
		if err := d.tables[kind].addAny(index, item); err != nil {
			return err
		}
		mask |= 1 << kind
		return nil
	}

	if err := add(transformKind, desc.Transform); err != nil {
		return mask, err
	}
	if desc.Geometry != nil {
		if err := add(geometryKind, desc.Geometry); err != nil {
			return mask, err
		}
	}
	for _, c := range desc.Components {
		kind, err := d.extraKindOf(c)
		if err != nil {
			return mask, err
		}
		if err := add(kind, c); err != nil {
			return mask, err
		}
	}

	// Scripts go last so a failing creator never leaves a behavior to close.
	if desc.Script != nil {
		creator, ok := d.creators.Lookup(desc.Script.Name)
		if !ok {
			return mask, fmt.Errorf("%w: %q", ErrUnknownScript, desc.Script.Name)
		}
		behavior, err := creator(id)
		if err != nil {
			return mask, fmt.Errorf("ecs: script %q: %w", desc.Script.Name, err)
		}
		if behavior == nil {
			return mask, fmt.Errorf("%w: script %q returned no behavior", ErrInvalidComponent, desc.Script.Name)
		}
		if err := add(scriptKind, Script{Name: desc.Script.Name, Behavior: behavior}); err != nil {
			return mask, err
		}
	}
	return mask, nil
}

func (d *Directory) kindOf(component any) (int, bool) {
	if component == nil {
		return 0, false
	}
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	kind, ok := d.byType[t]
	return kind, ok
}

// extraKindOf resolves a component passed outside the dedicated descriptor
// slots. Scripts are refused there: a behavior only comes from a registered
// creator.
func (d *Directory) extraKindOf(component any) (int, error) {
	kind, ok := d.kindOf(component)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnregisteredComponent, component)
	}
	if kind == scriptKind {
		return 0, fmt.Errorf("%w: scripts are attached through Descriptor.Script", ErrInvalidComponent)
	}
	return kind, nil
}

func (d *Directory) dropComponents(index uint32, mask uint64) {
	for kind, table := range d.tables {
		if mask&(1<<kind) != 0 {
			table.Remove(index)
		}
	}
}

// Remove drops every component of id and releases its slot. Removing an id
// that is not alive panics.
func (d *Directory) Remove(id EntityId) {
	meta, ok := d.entities.Get(id)
	if !ok {
		violation("remove", id, ErrEntityNotAlive)
	}
	// Tables are cleared before the slot is released so the index is never
	// reissued while stale data is resident.
	d.dropComponents(id.Index(), meta.mask)
	d.entities.Remove(id)
	d.log.Debug("entity removed", zap.Stringer("id", id))
}

// AddComponent attaches or overwrites a component on a live entity.
func (d *Directory) AddComponent(id EntityId, component any) error {
	meta := d.mustGet("add component", id)
	kind, err := d.extraKindOf(component)
	if err != nil {
		return err
	}
	if err := d.tables[kind].addAny(id.Index(), component); err != nil {
		return err
	}
	meta.mask |= 1 << kind
	return nil
}

// RemoveComponent detaches the component of type compType. The transform
// cannot be removed. Returns false if the entity had no such component.
func (d *Directory) RemoveComponent(id EntityId, compType reflect.Type) bool {
	meta := d.mustGet("remove component", id)
	kind, ok := d.byType[compType]
	if !ok || kind == transformKind || meta.mask&(1<<kind) == 0 {
		return false
	}
	d.tables[kind].Remove(id.Index())
	meta.mask &^= 1 << kind
	return true
}

// HasComponent reports whether a live entity has a component of compType.
func (d *Directory) HasComponent(id EntityId, compType reflect.Type) bool {
	meta := d.mustGet("has component", id)
	kind, ok := d.byType[compType]
	return ok && meta.mask&(1<<kind) != 0
}

// IsAlive reports whether id refers to a live entity.
func (d *Directory) IsAlive(id EntityId) bool {
	return d.entities.Contains(id)
}

func (d *Directory) mustGet(op string, id EntityId) *entityMeta {
	meta, ok := d.entities.Get(id)
	if !ok {
		violation(op, id, ErrEntityNotAlive)
	}
	return meta
}

// GetTransform returns the transform of a live entity.
func (d *Directory) GetTransform(id EntityId) *Transform {
	d.mustGet("transform", id)
	return d.transforms.Get(id.Index())
}

// GetScript returns the script of a live entity, if it has one.
func (d *Directory) GetScript(id EntityId) (*Script, bool) {
	d.mustGet("script", id)
	return d.scripts.TryGet(id.Index())
}

// GetGeometry returns the geometry of a live entity, if it has one.
func (d *Directory) GetGeometry(id EntityId) (*Geometry, bool) {
	d.mustGet("geometry", id)
	return d.geometries.TryGet(id.Index())
}

// GetComponent returns the component of compType for a live entity, or nil.
func (d *Directory) GetComponent(id EntityId, compType reflect.Type) any {
	d.mustGet("component", id)
	kind, ok := d.byType[compType]
	if !ok {
		return nil
	}
	return d.tables[kind].getAny(id.Index())
}

// ReadComponent returns the T component of a live entity, if present.
func ReadComponent[T any](d *Directory, id EntityId) (*T, bool) {
	d.mustGet("component", id)
	table, ok := LookupTable[T](d)
	if !ok {
		return nil, false
	}
	return table.TryGet(id.Index())
}

// Name returns the name the entity was created with.
func (d *Directory) Name(id EntityId) string {
	return d.mustGet("name", id).name
}

// Len returns the number of live entities.
func (d *Directory) Len() int {
	return d.entities.Len()
}

// All iterates live entities in index order.
func (d *Directory) All() iter.Seq[EntityId] {
	return d.entities.Allocator().All()
}

// Invalid returns the id that denotes "no entity" for this directory.
func (d *Directory) Invalid() EntityId {
	return d.entities.Allocator().Sentinel().Id()
}

// Allocator exposes the slot allocator for inspection.
func (d *Directory) Allocator() *SlotAllocator {
	return d.entities.Allocator()
}

// Scripts returns the registry used to resolve script names.
func (d *Directory) Scripts() *ScriptRegistry {
	return d.creators
}

// Logger returns the directory's logger.
func (d *Directory) Logger() *zap.Logger {
	return d.log
}

// ScriptTable returns the script table for systems that iterate it.
func (d *Directory) ScriptTable() *ComponentTable[Script] {
	return d.scripts
}

// TransformTable returns the transform table.
func (d *Directory) TransformTable() *ComponentTable[Transform] {
	return d.transforms
}

// GeometryTable returns the geometry table.
func (d *Directory) GeometryTable() *ComponentTable[Geometry] {
	return d.geometries
}
