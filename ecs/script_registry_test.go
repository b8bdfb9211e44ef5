package ecs_test

import (
	"testing"

	"github.com/plus3/slotcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopCreator(ecs.EntityId) (ecs.Behavior, error) {
	return ecs.BehaviorFunc(func(*ecs.UpdateFrame, ecs.EntityId) error { return nil }), nil
}

func TestScriptRegistry(t *testing.T) {
	r := ecs.NewScriptRegistry()

	require.NoError(t, r.Register("spin", noopCreator))
	require.NoError(t, r.Register("bob", noopCreator))

	assert.Error(t, r.Register("spin", noopCreator), "duplicate names are rejected")
	assert.Error(t, r.Register("", noopCreator))
	assert.Error(t, r.Register("nil", nil))

	_, ok := r.Lookup("spin")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"bob", "spin"}, r.Names())
}

func TestScriptRegistryReplaceKeepsExistingBehaviors(t *testing.T) {
	first := &countingBehavior{}
	second := &countingBehavior{}

	r := ecs.NewScriptRegistry()
	r.Replace("patrol", func(ecs.EntityId) (ecs.Behavior, error) { return first, nil })

	dir := newTestDirectory(ecs.WithScriptRegistry(r))
	a, err := dir.Create(ecs.Descriptor{Transform: transformAt(0, 0, 0), Script: &ecs.ScriptRef{Name: "patrol"}})
	require.NoError(t, err)

	r.Replace("patrol", func(ecs.EntityId) (ecs.Behavior, error) { return second, nil })
	b, err := dir.Create(ecs.Descriptor{Transform: transformAt(0, 0, 0), Script: &ecs.ScriptRef{Name: "patrol"}})
	require.NoError(t, err)

	sa, _ := dir.GetScript(a)
	sb, _ := dir.GetScript(b)
	assert.Same(t, first, sa.Behavior)
	assert.Same(t, second, sb.Behavior)
}
