package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plus3/slotcore/ecs"
	"github.com/plus3/slotcore/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mover.tengo", tengoMover)
	writeFile(t, dir, "spinner.lua", luaMover)
	writeFile(t, dir, "README.md", "not a script")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.lua"), 0o755))

	registry := ecs.NewScriptRegistry()
	n, err := script.NewLoader(registry, nil).LoadDir(dir)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"mover", "spinner"}, registry.Names())
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	registry := ecs.NewScriptRegistry()
	n, err := script.NewLoader(registry, nil).LoadDir(filepath.Join(t.TempDir(), "absent"))

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadDirRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mover.tengo", tengoMover)
	writeFile(t, dir, "mover.lua", luaMover)

	_, err := script.NewLoader(ecs.NewScriptRegistry(), nil).LoadDir(dir)
	assert.ErrorContains(t, err, "already registered")
}

func TestLoadDirReportsCompileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.lua", "function update(")

	_, err := script.NewLoader(ecs.NewScriptRegistry(), nil).LoadDir(dir)
	assert.ErrorContains(t, err, "bad.lua")
}

func TestLoadFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "step.tengo", `translate(1, 0, 0)`)

	registry := ecs.NewScriptRegistry()
	loader := script.NewLoader(registry, nil)
	_, err := loader.LoadDir(dir)
	require.NoError(t, err)

	w := newWorldWithRegistry(registry)
	first := w.spawn(t, "step")

	writeFile(t, dir, "step.tengo", `translate(10, 0, 0)`)
	require.NoError(t, loader.LoadFile(path))
	second := w.spawn(t, "step")

	w.scheduler.Once(1.0)
	assert.Equal(t, float32(1), w.dir.GetTransform(first).Position.X, "existing entities keep the old program")
	assert.Equal(t, float32(10), w.dir.GetTransform(second).Position.X)

	writeFile(t, dir, "step.tengo", `translate(`)
	assert.Error(t, loader.LoadFile(path))
	third := w.spawn(t, "step")
	w.scheduler.Once(1.0)
	assert.Equal(t, float32(10), w.dir.GetTransform(third).Position.X, "a failed reload keeps the last good version")
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "patrol", script.NameOf("/a/b/patrol.lua"))
	assert.Equal(t, "x.y", script.NameOf("x.y.tengo"))
	assert.True(t, script.IsScript("a.tengo"))
	assert.False(t, script.IsScript("a.yaml"))
}
