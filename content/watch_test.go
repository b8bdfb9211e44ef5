package content_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/slotcore/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherForwardsContentChanges(t *testing.T) {
	tmp := t.TempDir()
	w, err := content.NewWatcher(10*time.Millisecond, tmp)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(tmp, "ignored.txt"), []byte("x"), 0o644))
	scene := filepath.Join(tmp, "scene.yaml")
	require.NoError(t, os.WriteFile(scene, []byte("entities: []"), 0o644))

	select {
	case got := <-w.Events:
		assert.Equal(t, scene, got)
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for scene.yaml")
	}
}

func TestWatcherReportsTheSettledFile(t *testing.T) {
	tmp := t.TempDir()
	w, err := content.NewWatcher(100*time.Millisecond, tmp)
	require.NoError(t, err)
	defer w.Close()

	scene := filepath.Join(tmp, "scene.yaml")
	final := []byte("entities:\n  - name: player\n")

	// Editors often truncate first and write the new body a moment later.
	require.NoError(t, os.WriteFile(scene, nil, 0o644))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, os.WriteFile(scene, final, 0o644))

	select {
	case got := <-w.Events:
		assert.Equal(t, scene, got)
		data, err := os.ReadFile(got)
		require.NoError(t, err)
		assert.Equal(t, final, data)
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for scene.yaml")
	}

	select {
	case got := <-w.Events:
		t.Fatalf("burst reported twice: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := content.NewWatcher(0, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, ok := <-w.Events
	assert.False(t, ok)
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := content.NewWatcher(0, filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestIsWatched(t *testing.T) {
	for _, p := range []string{"a.yaml", "b.YML", "c.lvl", "d.tengo", "e.lua"} {
		assert.True(t, content.IsWatched(p), p)
	}
	assert.False(t, content.IsWatched("f.go"))
	assert.True(t, content.IsContent("a.yaml"))
	assert.False(t, content.IsContent("d.tengo"))
}
