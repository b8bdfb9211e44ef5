package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plus3/slotcore/ecs"
	"go.uber.org/zap"
)

// LevelExt is the file extension of binary levels.
const LevelExt = ".lvl"

// Loader creates entities from descriptors and remembers which entities
// each file produced, so a file can be reloaded in place.
type Loader struct {
	dir    *ecs.Directory
	log    *zap.Logger
	byFile map[string][]ecs.EntityId
}

// NewLoader creates a loader that populates dir.
func NewLoader(dir *ecs.Directory, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		dir:    dir,
		log:    log,
		byFile: make(map[string][]ecs.EntityId),
	}
}

// Load creates every descriptor or none: if one creation fails, the
// entities already created by this call are removed and the error is
// returned.
func (l *Loader) Load(descs []ecs.Descriptor) ([]ecs.EntityId, error) {
	ids := make([]ecs.EntityId, 0, len(descs))
	for i, desc := range descs {
		id, err := l.dir.Create(desc)
		if err != nil {
			for _, created := range ids {
				l.dir.Remove(created)
			}
			return nil, fmt.Errorf("entity %d (%s): %w", i, desc.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Decode reads descriptors from a .lvl, .yaml or .yml file.
func Decode(path string) ([]ecs.Descriptor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case LevelExt:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeLevel(f)
	case ".yaml", ".yml":
		scene, err := LoadScene(path)
		if err != nil {
			return nil, err
		}
		return scene.Descriptors(), nil
	default:
		return nil, fmt.Errorf("content: unsupported file %s", path)
	}
}

// LoadFile decodes path and loads it all-or-nothing.
func (l *Loader) LoadFile(path string) ([]ecs.EntityId, error) {
	descs, err := Decode(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	ids, err := l.Load(descs)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	l.byFile[path] = append(l.byFile[path], ids...)
	l.log.Info("content loaded", zap.String("file", path), zap.Int("entities", len(ids)))
	return ids, nil
}

// Reload loads path again and, only if that succeeds, removes the
// entities the previous load of path created. Entities already removed
// by other means are skipped.
func (l *Loader) Reload(path string) ([]ecs.EntityId, error) {
	old := l.byFile[path]
	delete(l.byFile, path)

	ids, err := l.LoadFile(path)
	if err != nil {
		l.byFile[path] = old
		return nil, err
	}

	removed := 0
	for _, id := range old {
		if l.dir.IsAlive(id) {
			l.dir.Remove(id)
			removed++
		}
	}
	l.log.Info("content reloaded", zap.String("file", path), zap.Int("removed", removed))
	return ids, nil
}

// Loaded returns the live entities created from path.
func (l *Loader) Loaded(path string) []ecs.EntityId {
	var live []ecs.EntityId
	for _, id := range l.byFile[path] {
		if l.dir.IsAlive(id) {
			live = append(live, id)
		}
	}
	return live
}
