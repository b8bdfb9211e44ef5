// Package script compiles tengo and Lua sources into ecs script creators.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plus3/slotcore/ecs"
	"go.uber.org/zap"
)

// Compile picks a backend from the file extension.
func Compile(name, ext string, src []byte) (ecs.ScriptCreator, error) {
	switch ext {
	case ".tengo":
		return CompileTengo(name, src)
	case ".lua":
		return CompileLua(name, src)
	default:
		return nil, fmt.Errorf("script %s: unsupported extension %q", name, ext)
	}
}

// IsScript reports whether path has a script extension.
func IsScript(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".tengo" || ext == ".lua"
}

// NameOf returns the registry name for a script file: its base name
// without extension.
func NameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Loader registers script files into an ecs.ScriptRegistry.
type Loader struct {
	registry *ecs.ScriptRegistry
	log      *zap.Logger
}

// NewLoader creates a loader writing into registry.
func NewLoader(registry *ecs.ScriptRegistry, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{registry: registry, log: log}
}

// LoadDir compiles and registers every script in dir. A missing directory
// loads nothing. Two files with the same base name are an error.
func (l *Loader) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsScript(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		creator, err := l.compileFile(path)
		if err != nil {
			return loaded, err
		}
		if err := l.registry.Register(NameOf(path), creator); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		l.log.Debug("loaded script", zap.String("file", path), zap.String("name", NameOf(path)))
		loaded++
	}
	return loaded, nil
}

// LoadFile compiles path and installs it under its base name, replacing
// any previous version. Entities created earlier keep their behavior.
func (l *Loader) LoadFile(path string) error {
	creator, err := l.compileFile(path)
	if err != nil {
		return err
	}
	l.registry.Replace(NameOf(path), creator)
	l.log.Info("reloaded script", zap.String("file", path), zap.String("name", NameOf(path)))
	return nil
}

func (l *Loader) compileFile(path string) (ecs.ScriptCreator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	creator, err := Compile(NameOf(path), filepath.Ext(path), src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return creator, nil
}
