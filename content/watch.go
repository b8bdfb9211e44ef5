package content

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before its change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changed scene, level and script files. Events are
// delivered on a channel so the caller can apply reloads on the goroutine
// that owns the directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	Events   chan string
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWatcher watches dirs (non-recursively).
func NewWatcher(debounce time.Duration, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher := &Watcher{
		watcher:  w,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes Events and Errors.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// A path is forwarded once no event for it has arrived for a full
	// debounce window, so a truncate-then-write burst yields the final file.
	type firing struct {
		name string
		seq  uint64
	}
	type debounce struct {
		timer *time.Timer
		seq   uint64
	}
	fired := make(chan firing)
	pending := make(map[string]*debounce)
	var next uint64
	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	arm := func(name string) *debounce {
		next++
		seq := next
		return &debounce{seq: seq, timer: time.AfterFunc(w.debounce, func() {
			select {
			case fired <- firing{name: name, seq: seq}:
			case <-w.closeCh:
			}
		})}
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !IsWatched(event.Name) {
				continue
			}
			// Each event restarts the window; a timer from an earlier event
			// that already fired is ignored through its stale seq.
			if p, ok := pending[event.Name]; ok {
				p.timer.Stop()
			}
			pending[event.Name] = arm(event.Name)
		case f := <-fired:
			if p, ok := pending[f.name]; !ok || p.seq != f.seq {
				continue
			}
			delete(pending, f.name)
			select {
			case w.Events <- f.name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// IsWatched reports whether path is a file the watcher forwards.
func IsWatched(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", LevelExt, ".tengo", ".lua":
		return true
	}
	return false
}

// IsContent reports whether path is a scene or level file.
func IsContent(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", LevelExt:
		return true
	}
	return false
}
