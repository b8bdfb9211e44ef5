// Command scene-runner loads a scene and its scripts into a directory and
// ticks the scripts, optionally reloading files as they change on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/plus3/slotcore/config"
	"github.com/plus3/slotcore/content"
	"github.com/plus3/slotcore/ecs"
	"github.com/plus3/slotcore/script"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file.")
	scene := flag.String("scene", "", "Scene (.yaml) or level (.lvl) to load; overrides the config.")
	frames := flag.Int("frames", -1, "Stop after this many frames; overrides the config. 0 runs until interrupted.")
	watch := flag.Bool("watch", false, "Reload scripts and content when they change on disk.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *scene != "" {
		cfg.Content.Scene = *scene
	}
	if *frames >= 0 {
		cfg.Runner.Frames = *frames
	}
	if *watch {
		cfg.Content.Watch = true
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("scene-runner failed", zap.Error(err))
	}
}

type runner struct {
	cfg       *config.Config
	log       *zap.Logger
	dir       *ecs.Directory
	scheduler *ecs.Scheduler
	scripts   *script.Loader
	content   *content.Loader
	behaviors *ecs.ScriptSystem
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	registry := ecs.NewScriptRegistry()
	dir := ecs.NewDirectory(
		ecs.WithLogger(log.Named("directory")),
		ecs.WithScriptRegistry(registry),
		ecs.WithAllocatorOptions(cfg.AllocatorOptions()...),
	)

	r := &runner{
		cfg:       cfg,
		log:       log,
		dir:       dir,
		scheduler: ecs.NewScheduler(dir),
		scripts:   script.NewLoader(registry, log.Named("script")),
		content:   content.NewLoader(dir, log.Named("content")),
		behaviors: &ecs.ScriptSystem{},
	}
	r.scheduler.Register(r.behaviors)

	n, err := r.scripts.LoadDir(cfg.Content.ScriptsDir)
	if err != nil {
		return err
	}
	log.Info("scripts loaded", zap.String("dir", cfg.Content.ScriptsDir), zap.Int("count", n))

	if cfg.Content.Scene != "" {
		cfg.Content.Scene = filepath.Clean(cfg.Content.Scene)
		if _, err := r.content.LoadFile(cfg.Content.Scene); err != nil {
			return err
		}
	}

	var watcher *content.Watcher
	if cfg.Content.Watch {
		dirs := []string{cfg.Content.ScriptsDir}
		if cfg.Content.Scene != "" {
			dirs = append(dirs, filepath.Dir(cfg.Content.Scene))
		}
		watcher, err = content.NewWatcher(cfg.Content.Debounce, dirs...)
		if err != nil {
			return err
		}
		defer watcher.Close()
		log.Info("watching for changes", zap.Strings("dirs", dirs))
	}

	return r.loop(ctx, watcher)
}

// loop ticks the scheduler and applies reloads on the same goroutine so
// the directory is never touched concurrently.
func (r *runner) loop(ctx context.Context, watcher *content.Watcher) error {
	ticker := time.NewTicker(r.cfg.Runner.TickRate)
	defer ticker.Stop()

	var statsC <-chan time.Time
	if r.cfg.Runner.StatsPeriod > 0 {
		statsTicker := time.NewTicker(r.cfg.Runner.StatsPeriod)
		defer statsTicker.Stop()
		statsC = statsTicker.C
	}

	var events <-chan string
	var errs <-chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	last := time.Now()
	frame := 0
	for {
		select {
		case <-ctx.Done():
			r.logStats()
			r.log.Info("interrupted", zap.Int("frames", frame))
			return nil

		case now := <-ticker.C:
			r.scheduler.Once(now.Sub(last).Seconds())
			last = now
			frame++
			if r.cfg.Runner.Frames > 0 && frame >= r.cfg.Runner.Frames {
				r.logStats()
				r.log.Info("frame limit reached", zap.Int("frames", frame))
				return nil
			}

		case <-statsC:
			r.logStats()

		case path, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.reload(path)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (r *runner) reload(path string) {
	switch {
	case script.IsScript(path):
		if err := r.scripts.LoadFile(path); err != nil {
			r.log.Error("script reload failed", zap.String("file", path), zap.Error(err))
		}
	case content.IsContent(path):
		if filepath.Clean(path) != r.cfg.Content.Scene {
			r.log.Debug("ignoring change to unloaded content", zap.String("file", path))
			return
		}
		if _, err := r.content.Reload(r.cfg.Content.Scene); err != nil {
			r.log.Error("content reload failed", zap.String("file", path), zap.Error(err))
		}
	}
}

func (r *runner) logStats() {
	stats := r.dir.CollectStats()
	fields := []zap.Field{
		zap.Int("live", stats.LiveEntities),
		zap.Int("free", stats.FreeSlots),
		zap.Int("retired", stats.RetiredSlots),
		zap.Int("capacity", stats.Capacity),
	}
	for _, table := range stats.Tables {
		fields = append(fields, zap.Int("table."+table.Name, table.Count))
	}
	sched := r.scheduler.GetStats()
	fields = append(fields,
		zap.Int64("executions", sched.TotalExecutions),
		zap.Int64("flush_errors", sched.FlushErrors),
		zap.Int("script_failures", r.behaviors.Failed),
	)
	r.log.Info("directory stats", fields...)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
