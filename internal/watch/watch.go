// Package watch rebuilds functions when their Go sources change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/qrioso-software/slsgo/internal/config"
	"github.com/qrioso-software/slsgo/internal/fsutil"
	"github.com/qrioso-software/slsgo/internal/paths"
	"github.com/qrioso-software/slsgo/internal/runtimes"
)

// Patterns are the file names whose changes trigger a rebuild.
var Patterns = []string{"*.go", "go.mod", "go.sum"}

const DefaultDebounce = 800 * time.Millisecond

// RebuildFunc compiles one function from a fresh read of the service.
type RebuildFunc func(ctx context.Context, name string) error

type Watcher struct {
	Debounce time.Duration
	Logger   *zap.Logger

	rebuild RebuildFunc
	// source dir (absolute) -> function name
	dirs map[string]string
}

// New maps every build candidate of svc to the directory holding its
// sources.
func New(svc *config.Service, cfg config.BuildConfig, rebuild RebuildFunc, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Watcher{
		Debounce: DefaultDebounce,
		Logger:   log,
		rebuild:  rebuild,
		dirs:     map[string]string{},
	}

	for _, name := range svc.FunctionNames() {
		fn := svc.Functions[name]
		if !runtimes.Classify(svc.EffectiveRuntime(fn), cfg).Candidate {
			continue
		}
		task, err := paths.Resolve(svc.RootPath, cfg, name, fn.Handler)
		if err != nil {
			return nil, err
		}
		src := filepath.Join(task.WorkDir, task.Source)
		if strings.HasSuffix(src, paths.SourceSuffix) {
			src = filepath.Dir(src)
		}
		abs, err := paths.Abs(svc.RootPath, src)
		if err != nil {
			return nil, err
		}
		w.dirs[abs] = name
	}
	return w, nil
}

// Dirs returns the watched source roots, sorted.
func (w *Watcher) Dirs() []string {
	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// FunctionForPath finds the function whose source root is the longest
// prefix of file, or "" when none is.
func (w *Watcher) FunctionForPath(file string) string {
	best, name := "", ""
	for dir, fn := range w.dirs {
		if file != dir && !strings.HasPrefix(file, dir+string(filepath.Separator)) {
			continue
		}
		if len(dir) > len(best) {
			best, name = dir, fn
		}
	}
	return name
}

// Relevant reports whether a change to file should trigger a rebuild.
func Relevant(file string) bool {
	base := filepath.Base(file)
	for _, p := range Patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Run watches until ctx is done. Changes are batched per debounce window
// and each affected function is rebuilt once per batch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, root := range w.Dirs() {
		dirs, err := fsutil.GoSourceDirs(root)
		if err != nil {
			w.Logger.Warn("Could not scan", zap.String("dir", root), zap.Error(err))
			continue
		}
		for _, d := range dirs {
			if err := fw.Add(d); err != nil {
				return fmt.Errorf("watching %s: %w", d, err)
			}
		}
		w.Logger.Info("Watching", zap.String("function", w.dirs[root]), zap.String("dir", root))
	}

	return w.loop(ctx, fw.Events, fw.Errors)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	changed := map[string]bool{}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !Relevant(event.Name) {
				continue
			}
			if name := w.FunctionForPath(event.Name); name != "" {
				changed[name] = true
				debounceTimer.Reset(w.Debounce)
			}

		case <-debounceTimer.C:
			w.rebuildAll(ctx, changed)
			changed = map[string]bool{}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.Logger.Warn("Watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) rebuildAll(ctx context.Context, changed map[string]bool) {
	names := make([]string, 0, len(changed))
	for n := range changed {
		names = append(names, n)
	}
	sort.Strings(names)

	w.Logger.Info("Changes detected", zap.Strings("functions", names))
	for _, name := range names {
		if err := w.rebuild(ctx, name); err != nil {
			w.Logger.Error("Rebuild failed", zap.String("function", name), zap.Error(err))
			continue
		}
		w.Logger.Info("Recompiled", zap.String("function", name))
	}
}
