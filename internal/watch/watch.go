// Package watch re-runs a build when files below a set of directories
// change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagepipe/internal/logfields"
)

// DefaultDebounce is how long the tree must stay quiet before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one rebuild. Its error is logged, not returned.
type RebuildFunc func(ctx context.Context) error

type options struct {
	debounce time.Duration
	logger   *slog.Logger
	ignored  []string
}

// Option configures Run.
type Option func(*options)

// WithDebounce replaces DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithLogger sets the logger for change and rebuild messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIgnored excludes paths and everything below them, such as the build
// output directory.
func WithIgnored(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				o.ignored = append(o.ignored, abs)
			}
		}
	}
}

// Run watches every directory below roots and calls rebuild after changes
// settle. Rebuilds never overlap: changes during a rebuild schedule exactly
// one more. Run returns nil when ctx is cancelled.
func Run(ctx context.Context, roots []string, rebuild RebuildFunc, opts ...Option) error {
	o := options{debounce: DefaultDebounce, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = w.Close() }()

	for _, root := range roots {
		if err := o.addRecursive(w, root); err != nil {
			return err
		}
	}

	o.logger.Info("Watching for changes", slog.Any("roots", roots))
	return o.loop(ctx, w, rebuild)
}

// loop feeds watcher events to the debouncer until ctx is cancelled or the
// watcher's channels close. The scheduler stops with it either way.
func (o *options) loop(ctx context.Context, w *fsnotify.Watcher, rebuild RebuildFunc) error {
	workCtx, cancel := context.WithCancel(ctx)
	s := newScheduler(rebuild, o.logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.work(workCtx)
	}()
	defer wg.Wait()
	defer cancel()

	var mu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(o.debounce, s.request)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if o.ignore(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = o.addRecursive(w, ev.Name)
				}
			}
			o.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (o *options) addRecursive(w *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && o.ignore(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			o.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return nil
}

func (o *options) ignore(path string) bool {
	if isNoise(filepath.Base(path)) {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, ig := range o.ignored {
		if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isNoise reports hidden files and editor swap, backup and lock files.
func isNoise(base string) bool {
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"),
		base == "4913",
		base == "Thumbs.db":
		return true
	}
	return false
}
