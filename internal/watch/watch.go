package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay groups bursts of writes to one file into a single conversion.
const DefaultDelay = 100 * time.Millisecond

// Handler is called with the path of a changed file.
type Handler func(ctx context.Context, path string)

type Watcher struct {
	watcher    *fsnotify.Watcher
	logger     *zap.Logger
	extensions []string
	handle     Handler
	delay      time.Duration
	ignored    []string

	mu      sync.Mutex
	pending map[string]*pendingRun
	wg      sync.WaitGroup
}

// New creates a watcher that calls handle for written files whose
// extension is in extensions.
func New(logger *zap.Logger, extensions []string, handle Handler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:    fw,
		logger:     logger,
		extensions: extensions,
		handle:     handle,
		delay:      DefaultDelay,
		pending:    make(map[string]*pendingRun),
	}, nil
}

// SetDelay changes the debounce window.
func (w *Watcher) SetDelay(d time.Duration) {
	w.delay = d
}

// Ignore excludes dirs and everything below them. Call it before Add.
func (w *Watcher) Ignore(dirs ...string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		w.ignored = append(w.ignored, filepath.Clean(dir))
	}
}

func (w *Watcher) isIgnored(path string) bool {
	if len(w.ignored) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.ignored {
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Add watches every directory below each of dirs, skipping ignored ones.
func (w *Watcher) Add(dirs ...string) error {
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if w.isIgnored(path) {
					w.logger.Debug("Skipping ignored directory", zap.String("dir", path))
					return filepath.SkipDir
				}
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	return nil
}

// Run processes events until ctx is done, then closes the watcher and
// waits for in-flight handlers.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.stopPending()
		w.wg.Wait()
	}()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("Watch events dropped", zap.Error(err))
				continue
			}
			w.logger.Error("Watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if w.isIgnored(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) {
		// pick up new subdirectories
		if err := w.watcher.Add(event.Name); err == nil {
			w.logger.Debug("Watching new directory", zap.String("dir", event.Name))
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.wanted(event.Name) {
		return
	}

	w.schedule(ctx, event.Name)
}

type pendingRun struct {
	timer *time.Timer
}

// schedule runs the handler once per file after the delay, restarting
// the delay on every new event.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.pending[path]; ok && prev.timer.Stop() {
		w.wg.Done()
	}

	run := &pendingRun{}
	w.wg.Add(1)
	run.timer = time.AfterFunc(w.delay, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == run {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, path)
	})
	w.pending[path] = run
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, run := range w.pending {
		if run.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) wanted(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
