package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// DefaultDebounce collapses editor save bursts into one run.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a run whenever the recipe file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	serial   *Serial
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	pending chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for the recipe at path. A zero debounce uses
// DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, serial *Serial) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipe path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     absPath,
		debounce: debounce,
		serial:   serial,
		watcher:  w,
		stopCh:   make(chan struct{}),
		pending:  make(chan struct{}, 1),
	}, nil
}

// Path returns the watched recipe file.
func (w *Watcher) Path() string { return w.path }

// Start watches the directory containing the recipe. Watching the directory
// rather than the file survives editors that replace the file on save.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch recipe directory %s: %w", dir, err)
	}
	w.started = true
	slog.Info("Watching recipe", logfields.Path(w.path), slog.Duration("debounce", w.debounce))

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.runLoop(ctx)
	return nil
}

// Stop closes the watcher and waits for an in-flight run to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stopCh:
		return nil
	default:
	}
	close(w.stopCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	name := filepath.Base(w.path)
	var timer *time.Timer
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Recipe change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				stopTimer()
				timer = time.AfterFunc(w.debounce, w.schedule)
			case event.Has(fsnotify.Remove):
				slog.Warn("Recipe file removed", logfields.Path(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Recipe watcher error", logfields.Error(err))
		}
	}
}

// schedule marks a run as pending; a run already pending absorbs it.
func (w *Watcher) schedule() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *Watcher) runLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-w.pending:
			_ = w.serial.Run(ctx, TriggerWatch)
		}
	}
}
