package files

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a reload.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called once per burst of input file changes.
type ReloadFunc func(ctx context.Context) error

// WatcherStats summarizes what the watcher has seen.
type WatcherStats struct {
	Events        int       `json:"events"`
	Reloads       int       `json:"reloads"`
	Errors        int       `json:"errors"`
	LastEventPath string    `json:"last_event_path,omitempty"`
	LastEventTime time.Time `json:"last_event_time,omitempty"`
}

// Watcher triggers a reload when input files in a directory change.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange ReloadFunc
	logger   *slog.Logger

	mu    sync.Mutex
	stats WatcherStats
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration, onChange ReloadFunc, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With(slog.String("component", "input_watcher")),
	}
}

// Run watches until ctx is cancelled. It returns an error only when the
// directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.InfoContext(ctx, "Watching input directory",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Input watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.record(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.ErrorContext(ctx, "Watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

// record counts a relevant event and reports whether it should schedule a
// reload. Chmod-only events and non-input files are ignored.
func (w *Watcher) record(event fsnotify.Event) bool {
	if !IsInputFile(event.Name) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()

	w.logger.Debug("Input file changed",
		slog.String("path", event.Name),
		slog.String("op", event.Op.String()))
	return true
}

func (w *Watcher) reload(ctx context.Context) {
	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()

	if w.onChange == nil {
		return
	}
	if err := w.onChange(ctx); err != nil {
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		w.logger.ErrorContext(ctx, "Reload after input change failed", slog.String("error", err.Error()))
	}
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
