// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches the alias overlay directory, ignores everything that is not a
// YAML alias file, and debounces rapid events: onChange fires once a file has
// been quiet for the debounce window, so it always sees the last write.
package fsnotify

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period per file before onChange fires.
const DefaultDebounce = 50 * time.Millisecond

// Editor temp and swap files that never hold aliases.
var ignoreSuffixes = []string{".swp", ".swx", "~", ".tmp"}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	done     chan struct{}
	stopped  bool
	mu       sync.Mutex
	pending  map[string]*time.Timer // guarded by mu
	fireMu   sync.Mutex             // serializes onChange calls
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a new file system watcher. A nil logger falls back to
// slog.Default().
func NewWatcher(logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fw:       fw,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
		logger:   logger,
		debounce: DefaultDebounce,
	}, nil
}

// Watch starts monitoring dir (not recursive: overlay files live directly in it).
// onChange is called with the absolute path of each changed alias file.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.fw.Add(absPath); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name
				if !isAliasFile(path) {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}

				w.schedule(path, onChange)

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers on its own; log and keep going.
				w.logger.Warn("alias watcher error", "err", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	close(w.done)
	return w.fw.Close()
}

// schedule (re)arms the quiet-period timer for path. Each event in a burst
// pushes the deadline back; onChange runs once, after the last one.
func (w *Watcher) schedule(path string, onChange func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.stopped || w.pending[path] != t {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()

		w.fireMu.Lock()
		defer w.fireMu.Unlock()
		onChange(path)
	})
	w.pending[path] = t
}

// isAliasFile reports whether path is a YAML alias file worth reloading for.
func isAliasFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, suf := range ignoreSuffixes {
		if strings.HasSuffix(base, suf) {
			return false
		}
	}
	return strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")
}
