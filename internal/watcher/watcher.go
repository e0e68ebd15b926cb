// Package watcher accumulates filesystem change events for open documents.
// fsnotify delivers events on its own goroutine; the watcher only records
// them, and the polling loop drains the set cooperatively.
package watcher

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mdavisprog/lstalk/internal/logging"
)

// Watcher tracks a set of files and remembers which ones changed since the
// last Drain.
type Watcher struct {
	fs *fsnotify.Watcher

	mu      sync.Mutex
	changed map[string]struct{}
	done    chan struct{}
}

// New starts a watcher.
func New() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fs,
		changed: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				w.changed[ev.Name] = struct{}{}
				w.mu.Unlock()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// Add watches one file.
func (w *Watcher) Add(path string) error {
	return w.fs.Add(path)
}

// Remove stops watching one file and drops any recorded change for it.
func (w *Watcher) Remove(path string) {
	w.fs.Remove(path)
	w.mu.Lock()
	delete(w.changed, path)
	w.mu.Unlock()
}

// Drain returns the paths changed since the previous call and clears the
// set.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.changed) == 0 {
		return nil
	}
	paths := make([]string, 0, len(w.changed))
	for p := range w.changed {
		paths = append(paths, p)
	}
	w.changed = make(map[string]struct{})
	return paths
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
