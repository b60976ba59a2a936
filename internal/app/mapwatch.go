package app

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MapWatcher polls map source files and reports views whose file changed
// since it was last seen.
type MapWatcher struct {
	mu            sync.Mutex
	paths         map[string]string    // view name -> source path
	baseline      map[string]time.Time // view name -> last seen mod time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func(view string) // Called from the watcher goroutine
}

// NewMapWatcher creates a watcher for the given view sources. Files that
// cannot be stat'ed yet are picked up once they appear.
func NewMapWatcher(sources map[string]string, checkInterval time.Duration) *MapWatcher {
	w := &MapWatcher{
		paths:         make(map[string]string, len(sources)),
		baseline:      make(map[string]time.Time, len(sources)),
		checkInterval: checkInterval,
	}
	for name, path := range sources {
		// Resolve symlinks so edits through a link are seen on the target.
		if real, err := filepath.EvalSymlinks(path); err == nil {
			path = real
		}
		w.paths[name] = path
		w.baseline[name] = modTime(path)
	}
	return w
}

// OnChange sets the callback invoked for each changed view. It runs on the
// watcher goroutine; UI code must hop to its own thread.
func (w *MapWatcher) OnChange(callback func(view string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins polling in a background goroutine. A non-positive interval
// disables watching and Start reports false.
func (w *MapWatcher) Start() bool {
	if w.checkInterval <= 0 {
		return false
	}
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
	return true
}

// Stop ends polling.
func (w *MapWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *MapWatcher) watchLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			changed := w.Check()
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()
			if cb == nil {
				continue
			}
			for _, name := range changed {
				cb(name)
			}
		}
	}
}

// Check returns the views whose source changed since the last check, in
// name order, and advances their baseline.
func (w *MapWatcher) Check() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for name, path := range w.paths {
		mt := modTime(path)
		if !mt.IsZero() && mt.After(w.baseline[name]) {
			w.baseline[name] = mt
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// ResetBaseline marks a view's current file as seen.
func (w *MapWatcher) ResetBaseline(view string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path, ok := w.paths[view]; ok {
		w.baseline[view] = modTime(path)
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
