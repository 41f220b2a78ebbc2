// Package watcher reports changes to the rule-code files being edited, so
// a running mailbot can be updated without restarting it.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mailbot-io/mailbot/internal/logging"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 150 * time.Millisecond

// Event is a debounced change to a watched file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher watches individual files. Directories are watched under the
// hood because editors replace files on save.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	logger     *logging.Logger
	delay      time.Duration

	mu    sync.RWMutex
	files map[string]bool // absolute path -> watched
	dirs  map[string]int  // dir -> watched file count

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher. A zero delay uses DefaultDebounce.
func New(logger *logging.Logger, delay time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("watcher"),
		delay:      delay,
		files:      make(map[string]bool),
		dirs:       make(map[string]int),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts processing events.
func (w *Watcher) Start() {
	go w.processEvents()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
	})
}

// Add starts watching path.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[abs] {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	w.logger.Debug("watching file", "path", abs)
	return nil
}

// Remove stops watching path.
func (w *Watcher) Remove(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[abs] {
		return
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.fsWatcher.Remove(dir)
	}
}

func (w *Watcher) watching(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path]
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename covers editors that write a temp file and move it into place.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(event.Name)
	if !w.watching(path) {
		return
	}

	w.debounceEvent(path, func() {
		select {
		case w.eventsChan <- Event{Path: path, Op: event.Op}:
		case <-w.done:
		}
	})
}

// debounceEvent runs fn once events for path have been quiet for the delay.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}
