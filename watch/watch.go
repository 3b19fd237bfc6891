// Package watch wraps fsnotify with the debounce and duplicate-suppression
// semantics PipeForge's watch triggers require: each (path, filter) key
// collapses a burst of filesystem events into a single debounced callback.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// MinTriggerInterval is the minimum time between two emissions for the same
// key; events arriving sooner are dropped as duplicates.
const MinTriggerInterval = 2 * time.Second

// Trigger describes one registered watch: a directory, a glob filter
// applied to the base name, and the debounce delay applied before firing.
type Trigger struct {
	Path                  string
	Filter                string
	IncludeSubdirectories bool
	DebounceMs            int
}

func (t Trigger) key() string {
	return t.Path + ":" + t.Filter
}

func (t Trigger) debounce() time.Duration {
	if t.DebounceMs <= 0 {
		return 0
	}
	return time.Duration(t.DebounceMs) * time.Millisecond
}

// Callback is invoked once per debounced, de-duplicated event.
type Callback func(trigger Trigger, changedPath string)

// Watcher multiplexes one or more Triggers over a single fsnotify.Watcher,
// applying per-key debounce timers and duplicate suppression.
type Watcher struct {
	fsw      *fsnotify.Watcher
	callback Callback

	mu           sync.Mutex
	triggers     map[string]Trigger // trigger.key() ("path:filter") -> registered trigger
	timers       map[string]*time.Timer
	lastEmitted  map[string]time.Time
	stopped      bool
	doneWatching chan struct{}
}

// New creates a Watcher that invokes cb for every debounced event matching
// one of triggers. The caller must call Start to begin receiving events and
// Stop/Close to release resources.
func New(triggers []Trigger, cb Callback) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:          fsw,
		callback:     cb,
		triggers:     map[string]Trigger{},
		timers:       map[string]*time.Timer{},
		lastEmitted:  map[string]time.Time{},
		doneWatching: make(chan struct{}),
	}

	for _, trig := range triggers {
		w.triggers[trig.key()] = trig
		dirs := []string{trig.Path}
		if trig.IncludeSubdirectories {
			dirs = subdirsOf(trig.Path)
		}
		for _, d := range dirs {
			if err := fsw.Add(d); err != nil {
				log.Printf("watch: failed to register %s: %v", d, err)
			}
		}
	}

	return w, nil
}

// Start begins processing filesystem events in a background goroutine. It
// returns immediately.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				close(w.doneWatching)
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				close(w.doneWatching)
				return
			}
			// Platform error events are logged and the watcher keeps
			// running; fsnotify re-arms its own notification facility
			// internally on the next syscall, so no explicit reset is
			// needed here.
			log.Printf("watch: filesystem notification error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	base := filepath.Base(ev.Name)
	dir := filepath.Dir(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	for key, trig := range w.triggers {
		if !strings.HasPrefix(dir, trig.Path) && dir != trig.Path {
			continue
		}
		matched, err := filepath.Match(trig.Filter, base)
		if err != nil || !matched {
			continue
		}

		if last, seen := w.lastEmitted[key]; seen && time.Since(last) < MinTriggerInterval {
			continue // duplicate suppression
		}

		w.armDebounce(key, trig, ev.Name)
	}
}

// armDebounce (re)starts the one-shot debounce timer for key. Must be
// called with w.mu held.
func (w *Watcher) armDebounce(key string, trig Trigger, path string) {
	if existing, ok := w.timers[key]; ok {
		existing.Stop()
	}

	w.timers[key] = time.AfterFunc(trig.debounce(), func() {
		w.mu.Lock()
		w.lastEmitted[key] = time.Now()
		stopped := w.stopped
		w.mu.Unlock()

		if !stopped {
			w.callback(trig, path)
		}
	})
}

// Stop disables further event delivery and cancels any pending debounce
// timers. It does not close the underlying fsnotify.Watcher; call Close for
// full teardown.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
}

// Close stops the watcher and releases the underlying fsnotify resources.
func (w *Watcher) Close() error {
	w.Stop()
	return w.fsw.Close()
}

func subdirsOf(root string) []string {
	dirs := []string{root}
	entries, err := os.ReadDir(root)
	if err != nil {
		return dirs
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, subdirsOf(filepath.Join(root, e.Name()))...)
		}
	}
	return dirs
}
