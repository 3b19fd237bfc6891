package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func collectEvents() (Callback, func() []string) {
	var mu sync.Mutex
	var paths []string
	return func(_ Trigger, path string) {
			mu.Lock()
			defer mu.Unlock()
			paths = append(paths, path)
		}, func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), paths...)
		}
}

func TestWatcher_FiresOnMatchingFileChange(t *testing.T) {
	dir := t.TempDir()
	cb, getPaths := collectEvents()

	w, err := New([]Trigger{{Path: dir, Filter: "*.txt", DebounceMs: 20}}, cb)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.Start()

	target := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(target, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(getPaths()) > 0 })
}

func TestWatcher_IgnoresNonMatchingFilter(t *testing.T) {
	dir := t.TempDir()
	cb, getPaths := collectEvents()

	w, err := New([]Trigger{{Path: dir, Filter: "*.txt", DebounceMs: 20}}, cb)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.Start()

	if err := os.WriteFile(filepath.Join(dir, "note.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)
	if len(getPaths()) != 0 {
		t.Fatalf("expected no events for non-matching filter, got %v", getPaths())
	}
}

func TestWatcher_BurstOfWritesCollapsesToOneEmission(t *testing.T) {
	dir := t.TempDir()
	cb, getPaths := collectEvents()

	w, err := New([]Trigger{{Path: dir, Filter: "*.txt", DebounceMs: 50}}, cb)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.Start()

	target := filepath.Join(dir, "note.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("hi"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(250 * time.Millisecond)
	if got := len(getPaths()); got != 1 {
		t.Fatalf("expected exactly one collapsed emission, got %d: %v", got, getPaths())
	}
}

func TestWatcher_MinTriggerIntervalSuppressesRapidRepeats(t *testing.T) {
	dir := t.TempDir()
	cb, getPaths := collectEvents()

	w, err := New([]Trigger{{Path: dir, Filter: "*.txt", DebounceMs: 10}}, cb)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.Start()

	target := filepath.Join(dir, "note.txt")
	_ = os.WriteFile(target, []byte("one"), 0o644)
	waitFor(t, func() bool { return len(getPaths()) >= 1 })

	// Within MinTriggerInterval: a second change is a duplicate and must
	// not produce a second emission.
	_ = os.WriteFile(target, []byte("two"), 0o644)
	time.Sleep(150 * time.Millisecond)
	if got := len(getPaths()); got != 1 {
		t.Fatalf("expected duplicate suppression to hold at 1 emission, got %d", got)
	}
}

func TestWatcher_StopPreventsFurtherCallbacks(t *testing.T) {
	dir := t.TempDir()
	cb, getPaths := collectEvents()

	w, err := New([]Trigger{{Path: dir, Filter: "*.txt", DebounceMs: 20}}, cb)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	w.Stop()

	_ = os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hi"), 0o644)
	time.Sleep(150 * time.Millisecond)
	if len(getPaths()) != 0 {
		t.Fatalf("expected no events after Stop, got %v", getPaths())
	}
	w.Close()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
