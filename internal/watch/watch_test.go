package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, debounce time.Duration) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	if err := os.WriteFile(path, []byte(`{"trace":[]}`), 0644); err != nil {
		t.Fatalf("failed to write trace: %v", err)
	}

	w, err := New(path, debounce, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, path
}

func TestRun_FiresOnWrite(t *testing.T) {
	w, path := newTestWatcher(t, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls <- struct{}{} })
	}()

	if err := os.WriteFile(path, []byte(`{"trace":[["start",0,"a"]]}`), 0644); err != nil {
		t.Fatalf("failed to rewrite trace: %v", err)
	}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected callback after write")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_DebouncesBursts(t *testing.T) {
	w, path := newTestWatcher(t, 300*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	go w.Run(ctx, func(context.Context) { calls <- struct{}{} })

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"trace":[]}`), 0644); err != nil {
			t.Fatalf("failed to rewrite trace: %v", err)
		}
	}

	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("expected callback after burst")
	}

	select {
	case <-calls:
		t.Error("expected a single callback for one burst")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestRun_IgnoresOtherFiles(t *testing.T) {
	w, path := newTestWatcher(t, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	go w.Run(ctx, func(context.Context) { calls <- struct{}{} })

	other := filepath.Join(filepath.Dir(path), "other.json")
	if err := os.WriteFile(other, []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write other file: %v", err)
	}

	select {
	case <-calls:
		t.Error("expected no callback for a sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "trace.json"), 0, nil)
	if err == nil {
		t.Error("expected error watching a missing directory")
	}
}
