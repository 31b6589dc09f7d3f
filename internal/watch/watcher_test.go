// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestWatcherDebounce verifies that rapid writes to several watched files
// are coalesced into one callback naming all of them.
func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.md")
	part := filepath.Join(dir, "part.md")
	writeFile(t, doc, "doc")
	writeFile(t, part, "part")

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	w, err := New(Config{
		Files:    []string{doc, part},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	for _, path := range []string{doc, part, doc} {
		writeFile(t, path, "changed")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(200 * time.Millisecond)

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	if !slices.Equal(collected, []string{doc, part}) {
		t.Errorf("changed = %v, want [%s %s]", collected, doc, part)
	}
}

// TestWatcherIgnoresOtherFiles confirms that files outside the set, even in
// a watched directory, do not trigger the callback.
func TestWatcherIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.md")
	writeFile(t, doc, "doc")

	fired := make(chan []string, 10)
	w, err := New(Config{
		Files:    []string{doc},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	writeFile(t, filepath.Join(dir, "generated.sh"), "output")
	time.Sleep(200 * time.Millisecond)
	writeFile(t, doc, "edited")

	select {
	case changed := <-fired:
		if !slices.Equal(changed, []string{doc}) {
			t.Errorf("changed = %v, want only %s", changed, doc)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestWatcherSetFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := filepath.Join(dir, "doc.md")
	inc := filepath.Join(sub, "inc.md")

	w, err := New(Config{Files: []string{doc}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	if err := w.SetFiles([]string{doc, inc}); err != nil {
		t.Fatalf("SetFiles() error: %v", err)
	}
	if got := w.Files(); !slices.Equal(got, []string{doc, inc}) {
		t.Errorf("Files() = %v", got)
	}
	if !w.dirs[sub] {
		t.Errorf("directory %s not watched", sub)
	}
	if err := w.SetFiles(nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("SetFiles(nil) = %v, want ErrNoFiles", err)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); !errors.Is(err, ErrNoFiles) {
		t.Errorf("New(no files) = %v, want ErrNoFiles", err)
	}
	missing := filepath.Join(t.TempDir(), "nope", "doc.md")
	if _, err := New(Config{Files: []string{missing}}); err == nil {
		t.Error("New() with a missing directory should fail")
	}
}

// TestWatcherRunTwice verifies that a second Run call is rejected.
func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(Config{Files: []string{filepath.Join(dir, "doc.md")}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := w.Run(ctx); err == nil {
		t.Error("second Run() should fail")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
