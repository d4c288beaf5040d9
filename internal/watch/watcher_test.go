package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New(Config{BaseDir: t.TempDir(), Patterns: []string{"[unclosed"}}); err == nil {
		t.Error("expected invalid pattern error")
	}
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without base directory")
	}
}

func TestIgnoreAndPatternMatching(t *testing.T) {
	w := &Watcher{patterns: DefaultPatterns, ignores: append(slices.Clone(defaultIgnores), "notes/active.md")}

	tests := []struct {
		rel     string
		ignored bool
		matches bool
	}{
		{"notes/a.md", false, true},
		{"a.markdown", false, true},
		{"notes/active.md", true, true},
		{".obsidian/workspace.json", true, false},
		{"notes/.trash/old.md", true, true},
		{".contextcat.toml", true, false},
		{"notes/a.md.swp", true, false},
		{"notes/image.png", false, false},
	}
	for _, tt := range tests {
		if got := w.isIgnored(tt.rel); got != tt.ignored {
			t.Errorf("isIgnored(%q): expected %v, got %v", tt.rel, tt.ignored, got)
		}
		if got := w.matchesPatterns(tt.rel); got != tt.matches {
			t.Errorf("matchesPatterns(%q): expected %v, got %v", tt.rel, tt.matches, got)
		}
	}
}

func TestWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{}, 1)

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 100 * time.Millisecond,
		Ignore:   []string{"active.md"},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			select {
			case done <- struct{}{}:
			default:
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

	for _, name := range []string{"a.md", "notes/b.md", "active.md", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
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
	for _, want := range []string{"a.md", "notes/b.md"} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}
	for _, unwanted := range []string{"active.md", "c.txt"} {
		if slices.Contains(collected, unwanted) {
			t.Errorf("expected %q to be filtered, got %v", unwanted, collected)
		}
	}
}

func TestRunTwice(t *testing.T) {
	w, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if err := w.Run(ctx); err == nil {
		t.Error("expected error on second Run")
	}
}
