package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/haview/pkg/errors"
	"github.com/matzehuels/haview/pkg/haproxy"
)

func TestLocalSourceMissingFile(t *testing.T) {
	s := NewLocalSource(filepath.Join(t.TempDir(), "haproxy.cfg"))
	ctx := context.Background()

	text, err := s.LoadConfigText(ctx)
	if err != nil || text != "" {
		t.Errorf("LoadConfigText = %q, %v; want empty", text, err)
	}
	g, err := s.LoadGraph(ctx)
	if err != nil || len(g.Nodes) != 0 {
		t.Errorf("LoadGraph = %+v, %v; want empty graph", g, err)
	}
}

func TestLocalSourceSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haproxy.cfg")
	s := NewLocalSource(path)
	ctx := context.Background()

	cfg := "frontend web\n  default_backend app\nbackend app\n  server a1 10.0.0.1:80\n"
	if err := s.SaveConfigText(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	text, err := s.LoadConfigText(ctx)
	if err != nil || text != cfg {
		t.Errorf("LoadConfigText = %q, %v", text, err)
	}

	g, err := s.LoadGraph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Errorf("graph = %+v", g)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestLocalSourceLoadGraphUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haproxy.cfg")
	cfg := "frontend web\n  # " + strings.Repeat("x", haproxy.MaxLineSize) + "\n  default_backend app\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := NewLocalSource(path).LoadGraph(context.Background())
	if err == nil {
		t.Fatalf("LoadGraph = %+v, nil; want an error", g)
	}
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidFormat)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestLocalSourceSaveKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haproxy.cfg")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewLocalSource(path).SaveConfigText(context.Background(), "new"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLocalSourceSaveMissingDir(t *testing.T) {
	s := NewLocalSource(filepath.Join(t.TempDir(), "nope", "haproxy.cfg"))
	if err := s.SaveConfigText(context.Background(), "x"); err == nil {
		t.Error("expected error saving into a missing directory")
	}
}

func TestLocalSourceWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haproxy.cfg")
	s := NewLocalSource(path, WithDebounce(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.cfg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveConfigText(ctx, "frontend web\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf("watch error: %v", ev.Err)
		}
		if filepath.Base(ev.Path) != "haproxy.cfg" {
			t.Errorf("event path = %q", ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestLocalSourceWatchMissingDir(t *testing.T) {
	s := NewLocalSource(filepath.Join(t.TempDir(), "nope", "haproxy.cfg"))
	if _, err := s.Watch(context.Background()); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
