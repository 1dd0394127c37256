package resource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func assets(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join("..", "..", "assets"), nil)
}

func TestLevelIsCached(t *testing.T) {
	m := assets(t)
	if p := m.LoadingProgress(); p != 0 {
		t.Fatalf("idle progress = %d, want 0", p)
	}
	a, err := m.Level(context.Background(), "arena")
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	b, err := m.Level(context.Background(), "arena")
	if err != nil {
		t.Fatalf("level again: %v", err)
	}
	if a != b {
		t.Fatal("second load did not hit the cache")
	}
	if p := m.LoadingProgress(); p != 100 {
		t.Fatalf("progress = %d, want 100", p)
	}
}

func TestProgressCountsStages(t *testing.T) {
	m := assets(t)
	m.Expect(3)
	if p := m.LoadingProgress(); p != 0 {
		t.Fatalf("progress before any work = %d, want 0", p)
	}
	if _, err := m.Level(context.Background(), "arena"); err != nil {
		t.Fatal(err)
	}
	if p := m.LoadingProgress(); p != 25 {
		t.Fatalf("progress after the definition = %d, want 25", p)
	}
	m.Done()
	m.Done()
	if p := m.LoadingProgress(); p != 75 {
		t.Fatalf("progress = %d, want 75", p)
	}
	m.Done()
	if p := m.LoadingProgress(); p != 100 {
		t.Fatalf("progress = %d, want 100", p)
	}
	m.Reset()
	if p := m.LoadingProgress(); p != 0 {
		t.Fatalf("progress after reset = %d, want 0", p)
	}
}

func TestMissingAsset(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if _, err := m.Level(context.Background(), "nowhere"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}
}

func TestCanceledRead(t *testing.T) {
	m := assets(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Read(ctx, "levels/arena.yaml"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
}
