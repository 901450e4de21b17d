package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dubbing-orchestrator/internal/domain"
)

func TestLocalMediaStore_StageAndFetch(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalMediaStore(dir)

	ref, err := store.Stage(ctx, "clip.MP4", strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if !strings.HasSuffix(ref, ".mp4") || strings.ContainsRune(ref, os.PathSeparator) {
		t.Fatalf("unexpected ref %q", ref)
	}

	dst := filepath.Join(t.TempDir(), "job-1", "original.mp4")
	if err := store.Fetch(ctx, ref, dst); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil || string(b) != "video-bytes" {
		t.Fatalf("unexpected fetched content %q, %v", b, err)
	}

	if err := store.Fetch(ctx, ref, dst); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("a staged upload should be fetchable once, got %v", err)
	}
}

func TestLocalMediaStore_UniqueRefs(t *testing.T) {
	store := NewLocalMediaStore(t.TempDir())
	a, err := store.Stage(context.Background(), "a.mp4", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Stage a: %v", err)
	}
	b, err := store.Stage(context.Background(), "a.mp4", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Stage b: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct refs, got %q twice", a)
	}
}

func TestLocalMediaStore_RejectsPathRefs(t *testing.T) {
	store := NewLocalMediaStore(t.TempDir())
	for _, ref := range []string{"", "..", "../etc/passwd", "a/b.mp4"} {
		if err := store.Fetch(context.Background(), ref, filepath.Join(t.TempDir(), "x")); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("ref %q: expected ErrInvalidArgument, got %v", ref, err)
		}
	}
}

func TestLocalMediaStore_StageCancelled(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalMediaStore(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Stage(ctx, "a.mp4", strings.NewReader("data")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, found %d", len(entries))
	}
}

func TestObjectName_Extension(t *testing.T) {
	if got := objectName("noext"); strings.Contains(got, ".") {
		t.Errorf("unexpected extension in %q", got)
	}
	if got := objectName("weird.extension-way-too-long"); strings.Contains(got, ".") {
		t.Errorf("overlong extension should be dropped: %q", got)
	}
	if got := objectName("dir/clip.mkv"); !strings.HasSuffix(got, ".mkv") {
		t.Errorf("expected .mkv suffix: %q", got)
	}
}

func TestNopMediaStore(t *testing.T) {
	var s NopMediaStore
	ref, err := s.Stage(context.Background(), "clip.mp4", strings.NewReader("x"))
	if err != nil || ref != "" {
		t.Fatalf("expected empty ref, got %q, %v", ref, err)
	}
	if err := s.Fetch(context.Background(), "", "dst"); err != nil {
		t.Fatalf("empty ref fetch should be a no-op: %v", err)
	}
}

func TestLocalMediaStore_Sweep(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalMediaStore(dir)

	if n, err := store.Sweep(ctx, time.Now()); err != nil || n != 0 {
		t.Fatalf("sweep of missing dir: n=%d err=%v", n, err)
	}

	oldRef, _ := store.Stage(ctx, "old.mp4", strings.NewReader("a"))
	newRef, _ := store.Stage(ctx, "new.mp4", strings.NewReader("b"))
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, oldRef), past, past); err != nil {
		t.Fatal(err)
	}

	n, err := store.Sweep(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 removed, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, oldRef)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("old upload should be gone")
	}
	if _, err := os.Stat(filepath.Join(dir, newRef)); err != nil {
		t.Fatalf("fresh upload removed: %v", err)
	}
}
