package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestWriteAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Write(ctx, "sess/assets/a.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "sess/assets/a.png" {
		t.Fatalf("key = %q", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q", data)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []string{"", "   ", "../escape.png", "a/../../escape.png"} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestWriteNormalizesKey(t *testing.T) {
	store := newTestStore(t)
	key, err := store.Write(context.Background(), "/sess//assets/./a.png", []byte("x"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "sess/assets/a.png" {
		t.Fatalf("key = %q, want normalized relative key", key)
	}
}

func TestAbsolutePath(t *testing.T) {
	store := newTestStore(t)
	path, err := store.AbsolutePath("sess/assets/a.png")
	if err != nil {
		t.Fatalf("absolute path: %v", err)
	}
	if !strings.HasPrefix(path, store.BasePath()) {
		t.Fatalf("path %q escapes base %q", path, store.BasePath())
	}
	if filepath.Base(path) != "a.png" {
		t.Fatalf("path = %q", path)
	}
}

func TestUploadSources(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	first := filepath.Join(dir, "front.png")
	second := filepath.Join(dir, "back.JPG")
	if err := os.WriteFile(first, []byte("front"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.WriteFile(second, []byte("back"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	keys, err := store.UploadSources(ctx, "sess", []string{first, second})
	if err != nil {
		t.Fatalf("upload sources: %v", err)
	}
	want := []string{"sess/sources/00.png", "sess/sources/01.jpg"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	data, err := store.Read(ctx, keys[1])
	if err != nil {
		t.Fatalf("read upload: %v", err)
	}
	if string(data) != "back" {
		t.Fatalf("data = %q", data)
	}
}

func TestUploadSourcesRequiresPaths(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.UploadSources(context.Background(), "sess", nil); err == nil {
		t.Fatalf("expected error for empty path list")
	}
}

func TestUploadSourcesMissingFile(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.UploadSources(context.Background(), "sess", []string{"/does/not/exist.png"}); err == nil {
		t.Fatalf("expected error for missing source file")
	}
}
