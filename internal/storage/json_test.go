package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testIndex = `{"posts":[{"id":1,"path":"/test","title":"Test Post","tags":"test","meta_description":"desc","related":[]}]}`

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJSONStorage_Load(t *testing.T) {
	store := NewJSONStorage(writeIndex(t, testIndex))
	idx, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Posts) != 1 {
		t.Fatalf("posts: got %d, want 1", len(idx.Posts))
	}
	if idx.Posts[0].Title != "Test Post" {
		t.Errorf("title: got %q", idx.Posts[0].Title)
	}
}

func TestJSONStorage_LoadReflectsLatestFile(t *testing.T) {
	path := writeIndex(t, testIndex)
	store := NewJSONStorage(path)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	updated := strings.Replace(testIndex, "Test Post", "Edited Post", 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}
	idx, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if idx.Posts[0].Title != "Edited Post" {
		t.Errorf("title after edit: got %q, want Edited Post", idx.Posts[0].Title)
	}
}

func TestJSONStorage_LoadMissingFile(t *testing.T) {
	store := NewJSONStorage(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestJSONStorage_LoadMalformed(t *testing.T) {
	store := NewJSONStorage(writeIndex(t, `{"posts": [`))
	_, err := store.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse content index") {
		t.Errorf("error: got %v", err)
	}
}

func TestJSONStorage_LoadCancelled(t *testing.T) {
	store := NewJSONStorage(writeIndex(t, testIndex))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Load(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewJSONStorage_DefaultPath(t *testing.T) {
	if got := NewJSONStorage("").Path(); got != DefaultIndexPath {
		t.Errorf("Path() = %q, want %q", got, DefaultIndexPath)
	}
}

func TestJSONStorage_Stat(t *testing.T) {
	path := writeIndex(t, testIndex)
	info, err := NewJSONStorage(path).Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Path != path || info.SizeBytes != int64(len(testIndex)) {
		t.Errorf("Stat() = %+v, want path %s and %d bytes", info, path, len(testIndex))
	}
	if info.ModTime.IsZero() {
		t.Error("mod time not set")
	}

	if _, err := NewJSONStorage(filepath.Dir(path)).Stat(); err == nil {
		t.Error("expected error for a directory")
	}
	if _, err := NewJSONStorage(filepath.Join(t.TempDir(), "missing.json")).Stat(); err == nil {
		t.Error("expected error for a missing file")
	}
}
