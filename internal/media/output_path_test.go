package media

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestUniquePathNoCollision(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "clip.mp4")
	if got := uniquePath(want); got != want {
		t.Fatalf("expected untouched path %s, got %s", want, got)
	}
}

func TestUniquePathAppendsDisambiguator(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "clip.mp4")
	touch(t, existing)

	got := uniquePath(existing)
	if got != filepath.Join(dir, "clip (1).mp4") {
		t.Fatalf("expected clip (1).mp4, got %s", got)
	}

	before, err := os.ReadFile(existing)
	if err != nil || string(before) != "x" {
		t.Fatalf("pre-existing file must be untouched: %v", err)
	}
}

func TestUniquePathIncrementsPastExistingDisambiguators(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "clip.mp4"))
	touch(t, filepath.Join(dir, "clip (1).mp4"))
	touch(t, filepath.Join(dir, "clip (2).mp4"))

	got := uniquePath(filepath.Join(dir, "clip.mp4"))
	if got != filepath.Join(dir, "clip (3).mp4") {
		t.Fatalf("expected clip (3).mp4, got %s", got)
	}
}

func TestUniquePathNoExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "clip"))

	got := uniquePath(filepath.Join(dir, "clip"))
	if got != filepath.Join(dir, "clip (1)") {
		t.Fatalf("expected clip (1), got %s", got)
	}
}
