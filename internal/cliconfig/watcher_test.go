package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReloadSwapsSafeSubset(t *testing.T) {
	path := writeConfigFile(t, `
save_dir = "/reloaded/videos"
ffmpeg_path = "/reloaded/ffmpeg"
log_level = "debug"
dedup_window = "5s"
`)

	cfg := DefaultConfig()
	cfg.SaveDir = "/original/videos"
	store := NewStore(cfg)

	w := NewWatcher(path, store, nil)
	w.reload()

	got := store.Load()
	if got.SaveDir != "/reloaded/videos" {
		t.Fatalf("save dir not reloaded: %q", got.SaveDir)
	}
	if got.FFmpegPath != "/reloaded/ffmpeg" {
		t.Fatalf("ffmpeg path not reloaded: %q", got.FFmpegPath)
	}
	if got.LogLevel != "debug" {
		t.Fatalf("log level not reloaded: %q", got.LogLevel)
	}
	// Intervals wired into running components are not reloadable.
	if got.DedupWindow != cfg.DedupWindow {
		t.Fatalf("dedup window must not change on reload: %v", got.DedupWindow)
	}
}

func TestReloadKeepsSnapshotOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`save_dir = [broken`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := DefaultConfig()
	cfg.SaveDir = "/original/videos"
	store := NewStore(cfg)

	w := NewWatcher(path, store, nil)
	w.reload()

	if store.Load().SaveDir != "/original/videos" {
		t.Fatalf("bad file must leave the snapshot untouched")
	}
}

func TestStoreResolvesPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SaveDir = "/videos"
	cfg.CacheDir = "/cache"
	cfg.FFmpegPath = "/bin/ffmpeg"
	cfg.FFprobePath = "/bin/ffprobe"
	store := NewStore(cfg)

	if store.SaveDir() != "/videos" || store.FFmpeg() != "/bin/ffmpeg" || store.FFprobe() != "/bin/ffprobe" {
		t.Fatalf("store does not resolve configured paths")
	}
	if store.TempDir() != filepath.Join("/cache", "tmp") {
		t.Fatalf("temp dir = %q", store.TempDir())
	}
}
