package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
)

// reloadDebounce is the settle delay after a file event before reloading;
// editors commonly fire several events per save.
const reloadDebounce = 100 * time.Millisecond

// Watcher monitors the config file and hot-reloads the safe subset of
// settings (save dir, tool paths, log level) into the Store. Intervals and
// directories wired into running components at startup are left alone.
type Watcher struct {
	path  string
	store *Store
	log   logging.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a Watcher for the config file at path.
func NewWatcher(path string, store *Store, log logging.Logger) *Watcher {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &Watcher{path: path, store: store, log: log}
}

// Run watches until ctx is canceled. It watches the containing directory
// rather than the file itself so replace-style saves keep working.
func (w *Watcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn("config watcher unavailable", logging.Err(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.log.Warn("config watcher cannot watch directory",
			logging.String("dir", dir), logging.Err(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", logging.Err(err))
		}
	}
}

// scheduleReload debounces bursts of file events into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(reloadDebounce, w.reload)
}

// reload re-reads the file and swaps the reloadable settings into the
// current snapshot.
func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.log.Warn("config reload failed", logging.String("path", w.path), logging.Err(err))
		return
	}

	cfg := w.store.Load()
	if fc.SaveDir != "" {
		cfg.SaveDir = fc.SaveDir
	}
	if fc.FFmpegPath != "" {
		cfg.FFmpegPath = fc.FFmpegPath
	}
	if fc.FFprobePath != "" {
		cfg.FFprobePath = fc.FFprobePath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}

	w.store.Swap(cfg)
	w.log.Info("configuration reloaded",
		logging.String("save_dir", cfg.SaveDir),
		logging.String("ffmpeg", cfg.FFmpegPath))
}
