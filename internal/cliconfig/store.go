package cliconfig

import "sync/atomic"

// Store holds the live configuration snapshot. Readers get a consistent
// Config value; the watcher swaps in a new snapshot atomically on reload.
// Store implements ports.PathResolver.
type Store struct {
	v atomic.Value // Config
}

// NewStore creates a Store seeded with cfg.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.v.Store(cfg)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() Config {
	return s.v.Load().(Config)
}

// Swap replaces the snapshot.
func (s *Store) Swap(cfg Config) {
	s.v.Store(cfg)
}

// FFmpeg returns the media tool path.
func (s *Store) FFmpeg() string { return s.Load().FFmpegPath }

// FFprobe returns the inspection tool path.
func (s *Store) FFprobe() string { return s.Load().FFprobePath }

// SaveDir returns the default download directory.
func (s *Store) SaveDir() string { return s.Load().SaveDir }

// TempDir returns the transient-file directory.
func (s *Store) TempDir() string {
	cfg := s.Load()
	return cfg.TempDir()
}
