// Package cliconfig loads the host's configuration from defaults, a TOML
// file, MVDHOST_* environment variables and command-line flags, in that
// order of increasing precedence.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the host configuration.
type Config struct {
	// SaveDir is the default directory for downloaded files.
	SaveDir string

	// CacheDir holds the log file and transient preview frames.
	CacheDir string

	// FFmpegPath and FFprobePath locate the external tools. Bare names
	// are resolved through PATH at spawn time.
	FFmpegPath  string
	FFprobePath string

	// ThrottleInterval is the minimum spacing between sent progress events.
	ThrottleInterval time.Duration

	// DedupWindow is how long an admitted request suppresses identical
	// redeliveries.
	DedupWindow time.Duration

	LogLevel  string
	LogToFile bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	cfg := Config{
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		ThrottleInterval: 250 * time.Millisecond,
		DedupWindow:      time.Second,
		LogLevel:         "info",
		LogToFile:        true,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.SaveDir = filepath.Join(home, "Downloads")
		cfg.CacheDir = filepath.Join(home, ".mvdhost")
	}
	return cfg
}

// Validate checks the configuration and creates the directories the host
// needs to operate.
func (c *Config) Validate() error {
	if c.SaveDir == "" {
		return fmt.Errorf("save-dir is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache-dir is required")
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return fmt.Errorf("ffmpeg and ffprobe paths are required")
	}
	if c.ThrottleInterval <= 0 {
		return fmt.Errorf("throttle interval must be positive")
	}
	if c.DedupWindow <= 0 {
		return fmt.Errorf("dedup window must be positive")
	}

	for _, dir := range []string{c.SaveDir, c.CacheDir, c.TempDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// TempDir is where transient files (preview frames) are written.
func (c *Config) TempDir() string {
	return filepath.Join(c.CacheDir, "tmp")
}

// LogPath is the host's log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.CacheDir, "mvdhost.log")
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// configSetter helps apply configuration values while respecting flag
// precedence: a value is only applied if the corresponding flag was not
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
