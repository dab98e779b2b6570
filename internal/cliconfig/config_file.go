package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	SaveDir          string `toml:"save_dir"`
	CacheDir         string `toml:"cache_dir"`
	FFmpegPath       string `toml:"ffmpeg_path"`
	FFprobePath      string `toml:"ffprobe_path"`
	ThrottleInterval string `toml:"throttle_interval"`
	DedupWindow      string `toml:"dedup_window"`
	LogLevel         string `toml:"log_level"`
	LogToFile        *bool  `toml:"log_to_file"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path,
// ~/.mvdhost/config.toml, when the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".mvdhost", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("save-dir", fc.SaveDir, &cfg.SaveDir)
	s.setString("cache-dir", fc.CacheDir, &cfg.CacheDir)
	s.setString("ffmpeg", fc.FFmpegPath, &cfg.FFmpegPath)
	s.setString("ffprobe", fc.FFprobePath, &cfg.FFprobePath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setBool("log-to-file", fc.LogToFile, &cfg.LogToFile)

	if err := s.setDuration("throttle-interval", fc.ThrottleInterval, &cfg.ThrottleInterval); err != nil {
		return err
	}
	if err := s.setDuration("dedup-window", fc.DedupWindow, &cfg.DedupWindow); err != nil {
		return err
	}
	return nil
}
