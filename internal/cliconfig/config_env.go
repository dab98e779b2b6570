package cliconfig

import "os"

// ApplyEnvConfig applies MVDHOST_* environment variables to the Config.
// Env values override file config but lose to explicitly set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("save-dir", os.Getenv("MVDHOST_SAVE_DIR"), &cfg.SaveDir)
	s.setString("cache-dir", os.Getenv("MVDHOST_CACHE_DIR"), &cfg.CacheDir)
	s.setString("ffmpeg", os.Getenv("MVDHOST_FFMPEG"), &cfg.FFmpegPath)
	s.setString("ffprobe", os.Getenv("MVDHOST_FFPROBE"), &cfg.FFprobePath)
	s.setString("log-level", os.Getenv("MVDHOST_LOG_LEVEL"), &cfg.LogLevel)
	s.setBoolFromString("log-to-file", os.Getenv("MVDHOST_LOG_TO_FILE"), &cfg.LogToFile)

	if err := s.setDuration("throttle-interval", os.Getenv("MVDHOST_THROTTLE_INTERVAL"), &cfg.ThrottleInterval); err != nil {
		return err
	}
	if err := s.setDuration("dedup-window", os.Getenv("MVDHOST_DEDUP_WINDOW"), &cfg.DedupWindow); err != nil {
		return err
	}
	return nil
}
