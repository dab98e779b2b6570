package ports

// PathResolver supplies the filesystem facts handlers need: where the
// external tools live and where output goes. Implementations may refresh
// their answers at runtime (config hot-reload), so callers should ask per
// operation rather than caching.
type PathResolver interface {
	// FFmpeg returns the path of the media tool binary.
	FFmpeg() string

	// FFprobe returns the path of the inspection tool binary.
	FFprobe() string

	// SaveDir returns the default directory for downloaded files.
	SaveDir() string

	// TempDir returns a writable directory for transient files.
	TempDir() string
}
