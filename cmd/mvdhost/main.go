package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/Suwot/max-video-downloader-sub006/internal/adapters/execrunner"
	"github.com/Suwot/max-video-downloader-sub006/internal/cliconfig"
	"github.com/Suwot/max-video-downloader-sub006/internal/dedup"
	"github.com/Suwot/max-video-downloader-sub006/internal/dispatch"
	"github.com/Suwot/max-video-downloader-sub006/internal/framing"
	"github.com/Suwot/max-video-downloader-sub006/internal/host"
	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/media"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
	"github.com/Suwot/max-video-downloader-sub006/internal/throttle"
)

const helpDescription = `
Native messaging host for the Max Video Downloader browser extension.

The browser spawns this process and talks to it over stdin/stdout using
length-prefixed JSON frames; stdout carries protocol frames only, so all
diagnostics go to stderr and the log file. It is not meant to be driven
from an interactive terminal.

Operations: download media, probe stream qualities, generate preview
thumbnails. All media work is delegated to ffmpeg/ffprobe.
`

var exampleUsage = strings.TrimSpace(`
  mvdhost --probe-tools
  mvdhost --config $HOME/.mvdhost/config.toml --log-level debug
  mvdhost --ffmpeg /opt/ffmpeg/bin/ffmpeg --save-dir ~/Videos
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var probeTools bool

	root := &cobra.Command{
		Use:     "mvdhost",
		Short:   "Native messaging host for the Max Video Downloader extension",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		// Browsers pass the extension origin (and on Windows a native window
		// handle) as positional arguments; accept and ignore them.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment (MVDHOST_*) overrides the file but yields to flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			log.Info("configuration loaded",
				logging.String("save_dir", cfg.SaveDir),
				logging.String("ffmpeg", cfg.FFmpegPath),
				logging.String("ffprobe", cfg.FFprobePath),
				logging.String("log_level", cfg.LogLevel))

			runner := execrunner.New(log)

			if probeTools {
				return runToolProbe(cmd.Context(), runner, cfg)
			}

			if err := validateTools(cmd.Context(), runner, cfg, log); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				select {
				case sig := <-sigCh:
					log.Info("received signal, stopping", logging.String("signal", sig.String()))
					cancel()
				case <-ctx.Done():
				}
			}()

			store := cliconfig.NewStore(cfg)
			if cfgFile != "" {
				watcher := cliconfig.NewWatcher(cfgFile, store, log)
				go watcher.Run(ctx)
			}

			writer := framing.NewWriter(os.Stdout)
			sink := throttle.NewSink(host.NewWriterSink(writer), cfg.ThrottleInterval)

			registry := dispatch.NewRegistry(log)
			registry.Register(protocol.OpDownload, media.NewDownloader(runner, store, sink, log))
			registry.Register(protocol.OpGetQualities, media.NewProber(runner, store, log))
			registry.Register(protocol.OpGeneratePreview, media.NewPreviewGenerator(runner, store, log))

			h := host.New(os.Stdin, sink, registry, dedup.New(cfg.DedupWindow), log)
			log.Info("host started", logging.String("version", getVersion()))
			return h.Run(ctx)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.mvdhost/config.toml)")
	root.Flags().StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "default directory for downloaded files")
	root.Flags().StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "directory for the log file and temporary preview frames")
	root.Flags().StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "path to the ffmpeg binary")
	root.Flags().StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "path to the ffprobe binary")
	root.Flags().DurationVar(&cfg.ThrottleInterval, "throttle-interval", cfg.ThrottleInterval, "minimum spacing between progress events")
	root.Flags().DurationVar(&cfg.DedupWindow, "dedup-window", cfg.DedupWindow, "window in which identical requests are suppressed")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.LogToFile, "log-to-file", cfg.LogToFile, "also write logs to the cache directory")
	root.Flags().BoolVar(&probeTools, "probe-tools", false, "check ffmpeg/ffprobe availability and exit")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mvdhost: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger sets up zerolog on stderr, optionally duplicated into the log
// file under the cache directory. stdout stays reserved for protocol frames.
func buildLogger(cfg cliconfig.Config) (logging.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	if !cfg.LogToFile {
		return logging.NewZerologAdapter(level), nil
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewZerologAdapterWithFile(level, f), nil
}

// validateTools confirms both configured tools actually run before the host
// starts accepting requests, so a misconfigured path fails loudly at spawn
// time instead of on the first download.
func validateTools(ctx context.Context, runner *execrunner.Runner, cfg cliconfig.Config, log logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, tool := range []string{cfg.FFmpegPath, cfg.FFprobePath} {
		res, err := runner.Run(ctx, tool, []string{"-version"})
		if err != nil {
			return fmt.Errorf("tool %s not usable: %w", tool, err)
		}
		log.Info("tool available",
			logging.String("tool", tool),
			logging.String("version", firstLine(res.Stdout)))
	}
	return nil
}

// runToolProbe runs each configured tool with -version and reports the first
// line of its output, so a user can verify their installation before wiring
// the host into a browser.
func runToolProbe(ctx context.Context, runner *execrunner.Runner, cfg cliconfig.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var failed bool
	for _, tool := range []string{cfg.FFmpegPath, cfg.FFprobePath} {
		res, err := runner.Run(ctx, tool, []string{"-version"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", tool, err)
			failed = true
			continue
		}
		fmt.Fprintf(os.Stderr, "OK   %s: %s\n", tool, firstLine(res.Stdout))
	}
	if failed {
		return fmt.Errorf("tool probe failed")
	}
	return nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
