package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
)

const (
	// fallbackDurationSec stands in when the source's total duration could
	// not be learned. It is a known-crude placeholder, not an estimate;
	// the 99% cap keeps it from reporting completion early.
	fallbackDurationSec = 10.0

	// successDelay is the pause between the final 100% progress event and
	// the success event, giving the peer time to render the former.
	successDelay = 200 * time.Millisecond

	// stderrTailMax bounds the diagnostic text retained for error reports.
	stderrTailMax = 4096
)

// Downloader implements the download operation: it launches the media tool
// in stream-copy mode, supervises it, and turns its diagnostic output into
// throttled progress events followed by exactly one terminal event.
type Downloader struct {
	runner ports.Runner
	paths  ports.PathResolver
	sink   ports.Sink
	log    logging.Logger

	// successDelay and now are swappable for tests.
	successDelay time.Duration
	now          func() time.Time
}

// NewDownloader creates a Downloader with its capability set. sink should
// already be throttle-wrapped; the Downloader emits freely.
func NewDownloader(runner ports.Runner, paths ports.PathResolver, sink ports.Sink, log logging.Logger) *Downloader {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &Downloader{
		runner:       runner,
		paths:        paths,
		sink:         sink,
		log:          log,
		successDelay: successDelay,
		now:          time.Now,
	}
}

// Execute handles a download request.
func (d *Downloader) Execute(ctx context.Context, req protocol.Request) (any, error) {
	if req.URL == "" {
		return nil, errors.New("Missing URL")
	}

	dir := req.SavePath
	if dir == "" {
		dir = d.paths.SaveDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.log.Error("create save directory", logging.String("dir", dir), logging.Err(err))
		return nil, fmt.Errorf("Cannot create save directory: %s", dir)
	}

	dst := uniquePath(filepath.Join(dir, outputName(req)))

	j := newJob(d.now())
	d.log.Info("download starting",
		logging.String("job", j.id),
		logging.String("url", req.URL),
		logging.String("dest", dst))

	// Best-effort duration lookup, concurrent with the download itself.
	// Its absence only degrades the progress math.
	probeCtx, cancelProbe := context.WithCancel(ctx)
	defer cancelProbe()
	go d.probeDuration(probeCtx, j, req.URL, req.Headers)

	j.enter(jobRunning)
	proc, err := d.runner.Stream(ctx, d.paths.FFmpeg(), downloadArgs(req.URL, dst, req.Headers),
		func(chunk string) { d.observe(j, chunk) })
	if err != nil {
		if !j.fail() {
			return nil, nil
		}
		d.log.Error("spawn media tool", logging.String("job", j.id), logging.Err(err))
		return nil, fmt.Errorf("Download failed: %v", err)
	}

	if err := proc.Wait(); err != nil {
		if !j.fail() {
			return nil, nil
		}
		tail := j.tail()
		d.log.Error("media tool exited with error",
			logging.String("job", j.id),
			logging.Err(err),
			logging.String("stderr", tail))
		if detail := errorDetail(tail); detail != "" {
			return nil, fmt.Errorf("Download failed: %s", detail)
		}
		return nil, fmt.Errorf("Download failed: %v", err)
	}

	j.enter(jobSucceeded)
	d.log.Info("download finished", logging.String("job", j.id), logging.String("dest", dst))

	// The data is on disk: report a true 100% before the success event.
	elapsed, bytes, total := j.final()
	if err := d.sink.Send(protocol.NewProgress(100, formatSpeed(j.averageRate(d.now())), bytes, elapsed, total)); err != nil {
		d.log.Warn("send final progress", logging.String("job", j.id), logging.Err(err))
	}

	select {
	case <-time.After(d.successDelay):
	case <-ctx.Done():
	}

	return protocol.NewSuccessPath(dst), nil
}

// observe processes one diagnostic chunk from the running tool.
func (d *Downloader) observe(j *job, chunk string) {
	up, ok, send := j.observe(chunk, d.now())
	if !ok || !send {
		return
	}
	if err := d.sink.Send(protocol.NewProgress(up.pct, up.speed, up.bytes, up.elapsed, up.total)); err != nil {
		d.log.Warn("send progress", logging.String("job", j.id), logging.Err(err))
	}
}

// probeDuration asks the inspection tool for the source's total duration.
func (d *Downloader) probeDuration(ctx context.Context, j *job, url string, headers map[string]string) {
	j.enter(jobProbing)
	res, err := d.runner.Run(ctx, d.paths.FFprobe(), durationArgs(url, headers))
	if err != nil {
		d.log.Debug("duration probe failed", logging.String("job", j.id), logging.Err(err))
		return
	}
	var out struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		d.log.Debug("duration probe unparseable", logging.String("job", j.id), logging.Err(err))
		return
	}
	dur, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || dur <= 0 {
		return
	}
	j.setDuration(dur)
	d.log.Debug("duration learned", logging.String("job", j.id), logging.Float64("seconds", dur))
}

// outputName picks the destination filename: the requested name, else the
// last URL path element, else a generic name, always with a container
// extension.
func outputName(req protocol.Request) string {
	name := req.Filename
	if name == "" {
		trimmed := req.URL
		if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
			trimmed = trimmed[:i]
		}
		name = filepath.Base(trimmed)
		if name == "." || name == "/" || name == "" {
			name = "video"
		}
	}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".mp4", ".mkv", ".webm", ".mov", ".m4a", ".mp3":
		return name
	case ".m3u8", ".mpd", ".ts":
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".mp4"
	default:
		return name + ".mp4"
	}
}

// errorDetail trims the retained diagnostic tail down to something a user
// can read: the last few non-empty lines, whitespace collapsed.
func errorDetail(tail string) string {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return ""
	}
	lines := strings.FieldsFunc(tail, func(r rune) bool { return r == '\n' || r == '\r' })
	keep := lines
	if len(keep) > 3 {
		keep = keep[len(keep)-3:]
	}
	out := strings.Join(keep, " ")
	if len(out) > 500 {
		out = out[len(out)-500:]
	}
	return strings.TrimSpace(out)
}

// formatSpeed renders a byte rate for display.
func formatSpeed(bytesPerSec float64) string {
	switch {
	case bytesPerSec <= 0:
		return "0 B/s"
	case bytesPerSec < 1024:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	case bytesPerSec < 1024*1024:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1024)
	case bytesPerSec < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1024*1024))
	default:
		return fmt.Sprintf("%.2f GB/s", bytesPerSec/(1024*1024*1024))
	}
}
