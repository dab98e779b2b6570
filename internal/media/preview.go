package media

import (
	"context"
	"encoding/base64"
	"os"
	"strings"

	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
)

const (
	// previewOffsetSec is how far into the source the frame is taken;
	// deep enough to skip black lead-in, shallow enough to stay cheap.
	previewOffsetSec = 1.0

	// previewWidth is the scaled width; height follows the aspect ratio.
	previewWidth = 320
)

// PreviewGenerator implements the generatePreview operation: a single still
// frame encoded as a base64 JPEG data URL.
type PreviewGenerator struct {
	runner ports.Runner
	paths  ports.PathResolver
	log    logging.Logger
}

// NewPreviewGenerator creates a PreviewGenerator with its capability set.
func NewPreviewGenerator(runner ports.Runner, paths ports.PathResolver, log logging.Logger) *PreviewGenerator {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &PreviewGenerator{runner: runner, paths: paths, log: log}
}

// Execute handles a generatePreview request.
func (g *PreviewGenerator) Execute(ctx context.Context, req protocol.Request) (any, error) {
	dataURL, err := g.Preview(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	return protocol.NewPreview(dataURL), nil
}

// Preview extracts one scaled frame from url into a temporary file, returns
// it base64-encoded as a data URL, and removes the file on every exit path.
func (g *PreviewGenerator) Preview(ctx context.Context, url string) (string, error) {
	if strings.HasPrefix(url, "blob:") {
		return "", ErrBlobURL
	}

	tmp, err := os.CreateTemp(g.paths.TempDir(), "preview-*.jpg")
	if err != nil {
		g.log.Error("create preview temp file", logging.Err(err))
		return "", ErrPreviewFailed
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			g.log.Warn("remove preview temp file",
				logging.String("path", tmpPath),
				logging.Err(rmErr))
		}
	}()

	res, err := g.runner.Run(ctx, g.paths.FFmpeg(), previewArgs(url, tmpPath, previewOffsetSec, previewWidth))
	if err != nil {
		g.log.Error("preview extraction failed",
			logging.String("url", url),
			logging.Err(err),
			logging.String("stderr", string(res.Stderr)))
		return "", ErrPreviewFailed
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil || len(data) == 0 {
		g.log.Error("read preview frame", logging.String("path", tmpPath), logging.Err(err))
		return "", ErrPreviewFailed
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
