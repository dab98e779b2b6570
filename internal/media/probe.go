package media

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
)

// ffprobe's JSON output. Numeric values arrive as strings.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	Index            int               `json:"index"`
	CodecName        string            `json:"codec_name"`
	CodecType        string            `json:"codec_type"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	RFrameRate       string            `json:"r_frame_rate"`
	AvgFrameRate     string            `json:"avg_frame_rate"`
	BitsPerRawSample string            `json:"bits_per_raw_sample"`
	SampleRate       string            `json:"sample_rate"`
	ChannelLayout    string            `json:"channel_layout"`
	BitRate          string            `json:"bit_rate"`
	Tags             map[string]string `json:"tags"`
}

type ffprobeFormat struct {
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// Prober implements the getQualities operation: a read-only inspection of
// the source, normalized into a StreamInfo.
type Prober struct {
	runner ports.Runner
	paths  ports.PathResolver
	log    logging.Logger
}

// NewProber creates a Prober with its capability set.
func NewProber(runner ports.Runner, paths ports.PathResolver, log logging.Logger) *Prober {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &Prober{runner: runner, paths: paths, log: log}
}

// Execute handles a getQualities request.
func (p *Prober) Execute(ctx context.Context, req protocol.Request) (any, error) {
	info, err := p.Probe(ctx, req.URL, req.Headers)
	if err != nil {
		return nil, err
	}
	return protocol.NewSuccessStreamInfo(info), nil
}

// Probe inspects url and returns the normalized stream description. Blob
// URLs are refused before any subprocess is spawned.
func (p *Prober) Probe(ctx context.Context, url string, headers map[string]string) (*protocol.StreamInfo, error) {
	if strings.HasPrefix(url, "blob:") {
		return nil, ErrBlobURL
	}

	res, err := p.runner.Run(ctx, p.paths.FFprobe(), probeArgs(url, headers))
	if err != nil {
		p.log.Error("ffprobe failed",
			logging.String("url", url),
			logging.Err(err),
			logging.String("stderr", string(res.Stderr)))
		return nil, ErrAnalyzeFailed
	}

	var out ffprobeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		p.log.Error("ffprobe output not parseable",
			logging.String("url", url),
			logging.Err(err))
		return nil, ErrAnalyzeFailed
	}

	return normalize(&out), nil
}

// normalize extracts at most one video and one audio stream plus all
// subtitle tracks from the raw probe output.
func normalize(out *ffprobeOutput) *protocol.StreamInfo {
	info := &protocol.StreamInfo{
		FormatName:     out.Format.FormatName,
		FormatLongName: out.Format.FormatLongName,
		Duration:       parseFloatField(out.Format.Duration),
		BitRate:        parseIntField(out.Format.BitRate),
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.Video != nil {
				continue
			}
			info.Video = &protocol.VideoStreamInfo{
				Codec:     s.CodecName,
				Width:     s.Width,
				Height:    s.Height,
				FrameRate: frameRate(s.RFrameRate, s.AvgFrameRate),
				BitDepth:  int(parseIntField(s.BitsPerRawSample)),
				BitRate:   parseIntField(s.BitRate),
			}
		case "audio":
			if info.Audio != nil {
				continue
			}
			info.Audio = &protocol.AudioStreamInfo{
				Codec:         s.CodecName,
				SampleRate:    int(parseIntField(s.SampleRate)),
				ChannelLayout: s.ChannelLayout,
				BitRate:       parseIntField(s.BitRate),
			}
		case "subtitle":
			info.Subtitles = append(info.Subtitles, protocol.SubtitleTrackInfo{
				Index:    s.Index,
				Codec:    s.CodecName,
				Language: s.Tags["language"],
				Title:    s.Tags["title"],
			})
		}
	}

	if size := parseIntField(out.Format.Size); size > 0 {
		info.Size = size
	} else if info.BitRate > 0 && info.Duration > 0 {
		info.Size = int64(float64(info.BitRate) * info.Duration / 8)
		info.SizeEstimated = true
	}

	return info
}

// frameRate derives a rounded frame rate from a "num/den" rational,
// guarding against a zero denominator and falling back to the average rate
// when the real rate is absent.
func frameRate(rRate, avgRate string) float64 {
	if v := parseRational(rRate); v > 0 {
		return v
	}
	return parseRational(avgRate)
}

func parseRational(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, _ := strconv.ParseFloat(s, 64)
		return roundRate(v)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return roundRate(n / d)
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseFloatField(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseIntField(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
