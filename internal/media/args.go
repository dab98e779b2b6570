// Package media drives the external ffmpeg/ffprobe tools: downloading by
// stream copy, probing stream metadata and extracting preview frames.
package media

import (
	"fmt"
	"sort"
	"strings"
)

// hlsProtocols is the explicit protocol allow-list passed to ffmpeg for
// adaptive-streaming sources, which reference segments across protocols.
const hlsProtocols = "file,http,https,tcp,tls,crypto"

// headerLines formats HTTP headers the way the tools expect: CRLF-joined
// "Key: Value" lines. Keys are sorted so identical header sets always
// produce identical argv.
func headerLines(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(headers[k])
		sb.WriteString("\r\n")
	}
	return sb.String()
}

// isAdaptiveSource reports whether url names an HLS or DASH manifest.
func isAdaptiveSource(url string) bool {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(trimmed, ".m3u8") || strings.HasSuffix(trimmed, ".mpd")
}

// downloadArgs builds the ffmpeg argv for one download: copy the source
// streams into the destination container without re-encoding, fix AAC ADTS
// bitstreams for MP4, and place the moov atom up front for streaming
// playback.
func downloadArgs(src, dst string, headers map[string]string) []string {
	args := []string{"-hide_banner", "-loglevel", "info", "-stats"}
	if isAdaptiveSource(src) {
		args = append(args, "-protocol_whitelist", hlsProtocols)
	}
	if h := headerLines(headers); h != "" {
		args = append(args, "-headers", h)
	}
	args = append(args,
		"-i", src,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "+faststart",
		"-y",
		dst,
	)
	return args
}

// probeArgs builds the ffprobe argv for a full quiet JSON inspection.
func probeArgs(url string, headers map[string]string) []string {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
	}
	if h := headerLines(headers); h != "" {
		args = append(args, "-headers", h)
	}
	return append(args, url)
}

// durationArgs builds the ffprobe argv for a read-only duration lookup.
func durationArgs(url string, headers map[string]string) []string {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
	}
	if h := headerLines(headers); h != "" {
		args = append(args, "-headers", h)
	}
	return append(args, url)
}

// previewArgs builds the ffmpeg argv extracting a single frame: seek a
// short fixed offset in, take one frame, scale to a small width preserving
// aspect ratio, write a JPEG.
func previewArgs(url, out string, offsetSec float64, width int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.2f", offsetSec),
		"-i", url,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		"-q:v", "3",
		"-y",
		out,
	}
}
