package media

import (
	"regexp"
	"strconv"
)

// ffmpeg reports progress on stderr as lines like:
//
//	size=    2048kB time=00:01:23.45 bitrate= 201.3kbits/s speed=1.98x
//
// The parser is deliberately separated from process handling so it can be
// unit-tested against captured tool output.
var (
	timeRe = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	sizeRe = regexp.MustCompile(`size=\s*(\d+)(kB|KiB|B)`)
)

// progressSample is one observation scraped from a diagnostic chunk.
type progressSample struct {
	// elapsed is the latest reported media time, in seconds.
	elapsed float64

	// bytes is the cumulative output size reported so far.
	bytes int64
}

// parseProgress scrapes the most recent elapsed time and cumulative byte
// count from one chunk of diagnostic text. It returns ok=false when the
// chunk carries no time report (headers, codec banners, muxer chatter).
func parseProgress(chunk string) (progressSample, bool) {
	var s progressSample

	tm := timeRe.FindAllStringSubmatch(chunk, -1)
	if len(tm) == 0 {
		return s, false
	}
	last := tm[len(tm)-1]
	hours, _ := strconv.ParseFloat(last[1], 64)
	mins, _ := strconv.ParseFloat(last[2], 64)
	secs, _ := strconv.ParseFloat(last[3], 64)
	s.elapsed = hours*3600 + mins*60 + secs

	if sm := sizeRe.FindAllStringSubmatch(chunk, -1); len(sm) > 0 {
		lastSize := sm[len(sm)-1]
		n, err := strconv.ParseInt(lastSize[1], 10, 64)
		if err == nil {
			switch lastSize[2] {
			case "B":
				s.bytes = n
			default: // kB or KiB, both reported base-1024 by ffmpeg
				s.bytes = n * 1024
			}
		}
	}

	return s, true
}
