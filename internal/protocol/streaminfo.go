package protocol

// StreamInfo is the normalized description of a probed media source.
// Every field except the two format names is optional; absence means
// "not determined", never zero.
type StreamInfo struct {
	FormatName     string `json:"formatName"`
	FormatLongName string `json:"formatLongName"`

	Video     *VideoStreamInfo    `json:"video,omitempty"`
	Audio     *AudioStreamInfo    `json:"audio,omitempty"`
	Subtitles []SubtitleTrackInfo `json:"subtitles,omitempty"`

	// BitRate is the aggregate container bitrate in bits per second.
	BitRate int64 `json:"bitrate,omitempty"`

	// Duration is the total duration in seconds.
	Duration float64 `json:"duration,omitempty"`

	// Size is the container byte size. When SizeEstimated is true it was
	// derived from bitrate and duration rather than read from the source.
	Size          int64 `json:"size,omitempty"`
	SizeEstimated bool  `json:"sizeEstimated,omitempty"`
}

// VideoStreamInfo describes the primary video elementary stream.
type VideoStreamInfo struct {
	Codec     string  `json:"codec,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	FrameRate float64 `json:"frameRate,omitempty"`
	BitDepth  int     `json:"bitDepth,omitempty"`
	BitRate   int64   `json:"bitrate,omitempty"`
}

// AudioStreamInfo describes the primary audio elementary stream.
type AudioStreamInfo struct {
	Codec         string `json:"codec,omitempty"`
	SampleRate    int    `json:"sampleRate,omitempty"`
	ChannelLayout string `json:"channelLayout,omitempty"`
	BitRate       int64  `json:"bitrate,omitempty"`
}

// SubtitleTrackInfo describes one subtitle track.
type SubtitleTrackInfo struct {
	Index    int    `json:"index"`
	Codec    string `json:"codec,omitempty"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
}
