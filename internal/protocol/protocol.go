// Package protocol defines the JSON message shapes exchanged with the
// extension peer over the framed stdio channel.
package protocol

// Operation names carried in a request's "type" field.
const (
	OpDownload        = "download"
	OpGetQualities    = "getQualities"
	OpGeneratePreview = "generatePreview"
)

// TypeProgress marks an outbound message as a progress update.
const TypeProgress = "progress"

// Request is one decoded command from the peer. The Type field names the
// operation; the remaining fields are operation-specific and immutable once
// parsed.
type Request struct {
	Type string `json:"type"`

	// URL is the media source. Required by every operation.
	URL string `json:"url"`

	// Filename is the requested output name for a download.
	Filename string `json:"filename,omitempty"`

	// SavePath overrides the configured save directory for a download.
	SavePath string `json:"savePath,omitempty"`

	// Quality is the peer's quality hint for a download.
	Quality string `json:"quality,omitempty"`

	// Headers are HTTP headers forwarded to the external tools.
	Headers map[string]string `json:"headers,omitempty"`

	// MediaType distinguishes adaptive-streaming flavors for getQualities
	// (e.g. "hls", "dash").
	MediaType string `json:"mediaType,omitempty"`

	// RepresentationID selects one representation inside a DASH manifest.
	RepresentationID string `json:"representationId,omitempty"`
}

// ProgressEvent reports download progress. Subject to rate limiting; the
// peer must tolerate dropped intermediate updates.
type ProgressEvent struct {
	Type          string  `json:"type"` // always "progress"
	Progress      float64 `json:"progress"`
	Speed         string  `json:"speed"`
	Downloaded    int64   `json:"downloaded"`
	CurrentTime   float64 `json:"currentTime,omitempty"`
	TotalDuration float64 `json:"totalDuration,omitempty"`
}

// SuccessResponse carries a terminal success. Exactly one of Path or
// StreamInfo is set, depending on the operation.
type SuccessResponse struct {
	Success    bool        `json:"success"`
	Path       string      `json:"path,omitempty"`
	StreamInfo *StreamInfo `json:"streamInfo,omitempty"`
}

// PreviewResponse carries an extracted still frame as a data URL.
type PreviewResponse struct {
	PreviewURL string `json:"previewUrl"`
}

// ErrorResponse is the single error shape. The peer infers failure from the
// presence of the error field.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewProgress creates a progress event.
func NewProgress(percent float64, speed string, downloaded int64, currentTime, totalDuration float64) *ProgressEvent {
	return &ProgressEvent{
		Type:          TypeProgress,
		Progress:      percent,
		Speed:         speed,
		Downloaded:    downloaded,
		CurrentTime:   currentTime,
		TotalDuration: totalDuration,
	}
}

// NewSuccessPath creates a success response carrying an output path.
func NewSuccessPath(path string) *SuccessResponse {
	return &SuccessResponse{Success: true, Path: path}
}

// NewSuccessStreamInfo creates a success response carrying probe results.
func NewSuccessStreamInfo(info *StreamInfo) *SuccessResponse {
	return &SuccessResponse{Success: true, StreamInfo: info}
}

// NewPreview creates a preview response.
func NewPreview(dataURL string) *PreviewResponse {
	return &PreviewResponse{PreviewURL: dataURL}
}

// NewError creates an error response.
func NewError(msg string) *ErrorResponse {
	return &ErrorResponse{Error: msg}
}

// IsProgress reports whether msg is a throttleable progress update.
func IsProgress(msg any) bool {
	_, ok := msg.(*ProgressEvent)
	return ok
}
