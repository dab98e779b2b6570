package media

import "errors"

// User-facing errors. Their text is sent verbatim to the peer, so the
// wording is part of the protocol; diagnostic detail stays in the logs.
var (
	// ErrBlobURL rejects ephemeral in-browser object references, which
	// name nothing fetchable outside the page that created them.
	ErrBlobURL = errors.New("Cannot analyze blob URLs")

	// ErrAnalyzeFailed is the generic probe failure.
	ErrAnalyzeFailed = errors.New("Failed to analyze video")

	// ErrPreviewFailed is the generic preview-extraction failure.
	ErrPreviewFailed = errors.New("Failed to generate preview")
)
