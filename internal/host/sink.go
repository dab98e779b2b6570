package host

import (
	"github.com/Suwot/max-video-downloader-sub006/internal/framing"
	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
)

// WriterSink marshals outbound messages onto a frame writer. The writer
// serializes concurrent senders, so a single WriterSink can be shared by
// every request goroutine.
type WriterSink struct {
	w *framing.Writer
}

// NewWriterSink wraps a frame writer as a message sink.
func NewWriterSink(w *framing.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send frames and writes one JSON message.
func (s *WriterSink) Send(msg any) error {
	return s.w.WriteJSON(msg)
}

var _ ports.Sink = (*WriterSink)(nil)
