package framing

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Writer encodes frames onto a shared output stream. Every frame is written
// with a single Write call under a mutex, so frames from concurrent jobs
// never interleave mid-frame.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame frames payload and writes it atomically.
func (fw *Writer) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return &ErrFrameTooLarge{Length: uint32(len(payload))}
	}
	frame := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(frame[:headerSize], uint32(len(payload)))
	copy(frame[headerSize:], payload)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteJSON marshals v and writes it as one frame.
func (fw *Writer) WriteJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame payload: %w", err)
	}
	return fw.WriteFrame(payload)
}
