// Package framing implements the length-prefixed binary framing used on the
// stdio channel: a 4-byte little-endian length followed by exactly that many
// bytes of UTF-8 JSON, symmetric for both directions.
package framing

import (
	"encoding/binary"
	"fmt"
)

// headerSize is the byte length of the little-endian length prefix.
const headerSize = 4

// MaxFrameSize caps a single frame's payload to protect against a corrupt
// or hostile length prefix forcing an unbounded allocation.
const MaxFrameSize = 64 << 20 // 64MB

// ErrFrameTooLarge is returned when a length prefix exceeds MaxFrameSize.
// The channel cannot be resynchronized after this; the caller should stop
// reading.
type ErrFrameTooLarge struct {
	Length uint32
}

func (e *ErrFrameTooLarge) Error() string {
	return fmt.Sprintf("frame length %d exceeds maximum %d", e.Length, MaxFrameSize)
}

// Decoder assembles complete frames out of an arbitrarily-chunked byte
// stream. It owns its buffer exclusively; partial frames stay buffered until
// their declared length has fully arrived.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk and returns the payloads of every frame completed by
// it, in arrival order. Each payload is an independent copy; the caller may
// retain it. Content decoding is the caller's concern: a payload that turns
// out to be malformed JSON has no effect on subsequent framing.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	d.buf = append(d.buf, chunk...)

	var frames [][]byte
	for {
		if len(d.buf) < headerSize {
			break
		}
		length := binary.LittleEndian.Uint32(d.buf[:headerSize])
		if length > MaxFrameSize {
			return frames, &ErrFrameTooLarge{Length: length}
		}
		total := headerSize + int(length)
		if len(d.buf) < total {
			break
		}
		payload := make([]byte, length)
		copy(payload, d.buf[headerSize:total])
		d.buf = d.buf[total:]
		frames = append(frames, payload)
	}
	return frames, nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
