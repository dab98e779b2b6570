// Package host runs the messaging loop: it assembles frames from stdin,
// filters duplicate requests, dispatches each admitted request to its
// handler, and pushes every outbound message through the shared sink.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/Suwot/max-video-downloader-sub006/internal/dedup"
	"github.com/Suwot/max-video-downloader-sub006/internal/dispatch"
	"github.com/Suwot/max-video-downloader-sub006/internal/framing"
	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
)

// readBufSize is the stdin read chunk size. Chunk boundaries are arbitrary;
// the frame decoder handles any split.
const readBufSize = 4096

// Host owns one stdio channel to one peer for the life of the process.
type Host struct {
	in       io.Reader
	sink     ports.Sink
	registry *dispatch.Registry
	dedup    *dedup.Deduplicator
	log      logging.Logger

	wg sync.WaitGroup
}

// New creates a Host. sink is shared by every concurrent request and must
// already wrap the frame writer (and the progress throttle).
func New(in io.Reader, sink ports.Sink, registry *dispatch.Registry, dd *dedup.Deduplicator, log logging.Logger) *Host {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &Host{
		in:       in,
		sink:     sink,
		registry: registry,
		dedup:    dd,
		log:      log,
	}
}

// Run reads the input stream until EOF (the peer closing the pipe is the
// normal shutdown signal for a spawned helper) and waits for in-flight
// requests to finish. Frames are processed in the order their prefixes
// complete; handlers run concurrently.
func (h *Host) Run(ctx context.Context) error {
	decoder := framing.NewDecoder()
	buf := make([]byte, readBufSize)

	for {
		n, readErr := h.in.Read(buf)
		if n > 0 {
			frames, err := decoder.Feed(buf[:n])
			for _, payload := range frames {
				h.handleFrame(ctx, payload)
			}
			if err != nil {
				// A corrupt length prefix cannot be resynchronized.
				h.log.Error("framing broken", logging.Err(err))
				h.wg.Wait()
				return fmt.Errorf("input stream: %w", err)
			}
		}
		if readErr == io.EOF {
			h.log.Info("input closed, draining")
			h.wg.Wait()
			return nil
		}
		if readErr != nil {
			h.wg.Wait()
			return fmt.Errorf("read input: %w", readErr)
		}
	}
}

// handleFrame decodes one framed payload, applies duplicate suppression
// and hands the request to a worker goroutine.
func (h *Host) handleFrame(ctx context.Context, payload []byte) {
	var req protocol.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		h.log.Warn("undecodable request", logging.Err(err))
		h.send(protocol.NewError("Invalid message"))
		return
	}

	key, err := dedup.Key(payload)
	if err != nil {
		key = string(payload)
	}
	if !h.dedup.Admit(key) {
		// Intentional suppression of a transport-level redelivery; the
		// admitted copy already owns the response.
		h.log.Debug("duplicate request suppressed", logging.String("operation", req.Type))
		return
	}

	reqID := uuid.NewString()
	h.log.Info("request admitted",
		logging.String("request", reqID),
		logging.String("operation", req.Type))

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error("request crashed",
					logging.String("request", reqID),
					logging.Any("panic", rec))
				h.send(protocol.NewError("Internal error"))
			}
		}()

		result, err := h.registry.Dispatch(ctx, req)
		if err != nil {
			h.log.Warn("request failed",
				logging.String("request", reqID),
				logging.Err(err))
			h.send(protocol.NewError(err.Error()))
			return
		}
		if result != nil {
			h.send(result)
		}
		h.log.Info("request done", logging.String("request", reqID))
	}()
}

func (h *Host) send(msg any) {
	if err := h.sink.Send(msg); err != nil {
		h.log.Error("send response", logging.Err(err))
	}
}
