// Package dispatch maps a request's declared operation to a handler and
// invokes it. Handler failures, including panics, never escape the
// dispatcher boundary; they come back as ordinary errors for the caller to
// turn into an error response.
package dispatch

import (
	"context"
	"fmt"

	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
)

// Handler executes one operation. It is invoked at most once per request,
// with no implicit retry. The returned value is the terminal response
// message for the request; intermediate messages (progress) go through the
// sink the handler was constructed with.
type Handler interface {
	Execute(ctx context.Context, req protocol.Request) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req protocol.Request) (any, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, req protocol.Request) (any, error) {
	return f(ctx, req)
}

// Registry owns the operation-name to handler mapping for the lifetime of
// the process. It is populated once at startup and read-only thereafter,
// but registration is still guarded so tests can rebuild it freely.
type Registry struct {
	handlers map[string]Handler
	log      logging.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		log:      log,
	}
}

// Register stores h under name. A later registration for the same name
// overwrites the earlier one.
func (r *Registry) Register(name string, h Handler) {
	if _, exists := r.handlers[name]; exists {
		r.log.Warn("overwriting handler registration", logging.String("operation", name))
	}
	r.handlers[name] = h
}

// Dispatch resolves the handler for req's operation and invokes it. An
// unrecognized operation, a handler error, or a handler panic all surface
// as a returned error; Dispatch itself never panics.
func (r *Registry) Dispatch(ctx context.Context, req protocol.Request) (result any, err error) {
	h, ok := r.handlers[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", req.Type)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic",
				logging.String("operation", req.Type),
				logging.Any("panic", rec))
			result = nil
			err = fmt.Errorf("internal error in %s", req.Type)
		}
	}()

	return h.Execute(ctx, req)
}
