// Package ports defines the interfaces (ports) that connect the host's
// application layer to infrastructure adapters.
//
// Handlers receive their capabilities through these interfaces instead of
// reaching for process-wide state:
//
//   - [Runner]: launches and supervises external tool processes
//   - [Sink]: pushes outbound protocol messages toward the peer
//   - [PathResolver]: resolves tool binaries and output directories
//
// The application layer (internal/host, internal/media) depends only on
// these interfaces; concrete implementations live in internal/adapters and
// internal/cliconfig. Tests substitute in-memory stubs.
package ports
