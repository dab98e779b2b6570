// Package throttle rate-limits outbound progress updates. It is lossy by
// design: an update arriving inside the minimum interval is dropped, never
// queued or coalesced. Terminal messages (errors, success, previews) pass
// unconditionally, since losing one would strand the peer.
package throttle

import (
	"sync"
	"time"

	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
	"github.com/Suwot/max-video-downloader-sub006/internal/protocol"
)

// DefaultInterval is the minimum spacing between sent progress updates.
const DefaultInterval = 250 * time.Millisecond

// Sink wraps another sink with progress rate limiting. The gate is
// process-wide: progress from concurrent jobs competes for the same budget.
// Keying the timestamp per job would give inter-job fairness, but the
// observed channel behaves as a single gate, so that is what this is.
type Sink struct {
	next     ports.Sink
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewSink wraps next with a minimum interval between progress sends. A
// non-positive interval falls back to DefaultInterval.
func NewSink(next ports.Sink, interval time.Duration) *Sink {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sink{
		next:     next,
		interval: interval,
		now:      time.Now,
	}
}

// Send forwards msg unless it is a sub-terminal progress update arriving
// inside the minimum interval. The 100% progress event precedes a success
// and is treated as terminal, so it always passes.
func (s *Sink) Send(msg any) error {
	if p, ok := msg.(*protocol.ProgressEvent); ok && p.Progress < 100 {
		now := s.now()
		s.mu.Lock()
		if !s.last.IsZero() && now.Sub(s.last) < s.interval {
			s.mu.Unlock()
			return nil
		}
		s.last = now
		s.mu.Unlock()
	}
	return s.next.Send(msg)
}
