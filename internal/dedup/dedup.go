// Package dedup suppresses re-delivery of identical requests arriving
// within a short window, guarding against transport-level retries by the
// peer without collapsing genuinely separate requests issued further apart.
package dedup

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is how long an admitted request's key stays held.
const DefaultWindow = time.Second

// Deduplicator decides admit/drop for freshly framed requests. Keys are
// evicted automatically after the window so that a legitimately repeated
// request is admitted again later.
type Deduplicator struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Deduplicator with the given eviction window. A
// non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Deduplicator{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Key derives the deduplication key for a raw request payload: the decoded
// value re-serialized in a stable form, so field order on the wire does not
// affect equality.
func Key(payload []byte) (string, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", fmt.Errorf("dedup key: %w", err)
	}
	// encoding/json writes map keys in sorted order, giving a canonical
	// serialization of the decoded value.
	canon, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("dedup key: %w", err)
	}
	return string(canon), nil
}

// Admit records key and returns true, unless the same key was admitted less
// than one window ago, in which case it returns false. A drop is intentional
// suppression: the caller must not send any response for it.
func (d *Deduplicator) Admit(key string) bool {
	now := d.now()

	d.mu.Lock()
	if at, held := d.seen[key]; held && now.Sub(at) < d.window {
		d.mu.Unlock()
		return false
	}
	d.seen[key] = now
	d.mu.Unlock()

	time.AfterFunc(d.window, func() { d.evict(key, now) })
	return true
}

// evict removes key if it has not been re-admitted since.
func (d *Deduplicator) evict(key string, admittedAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if at, held := d.seen[key]; held && at.Equal(admittedAt) {
		delete(d.seen, key)
	}
}
