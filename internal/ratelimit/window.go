package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is an in-memory sliding-window log keyed by client identifier.
//
// The identifier map is guarded by one mutex; each identifier's timestamp
// sequence has its own mutex, so prune, count and append run as one unit per
// identifier without serializing unrelated clients.
type Window struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	clock   func() time.Time
	idleTTL time.Duration
}

type windowEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
	lastSeen   time.Time
	// window is the span of the most recent check; eviction waits for it.
	window  time.Duration
	evicted bool
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock func() time.Time) WindowOption {
	return func(w *Window) { w.clock = clock }
}

// WithIdleTTL enables eviction of identifiers that have not been seen for d.
// Without it identifiers are never removed, only their sequences shrink.
func WithIdleTTL(d time.Duration) WindowOption {
	return func(w *Window) { w.idleTTL = d }
}

// NewWindow returns an empty sliding-window limiter.
func NewWindow(opts ...WindowOption) *Window {
	w := &Window{entries: make(map[string]*windowEntry)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ Limiter = (*Window)(nil)

// CheckAndRecord prunes timestamps at or beyond the window, denies when the
// live count is at the limit, and otherwise records now and allows.
func (w *Window) CheckAndRecord(ctx context.Context, identifier string, limit int, window time.Duration) (Decision, error) {
	now := w.now()

	if window <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now}, nil
	}
	if limit <= 0 {
		return deny(limit, window, now), nil
	}

	entry := w.lockedEntry(identifier, now)
	defer entry.mu.Unlock()

	entry.lastSeen = now
	entry.window = window

	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if now.Sub(ts) < window {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(valid) >= limit {
		return deny(limit, valid[0].Add(window).Sub(now), now), nil
	}

	entry.timestamps = append(entry.timestamps, now)
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(entry.timestamps),
		ResetAt:   entry.timestamps[0].Add(window),
	}, nil
}

// Len returns the number of tracked identifiers.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Count returns the number of timestamps currently stored for an identifier,
// without pruning.
func (w *Window) Count(identifier string) int {
	w.mu.Lock()
	entry, ok := w.entries[identifier]
	w.mu.Unlock()
	if !ok {
		return 0
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return len(entry.timestamps)
}

// Cleanup removes identifiers idle for longer than the idle TTL whose newest
// timestamp has also left the window, so eviction never frees live quota.
// It returns the number of evicted identifiers.
func (w *Window) Cleanup() int {
	if w.idleTTL <= 0 {
		return 0
	}
	now := w.now()
	cutoff := now.Add(-w.idleTTL)

	w.mu.Lock()
	defer w.mu.Unlock()

	evicted := 0
	for key, entry := range w.entries {
		entry.mu.Lock()
		if entry.lastSeen.Before(cutoff) && entry.expired(now) {
			entry.evicted = true
			delete(w.entries, key)
			evicted++
		}
		entry.mu.Unlock()
	}
	return evicted
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (w *Window) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 || w.idleTTL <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				w.Cleanup()
			}
		}
	}()
}

// expired reports whether every recorded timestamp is outside the window.
// The caller holds e.mu.
func (e *windowEntry) expired(now time.Time) bool {
	n := len(e.timestamps)
	if n == 0 {
		return true
	}
	return now.Sub(e.timestamps[n-1]) >= e.window
}

// lockedEntry returns the identifier's entry with its mutex held. An entry
// evicted between lookup and lock is discarded and looked up again.
func (w *Window) lockedEntry(identifier string, now time.Time) *windowEntry {
	for {
		entry := w.entry(identifier, now)
		entry.mu.Lock()
		if !entry.evicted {
			return entry
		}
		entry.mu.Unlock()
	}
}

func (w *Window) entry(identifier string, now time.Time) *windowEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.entries[identifier]
	if !ok {
		entry = &windowEntry{lastSeen: now}
		w.entries[identifier] = entry
	}
	return entry
}

func (w *Window) now() time.Time {
	if w.clock != nil {
		return w.clock()
	}
	return time.Now()
}
