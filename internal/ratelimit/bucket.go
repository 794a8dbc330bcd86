package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a per-identifier token bucket used as a coarse global
// throttle in front of every route. Buckets idle for longer than the idle TTL
// are dropped by Cleanup.
type TokenBucket struct {
	mu      sync.Mutex
	entries map[string]*bucketEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	clock   func() time.Time
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// BucketOption configures a TokenBucket.
type BucketOption func(*TokenBucket)

// WithBucketIdleTTL sets how long an unused bucket survives (default 15m).
func WithBucketIdleTTL(d time.Duration) BucketOption {
	return func(b *TokenBucket) { b.idleTTL = d }
}

// WithBucketClock replaces the wall clock.
func WithBucketClock(clock func() time.Time) BucketOption {
	return func(b *TokenBucket) { b.clock = clock }
}

// NewTokenBucket returns a throttle refilling rps tokens per second up to burst.
func NewTokenBucket(rps float64, burst int, opts ...BucketOption) *TokenBucket {
	b := &TokenBucket{
		entries: make(map[string]*bucketEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RPS returns the refill rate.
func (b *TokenBucket) RPS() float64 { return float64(b.rps) }

// Burst returns the bucket capacity.
func (b *TokenBucket) Burst() int { return b.burst }

// Allow takes one token for the identifier.
func (b *TokenBucket) Allow(identifier string) Decision {
	now := b.now()
	lim := b.limiter(identifier, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return deny(b.burst, time.Second, now)
	}

	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
		return deny(b.burst, delay, now)
	}

	remaining := int(math.Floor(lim.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Limit:     b.burst,
		Remaining: remaining,
		ResetAt:   now,
	}
}

var _ Limiter = (*TokenBucket)(nil)

// CheckAndRecord takes a token for the identifier. The limit and window
// arguments are ignored; bucket parameters are fixed at construction.
func (b *TokenBucket) CheckAndRecord(_ context.Context, identifier string, _ int, _ time.Duration) (Decision, error) {
	return b.Allow(identifier), nil
}

// Len returns the number of live buckets.
func (b *TokenBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Cleanup drops buckets idle past the TTL and returns how many were removed.
func (b *TokenBucket) Cleanup() int {
	if b.idleTTL <= 0 {
		return 0
	}
	cutoff := b.now().Add(-b.idleTTL)

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for k, ent := range b.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(b.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (b *TokenBucket) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
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
				b.Cleanup()
			}
		}
	}()
}

func (b *TokenBucket) limiter(identifier string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ent, ok := b.entries[identifier]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(b.rps, b.burst)
	b.entries[identifier] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

func (b *TokenBucket) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now()
}
