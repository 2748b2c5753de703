// Package ratelimit implements a per-sender message counter with TTL
// semantics: the counter is created with a lifetime of one period and
// every write extends it, so an idle sender resets after the period
// elapses since their last message.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count     int
	expiresAt time.Time
}

// Limiter counts messages per sender over a rolling window.
type Limiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[int64]*entry
	sweepAt time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter allowing limit messages per period.
func New(limit int, period time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = 20
	}
	if period <= 0 {
		period = 60 * time.Second
	}
	l := &Limiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		entries: make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.sweepAt = l.now().Add(period)
	return l
}

// Allow registers one message from the sender and reports whether it is
// within the limit. The post-increment count is compared, so the call
// that crosses the limit is the first rejected one.
func (l *Limiter) Allow(senderID int64) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	e, ok := l.entries[senderID]
	if !ok || now.After(e.expiresAt) {
		e = &entry{}
		l.entries[senderID] = e
	}
	e.count++
	e.expiresAt = now.Add(l.period)

	return e.count <= l.limit
}

// Period returns the configured window, used for throttle notices.
func (l *Limiter) Period() time.Duration { return l.period }

// sweep drops expired entries at most once per period to bound memory.
func (l *Limiter) sweep(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	for id, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, id)
		}
	}
	l.sweepAt = now.Add(l.period)
}
