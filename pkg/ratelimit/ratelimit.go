// Package ratelimit implements a sliding-window request governor.
//
// A Limiter counts requests per key inside a trailing window anchored to
// now. A request is allowed when fewer than Max requests remain in the
// window after evicting expired timestamps; rejected requests are not
// recorded.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Result is the outcome of a single check
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the oldest request in the window expires
	Reset time.Time
	// RetryAfter is only set when the request was rejected
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1 on rejection
func (r Result) RetryAfterSeconds() int {
	if r.Allowed {
		return 0
	}
	secs := int(math.Ceil(r.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Store holds the per-key windows. Implementations must serialize
// check-and-record for a single key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// Limiter applies one limit to many keys
type Limiter struct {
	name   string
	max    int
	window time.Duration
	store  Store
	now    func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithStore replaces the default in-memory store
func WithStore(store Store) Option {
	return func(l *Limiter) {
		l.store = store
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter allowing max requests per window for each key
func New(name string, max int, window time.Duration, opts ...Option) (*Limiter, error) {
	if max <= 0 {
		return nil, fmt.Errorf("ratelimit %s: max must be positive, got %d", name, max)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit %s: window must be positive, got %s", name, window)
	}

	l := &Limiter{
		name:   name,
		max:    max,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = NewMemoryStore()
	}
	return l, nil
}

// Name identifies the limiter in logs and metrics
func (l *Limiter) Name() string { return l.name }

// Max returns the configured request budget
func (l *Limiter) Max() int { return l.max }

// Window returns the configured window length
func (l *Limiter) Window() time.Duration { return l.window }

// Check evaluates and, when allowed, records one request for key
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	return l.store.Allow(ctx, l.name+":"+key, l.max, l.window, l.now())
}
