package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// evict drops timestamps at or before cutoff. Caller holds w.mu.
func (w *window) evict(cutoff time.Time) {
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// MemoryStore keeps windows in process memory
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

// lock returns the window for key with its mutex held. The store lock is
// taken first so Sweep never drops a window that is being recorded into.
func (s *MemoryStore) lock(key string) *window {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &window{}
		s.windows[key] = w
	}
	w.mu.Lock()
	return w
}

// Allow implements Store
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, length time.Duration, now time.Time) (Result, error) {
	w := s.lock(key)
	defer w.mu.Unlock()

	w.evict(now.Add(-length))

	res := Result{Limit: limit}
	if len(w.stamps) < limit {
		w.stamps = append(w.stamps, now)
		res.Allowed = true
		res.Remaining = limit - len(w.stamps)
		res.Reset = w.stamps[0].Add(length)
		return res, nil
	}

	res.Reset = w.stamps[0].Add(length)
	res.RetryAfter = res.Reset.Sub(now)
	return res, nil
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep forgets keys whose newest request is older than maxAge. It returns
// the number of keys removed.
func (s *MemoryStore) Sweep(now time.Time, maxAge time.Duration) int {
	cutoff := now.Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		w.mu.Lock()
		stale := len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff)
		w.mu.Unlock()
		if stale {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done. maxAge should be
// at least the longest window using this store.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval, maxAge time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed := s.Sweep(now, maxAge)
				if onSweep != nil {
					onSweep(removed)
				}
			}
		}
	}()
}
