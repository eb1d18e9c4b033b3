// Package ratelimit throttles hold creation with a sliding window of
// accepted calls per caller key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/cinema-parking-reservation/internal/clock"
)

// Limiter decides whether the caller identified by key may proceed.  When
// the returned error is non-nil the boolean is the fallback decision the
// implementation recommends; callers may log the error and honour it.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// HoldKey builds the limiter key for hold creation by a user.
func HoldKey(userID uint64) string {
	return formatUint(userID) + "-hold"
}

const sweepEvery = 1024

// SlidingWindow is a process-local limiter: at most limit accepted calls per
// rolling window for each key.  It keeps the timestamps of accepted calls
// only, so rejected calls never extend a caller's penalty.  State is not
// shared between processes; use RedisSlidingWindow for that.
type SlidingWindow struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	mu    sync.Mutex
	hits  map[string][]time.Time
	calls int
}

// NewSlidingWindow returns a limiter admitting limit calls per window.
func NewSlidingWindow(limit int, window time.Duration, clk clock.Clock) *SlidingWindow {
	if limit < 1 {
		limit = 1
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		clock:  clk,
		hits:   make(map[string][]time.Time),
	}
}

// Allow never returns an error.
func (s *SlidingWindow) Allow(_ context.Context, key string) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls%sweepEvery == 0 {
		s.sweepLocked(now)
	}

	live := s.prune(s.hits[key], now)
	if len(live) >= s.limit {
		s.hits[key] = live
		return false, nil
	}
	s.hits[key] = append(live, now)
	return true, nil
}

// Keys reports how many callers currently have state.
func (s *SlidingWindow) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// Sweep drops callers whose every recorded call has left the window.
func (s *SlidingWindow) Sweep() {
	now := s.clock.Now()
	s.mu.Lock()
	s.sweepLocked(now)
	s.mu.Unlock()
}

func (s *SlidingWindow) sweepLocked(now time.Time) {
	for k, ts := range s.hits {
		if live := s.prune(ts, now); len(live) == 0 {
			delete(s.hits, k)
		} else {
			s.hits[k] = live
		}
	}
}

// prune drops timestamps at least one window old.  ts is ordered, so the
// live entries are a suffix.
func (s *SlidingWindow) prune(ts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
