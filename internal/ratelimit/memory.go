package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often the map is purged of accounts whose window
// has already closed. Without a sweep the map would grow with every
// account that ever generated.
const sweepEvery = 60

type accountWindow struct {
	second int64
	calls  int
}

// MemoryLimiter counts generation calls per account in a fixed one-second
// window, in process memory. It is the default backend; a single replica
// needs nothing more.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]accountWindow
	sweptAt int64
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]accountWindow)}
}

// Allow counts one generation call for the account key against limit in
// the second containing now. A non-positive limit or empty key means the
// caller is not metered.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	second := now.Unix()
	reset := time.Unix(second+1, 0).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(second)

	window := l.windows[key]
	if window.second != second {
		window = accountWindow{second: second}
	}
	if window.calls >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	window.calls++
	l.windows[key] = window
	return Result{Allowed: true, Remaining: limit - window.calls, Reset: reset}, nil
}

func (l *MemoryLimiter) sweepLocked(second int64) {
	if second-l.sweptAt < sweepEvery {
		return
	}
	l.sweptAt = second
	for key, window := range l.windows {
		if window.second != second {
			delete(l.windows, key)
		}
	}
}
