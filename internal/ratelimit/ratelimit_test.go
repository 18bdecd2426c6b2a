package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/5399ai/backend/internal/config"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		result, errAllow := limiter.Allow(ctx, "u:a", 2, now)
		if errAllow != nil || !result.Allowed {
			t.Fatalf("request %d should pass: %+v err=%v", i, result, errAllow)
		}
	}
	result, errAllow := limiter.Allow(ctx, "u:a", 2, now)
	if errAllow != nil || result.Allowed {
		t.Fatalf("third request in the window must be refused: %+v err=%v", result, errAllow)
	}
	if !result.Reset.Equal(time.Unix(now.Unix()+1, 0).UTC()) {
		t.Fatalf("reset must point at the next second, got %v", result.Reset)
	}

	// Next second opens a fresh window.
	result, errAllow = limiter.Allow(ctx, "u:a", 2, now.Add(time.Second))
	if errAllow != nil || !result.Allowed {
		t.Fatalf("next window must pass: %+v err=%v", result, errAllow)
	}
}

func TestMemoryLimiterSweepsStaleWindows(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		key := KeyForUser(string(rune('a' + i)))
		if _, errAllow := limiter.Allow(ctx, key, 5, now); errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
	}
	// Far enough in the future that every earlier window is stale.
	if _, errAllow := limiter.Allow(ctx, "u:z", 5, now.Add(2*sweepEvery*time.Second)); errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}

	limiter.mu.Lock()
	size := len(limiter.windows)
	limiter.mu.Unlock()
	if size != 1 {
		t.Fatalf("stale windows must be swept, %d entries remain", size)
	}
}

func TestRedisLimiterDefaultPrefix(t *testing.T) {
	limiter := NewRedisLimiter(nil, "  ")
	if limiter.prefix != defaultKeyPrefix {
		t.Fatalf("empty prefix must fall back to the default namespace, got %q", limiter.prefix)
	}
	if custom := NewRedisLimiter(nil, "outra"); custom.prefix != "outra" {
		t.Fatalf("configured prefix must win, got %q", custom.prefix)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Now()

	if result, _ := limiter.Allow(ctx, "u:a", 1, now); !result.Allowed {
		t.Fatal("first key blocked")
	}
	if result, _ := limiter.Allow(ctx, "u:b", 1, now); !result.Allowed {
		t.Fatal("a second key must not share the first key's window")
	}
}

func TestKeyForUser(t *testing.T) {
	if got := KeyForUser("2025-03-10T09:00:00Z"); got != "u:2025-03-10T09:00:00Z" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := KeyForUser("  "); got != "" {
		t.Fatalf("anonymous callers must map to the empty key, got %q", got)
	}
}

func TestManagerMemoryPath(t *testing.T) {
	provider := func() config.RateLimit { return config.RateLimit{PerSecond: 1} }
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	manager := NewManager(provider, func() time.Time { return now }, nil)

	result, errAllow := manager.Allow(context.Background(), "u:a")
	if errAllow != nil || !result.Allowed {
		t.Fatalf("first request should pass: %+v err=%v", result, errAllow)
	}
	result, errAllow = manager.Allow(context.Background(), "u:a")
	if errAllow != nil || result.Allowed {
		t.Fatalf("second request in the window must be refused: %+v err=%v", result, errAllow)
	}
}

func TestManagerUnlimitedWhenDisabled(t *testing.T) {
	provider := func() config.RateLimit { return config.RateLimit{PerSecond: 0} }
	manager := NewManager(provider, nil, nil)
	for i := 0; i < 5; i++ {
		result, errAllow := manager.Allow(context.Background(), "u:a")
		if errAllow != nil || !result.Allowed {
			t.Fatalf("disabled limiter must always allow: %+v err=%v", result, errAllow)
		}
	}
	if result, _ := manager.Allow(context.Background(), ""); !result.Allowed {
		t.Fatal("empty key must always allow")
	}
}
