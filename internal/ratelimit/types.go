// Package ratelimit enforces the per-account request cap on the generation
// endpoints: a fixed one-second window, counted in memory by default and in
// Redis when the deployment runs more than one replica.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}
