// Package ratelimit throttles callers of expensive routes by key.
package ratelimit

import "context"

// Limiter decides whether the caller identified by key may proceed.
// A rejection is reported as a TooManyRequests error.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Noop never rejects.
type Noop struct{}

func (Noop) Allow(ctx context.Context, key string) error { return nil }
