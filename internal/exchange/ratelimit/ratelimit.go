// Package ratelimit implements a continuously-refilling token bucket,
// shared by every venue's REST client so each can throttle itself to its
// published request budget. Adapted from the teacher repository's
// per-endpoint-category token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token-bucket rate limiter with continuous (not windowed)
// refill. Callers block in Wait until a token is available or ctx ends.
type Bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	lastTime time.Time
}

// New returns a bucket with the given burst capacity and steady refill rate.
func New(capacity, ratePerSecond float64) *Bucket {
	return &Bucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     ratePerSecond,
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		b.tokens += now.Sub(b.lastTime).Seconds() * b.rate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastTime = now

		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}

		wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
