// Package ratelimit throttles requests per client key, either in process or
// shared through redis.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket is an in-memory limiter: each key holds up to capacity tokens
// and regains perMinute tokens a minute.
type TokenBucket struct {
	capacity int
	rate     int
	now      func() time.Time

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates limiter with capacity tokens and rate per minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, nil
	}

	refill := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if refill > 0 {
		if b.tokens+refill >= l.capacity {
			b.tokens = l.capacity
			b.last = now
		} else {
			// keep the unused part of the interval for the next token
			b.tokens += refill
			b.last = b.last.Add(time.Duration(refill) * time.Minute / time.Duration(l.rate))
		}
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Sweep drops buckets idle long enough to be full again.
func (l *TokenBucket) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	idle := time.Duration(float64(time.Minute) * float64(l.capacity) / float64(max(l.rate, 1)))
	removed := 0
	for key, b := range l.state {
		if now.Sub(b.last) >= idle {
			delete(l.state, key)
			removed++
		}
	}
	return removed
}
