// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ratelimit implements per-backend token buckets. Buckets are
// shared process-wide across concurrent cases; the dispatcher acquires
// a token before each backend call and refunds it only on immediate
// transport failure.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a continuously refilling bucket. Capacity and refill
// rate both derive from the backend's rate_limit_per_minute.
type TokenBucket struct {
	mu           sync.Mutex
	capacity     float64
	tokens       float64
	refillPerSec float64
	last         time.Time
	now          func() time.Time
}

// BucketOption configures a TokenBucket.
type BucketOption func(*TokenBucket)

// WithClock overrides the bucket's clock (for tests).
func WithClock(now func() time.Time) BucketOption {
	return func(b *TokenBucket) {
		b.now = now
	}
}

// NewTokenBucket creates a full bucket for the given per-minute rate.
// A rate of 0 or less yields a bucket that never grants tokens.
func NewTokenBucket(ratePerMinute int, opts ...BucketOption) *TokenBucket {
	b := &TokenBucket{
		capacity:     float64(ratePerMinute),
		tokens:       float64(ratePerMinute),
		refillPerSec: float64(ratePerMinute) / 60.0,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.last = b.now()
	return b
}

func (b *TokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillPerSec
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
}

// TryAcquire takes one token if available.
func (b *TokenBucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Refund returns a token taken by TryAcquire. Only called on
// connection_refused / immediate transport failure; a call that
// reached the provider keeps its token spent.
func (b *TokenBucket) Refund() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	b.tokens++
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// Available returns the current token count (for tests and metrics).
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}
