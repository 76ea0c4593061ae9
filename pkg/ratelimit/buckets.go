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

package ratelimit

import (
	"sync"
)

// Buckets is the process-wide set of per-backend token buckets.
type Buckets struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	opts    []BucketOption
}

// NewBuckets creates an empty bucket set. Options apply to every
// bucket created through ForBackend.
func NewBuckets(opts ...BucketOption) *Buckets {
	return &Buckets{
		buckets: make(map[string]*TokenBucket),
		opts:    opts,
	}
}

// ForBackend returns the bucket for a backend, creating it on first
// use with the given per-minute rate. The rate is fixed at creation;
// changing a backend's rate requires a registry reload, which drops
// the bucket set.
func (s *Buckets) ForBackend(backendID string, ratePerMinute int) *TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[backendID]
	if !ok {
		bucket = NewTokenBucket(ratePerMinute, s.opts...)
		s.buckets[backendID] = bucket
	}
	return bucket
}

// Reset drops all buckets; the next ForBackend recreates them.
func (s *Buckets) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string]*TokenBucket)
}
