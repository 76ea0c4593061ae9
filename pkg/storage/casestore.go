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

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/brandforge/brandforge/pkg/pipeline"
)

// CaseStore persists case records. Each save is atomic: a reader never
// observes a partially written case.
type CaseStore interface {
	SaveCase(ctx context.Context, c *pipeline.Case) error
	LoadCase(ctx context.Context, caseID string) (*pipeline.Case, error)
	ListCaseIDs(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryCaseStore keeps serialized cases in memory. Serialization
// through JSON gives the same copy semantics as a real store.
type MemoryCaseStore struct {
	mu    sync.RWMutex
	cases map[string][]byte
}

func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{
		cases: make(map[string][]byte),
	}
}

func (s *MemoryCaseStore) SaveCase(ctx context.Context, c *pipeline.Case) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("case with id is required")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize case %s: %w", c.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = data
	return nil
}

func (s *MemoryCaseStore) LoadCase(ctx context.Context, caseID string) (*pipeline.Case, error) {
	s.mu.RLock()
	data, ok := s.cases[caseID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("case %q not found", caseID)
	}

	var c pipeline.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to deserialize case %s: %w", caseID, err)
	}
	return &c, nil
}

func (s *MemoryCaseStore) ListCaseIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryCaseStore) Close() error {
	return nil
}

var _ CaseStore = (*MemoryCaseStore)(nil)
