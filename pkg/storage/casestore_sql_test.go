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
	"path/filepath"
	"testing"

	"github.com/brandforge/brandforge/pkg/pipeline"
)

func newSQLStore(t *testing.T) *SQLCaseStore {
	t.Helper()
	s, err := NewSQLCaseStore(filepath.Join(t.TempDir(), "cases.db"))
	if err != nil {
		t.Fatalf("NewSQLCaseStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLCaseStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	cs := storedCase()
	if err := s.SaveCase(ctx, cs); err != nil {
		t.Fatalf("SaveCase() error = %v", err)
	}

	loaded, err := s.LoadCase(ctx, cs.ID)
	if err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if loaded.ID != cs.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, cs.ID)
	}
	if loaded.Stage != cs.Stage {
		t.Errorf("Stage = %s, want %s", loaded.Stage, cs.Stage)
	}
	if len(loaded.History) != len(cs.History) {
		t.Errorf("history length = %d, want %d", len(loaded.History), len(cs.History))
	}
}

func TestSQLCaseStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	cs := storedCase()
	if err := s.SaveCase(ctx, cs); err != nil {
		t.Fatalf("SaveCase() error = %v", err)
	}

	cs.Stage = pipeline.StageVisualDirection
	cs.AppendEvent(pipeline.StageEvent{Stage: pipeline.StageResearch, Type: pipeline.EventSucceeded})
	if err := s.SaveCase(ctx, cs); err != nil {
		t.Fatalf("second SaveCase() error = %v", err)
	}

	loaded, err := s.LoadCase(ctx, cs.ID)
	if err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if loaded.Stage != pipeline.StageVisualDirection {
		t.Errorf("Stage = %s, want %s", loaded.Stage, pipeline.StageVisualDirection)
	}

	ids, err := s.ListCaseIDs(ctx)
	if err != nil {
		t.Fatalf("ListCaseIDs() error = %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("upsert should not duplicate rows, got %d", len(ids))
	}
}

func TestSQLCaseStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	if _, err := s.LoadCase(ctx, "missing"); err == nil {
		t.Error("expected error for unknown case")
	}
}
