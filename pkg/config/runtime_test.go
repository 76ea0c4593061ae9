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

package config

import (
	"testing"
	"time"
)

func TestRuntime_Snapshot(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Pipeline.StageDeadlineSeconds = 120

	r := NewRuntime(cfg)

	if r.StageDeadline() != 120*time.Second {
		t.Errorf("StageDeadline() = %v, want 120s", r.StageDeadline())
	}
	if r.Pipeline().StageRetryBudget != 2 {
		t.Errorf("StageRetryBudget = %d, want 2", r.Pipeline().StageRetryBudget)
	}
}

func TestRuntime_Apply(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	r := NewRuntime(cfg)

	old := r.Pipeline()

	next := *cfg
	next.Pipeline.QualityThreshold = 0.9
	next.Pipeline.StageDeadlineSeconds = 30
	r.Apply(&next)

	if r.Pipeline().QualityThreshold != 0.9 {
		t.Errorf("QualityThreshold after Apply = %v, want 0.9", r.Pipeline().QualityThreshold)
	}
	if r.StageDeadline() != 30*time.Second {
		t.Errorf("StageDeadline after Apply = %v, want 30s", r.StageDeadline())
	}

	// An earlier snapshot stays consistent.
	if old.QualityThreshold != 0.7 {
		t.Errorf("old snapshot mutated: %v", old.QualityThreshold)
	}
}
