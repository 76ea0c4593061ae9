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

package pipeline

import (
	"testing"
)

func TestStageOrder(t *testing.T) {
	want := []Stage{
		StageCreated,
		StageDiscovery,
		StageResearch,
		StageVisualDirection,
		StageLogoGeneration,
		StageBrandSystem,
		StageAssetGeneration,
		StageDelivered,
	}
	for i := 0; i < len(want)-1; i++ {
		next, err := want[i].Next()
		if err != nil {
			t.Fatalf("Next(%s) error = %v", want[i], err)
		}
		if next != want[i+1] {
			t.Errorf("Next(%s) = %s, want %s", want[i], next, want[i+1])
		}
	}
}

func TestStage_Next_AtEnd(t *testing.T) {
	if _, err := StageDelivered.Next(); err == nil {
		t.Error("delivered should have no successor")
	}
	if _, err := Stage("bogus").Next(); err == nil {
		t.Error("unknown stage should have no successor")
	}
}

func TestStage_Before(t *testing.T) {
	if !StageDiscovery.Before(StageLogoGeneration) {
		t.Error("discovery should precede logo_generation")
	}
	if StageBrandSystem.Before(StageResearch) {
		t.Error("brand_system should not precede research")
	}
	if StageResearch.Before(StageResearch) {
		t.Error("a stage does not precede itself")
	}
}

func TestWorkingStages(t *testing.T) {
	stages := WorkingStages()
	if len(stages) != 6 {
		t.Fatalf("expected 6 working stages, got %d", len(stages))
	}
	if stages[0] != StageDiscovery {
		t.Errorf("first working stage = %s, want %s", stages[0], StageDiscovery)
	}
	if stages[len(stages)-1] != StageAssetGeneration {
		t.Errorf("last working stage = %s, want %s", stages[len(stages)-1], StageAssetGeneration)
	}
}

func TestParseStage(t *testing.T) {
	stage, err := ParseStage("visual_direction")
	if err != nil {
		t.Fatalf("ParseStage() error = %v", err)
	}
	if stage != StageVisualDirection {
		t.Errorf("ParseStage() = %s", stage)
	}

	if _, err := ParseStage("unknown"); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
