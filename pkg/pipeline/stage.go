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

// Package pipeline defines the shared case state threaded through the
// branding workflow: the case record, its intake, the per-stage
// artifacts, and the append-only history. The coordinator is the sole
// writer; agents receive read-only views scoped to prior artifacts.
package pipeline

import "fmt"

// Stage identifies one step of the fixed pipeline.
type Stage string

const (
	StageCreated         Stage = "created"
	StageDiscovery       Stage = "discovery"
	StageResearch        Stage = "research"
	StageVisualDirection Stage = "visual_direction"
	StageLogoGeneration  Stage = "logo_generation"
	StageBrandSystem     Stage = "brand_system"
	StageAssetGeneration Stage = "asset_generation"
	StageDelivered       Stage = "delivered"
)

// stageOrder is the documented forward order. The stage field of a
// case only ever moves forward through this list, except via ResetTo.
var stageOrder = []Stage{
	StageCreated,
	StageDiscovery,
	StageResearch,
	StageVisualDirection,
	StageLogoGeneration,
	StageBrandSystem,
	StageAssetGeneration,
	StageDelivered,
}

// WorkingStages returns the stages that run an agent, in order.
func WorkingStages() []Stage {
	return stageOrder[1 : len(stageOrder)-1]
}

// Index returns the stage's position in pipeline order, or -1.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Before reports whether s precedes other in pipeline order.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}

// Next returns the stage after s, or an error at the end of the
// pipeline.
func (s Stage) Next() (Stage, error) {
	i := s.Index()
	if i < 0 {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	if i == len(stageOrder)-1 {
		return "", fmt.Errorf("stage %q has no successor", s)
	}
	return stageOrder[i+1], nil
}

// ParseStage converts a string to a Stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return stage, nil
}

// Status is the case lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status ends the case.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}
