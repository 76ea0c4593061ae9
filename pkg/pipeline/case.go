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
	"time"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge/pkg/fault"
)

// EventType classifies a history entry.
type EventType string

const (
	EventEntered   EventType = "entered"
	EventSucceeded EventType = "succeeded"
	EventFailed    EventType = "failed"
	EventRetried   EventType = "retried"
)

// StageEvent is one append-only history record. Events are never
// rewritten or deleted.
type StageEvent struct {
	Stage     Stage      `json:"stage"`
	Type      EventType  `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Attempt   int        `json:"attempt,omitempty"`
	Kind      fault.Kind `json:"kind,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Revision records one ResetTo call, mirroring the discarded range.
type Revision struct {
	FromStage Stage     `json:"from_stage"`
	ToStage   Stage     `json:"to_stage"`
	Timestamp time.Time `json:"timestamp"`
}

// Failure is the user-visible terminal error of a failed case.
type Failure struct {
	Kind     fault.Kind `json:"kind"`
	Stage    Stage      `json:"stage"`
	Message  string     `json:"message"`
	Attempts int        `json:"attempts"`
}

// Case is the root entity of one branding run. The coordinator owns it
// exclusively; everything else sees read-only views.
type Case struct {
	ID            string             `json:"case_id"`
	Stage         Stage              `json:"stage"`
	Status        Status             `json:"status"`
	Intake        Intake             `json:"intake"`
	Artifacts     Artifacts          `json:"artifacts"`
	History       []StageEvent       `json:"history"`
	QualityScores map[string]float64 `json:"quality_scores,omitempty"`
	Revisions     []Revision         `json:"revisions,omitempty"`
	Failure       *Failure           `json:"failure,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewCase allocates a case in its initial state. The intake must have
// been validated by the caller.
func NewCase(intake Intake) *Case {
	now := time.Now().UTC()
	return &Case{
		ID:            uuid.NewString(),
		Stage:         StageCreated,
		Status:        StatusPending,
		Intake:        intake,
		QualityScores: make(map[string]float64),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AppendEvent adds a history record with a timestamp strictly after
// the previous one.
func (c *Case) AppendEvent(ev StageEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	// History timestamps are strictly monotonic within a case.
	if n := len(c.History); n > 0 && !ev.Timestamp.After(c.History[n-1].Timestamp) {
		ev.Timestamp = c.History[n-1].Timestamp.Add(time.Microsecond)
	}
	c.History = append(c.History, ev)
	c.UpdatedAt = ev.Timestamp
}

// LastCompletedStage returns the last stage with a present artifact,
// or StageCreated when none exists.
func (c *Case) LastCompletedStage() Stage {
	last := StageCreated
	for _, s := range WorkingStages() {
		if c.Artifacts.Has(s) {
			last = s
		}
	}
	return last
}

// View builds the read scope handed to the agent of the given stage:
// the intake plus every artifact of an earlier stage.
func (c *Case) View(stage Stage) *View {
	v := &View{
		CaseID: c.ID,
		Intake: c.Intake,
	}
	for _, s := range WorkingStages() {
		if !s.Before(stage) {
			break
		}
		switch s {
		case StageDiscovery:
			v.Discovery = c.Artifacts.Discovery
		case StageResearch:
			v.Research = c.Artifacts.Research
		case StageVisualDirection:
			v.VisualDirection = c.Artifacts.VisualDirection
		case StageLogoGeneration:
			v.LogoGeneration = c.Artifacts.LogoGeneration
		case StageBrandSystem:
			v.BrandSystem = c.Artifacts.BrandSystem
		}
	}
	return v
}

// View is the scoped read surface an agent receives: the intake and
// all artifacts of stages before its own. Agents must not mutate any
// of it; they return a proposed artifact and the coordinator writes.
type View struct {
	CaseID          string
	Intake          Intake
	Discovery       *DiscoveryArtifact
	Research        *ResearchArtifact
	VisualDirection *VisualDirectionArtifact
	LogoGeneration  *LogoGenerationArtifact
	BrandSystem     *BrandSystemArtifact

	// Annotation carries the quality-gate penalty note on logo
	// generation retries. Empty on first attempts.
	Annotation string
}

// GenerateID produces an opaque identifier for blobs and assets.
func GenerateID() string {
	return uuid.NewString()
}
