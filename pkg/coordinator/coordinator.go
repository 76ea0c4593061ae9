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

// Package coordinator drives a case through the branding pipeline. It
// is the sole writer of case state: agents return proposed artifacts
// and the coordinator persists them, enforces the quality gate, and
// applies the retry policy.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brandforge/brandforge/pkg/agents"
	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/logger"
	"github.com/brandforge/brandforge/pkg/observability"
	"github.com/brandforge/brandforge/pkg/pipeline"
	"github.com/brandforge/brandforge/pkg/storage"
)

// Coordinator owns case progression. A single coordinator serves many
// cases concurrently; within one case all work is serialised.
type Coordinator struct {
	agents  map[pipeline.Stage]agents.StageAgent
	cases   storage.CaseStore
	runtime *config.Runtime
	metrics *observability.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	caseLocks map[string]*sync.Mutex
	cancelReq map[string]bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func New(agentSet map[pipeline.Stage]agents.StageAgent, cases storage.CaseStore, runtime *config.Runtime, opts ...Option) *Coordinator {
	c := &Coordinator{
		agents:    agentSet,
		cases:     cases,
		runtime:   runtime,
		logger:    logger.GetLogger(),
		caseLocks: make(map[string]*sync.Mutex),
		cancelReq: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartCase validates the intake, allocates a case and enters the
// discovery stage.
func (c *Coordinator) StartCase(ctx context.Context, intake pipeline.Intake) (*pipeline.Case, error) {
	if err := intake.Validate(); err != nil {
		return nil, err
	}

	cs := pipeline.NewCase(intake)
	cs.Stage = pipeline.StageDiscovery
	cs.Status = pipeline.StatusRunning
	cs.AppendEvent(pipeline.StageEvent{
		Stage: pipeline.StageDiscovery,
		Type:  pipeline.EventEntered,
	})

	if err := c.cases.SaveCase(ctx, cs); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to persist new case")
	}

	if c.metrics != nil {
		c.metrics.CaseStarted()
	}
	c.logger.Info("Case started", "case", cs.ID, "business", intake.BusinessName)
	return cs, nil
}

// Advance runs the case's current stage to a decision: artifact
// written and stage moved forward, or the case marked failed. The
// retry policy is applied inside a single Advance call.
func (c *Coordinator) Advance(ctx context.Context, caseID string) (*pipeline.Case, error) {
	unlock := c.lockCase(caseID)
	defer unlock()

	cs, err := c.cases.LoadCase(ctx, caseID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInvalidInput, err, "unknown case")
	}

	if cs.Status.Terminal() {
		return cs, fault.New(fault.KindInvalidInput, "case %s is %s", caseID, cs.Status)
	}
	if c.takeCancelRequest(caseID) {
		return c.finalizeCancelled(ctx, cs)
	}

	if cs.Stage == pipeline.StageCreated {
		cs.Stage = pipeline.StageDiscovery
		cs.Status = pipeline.StatusRunning
		cs.AppendEvent(pipeline.StageEvent{Stage: cs.Stage, Type: pipeline.EventEntered})
		if err := c.cases.SaveCase(ctx, cs); err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "failed to persist case")
		}
		return cs, nil
	}

	agent, ok := c.agents[cs.Stage]
	if !ok {
		return c.failCase(ctx, cs, 0,
			fault.New(fault.KindInternal, "no agent registered for stage %s", cs.Stage))
	}

	return c.runStage(ctx, cs, agent)
}

// RunToCompletion advances until the case reaches a terminal status.
func (c *Coordinator) RunToCompletion(ctx context.Context, caseID string) (*pipeline.Case, error) {
	for {
		cs, err := c.Advance(ctx, caseID)
		if err != nil {
			return cs, err
		}
		if cs.Status.Terminal() {
			return cs, nil
		}
		if err := ctx.Err(); err != nil {
			return cs, fault.Wrap(fault.KindCancelled, err, "run aborted")
		}
	}
}

// Cancel requests cancellation. An in-flight stage is never
// interrupted; the request takes effect at the next stage boundary
// and the in-flight stage's artifact is discarded.
func (c *Coordinator) Cancel(ctx context.Context, caseID string) (*pipeline.Case, error) {
	c.mu.Lock()
	c.cancelReq[caseID] = true
	c.mu.Unlock()

	unlock := c.lockCase(caseID)
	defer unlock()

	cs, err := c.cases.LoadCase(ctx, caseID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInvalidInput, err, "unknown case")
	}
	if cs.Status.Terminal() {
		c.clearCancelRequest(caseID)
		return cs, nil
	}
	if !c.takeCancelRequest(caseID) {
		// The in-flight stage already consumed the request.
		return cs, nil
	}
	return c.finalizeCancelled(ctx, cs)
}

// ResetTo discards artifacts and history from the given stage onward
// and rewinds the case there. This is the only backward transition.
func (c *Coordinator) ResetTo(ctx context.Context, caseID string, stage pipeline.Stage) (*pipeline.Case, error) {
	target, err := validResetTarget(stage)
	if err != nil {
		return nil, err
	}

	unlock := c.lockCase(caseID)
	defer unlock()

	cs, err := c.cases.LoadCase(ctx, caseID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInvalidInput, err, "unknown case")
	}
	if cs.Status == pipeline.StatusCancelled {
		return cs, fault.New(fault.KindInvalidInput, "case %s is cancelled", caseID)
	}

	fromStage := cs.Stage
	cs.Artifacts.DiscardFrom(target)

	// History markers of the discarded range go with their artifacts;
	// the revision record preserves the audit trail.
	var kept []pipeline.StageEvent
	for _, ev := range cs.History {
		if ev.Stage.Valid() && !ev.Stage.Before(target) {
			continue
		}
		kept = append(kept, ev)
	}
	cs.History = kept

	cs.Revisions = append(cs.Revisions, pipeline.Revision{
		FromStage: fromStage,
		ToStage:   target,
	})
	cs.Failure = nil
	cs.Stage = target
	cs.Status = pipeline.StatusRunning
	cs.AppendEvent(pipeline.StageEvent{Stage: target, Type: pipeline.EventEntered})

	if len(cs.Revisions) > 0 {
		cs.Revisions[len(cs.Revisions)-1].Timestamp = cs.UpdatedAt
	}

	if err := c.cases.SaveCase(ctx, cs); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to persist reset")
	}

	c.logger.Info("Case reset", "case", caseID, "from", fromStage, "to", target)
	return cs, nil
}

// GetCase loads the current case record.
func (c *Coordinator) GetCase(ctx context.Context, caseID string) (*pipeline.Case, error) {
	return c.cases.LoadCase(ctx, caseID)
}

func validResetTarget(stage pipeline.Stage) (pipeline.Stage, error) {
	for _, s := range pipeline.WorkingStages() {
		if s == stage {
			return stage, nil
		}
	}
	return "", fault.New(fault.KindInvalidInput, "cannot reset to stage %q", stage)
}

func (c *Coordinator) lockCase(caseID string) func() {
	c.mu.Lock()
	lock, ok := c.caseLocks[caseID]
	if !ok {
		lock = &sync.Mutex{}
		c.caseLocks[caseID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (c *Coordinator) takeCancelRequest(caseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelReq[caseID] {
		delete(c.cancelReq, caseID)
		return true
	}
	return false
}

func (c *Coordinator) clearCancelRequest(caseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancelReq, caseID)
}

func (c *Coordinator) finalizeCancelled(ctx context.Context, cs *pipeline.Case) (*pipeline.Case, error) {
	cs.Status = pipeline.StatusCancelled
	cs.AppendEvent(pipeline.StageEvent{
		Stage:   cs.Stage,
		Type:    pipeline.EventFailed,
		Kind:    fault.KindCancelled,
		Message: "cancelled externally",
	})
	if err := c.cases.SaveCase(ctx, cs); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to persist cancellation")
	}
	c.logger.Info("Case cancelled", "case", cs.ID,
		"last_completed", cs.LastCompletedStage())
	return cs, nil
}

func (c *Coordinator) failCase(ctx context.Context, cs *pipeline.Case, attempts int, failure error) (*pipeline.Case, error) {
	fe, _ := fault.As(failure)

	cs.Status = pipeline.StatusFailed
	cs.Failure = &pipeline.Failure{
		Kind:     fe.Kind,
		Stage:    cs.Stage,
		Message:  fe.Message,
		Attempts: attempts,
	}
	cs.AppendEvent(pipeline.StageEvent{
		Stage:   cs.Stage,
		Type:    pipeline.EventFailed,
		Attempt: attempts,
		Kind:    fe.Kind,
		Message: fe.Message,
	})

	if c.metrics != nil {
		c.metrics.StageFailed(string(cs.Stage), string(fe.Kind))
	}
	if err := c.cases.SaveCase(ctx, cs); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to persist failure")
	}

	c.logger.Warn("Case failed",
		"case", cs.ID, "stage", cs.Stage, "kind", string(fe.Kind), "attempts", attempts)
	return cs, nil
}

func stageTimeoutMessage(stage pipeline.Stage) string {
	return fmt.Sprintf("stage %s exceeded its deadline", stage)
}
