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

package coordinator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/brandforge/brandforge/pkg/agents"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/observability"
	"github.com/brandforge/brandforge/pkg/pipeline"
)

// runStage drives one stage to a decision, applying the retry policy:
// a transient-class budget, one insufficient_data retry, and the
// quality-gate budget for logo generation. Partial artifacts of failed
// attempts are never persisted.
func (c *Coordinator) runStage(ctx context.Context, cs *pipeline.Case, agent agents.StageAgent) (*pipeline.Case, error) {
	cfg := c.runtime.Pipeline()
	stage := cs.Stage

	var transientRetries, dataRetries, gateRetries int
	attempt := 0
	annotation := ""

	for {
		attempt++

		if c.takeCancelRequest(cs.ID) {
			return c.finalizeCancelled(ctx, cs)
		}

		stageCtx, cancel := context.WithTimeout(ctx, c.runtime.StageDeadline())
		view := cs.View(stage)
		view.Annotation = annotation

		spanCtx, span := observability.Tracer().Start(stageCtx, "stage."+string(stage),
			trace.WithAttributes(
				attribute.String("case.id", cs.ID),
				attribute.Int("attempt", attempt),
			))

		start := time.Now()
		artifact, err := agent.Execute(spanCtx, view)
		elapsed := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		deadlineHit := stageCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
		cancel()

		if c.metrics != nil {
			c.metrics.StageDuration(string(stage), elapsed)
		}

		if err != nil {
			if deadlineHit {
				err = fault.Wrap(fault.KindStageTimeout, err, "%s", stageTimeoutMessage(stage))
			}
			kind := fault.KindOf(err)

			switch {
			case kind == fault.KindCancelled:
				if ctx.Err() != nil {
					// The caller went away; leave the case running and
					// surface the cancellation.
					return cs, fault.Wrap(fault.KindCancelled, ctx.Err(), "advance aborted")
				}
				return c.finalizeCancelled(ctx, cs)

			case kind.Terminal():
				return c.failCase(ctx, cs, attempt, err)

			case kind == fault.KindInsufficientData:
				if dataRetries < cfg.InsufficientDataRetry {
					dataRetries++
					if err := c.recordRetry(ctx, cs, attempt, kind, err.Error()); err != nil {
						return nil, err
					}
					continue
				}
				return c.failCase(ctx, cs, attempt, err)

			case kind.Retryable():
				if transientRetries < cfg.StageRetryBudget {
					transientRetries++
					if err := c.recordRetry(ctx, cs, attempt, kind, err.Error()); err != nil {
						return nil, err
					}
					continue
				}
				return c.failCase(ctx, cs, attempt, err)

			default:
				return c.failCase(ctx, cs, attempt, err)
			}
		}

		if stage == pipeline.StageLogoGeneration {
			logoArtifact, ok := artifact.(*pipeline.LogoGenerationArtifact)
			if !ok {
				return c.failCase(ctx, cs, attempt,
					fault.New(fault.KindInternal, "logo agent returned %T", artifact))
			}

			if len(logoArtifact.AcceptedCandidates()) == 0 {
				best := bestComposite(logoArtifact)
				if gateRetries < cfg.LogoRetryBudget {
					gateRetries++
					annotation = fmt.Sprintf(
						"high contrast between elements, at most %d distinct colors, previous attempt scored %.2f against threshold %.2f",
						cfg.MaxColours, best, cfg.QualityThreshold)
					msg := fmt.Sprintf("quality gate rejected all %d candidates (best %.2f)",
						len(logoArtifact.Candidates), best)
					if err := c.recordRetry(ctx, cs, attempt, fault.KindQualityGateFailed, msg); err != nil {
						return nil, err
					}
					continue
				}
				return c.failCase(ctx, cs, attempt, fault.New(fault.KindQualityGateFailed,
					"no candidate passed the quality gate after %d batches (best %.2f, threshold %.2f)",
					gateRetries+1, best, cfg.QualityThreshold))
			}

			if cs.QualityScores == nil {
				cs.QualityScores = make(map[string]float64)
			}
			cs.QualityScores[string(stage)] = bestAcceptedComposite(logoArtifact)
		}

		return c.completeStage(ctx, cs, stage, attempt, artifact)
	}
}

// completeStage writes the artifact, records the transition, and moves
// the case forward.
func (c *Coordinator) completeStage(ctx context.Context, cs *pipeline.Case, stage pipeline.Stage, attempt int, artifact any) (*pipeline.Case, error) {
	if err := cs.Artifacts.Set(stage, artifact); err != nil {
		return c.failCase(ctx, cs, attempt, fault.Wrap(fault.KindInternal, err, "artifact mismatch"))
	}

	// Reference bytes are only needed for visual direction; from here
	// on, only their extracted features travel with the case.
	if stage == pipeline.StageVisualDirection {
		cs.Intake.DropReferenceData()
	}

	cs.AppendEvent(pipeline.StageEvent{
		Stage:   stage,
		Type:    pipeline.EventSucceeded,
		Attempt: attempt,
	})

	next, err := stage.Next()
	if err != nil {
		return c.failCase(ctx, cs, attempt, fault.Wrap(fault.KindInternal, err, "no next stage"))
	}
	cs.Stage = next
	cs.AppendEvent(pipeline.StageEvent{Stage: next, Type: pipeline.EventEntered})
	if next == pipeline.StageDelivered {
		cs.Status = pipeline.StatusSucceeded
	}

	if c.metrics != nil {
		c.metrics.StageSucceeded(string(stage))
	}
	if err := c.cases.SaveCase(ctx, cs); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to persist stage result")
	}

	c.logger.Info("Stage complete",
		"case", cs.ID, "stage", stage, "attempt", attempt, "next", next)
	return cs, nil
}

func (c *Coordinator) recordRetry(ctx context.Context, cs *pipeline.Case, attempt int, kind fault.Kind, message string) error {
	cs.AppendEvent(pipeline.StageEvent{
		Stage:   cs.Stage,
		Type:    pipeline.EventRetried,
		Attempt: attempt,
		Kind:    kind,
		Message: message,
	})
	if c.metrics != nil {
		c.metrics.StageRetried(string(cs.Stage), string(kind))
	}
	if err := c.cases.SaveCase(ctx, cs); err != nil {
		return fault.Wrap(fault.KindInternal, err, "failed to persist retry")
	}

	c.logger.Debug("Stage retrying",
		"case", cs.ID, "stage", cs.Stage, "attempt", attempt, "kind", string(kind))
	return nil
}

func bestComposite(a *pipeline.LogoGenerationArtifact) float64 {
	best := 0.0
	for _, cand := range a.Candidates {
		if cand.QualityScore > best {
			best = cand.QualityScore
		}
	}
	return best
}

func bestAcceptedComposite(a *pipeline.LogoGenerationArtifact) float64 {
	best := 0.0
	for _, cand := range a.Candidates {
		if cand.Accepted && cand.QualityScore > best {
			best = cand.QualityScore
		}
	}
	return best
}
