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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge/brandforge/pkg/agents"
	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/pipeline"
	"github.com/brandforge/brandforge/pkg/storage"
)

func testIntake() pipeline.Intake {
	return pipeline.Intake{
		BusinessName:        "Acme Coffee",
		BusinessDescription: "Specialty roastery",
		TargetAudience:      "urban professionals",
		Industry:            "food and beverage",
	}
}

func testRuntime(mutate func(*config.PipelineConfig)) *config.Runtime {
	cfg := &config.Config{}
	cfg.SetDefaults()
	if mutate != nil {
		mutate(&cfg.Pipeline)
	}
	return config.NewRuntime(cfg)
}

type stubAgent struct {
	stage pipeline.Stage
	fn    func(ctx context.Context, view *pipeline.View) (any, error)
}

func (s *stubAgent) Stage() pipeline.Stage { return s.stage }

func (s *stubAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	return s.fn(ctx, view)
}

// okArtifact builds a minimal valid artifact for a stage.
func okArtifact(stage pipeline.Stage) any {
	switch stage {
	case pipeline.StageDiscovery:
		return &pipeline.DiscoveryArtifact{NormalisedName: "acme", NormalisedDescription: "desc"}
	case pipeline.StageResearch:
		return &pipeline.ResearchArtifact{
			Competitors: []pipeline.CompetitorSummary{
				{Name: "a"}, {Name: "b"}, {Name: "c"},
			},
		}
	case pipeline.StageVisualDirection:
		return &pipeline.VisualDirectionArtifact{
			Palette:         []string{"#2b4a3e", "#e8d5b7", "#1a1a2e"},
			PrimaryTypeface: pipeline.Typeface{Family: "Inter"},
			MoodDescriptors: []string{"warm"},
			ImageryThemes:   []string{"leaf"},
		}
	case pipeline.StageLogoGeneration:
		return &pipeline.LogoGenerationArtifact{
			Candidates: []pipeline.LogoCandidate{{
				Image:          pipeline.BlobRef{Handle: "h", MIMEType: "image/png"},
				ProducingModel: "mock",
				QualityScore:   0.9,
				Accepted:       true,
			}},
		}
	case pipeline.StageBrandSystem:
		return &pipeline.BrandSystemArtifact{
			Guidelines:   "g",
			UsageRules:   []string{"u"},
			Dos:          []string{"d"},
			Donts:        []string{"d"},
			SpacingRules: []string{"s"},
		}
	case pipeline.StageAssetGeneration:
		return &pipeline.AssetGenerationArtifact{
			Assets:   []pipeline.DerivedAsset{{Variant: pipeline.VariantFavicon}},
			Manifest: []string{"favicon.png 64x64"},
		}
	default:
		return nil
	}
}

// stubAgents returns an all-succeeding agent set with optional
// per-stage overrides.
func stubAgents(overrides map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error)) map[pipeline.Stage]agents.StageAgent {
	set := make(map[pipeline.Stage]agents.StageAgent)
	for _, stage := range pipeline.WorkingStages() {
		stage := stage
		fn := func(ctx context.Context, view *pipeline.View) (any, error) {
			return okArtifact(stage), nil
		}
		if override, ok := overrides[stage]; ok {
			fn = override
		}
		set[stage] = &stubAgent{stage: stage, fn: fn}
	}
	return set
}

func newCoordinator(t *testing.T, runtime *config.Runtime, overrides map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error)) *Coordinator {
	t.Helper()
	if runtime == nil {
		runtime = testRuntime(nil)
	}
	return New(stubAgents(overrides), storage.NewMemoryCaseStore(), runtime)
}

func TestStartCase(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	assert.NotEmpty(t, cs.ID)
	assert.Equal(t, pipeline.StageDiscovery, cs.Stage)
	assert.Equal(t, pipeline.StatusRunning, cs.Status)
	require.Len(t, cs.History, 1)
	assert.Equal(t, pipeline.EventEntered, cs.History[0].Type)

	loaded, err := c.GetCase(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, cs.ID, loaded.ID)
}

func TestStartCase_InvalidIntake(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	_, err := c.StartCase(context.Background(), pipeline.Intake{})
	require.Error(t, err)
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
}

func TestRunToCompletion_HappyPath(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StageDelivered, cs.Stage)
	assert.Equal(t, pipeline.StatusSucceeded, cs.Status)
	assert.Nil(t, cs.Failure)
	assert.True(t, cs.Artifacts.PrefixOK())
	assert.Equal(t, len(pipeline.WorkingStages()), cs.Artifacts.Count())

	// Every working stage leaves an entered and a succeeded marker.
	seen := make(map[pipeline.Stage]map[pipeline.EventType]int)
	for _, ev := range cs.History {
		if seen[ev.Stage] == nil {
			seen[ev.Stage] = make(map[pipeline.EventType]int)
		}
		seen[ev.Stage][ev.Type]++
	}
	for _, stage := range pipeline.WorkingStages() {
		assert.Equal(t, 1, seen[stage][pipeline.EventEntered], "entered %s", stage)
		assert.Equal(t, 1, seen[stage][pipeline.EventSucceeded], "succeeded %s", stage)
	}

	// History timestamps are strictly increasing.
	for i := 1; i < len(cs.History); i++ {
		assert.True(t, cs.History[i].Timestamp.After(cs.History[i-1].Timestamp),
			"event %d not after event %d", i, i-1)
	}

	assert.Contains(t, cs.QualityScores, string(pipeline.StageLogoGeneration))
}

func TestAdvance_TransientRetryWithinBudget(t *testing.T) {
	calls := 0
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageResearch: func(ctx context.Context, view *pipeline.View) (any, error) {
			calls++
			if calls <= 2 {
				return nil, fault.New(fault.KindTransient, "backend hiccup")
			}
			return okArtifact(pipeline.StageResearch), nil
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSucceeded, cs.Status)
	assert.Equal(t, 3, calls)

	var retried []pipeline.StageEvent
	for _, ev := range cs.History {
		if ev.Type == pipeline.EventRetried {
			retried = append(retried, ev)
		}
	}
	require.Len(t, retried, 2)
	assert.Equal(t, pipeline.StageResearch, retried[0].Stage)
	assert.Equal(t, fault.KindTransient, retried[0].Kind)
}

func TestAdvance_TransientBudgetExhausted(t *testing.T) {
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageDiscovery: func(ctx context.Context, view *pipeline.View) (any, error) {
			return nil, fault.New(fault.KindTransient, "still down")
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusFailed, cs.Status)
	require.NotNil(t, cs.Failure)
	assert.Equal(t, fault.KindTransient, cs.Failure.Kind)
	assert.Equal(t, pipeline.StageDiscovery, cs.Failure.Stage)
	// Budget of 2 retries means 3 attempts in total.
	assert.Equal(t, 3, cs.Failure.Attempts)
	// Failed cases keep their completed prefix, which is empty here.
	assert.Equal(t, 0, cs.Artifacts.Count())
}

func TestAdvance_TerminalFailureNotRetried(t *testing.T) {
	calls := 0
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageDiscovery: func(ctx context.Context, view *pipeline.View) (any, error) {
			calls++
			return nil, fault.New(fault.KindInvalidInput, "brief makes no sense")
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, pipeline.StatusFailed, cs.Status)
	assert.Equal(t, fault.KindInvalidInput, cs.Failure.Kind)
	assert.Equal(t, 1, cs.Failure.Attempts)
}

func TestAdvance_InsufficientDataSingleRetry(t *testing.T) {
	calls := 0
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageResearch: func(ctx context.Context, view *pipeline.View) (any, error) {
			calls++
			return nil, fault.New(fault.KindInsufficientData, "only one competitor found")
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	// One retry on top of the first attempt.
	assert.Equal(t, 2, calls)
	assert.Equal(t, pipeline.StatusFailed, cs.Status)
	assert.Equal(t, fault.KindInsufficientData, cs.Failure.Kind)
	// The discovery artifact survives the research failure.
	assert.True(t, cs.Artifacts.Has(pipeline.StageDiscovery))
}

func TestAdvance_QualityGateRetryWithAnnotation(t *testing.T) {
	var annotations []string
	attempt := 0
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageLogoGeneration: func(ctx context.Context, view *pipeline.View) (any, error) {
			attempt++
			annotations = append(annotations, view.Annotation)
			if attempt == 1 {
				return &pipeline.LogoGenerationArtifact{
					Candidates: []pipeline.LogoCandidate{{QualityScore: 0.42, Accepted: false}},
				}, nil
			}
			return okArtifact(pipeline.StageLogoGeneration), nil
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusSucceeded, cs.Status)
	require.Len(t, annotations, 2)
	assert.Empty(t, annotations[0])
	assert.Contains(t, annotations[1], "high contrast")
	assert.Contains(t, annotations[1], "0.42")

	var gateRetries int
	for _, ev := range cs.History {
		if ev.Type == pipeline.EventRetried && ev.Kind == fault.KindQualityGateFailed {
			gateRetries++
		}
	}
	assert.Equal(t, 1, gateRetries)
}

func TestAdvance_QualityGateBudgetExhausted(t *testing.T) {
	calls := 0
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageLogoGeneration: func(ctx context.Context, view *pipeline.View) (any, error) {
			calls++
			return &pipeline.LogoGenerationArtifact{
				Candidates: []pipeline.LogoCandidate{{QualityScore: 0.3, Accepted: false}},
			}, nil
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	// Budget of 2 gate retries means 3 batches in total.
	assert.Equal(t, 3, calls)
	assert.Equal(t, pipeline.StatusFailed, cs.Status)
	assert.Equal(t, fault.KindQualityGateFailed, cs.Failure.Kind)
	assert.Equal(t, pipeline.StageLogoGeneration, cs.Failure.Stage)
	// The rejected batch is never persisted as an artifact.
	assert.False(t, cs.Artifacts.Has(pipeline.StageLogoGeneration))
	assert.True(t, cs.Artifacts.Has(pipeline.StageVisualDirection))
}

func TestCancel_AtStageBoundary(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.Cancel(context.Background(), cs.ID)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusCancelled, cs.Status)
	last := cs.History[len(cs.History)-1]
	assert.Equal(t, pipeline.EventFailed, last.Type)
	assert.Equal(t, fault.KindCancelled, last.Kind)

	// A cancelled case cannot be advanced.
	_, err = c.Advance(context.Background(), cs.ID)
	require.Error(t, err)
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
}

func TestCancel_RequestTakesEffectAtNextBoundary(t *testing.T) {
	var c *Coordinator
	c = New(stubAgents(map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageDiscovery: func(ctx context.Context, view *pipeline.View) (any, error) {
			// The request lands while the stage is in flight; the stage
			// itself is never interrupted.
			c.mu.Lock()
			c.cancelReq[view.CaseID] = true
			c.mu.Unlock()
			return okArtifact(pipeline.StageDiscovery), nil
		},
	}), storage.NewMemoryCaseStore(), testRuntime(nil))

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusCancelled, cs.Status)
	// The in-flight stage completed before the boundary check, so its
	// artifact lands; nothing after it ever runs.
	persisted, err := c.GetCase(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCancelled, persisted.Status)
	assert.True(t, persisted.Artifacts.Has(pipeline.StageDiscovery))
	assert.False(t, persisted.Artifacts.Has(pipeline.StageResearch))
}

func TestCancel_TerminalCaseIsNoOp(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)
	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusSucceeded, cs.Status)

	cs, err = c.Cancel(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSucceeded, cs.Status)
}

func TestResetTo(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)
	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusSucceeded, cs.Status)

	cs, err = c.ResetTo(context.Background(), cs.ID, pipeline.StageVisualDirection)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StageVisualDirection, cs.Stage)
	assert.Equal(t, pipeline.StatusRunning, cs.Status)
	assert.Nil(t, cs.Failure)

	// Artifacts from the target onward are gone; the earlier prefix
	// survives.
	assert.True(t, cs.Artifacts.Has(pipeline.StageDiscovery))
	assert.True(t, cs.Artifacts.Has(pipeline.StageResearch))
	assert.False(t, cs.Artifacts.Has(pipeline.StageVisualDirection))
	assert.False(t, cs.Artifacts.Has(pipeline.StageLogoGeneration))
	assert.True(t, cs.Artifacts.PrefixOK())

	// History markers of the discarded range are gone too, except the
	// fresh entered marker.
	for _, ev := range cs.History[:len(cs.History)-1] {
		if ev.Stage.Valid() {
			assert.True(t, ev.Stage.Before(pipeline.StageVisualDirection),
				"stale marker for %s survived the reset", ev.Stage)
		}
	}
	last := cs.History[len(cs.History)-1]
	assert.Equal(t, pipeline.StageVisualDirection, last.Stage)
	assert.Equal(t, pipeline.EventEntered, last.Type)

	require.Len(t, cs.Revisions, 1)
	assert.Equal(t, pipeline.StageDelivered, cs.Revisions[0].FromStage)
	assert.Equal(t, pipeline.StageVisualDirection, cs.Revisions[0].ToStage)
	assert.False(t, cs.Revisions[0].Timestamp.IsZero())

	// The case runs forward again from the reset point.
	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSucceeded, cs.Status)
	assert.Len(t, cs.Revisions, 1)
}

func TestResetTo_ClearsFailure(t *testing.T) {
	c := newCoordinator(t, nil, map[pipeline.Stage]func(ctx context.Context, view *pipeline.View) (any, error){
		pipeline.StageVisualDirection: func(ctx context.Context, view *pipeline.View) (any, error) {
			return nil, fault.New(fault.KindInvalidInput, "bad direction")
		},
	})

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)
	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusFailed, cs.Status)

	cs, err = c.ResetTo(context.Background(), cs.ID, pipeline.StageResearch)
	require.NoError(t, err)
	assert.Nil(t, cs.Failure)
	assert.Equal(t, pipeline.StatusRunning, cs.Status)
}

func TestResetTo_InvalidTarget(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)

	for _, target := range []pipeline.Stage{
		pipeline.StageCreated,
		pipeline.StageDelivered,
		pipeline.Stage("nonsense"),
	} {
		_, err := c.ResetTo(context.Background(), cs.ID, target)
		require.Error(t, err, "target %s", target)
		assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
	}
}

func TestResetTo_CancelledCaseRejected(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	cs, err := c.StartCase(context.Background(), testIntake())
	require.NoError(t, err)
	_, err = c.Cancel(context.Background(), cs.ID)
	require.NoError(t, err)

	_, err = c.ResetTo(context.Background(), cs.ID, pipeline.StageDiscovery)
	require.Error(t, err)
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
}

func TestAdvance_UnknownCase(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	_, err := c.Advance(context.Background(), "no-such-case")
	require.Error(t, err)
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
}

func TestAdvance_DropsReferenceBytesAfterVisualDirection(t *testing.T) {
	c := newCoordinator(t, nil, nil)

	intake := testIntake()
	intake.ReferenceImages = []pipeline.ReferenceImage{
		{Name: "ref.png", MIMEType: "image/png", Data: []byte{1, 2, 3}},
	}

	cs, err := c.StartCase(context.Background(), intake)
	require.NoError(t, err)
	cs, err = c.RunToCompletion(context.Background(), cs.ID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusSucceeded, cs.Status)

	require.Len(t, cs.Intake.ReferenceImages, 1)
	assert.Nil(t, cs.Intake.ReferenceImages[0].Data)
	assert.Equal(t, "ref.png", cs.Intake.ReferenceImages[0].Name)
}
