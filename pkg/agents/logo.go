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

package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/brandforge/brandforge/pkg/backends"
	"github.com/brandforge/brandforge/pkg/dispatch"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/pipeline"
	"github.com/brandforge/brandforge/pkg/quality"
)

// LogoAgent fans logo generation out across the image backends and
// scores every candidate. Candidates are stored in deterministic
// order regardless of which request finished first.
type LogoAgent struct {
	deps Deps
}

func NewLogoAgent(deps Deps) *LogoAgent {
	return &LogoAgent{deps: deps}
}

func (a *LogoAgent) Stage() pipeline.Stage {
	return pipeline.StageLogoGeneration
}

func (a *LogoAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	if view.VisualDirection == nil {
		return nil, fault.New(fault.KindInvalidInput,
			"logo generation requires the visual direction artifact")
	}

	cfg := a.deps.Runtime.Pipeline()
	validator := quality.NewValidator(*cfg)

	size := cfg.MinResolution * 2
	if size <= 0 {
		size = 1024
	}

	artifact := &pipeline.LogoGenerationArtifact{}
	var dispatchErr error

	for concept := 0; concept < cfg.LogoConcepts; concept++ {
		prompt := buildLogoPrompt(pillarsFromView(view, concept))
		if view.Annotation != "" {
			prompt = prompt + ", " + view.Annotation
		}
		if concept == 0 {
			artifact.PromptUsed = prompt
		}

		results, err := a.deps.Dispatcher.DispatchN(ctx, dispatch.Request{
			Modality:          backends.ModalityImage,
			Prompt:            prompt,
			Width:             size,
			Height:            size,
			DesiredN:          cfg.LogoVariations,
			PerCallTimeout:    a.deps.Runtime.PerCallTimeout(),
			BackendPreference: cfg.ImageModelPriority,
		})
		if err != nil {
			if fault.KindOf(err) == fault.KindCancelled {
				return nil, err
			}
			a.deps.log().Warn("Logo concept failed on every backend",
				"case", view.CaseID, "concept", concept, "error", err)
			dispatchErr = err
			continue
		}

		for _, result := range results {
			candidate, err := a.scoreAndStore(ctx, view.CaseID, validator, prompt,
				concept*cfg.LogoVariations+result.IssueIndex, result)
			if err != nil {
				a.deps.log().Warn("Dropping unscorable logo candidate",
					"case", view.CaseID, "backend", result.BackendID, "error", err)
				continue
			}
			artifact.Candidates = append(artifact.Candidates, *candidate)
			artifact.TotalCost += result.Image.Cost
		}
	}

	if len(artifact.Candidates) == 0 {
		if dispatchErr != nil {
			return nil, dispatchErr
		}
		return nil, fault.New(fault.KindInsufficientData, "no logo candidate survived scoring")
	}

	// Completion order is nondeterministic; stored order is not.
	priority := cfg.ImageModelPriority
	sort.SliceStable(artifact.Candidates, func(i, j int) bool {
		pi := dispatch.PriorityOf(artifact.Candidates[i].ProducingModel, priority)
		pj := dispatch.PriorityOf(artifact.Candidates[j].ProducingModel, priority)
		if pi != pj {
			return pi < pj
		}
		return artifact.Candidates[i].IssueIndex < artifact.Candidates[j].IssueIndex
	})

	a.deps.log().Debug("Logo generation complete",
		"case", view.CaseID, "candidates", len(artifact.Candidates),
		"accepted", len(artifact.AcceptedCandidates()), "cost", artifact.TotalCost)
	return artifact, nil
}

// scoreAndStore validates one candidate and streams its bytes to the
// blob store, keeping only the handle in the case record.
func (a *LogoAgent) scoreAndStore(ctx context.Context, caseID string, validator *quality.Validator, prompt string, issue int, result *dispatch.Result) (*pipeline.LogoCandidate, error) {
	score, err := validator.Validate(result.Image.Data, result.Image.MIMEType)
	if err != nil {
		return nil, err
	}

	handle, err := a.deps.Blobs.PutBlob(ctx,
		fmt.Sprintf("cases/%s/logos", caseID), result.Image.Data, result.Image.MIMEType)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to store logo blob")
	}

	return &pipeline.LogoCandidate{
		Image: pipeline.BlobRef{
			Handle:   handle,
			MIMEType: result.Image.MIMEType,
			Width:    score.Width,
			Height:   score.Height,
		},
		ProducingModel: result.Model,
		PromptUsed:     prompt,
		QualityScore:   score.Composite,
		Accepted:       score.Accepted,
		IssueIndex:     issue,
	}, nil
}

var _ StageAgent = (*LogoAgent)(nil)
