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
	"strings"

	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/pipeline"
)

// ResearchAgent analyses the competitive landscape around the brief.
type ResearchAgent struct {
	deps Deps
}

func NewResearchAgent(deps Deps) *ResearchAgent {
	return &ResearchAgent{deps: deps}
}

func (a *ResearchAgent) Stage() pipeline.Stage {
	return pipeline.StageResearch
}

func (a *ResearchAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	if view.Discovery == nil {
		return nil, fault.New(fault.KindInvalidInput, "research requires the discovery artifact")
	}

	result, err := a.deps.Dispatcher.Dispatch(ctx,
		a.deps.textRequest(researchSystemPrompt, researchPrompt(view)))
	if err != nil {
		return nil, err
	}

	var artifact pipeline.ResearchArtifact
	if err := decodeModelJSON(result.Text.Text, &artifact); err != nil {
		return nil, err
	}

	var competitors []pipeline.CompetitorSummary
	for _, c := range artifact.Competitors {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		competitors = append(competitors, c)
	}
	artifact.Competitors = competitors
	artifact.PositioningNotes = nonEmpty(artifact.PositioningNotes)
	artifact.DifferentiationAngles = nonEmpty(artifact.DifferentiationAngles)

	minCompetitors := a.deps.Runtime.Pipeline().ResearchMinCompetitors
	if len(artifact.Competitors) < minCompetitors {
		return nil, fault.New(fault.KindInsufficientData,
			"research found %d competitors, need at least %d",
			len(artifact.Competitors), minCompetitors)
	}

	a.deps.log().Debug("Research complete",
		"case", view.CaseID, "competitors", len(artifact.Competitors))
	return &artifact, nil
}

var _ StageAgent = (*ResearchAgent)(nil)
