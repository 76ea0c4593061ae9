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

// DiscoveryAgent normalises the raw intake into a design brief.
type DiscoveryAgent struct {
	deps Deps
}

func NewDiscoveryAgent(deps Deps) *DiscoveryAgent {
	return &DiscoveryAgent{deps: deps}
}

func (a *DiscoveryAgent) Stage() pipeline.Stage {
	return pipeline.StageDiscovery
}

func (a *DiscoveryAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	result, err := a.deps.Dispatcher.Dispatch(ctx,
		a.deps.textRequest(discoverySystemPrompt, discoveryPrompt(view.Intake)))
	if err != nil {
		return nil, err
	}

	var artifact pipeline.DiscoveryArtifact
	if err := decodeModelJSON(result.Text.Text, &artifact); err != nil {
		return nil, err
	}

	artifact.Requirements = nonEmpty(artifact.Requirements)
	artifact.Constraints = nonEmpty(artifact.Constraints)
	artifact.ExcludedConcepts = nonEmpty(artifact.ExcludedConcepts)

	if strings.TrimSpace(artifact.NormalisedName) == "" {
		artifact.NormalisedName = view.Intake.BusinessName
	}
	if strings.TrimSpace(artifact.NormalisedDescription) == "" {
		return nil, fault.New(fault.KindInsufficientData,
			"discovery produced no normalised description")
	}

	a.deps.log().Debug("Discovery brief produced",
		"case", view.CaseID, "requirements", len(artifact.Requirements))
	return &artifact, nil
}

var _ StageAgent = (*DiscoveryAgent)(nil)
