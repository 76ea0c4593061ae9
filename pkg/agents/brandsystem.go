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

// BrandSystemAgent writes the brand guidelines document around the
// accepted logo.
type BrandSystemAgent struct {
	deps Deps
}

func NewBrandSystemAgent(deps Deps) *BrandSystemAgent {
	return &BrandSystemAgent{deps: deps}
}

func (a *BrandSystemAgent) Stage() pipeline.Stage {
	return pipeline.StageBrandSystem
}

func (a *BrandSystemAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	if view.VisualDirection == nil || view.LogoGeneration == nil {
		return nil, fault.New(fault.KindInvalidInput,
			"brand system requires visual direction and logo artifacts")
	}

	result, err := a.deps.Dispatcher.Dispatch(ctx,
		a.deps.textRequest(brandSystemPrompt, brandSystemUserPrompt(view)))
	if err != nil {
		return nil, err
	}

	var artifact pipeline.BrandSystemArtifact
	if err := decodeModelJSON(result.Text.Text, &artifact); err != nil {
		return nil, err
	}

	artifact.UsageRules = nonEmpty(artifact.UsageRules)
	artifact.Dos = nonEmpty(artifact.Dos)
	artifact.Donts = nonEmpty(artifact.Donts)
	artifact.SpacingRules = nonEmpty(artifact.SpacingRules)

	var missing []string
	if strings.TrimSpace(artifact.Guidelines) == "" {
		missing = append(missing, "guidelines")
	}
	if len(artifact.UsageRules) == 0 {
		missing = append(missing, "usage_rules")
	}
	if len(artifact.Dos) == 0 {
		missing = append(missing, "dos")
	}
	if len(artifact.Donts) == 0 {
		missing = append(missing, "donts")
	}
	if len(artifact.SpacingRules) == 0 {
		missing = append(missing, "spacing_rules")
	}
	if len(missing) > 0 {
		return nil, fault.New(fault.KindInsufficientData,
			"brand system is missing required sections: %s", strings.Join(missing, ", "))
	}

	a.deps.log().Debug("Brand system written",
		"case", view.CaseID, "usage_rules", len(artifact.UsageRules))
	return &artifact, nil
}

var _ StageAgent = (*BrandSystemAgent)(nil)
