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

// Package agents implements the six stage agents of the branding
// pipeline. Each agent reads a scoped case view, talks to models
// through the dispatcher, and returns a proposed artifact; the
// coordinator decides what to do with it.
package agents

import (
	"context"
	"log/slog"

	"github.com/brandforge/brandforge/pkg/backends"
	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/dispatch"
	"github.com/brandforge/brandforge/pkg/logger"
	"github.com/brandforge/brandforge/pkg/pipeline"
	"github.com/brandforge/brandforge/pkg/storage"
)

// StageAgent produces the artifact of one pipeline stage. Execute must
// not mutate the view; the returned artifact's concrete type must
// match the agent's stage.
type StageAgent interface {
	Stage() pipeline.Stage
	Execute(ctx context.Context, view *pipeline.View) (any, error)
}

// Deps are the shared collaborators injected into every agent.
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Runtime    *config.Runtime
	Blobs      storage.BlobStore
	Logger     *slog.Logger
}

func (d *Deps) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logger.GetLogger()
}

// All returns the full agent set keyed by stage.
func All(deps Deps) map[pipeline.Stage]StageAgent {
	set := []StageAgent{
		NewDiscoveryAgent(deps),
		NewResearchAgent(deps),
		NewVisualDirectionAgent(deps),
		NewLogoAgent(deps),
		NewBrandSystemAgent(deps),
		NewAssetAgent(deps),
	}
	agents := make(map[pipeline.Stage]StageAgent, len(set))
	for _, a := range set {
		agents[a.Stage()] = a
	}
	return agents
}

// textRequest builds the common text dispatch request for an agent
// call, routed at the configured primary text model.
func (d *Deps) textRequest(system, prompt string) dispatch.Request {
	p := d.Runtime.Pipeline()
	req := dispatch.Request{
		Modality:       backends.ModalityText,
		System:         system,
		Prompt:         prompt,
		Temperature:    0.7,
		JSONOutput:     true,
		PerCallTimeout: d.Runtime.PerCallTimeout(),
	}
	if p.PrimaryTextModel != "" {
		req.BackendPreference = []string{p.PrimaryTextModel}
	}
	return req
}
