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

	"github.com/lucasb-eyer/go-colorful"

	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/imaging"
	"github.com/brandforge/brandforge/pkg/pipeline"
)

// referencePaletteK is the k-means cluster count used on client
// reference images.
const referencePaletteK = 5

const minPaletteSize = 3

// VisualDirectionAgent produces the visual brief: palette, typefaces,
// mood and imagery. Client reference images are analysed here and only
// their extracted features survive the stage.
type VisualDirectionAgent struct {
	deps Deps
}

func NewVisualDirectionAgent(deps Deps) *VisualDirectionAgent {
	return &VisualDirectionAgent{deps: deps}
}

func (a *VisualDirectionAgent) Stage() pipeline.Stage {
	return pipeline.StageVisualDirection
}

func (a *VisualDirectionAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	if view.Discovery == nil || view.Research == nil {
		return nil, fault.New(fault.KindInvalidInput,
			"visual direction requires discovery and research artifacts")
	}

	extracted := a.extractReferencePalette(view)
	extractedHex := imaging.ToHex(extracted)

	result, err := a.deps.Dispatcher.Dispatch(ctx,
		a.deps.textRequest(visualSystemPrompt, visualPrompt(view, extractedHex)))
	if err != nil {
		return nil, err
	}

	var artifact pipeline.VisualDirectionArtifact
	if err := decodeModelJSON(result.Text.Text, &artifact); err != nil {
		return nil, err
	}

	artifact.Palette = a.blendPalette(extracted, artifact.Palette)
	artifact.MoodDescriptors = nonEmpty(artifact.MoodDescriptors)
	artifact.ImageryThemes = nonEmpty(artifact.ImageryThemes)

	if len(artifact.Palette) < minPaletteSize {
		return nil, fault.New(fault.KindInsufficientData,
			"visual direction produced %d palette colours, need at least %d",
			len(artifact.Palette), minPaletteSize)
	}
	if len(artifact.MoodDescriptors) == 0 || len(artifact.ImageryThemes) == 0 {
		return nil, fault.New(fault.KindInsufficientData,
			"visual direction is missing mood descriptors or imagery themes")
	}
	if artifact.PrimaryTypeface.Family == "" {
		return nil, fault.New(fault.KindInsufficientData,
			"visual direction proposed no primary typeface")
	}

	if len(extractedHex) > 0 {
		artifact.ReferenceAnalysis = &pipeline.ReferenceAnalysis{
			Palette:   extractedHex,
			StyleTags: artifact.MoodDescriptors,
		}
	}

	a.deps.log().Debug("Visual direction produced",
		"case", view.CaseID, "palette", len(artifact.Palette),
		"referenced", len(extractedHex) > 0)
	return &artifact, nil
}

// extractReferencePalette clusters the pixels of every decodable
// reference image. Vector formats carry no pixels and are skipped.
func (a *VisualDirectionAgent) extractReferencePalette(view *pipeline.View) []colorful.Color {
	var colours []colorful.Color
	for _, ref := range view.Intake.ReferenceImages {
		if len(ref.Data) == 0 {
			continue
		}
		img, err := imaging.Decode(ref.Data, ref.MIMEType)
		if err != nil {
			a.deps.log().Debug("Skipping undecodable reference image",
				"case", view.CaseID, "name", ref.Name, "error", err)
			continue
		}
		colours = append(colours, imaging.ExtractPalette(img, referencePaletteK)...)
	}
	return imaging.MergeNearDuplicates(colours)
}

// blendPalette keeps extracted colours first, appends the model's
// proposals, drops perceptual near-duplicates, and clamps to the
// configured palette size.
func (a *VisualDirectionAgent) blendPalette(extracted []colorful.Color, proposed []string) []string {
	combined := append([]colorful.Color{}, extracted...)
	combined = append(combined, imaging.ParseHex(nonEmpty(proposed))...)
	blended := imaging.MergeNearDuplicates(combined)

	maxColours := a.deps.Runtime.Pipeline().MaxColours
	if maxColours > 0 && len(blended) > maxColours {
		blended = blended[:maxColours]
	}
	return imaging.ToHex(blended)
}

var _ StageAgent = (*VisualDirectionAgent)(nil)
