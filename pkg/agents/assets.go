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
	"image"

	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/imaging"
	"github.com/brandforge/brandforge/pkg/pipeline"
)

const faviconSize = 64

// AssetAgent derives the delivery renditions from the accepted logo.
// All transforms are deterministic pixel work; no model is involved.
type AssetAgent struct {
	deps Deps
}

func NewAssetAgent(deps Deps) *AssetAgent {
	return &AssetAgent{deps: deps}
}

func (a *AssetAgent) Stage() pipeline.Stage {
	return pipeline.StageAssetGeneration
}

func (a *AssetAgent) Execute(ctx context.Context, view *pipeline.View) (any, error) {
	if view.LogoGeneration == nil {
		return nil, fault.New(fault.KindInvalidInput,
			"asset generation requires the logo artifact")
	}
	accepted := view.LogoGeneration.AcceptedCandidates()
	if len(accepted) == 0 {
		return nil, fault.New(fault.KindInvalidInput,
			"asset generation requires an accepted logo candidate")
	}

	// Candidates are stored best-first; the top accepted one ships.
	selected := accepted[0]
	data, mimeType, err := a.deps.Blobs.GetBlob(ctx, selected.Image.Handle)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "failed to load accepted logo blob")
	}

	logo, err := imaging.Decode(data, mimeType)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "accepted logo is not decodable")
	}

	renditions := []struct {
		variant pipeline.AssetVariant
		image   image.Image
	}{
		{pipeline.VariantHorizontal, imaging.PadToAspect(logo, 3, 1)},
		{pipeline.VariantVertical, imaging.PadToAspect(logo, 2, 3)},
		{pipeline.VariantMonochrome, imaging.Monochrome(logo)},
		{pipeline.VariantFavicon, imaging.Favicon(logo, faviconSize)},
	}

	artifact := &pipeline.AssetGenerationArtifact{}
	for _, r := range renditions {
		encoded, err := imaging.EncodePNG(r.image)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "failed to encode %s asset", r.variant)
		}

		handle, err := a.deps.Blobs.PutBlob(ctx,
			fmt.Sprintf("cases/%s/assets", view.CaseID), encoded, "image/png")
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "failed to store %s asset", r.variant)
		}

		bounds := r.image.Bounds()
		artifact.Assets = append(artifact.Assets, pipeline.DerivedAsset{
			Variant: r.variant,
			Format:  "png",
			Image: pipeline.BlobRef{
				Handle:   handle,
				MIMEType: "image/png",
				Width:    bounds.Dx(),
				Height:   bounds.Dy(),
			},
		})
		artifact.Manifest = append(artifact.Manifest,
			fmt.Sprintf("%s.png %dx%d produced by %s",
				r.variant, bounds.Dx(), bounds.Dy(), selected.ProducingModel))
	}

	a.deps.log().Debug("Assets derived",
		"case", view.CaseID, "assets", len(artifact.Assets))
	return artifact, nil
}

var _ StageAgent = (*AssetAgent)(nil)
