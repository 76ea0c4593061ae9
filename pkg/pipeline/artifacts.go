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

package pipeline

import "fmt"

// BlobRef points at an image blob. Bytes are populated while the blob
// is in flight and dropped once it has been streamed to the blob
// store; from then on only the handle travels with the case.
type BlobRef struct {
	Handle   string `json:"handle,omitempty"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bytes    []byte `json:"-"`
}

// Stored reports whether the blob has been handed to the blob store.
func (b *BlobRef) Stored() bool {
	return b.Handle != ""
}

// DiscoveryArtifact is the normalised brief produced from the intake.
type DiscoveryArtifact struct {
	NormalisedName        string   `json:"normalised_name"`
	NormalisedDescription string   `json:"normalised_description"`
	Requirements          []string `json:"requirements"`
	Constraints           []string `json:"constraints"`
	ExcludedConcepts      []string `json:"excluded_concepts"`
}

// CompetitorSummary is one entry of the research artifact.
type CompetitorSummary struct {
	Name        string `json:"name"`
	Positioning string `json:"positioning"`
	VisualStyle string `json:"visual_style"`
}

// ResearchArtifact captures the market analysis.
type ResearchArtifact struct {
	Competitors           []CompetitorSummary `json:"competitors"`
	PositioningNotes      []string            `json:"positioning_notes"`
	DifferentiationAngles []string            `json:"differentiation_angles"`
}

// Typeface describes one typeface recommendation.
type Typeface struct {
	Family   string `json:"family"`
	Weight   string `json:"weight"`
	Category string `json:"category"` // serif, sans-serif, display, mono
}

// ReferenceAnalysis holds features extracted from client references.
type ReferenceAnalysis struct {
	Palette   []string `json:"palette"` // sRGB hex triplets
	StyleTags []string `json:"style_tags"`
}

// VisualDirectionArtifact is the visual brief for logo generation.
type VisualDirectionArtifact struct {
	Palette           []string           `json:"palette"` // 3-5 sRGB hex triplets
	PrimaryTypeface   Typeface           `json:"primary_typeface"`
	SecondaryTypeface Typeface           `json:"secondary_typeface"`
	MoodDescriptors   []string           `json:"mood_descriptors"`
	ImageryThemes     []string           `json:"imagery_themes"`
	ReferenceAnalysis *ReferenceAnalysis `json:"reference_analysis,omitempty"`
}

// LogoCandidate is one generated logo with its validation verdict.
type LogoCandidate struct {
	Image          BlobRef `json:"image"`
	ProducingModel string  `json:"producing_model"`
	PromptUsed     string  `json:"prompt_used"`
	QualityScore   float64 `json:"quality_score"`
	Accepted       bool    `json:"accepted"`
	IssueIndex     int     `json:"issue_index"`
}

// LogoGenerationArtifact holds all candidates from the logo stage.
// Candidates are stored in deterministic order: producing model
// priority first, then issue index.
type LogoGenerationArtifact struct {
	Candidates []LogoCandidate `json:"candidates"`
	PromptUsed string          `json:"prompt_used"`
	TotalCost  float64         `json:"total_cost"`
}

// AcceptedCandidates returns the candidates that passed the gate.
func (a *LogoGenerationArtifact) AcceptedCandidates() []LogoCandidate {
	var accepted []LogoCandidate
	for _, c := range a.Candidates {
		if c.Accepted {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

// BrandSystemArtifact is the written guidelines document.
type BrandSystemArtifact struct {
	Guidelines   string   `json:"guidelines"`
	UsageRules   []string `json:"usage_rules"`
	Dos          []string `json:"dos"`
	Donts        []string `json:"donts"`
	SpacingRules []string `json:"spacing_rules"`
}

// AssetVariant names one derived logo rendition.
type AssetVariant string

const (
	VariantHorizontal AssetVariant = "horizontal"
	VariantVertical   AssetVariant = "vertical"
	VariantMonochrome AssetVariant = "monochrome"
	VariantFavicon    AssetVariant = "favicon"
)

// DerivedAsset is one rendered variant.
type DerivedAsset struct {
	Variant AssetVariant `json:"variant"`
	Image   BlobRef      `json:"image"`
	Format  string       `json:"format"`
}

// AssetGenerationArtifact is the final asset bundle plus its delivery
// manifest.
type AssetGenerationArtifact struct {
	Assets   []DerivedAsset `json:"assets"`
	Manifest []string       `json:"manifest"`
}

// Artifacts maps each completed stage to its output record. An entry
// exists exactly when the stage succeeded, and entries always form a
// prefix of pipeline order.
type Artifacts struct {
	Discovery       *DiscoveryArtifact       `json:"discovery,omitempty"`
	Research        *ResearchArtifact        `json:"research,omitempty"`
	VisualDirection *VisualDirectionArtifact `json:"visual_direction,omitempty"`
	LogoGeneration  *LogoGenerationArtifact  `json:"logo_generation,omitempty"`
	BrandSystem     *BrandSystemArtifact     `json:"brand_system,omitempty"`
	AssetGeneration *AssetGenerationArtifact `json:"asset_generation,omitempty"`
}

// Has reports whether the stage's artifact is present.
func (a *Artifacts) Has(stage Stage) bool {
	switch stage {
	case StageDiscovery:
		return a.Discovery != nil
	case StageResearch:
		return a.Research != nil
	case StageVisualDirection:
		return a.VisualDirection != nil
	case StageLogoGeneration:
		return a.LogoGeneration != nil
	case StageBrandSystem:
		return a.BrandSystem != nil
	case StageAssetGeneration:
		return a.AssetGeneration != nil
	default:
		return false
	}
}

// Set stores a stage's artifact. The value's concrete type must match
// the stage.
func (a *Artifacts) Set(stage Stage, artifact any) error {
	switch stage {
	case StageDiscovery:
		v, ok := artifact.(*DiscoveryArtifact)
		if !ok {
			return fmt.Errorf("stage %s: wrong artifact type %T", stage, artifact)
		}
		a.Discovery = v
	case StageResearch:
		v, ok := artifact.(*ResearchArtifact)
		if !ok {
			return fmt.Errorf("stage %s: wrong artifact type %T", stage, artifact)
		}
		a.Research = v
	case StageVisualDirection:
		v, ok := artifact.(*VisualDirectionArtifact)
		if !ok {
			return fmt.Errorf("stage %s: wrong artifact type %T", stage, artifact)
		}
		a.VisualDirection = v
	case StageLogoGeneration:
		v, ok := artifact.(*LogoGenerationArtifact)
		if !ok {
			return fmt.Errorf("stage %s: wrong artifact type %T", stage, artifact)
		}
		a.LogoGeneration = v
	case StageBrandSystem:
		v, ok := artifact.(*BrandSystemArtifact)
		if !ok {
			return fmt.Errorf("stage %s: wrong artifact type %T", stage, artifact)
		}
		a.BrandSystem = v
	case StageAssetGeneration:
		v, ok := artifact.(*AssetGenerationArtifact)
		if !ok {
			return fmt.Errorf("stage %s: wrong artifact type %T", stage, artifact)
		}
		a.AssetGeneration = v
	default:
		return fmt.Errorf("stage %s does not produce an artifact", stage)
	}
	return nil
}

// DiscardFrom removes artifacts for stage and everything after it.
// This is the only way artifacts are ever removed.
func (a *Artifacts) DiscardFrom(stage Stage) {
	for _, s := range WorkingStages() {
		if !s.Before(stage) {
			a.clear(s)
		}
	}
}

func (a *Artifacts) clear(stage Stage) {
	switch stage {
	case StageDiscovery:
		a.Discovery = nil
	case StageResearch:
		a.Research = nil
	case StageVisualDirection:
		a.VisualDirection = nil
	case StageLogoGeneration:
		a.LogoGeneration = nil
	case StageBrandSystem:
		a.BrandSystem = nil
	case StageAssetGeneration:
		a.AssetGeneration = nil
	}
}

// PrefixOK verifies the artifact-prefix invariant: a present artifact
// implies all earlier stages' artifacts are present.
func (a *Artifacts) PrefixOK() bool {
	seenGap := false
	for _, s := range WorkingStages() {
		if !a.Has(s) {
			seenGap = true
		} else if seenGap {
			return false
		}
	}
	return true
}

// Count returns the number of artifacts present.
func (a *Artifacts) Count() int {
	n := 0
	for _, s := range WorkingStages() {
		if a.Has(s) {
			n++
		}
	}
	return n
}
