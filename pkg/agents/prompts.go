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
	"fmt"
	"strings"

	"github.com/brandforge/brandforge/pkg/pipeline"
)

// pillarElements are the six prompt pillars of the logo framework:
// subject, style, colour, typography, composition, detail.
type pillarElements struct {
	Subject     string
	Style       string
	Colours     string
	Typography  string
	Composition string
	Details     string
}

const vectorKeywords = "vector logo, flat design, clean lines, scalable design"

// buildLogoPrompt assembles the six pillars into one generation
// prompt. Vector-style keywords are always included.
func buildLogoPrompt(p pillarElements) string {
	var parts []string

	if p.Subject != "" {
		parts = append(parts, p.Subject)
	}
	if p.Style != "" {
		parts = append(parts, p.Style+" design")
	}
	if p.Colours != "" {
		parts = append(parts, p.Colours+" color palette")
	}
	if p.Typography != "" {
		parts = append(parts, "icon suitable for "+p.Typography)
	}
	if p.Composition != "" {
		parts = append(parts, p.Composition)
	}
	if p.Details != "" {
		parts = append(parts, vectorKeywords+", "+p.Details)
	} else {
		parts = append(parts, vectorKeywords)
	}

	return strings.Join(parts, ", ")
}

// pillarsFromView derives the pillar elements for one concept from the
// visual direction and discovery artifacts.
func pillarsFromView(view *pipeline.View, concept int) pillarElements {
	p := pillarElements{
		Subject:     "abstract symbol",
		Style:       "modern minimalist",
		Colours:     "professional blue and gray",
		Typography:  "clean sans-serif typography",
		Composition: "balanced composition",
		Details:     "professional appearance, minimal detail",
	}

	vd := view.VisualDirection
	if vd == nil {
		return p
	}

	if len(vd.ImageryThemes) > 0 {
		p.Subject = vd.ImageryThemes[concept%len(vd.ImageryThemes)]
	}
	if len(vd.MoodDescriptors) > 0 {
		p.Style = strings.Join(vd.MoodDescriptors, ", ")
	}
	if len(vd.Palette) > 0 {
		p.Colours = strings.Join(vd.Palette, ", ")
	}
	if vd.PrimaryTypeface.Family != "" {
		p.Typography = fmt.Sprintf("%s %s typography", vd.PrimaryTypeface.Family, vd.PrimaryTypeface.Category)
	}

	// Each concept explores a different compositional emphasis.
	compositions := []string{
		"balanced composition",
		"centered emblem composition",
		"dynamic asymmetric composition",
	}
	p.Composition = compositions[concept%len(compositions)]

	if view.Discovery != nil && view.Discovery.NormalisedName != "" {
		p.Subject = fmt.Sprintf("%s logo for %s", p.Subject, view.Discovery.NormalisedName)
	}

	return p
}

const discoverySystemPrompt = `You are the discovery analyst of a branding pipeline. You turn a raw
client brief into a normalised design brief. Respond with a single JSON
object with the keys: normalised_name, normalised_description,
requirements (array), constraints (array), excluded_concepts (array).`

func discoveryPrompt(intake pipeline.Intake) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business name: %s\n", intake.BusinessName)
	fmt.Fprintf(&b, "Description: %s\n", intake.BusinessDescription)
	if intake.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", intake.TargetAudience)
	}
	if intake.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", intake.Industry)
	}
	if len(intake.StyleKeywords) > 0 {
		fmt.Fprintf(&b, "Style keywords: %s\n", strings.Join(intake.StyleKeywords, ", "))
	}
	b.WriteString("\nProduce the normalised design brief.")
	return b.String()
}

const researchSystemPrompt = `You are the market research analyst of a branding pipeline. Given a
normalised design brief, analyse the competitive landscape. Respond
with a single JSON object with the keys: competitors (array of
{name, positioning, visual_style}), positioning_notes (array),
differentiation_angles (array). Include at least three competitors.`

func researchPrompt(view *pipeline.View) string {
	var b strings.Builder
	d := view.Discovery
	fmt.Fprintf(&b, "Brand: %s\n%s\n", d.NormalisedName, d.NormalisedDescription)
	if view.Intake.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", view.Intake.Industry)
	}
	if len(d.Requirements) > 0 {
		fmt.Fprintf(&b, "Requirements: %s\n", strings.Join(d.Requirements, "; "))
	}
	b.WriteString("\nAnalyse the competitive landscape for this brand.")
	return b.String()
}

const visualSystemPrompt = `You are the visual direction designer of a branding pipeline. Given a
design brief and market research, propose the visual direction.
Respond with a single JSON object with the keys: palette (array of
3-5 sRGB hex strings), primary_typeface ({family, weight, category}),
secondary_typeface ({family, weight, category}), mood_descriptors
(array), imagery_themes (array). Typeface category is one of serif,
sans-serif, display, mono.`

func visualPrompt(view *pipeline.View, extractedPalette []string) string {
	var b strings.Builder
	d := view.Discovery
	fmt.Fprintf(&b, "Brand: %s\n%s\n", d.NormalisedName, d.NormalisedDescription)
	if len(view.Intake.StyleKeywords) > 0 {
		fmt.Fprintf(&b, "Style keywords: %s\n", strings.Join(view.Intake.StyleKeywords, ", "))
	}
	if r := view.Research; r != nil && len(r.DifferentiationAngles) > 0 {
		fmt.Fprintf(&b, "Differentiation angles: %s\n", strings.Join(r.DifferentiationAngles, "; "))
	}
	if len(extractedPalette) > 0 {
		fmt.Fprintf(&b, "Colours extracted from client references: %s\n", strings.Join(extractedPalette, ", "))
		b.WriteString("Propose colours that harmonise with the extracted ones.\n")
	}
	b.WriteString("\nPropose the visual direction.")
	return b.String()
}

const brandSystemPrompt = `You are the brand system author of a branding pipeline. Given the
brand's visual direction and accepted logo, write the brand
guidelines. Respond with a single JSON object with the keys:
guidelines (string), usage_rules (array), dos (array), donts (array),
spacing_rules (array). Every key is required and must be non-empty.`

func brandSystemUserPrompt(view *pipeline.View) string {
	var b strings.Builder
	d := view.Discovery
	fmt.Fprintf(&b, "Brand: %s\n%s\n", d.NormalisedName, d.NormalisedDescription)
	if vd := view.VisualDirection; vd != nil {
		fmt.Fprintf(&b, "Palette: %s\n", strings.Join(vd.Palette, ", "))
		fmt.Fprintf(&b, "Primary typeface: %s %s (%s)\n",
			vd.PrimaryTypeface.Family, vd.PrimaryTypeface.Weight, vd.PrimaryTypeface.Category)
		fmt.Fprintf(&b, "Mood: %s\n", strings.Join(vd.MoodDescriptors, ", "))
	}
	if lg := view.LogoGeneration; lg != nil {
		if accepted := lg.AcceptedCandidates(); len(accepted) > 0 {
			fmt.Fprintf(&b, "Accepted logo produced by %s from prompt: %s\n",
				accepted[0].ProducingModel, accepted[0].PromptUsed)
		}
	}
	b.WriteString("\nWrite the complete brand guidelines.")
	return b.String()
}
