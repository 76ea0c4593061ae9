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
	"strings"
	"testing"

	"github.com/brandforge/brandforge/pkg/pipeline"
)

func TestBuildLogoPrompt(t *testing.T) {
	got := buildLogoPrompt(pillarElements{
		Subject:     "coffee leaf logo for acme",
		Style:       "warm, artisanal",
		Colours:     "#2b4a3e, #e8d5b7",
		Typography:  "Inter sans-serif typography",
		Composition: "centered emblem composition",
		Details:     "subtle texture",
	})

	want := "coffee leaf logo for acme, warm, artisanal design, " +
		"#2b4a3e, #e8d5b7 color palette, icon suitable for Inter sans-serif typography, " +
		"centered emblem composition, vector logo, flat design, clean lines, scalable design, subtle texture"
	if got != want {
		t.Errorf("buildLogoPrompt() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildLogoPrompt_EmptyPillars(t *testing.T) {
	got := buildLogoPrompt(pillarElements{})
	if got != vectorKeywords {
		t.Errorf("empty pillars should reduce to the vector keywords, got %q", got)
	}
}

func TestPillarsFromView_Defaults(t *testing.T) {
	p := pillarsFromView(&pipeline.View{}, 0)

	if p.Subject != "abstract symbol" {
		t.Errorf("Subject = %q", p.Subject)
	}
	if p.Composition != "balanced composition" {
		t.Errorf("Composition = %q", p.Composition)
	}
}

func TestPillarsFromView_ConceptRotation(t *testing.T) {
	view := &pipeline.View{
		Discovery: &pipeline.DiscoveryArtifact{NormalisedName: "acme-coffee"},
		VisualDirection: &pipeline.VisualDirectionArtifact{
			Palette:         []string{"#2b4a3e", "#e8d5b7"},
			PrimaryTypeface: pipeline.Typeface{Family: "Inter", Category: "sans-serif"},
			MoodDescriptors: []string{"warm", "artisanal"},
			ImageryThemes:   []string{"coffee leaf", "rising steam"},
		},
	}

	p0 := pillarsFromView(view, 0)
	p1 := pillarsFromView(view, 1)
	p2 := pillarsFromView(view, 2)

	if p0.Subject != "coffee leaf logo for acme-coffee" {
		t.Errorf("concept 0 subject = %q", p0.Subject)
	}
	if p1.Subject != "rising steam logo for acme-coffee" {
		t.Errorf("concept 1 subject = %q", p1.Subject)
	}
	// Two themes wrap around at concept 2.
	if p2.Subject != p0.Subject {
		t.Errorf("concept 2 should reuse theme 0, got %q", p2.Subject)
	}

	if p0.Composition == p1.Composition || p1.Composition == p2.Composition {
		t.Error("each concept should explore a different composition")
	}
	if p0.Colours != "#2b4a3e, #e8d5b7" {
		t.Errorf("Colours = %q", p0.Colours)
	}
	if p0.Typography != "Inter sans-serif typography" {
		t.Errorf("Typography = %q", p0.Typography)
	}
	if p0.Style != "warm, artisanal" {
		t.Errorf("Style = %q", p0.Style)
	}
}

func TestVisualPrompt_IncludesExtractedColours(t *testing.T) {
	view := &pipeline.View{
		Discovery: &pipeline.DiscoveryArtifact{
			NormalisedName:        "acme",
			NormalisedDescription: "desc",
		},
	}

	with := visualPrompt(view, []string{"#2b4a3e"})
	if !strings.Contains(with, "#2b4a3e") {
		t.Error("extracted colours should appear in the prompt")
	}

	without := visualPrompt(view, nil)
	if strings.Contains(without, "extracted") {
		t.Error("no reference hint without extracted colours")
	}
}
