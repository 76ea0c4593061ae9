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

// Package quality scores generated logo candidates. The validator is
// pure and deterministic: the same bytes always produce the same
// verdict.
package quality

import (
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/imaging"
)

const (
	// quantBins is the per-channel bin count used before perceptual
	// merging.
	quantBins = 64

	// colourCeiling is the distinct-colour count at which the colour
	// axis bottoms out.
	colourCeiling = 12

	maxDominantColours = 8
)

// Score is the validator's verdict on one candidate.
type Score struct {
	Resolution  float64 `json:"resolution"`
	ColourCount float64 `json:"colour_count"`
	Contrast    float64 `json:"contrast"`
	Composite   float64 `json:"composite"`
	Accepted    bool    `json:"accepted"`

	Width           int      `json:"width"`
	Height          int      `json:"height"`
	DistinctColours int      `json:"distinct_colours"`
	ContrastRatio   float64  `json:"contrast_ratio"`
	DominantPalette []string `json:"dominant_palette"`
}

// Weights are the per-axis contributions to the composite. They are
// normalised at validation time.
type Weights struct {
	Resolution  float64
	ColourCount float64
	Contrast    float64
}

// DefaultWeights weighs the three axes equally.
func DefaultWeights() Weights {
	return Weights{Resolution: 1, ColourCount: 1, Contrast: 1}
}

// Validator scores image candidates against the configured gate.
type Validator struct {
	minResolution    int
	maxColours       int
	minContrastRatio float64
	threshold        float64
	weights          Weights
}

func NewValidator(cfg config.PipelineConfig) *Validator {
	return &Validator{
		minResolution:    cfg.MinResolution,
		maxColours:       cfg.MaxColours,
		minContrastRatio: cfg.MinContrastRatio,
		threshold:        cfg.QualityThreshold,
		weights:          DefaultWeights(),
	}
}

// SetWeights overrides the default equal axis weights.
func (v *Validator) SetWeights(w Weights) {
	v.weights = w
}

// Validate decodes and scores one candidate. A decode failure is an
// invalid input, not a low score.
func (v *Validator) Validate(data []byte, mimeType string) (*Score, error) {
	img, err := imaging.Decode(data, mimeType)
	if err != nil {
		return nil, fault.Wrap(fault.KindInvalidInput, err, "candidate image is not decodable")
	}

	bounds := img.Bounds()
	score := &Score{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	score.Resolution = v.resolutionScore(score.Width, score.Height)

	dominant, distinct := dominantColours(img)
	score.DistinctColours = distinct
	score.ColourCount = v.colourScore(distinct)
	score.DominantPalette = imaging.ToHex(dominant)

	score.ContrastRatio = maxContrastRatio(dominant)
	score.Contrast = v.contrastScore(score.ContrastRatio)

	total := v.weights.Resolution + v.weights.ColourCount + v.weights.Contrast
	score.Composite = (score.Resolution*v.weights.Resolution +
		score.ColourCount*v.weights.ColourCount +
		score.Contrast*v.weights.Contrast) / total

	score.Accepted = score.Composite >= v.threshold && score.Contrast >= 1.0
	return score, nil
}

func (v *Validator) resolutionScore(width, height int) float64 {
	min := float64(v.minResolution)
	if float64(width) >= min && float64(height) >= min {
		return 1.0
	}
	s := (float64(width) / min) * (float64(height) / min)
	return clamp01(s)
}

func (v *Validator) colourScore(count int) float64 {
	if count <= v.maxColours {
		return 1.0
	}
	if count >= colourCeiling {
		return 0.0
	}
	return float64(colourCeiling-count) / float64(colourCeiling-v.maxColours)
}

func (v *Validator) contrastScore(ratio float64) float64 {
	if v.minContrastRatio <= 0 {
		return 1.0
	}
	if ratio > v.minContrastRatio {
		ratio = v.minContrastRatio
	}
	return ratio / v.minContrastRatio
}

// dominantColours quantises sampled pixels to quantBins per channel,
// merges perceptual near-duplicates, and returns the heaviest
// surviving clusters plus the total distinct cluster count.
func dominantColours(img image.Image) ([]colorful.Color, int) {
	samples := imaging.SamplePixels(img)
	if len(samples) == 0 {
		return nil, 0
	}

	type bin struct {
		colour colorful.Color
		weight int
	}

	const step = 256 / quantBins
	bins := make(map[[3]uint8]*bin)
	for _, c := range samples {
		r, g, b := c.RGB255()
		key := [3]uint8{r / step, g / step, b / step}
		if entry, ok := bins[key]; ok {
			entry.weight++
		} else {
			bins[key] = &bin{colour: c, weight: 1}
		}
	}

	ordered := make([]*bin, 0, len(bins))
	for _, entry := range bins {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].weight != ordered[j].weight {
			return ordered[i].weight > ordered[j].weight
		}
		return ordered[i].colour.Hex() < ordered[j].colour.Hex()
	})

	var merged []*bin
	for _, entry := range ordered {
		absorbed := false
		for _, kept := range merged {
			if kept.colour.DistanceCIEDE2000(entry.colour) < imaging.NearDuplicateDeltaE {
				kept.weight += entry.weight
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, entry)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].weight > merged[j].weight
	})

	colours := make([]colorful.Color, 0, len(merged))
	for i, entry := range merged {
		if i >= maxDominantColours {
			break
		}
		colours = append(colours, entry.colour)
	}
	return colours, len(merged)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// maxContrastRatio computes the best WCAG relative-luminance ratio
// between any two dominant colours.
func maxContrastRatio(colours []colorful.Color) float64 {
	if len(colours) < 2 {
		return 1.0
	}

	best := 1.0
	for i := 0; i < len(colours); i++ {
		for j := i + 1; j < len(colours); j++ {
			ratio := contrastRatio(colours[i], colours[j])
			if ratio > best {
				best = ratio
			}
		}
	}
	return best
}

func contrastRatio(a, b colorful.Color) float64 {
	la := relativeLuminance(a)
	lb := relativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// relativeLuminance follows the WCAG 2.x definition over linear sRGB.
func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
