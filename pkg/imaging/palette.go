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

package imaging

import (
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	maxPixelSamples = 4096

	// NearDuplicateDeltaE is the CIEDE2000 distance under which two
	// colours count as the same.
	NearDuplicateDeltaE = 10.0
)

// SamplePixels walks the image on a fixed grid and returns up to
// maxPixelSamples colours. The grid stride depends only on image size,
// so repeated runs over the same image sample the same pixels.
func SamplePixels(img image.Image) []colorful.Color {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	stride := 1
	for (w/stride)*(h/stride) > maxPixelSamples {
		stride++
	}

	samples := make([]colorful.Color, 0, maxPixelSamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixel.
				continue
			}
			samples = append(samples, c)
		}
	}
	return samples
}

// ExtractPalette clusters the image's sampled pixels with k-means in
// Lab space and returns the cluster centers ordered by cluster size,
// largest first. Seeding is deterministic: initial centers are spread
// evenly across the sample sequence.
func ExtractPalette(img image.Image, k int) []colorful.Color {
	samples := SamplePixels(img)
	if len(samples) == 0 || k <= 0 {
		return nil
	}
	if k > len(samples) {
		k = len(samples)
	}

	type labPoint struct{ l, a, b float64 }
	points := make([]labPoint, len(samples))
	for i, c := range samples {
		l, a, b := c.Lab()
		points[i] = labPoint{l, a, b}
	}

	centers := make([]labPoint, k)
	for i := 0; i < k; i++ {
		centers[i] = points[i*len(points)/k]
	}

	assign := make([]int, len(points))
	for iter := 0; iter < 16; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, -1.0
			for j, c := range centers {
				dl, da, db := p.l-c.l, p.a-c.a, p.b-c.b
				dist := dl*dl + da*da + db*db
				if bestDist < 0 || dist < bestDist {
					best, bestDist = j, dist
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		sums := make([]labPoint, k)
		counts := make([]int, k)
		for i, p := range points {
			j := assign[i]
			sums[j].l += p.l
			sums[j].a += p.a
			sums[j].b += p.b
			counts[j]++
		}
		for j := range centers {
			if counts[j] > 0 {
				centers[j] = labPoint{
					sums[j].l / float64(counts[j]),
					sums[j].a / float64(counts[j]),
					sums[j].b / float64(counts[j]),
				}
			}
		}

		if !changed {
			break
		}
	}

	counts := make([]int, k)
	for _, j := range assign {
		counts[j]++
	}

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	palette := make([]colorful.Color, 0, k)
	for _, j := range order {
		if counts[j] == 0 {
			continue
		}
		palette = append(palette, colorful.Lab(centers[j].l, centers[j].a, centers[j].b).Clamped())
	}
	return palette
}

// MergeNearDuplicates drops colours within NearDuplicateDeltaE of an
// earlier entry, preserving order.
func MergeNearDuplicates(colours []colorful.Color) []colorful.Color {
	var merged []colorful.Color
	for _, c := range colours {
		duplicate := false
		for _, kept := range merged {
			if kept.DistanceCIEDE2000(c) < NearDuplicateDeltaE {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, c)
		}
	}
	return merged
}

// ToHex renders colours as sRGB hex triplets.
func ToHex(colours []colorful.Color) []string {
	hexes := make([]string, len(colours))
	for i, c := range colours {
		hexes[i] = c.Hex()
	}
	return hexes
}

// ParseHex parses hex triplets, silently dropping malformed entries.
func ParseHex(hexes []string) []colorful.Color {
	var colours []colorful.Color
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			continue
		}
		colours = append(colours, c)
	}
	return colours
}
