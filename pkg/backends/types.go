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

// Package backends adapts external model providers behind a single
// interface. Backends report failures through the shared taxonomy and
// never retry across providers; fallback belongs to the dispatcher.
package backends

import (
	"context"
)

// Modality distinguishes text completion from image generation.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Descriptor is the routing metadata of one registered backend.
type Descriptor struct {
	ID                 string
	Type               string
	Modality           Modality
	Model              string
	Capabilities       []string
	RateLimitPerMinute int
	PriorityWeight     int
	CostPerImage       float64
	Enabled            bool
}

// HasCapabilities reports whether the descriptor advertises every
// required capability.
func (d Descriptor) HasCapabilities(required []string) bool {
	for _, want := range required {
		found := false
		for _, have := range d.Capabilities {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TextRequest is a single text completion call.
type TextRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64

	// JSONOutput asks the provider for a JSON-only response where the
	// provider supports constrained output.
	JSONOutput bool
}

// TextResult is the completion plus token accounting.
type TextResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// ImageRequest is a single image generation call.
type ImageRequest struct {
	Prompt string
	Width  int
	Height int
}

// ImageResult carries the generated image bytes. Cost is the backend's
// configured per-image price.
type ImageResult struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	Cost     float64
}

// ModelBackend is one provider endpoint. Implementations must be safe
// for concurrent use.
type ModelBackend interface {
	Describe() Descriptor
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
