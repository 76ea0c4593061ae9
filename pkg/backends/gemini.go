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

package backends

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
)

// GeminiBackend serves Google models through the official genai SDK.
// Depending on configuration it covers Gemini text completion, Gemini
// flash image generation, and Imagen image generation.
type GeminiBackend struct {
	descriptor Descriptor
	client     *genai.Client

	// imagen selects the dedicated image API instead of flash
	// multimodal output.
	imagen bool
}

func NewGeminiBackend(cfg *config.BackendConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backend %s: api key is required", cfg.ID)
	}

	// Constructors should not require a caller context.
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("backend %s: failed to create genai client: %w", cfg.ID, err)
	}

	return &GeminiBackend{
		descriptor: descriptorFromConfig(cfg),
		client:     client,
		imagen:     cfg.Type == "imagen",
	}, nil
}

func (b *GeminiBackend) Describe() Descriptor {
	return b.descriptor
}

func (b *GeminiBackend) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	cfg.Temperature = genai.Ptr(float32(req.Temperature))
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.descriptor.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, b.wrapError(err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fault.New(fault.KindTransient, "backend %s: empty completion", b.descriptor.ID)
	}

	result := &TextResult{Text: text}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func (b *GeminiBackend) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if b.imagen {
		return b.generateImagen(ctx, req)
	}
	return b.generateFlashImage(ctx, req)
}

func (b *GeminiBackend) generateImagen(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	resp, err := b.client.Models.GenerateImages(ctx, b.descriptor.Model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, b.wrapError(err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fault.New(fault.KindTransient, "backend %s: empty image response", b.descriptor.ID)
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return &ImageResult{
		Data:     img.ImageBytes,
		MIMEType: mimeType,
		Width:    req.Width,
		Height:   req.Height,
		Cost:     b.descriptor.CostPerImage,
	}, nil
}

func (b *GeminiBackend) generateFlashImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.descriptor.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, b.wrapError(err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return &ImageResult{
					Data:     part.InlineData.Data,
					MIMEType: mimeType,
					Width:    req.Width,
					Height:   req.Height,
					Cost:     b.descriptor.CostPerImage,
				}, nil
			}
		}
	}

	return nil, fault.New(fault.KindTransient, "backend %s: no image part in response", b.descriptor.ID)
}

func (b *GeminiBackend) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := fault.KindProviderPermanent
		if apiErr.Code == 408 || apiErr.Code == 429 || apiErr.Code >= 500 {
			kind = fault.KindTransient
		}
		return fault.Wrap(kind, err, "backend %s: %s", b.descriptor.ID, apiErr.Message)
	}
	return wrapProviderError(b.descriptor.ID, err)
}

var _ ModelBackend = (*GeminiBackend)(nil)
