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
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/httpclient"
)

const defaultOpenAIHost = "https://api.openai.com"

// OpenAIBackend serves GPT text completion and image generation via
// the OpenAI REST API.
type OpenAIBackend struct {
	descriptor Descriptor
	apiKey     string
	host       string
	httpClient *httpclient.Client
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      *int                  `json:"max_tokens,omitempty"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage openAIUsage  `json:"usage"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// NewOpenAIBackend builds a backend from its registry entry.
func NewOpenAIBackend(cfg *config.BackendConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backend %s: api key is required", cfg.ID)
	}

	host := cfg.Host
	if host == "" {
		host = defaultOpenAIHost
	}

	return &OpenAIBackend{
		descriptor: descriptorFromConfig(cfg),
		apiKey:     cfg.APIKey,
		host:       host,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelaySeconds)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
	}, nil
}

func (b *OpenAIBackend) Describe() Descriptor {
	return b.descriptor
}

func (b *OpenAIBackend) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	messages := make([]openAIMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	body := openAIChatRequest{
		Model:       b.descriptor.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = &req.MaxTokens
	}
	if req.JSONOutput {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	var parsed openAIChatResponse
	if err := b.post(ctx, "/v1/chat/completions", body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != nil {
		return nil, b.apiError(parsed.Error)
	}
	if len(parsed.Choices) == 0 {
		return nil, fault.New(fault.KindTransient, "backend %s: empty completion", b.descriptor.ID)
	}

	return &TextResult{
		Text:             parsed.Choices[0].Message.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func (b *OpenAIBackend) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	width, height := req.Width, req.Height
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 1024
	}

	body := openAIImageRequest{
		Model:          b.descriptor.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           fmt.Sprintf("%dx%d", width, height),
		ResponseFormat: "b64_json",
	}

	var parsed openAIImageResponse
	if err := b.post(ctx, "/v1/images/generations", body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != nil {
		return nil, b.apiError(parsed.Error)
	}
	if len(parsed.Data) == 0 {
		return nil, fault.New(fault.KindTransient, "backend %s: empty image response", b.descriptor.ID)
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fault.Wrap(fault.KindTransient, err, "backend %s: malformed image payload", b.descriptor.ID)
	}

	return &ImageResult{
		Data:     data,
		MIMEType: "image/png",
		Width:    width,
		Height:   height,
		Cost:     b.descriptor.CostPerImage,
	}, nil
}

func (b *OpenAIBackend) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fault.Wrap(fault.KindInternal, err, "backend %s: failed to encode request", b.descriptor.ID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+path, bytes.NewReader(payload))
	if err != nil {
		return fault.Wrap(fault.KindInternal, err, "backend %s: failed to build request", b.descriptor.ID)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return wrapProviderError(b.descriptor.ID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapProviderError(b.descriptor.ID, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fault.Wrap(fault.KindTransient, err, "backend %s: malformed response", b.descriptor.ID)
	}
	return nil
}

func (b *OpenAIBackend) apiError(apiErr *openAIError) error {
	kind := fault.KindProviderPermanent
	if apiErr.Type == "server_error" || apiErr.Code == "rate_limit_exceeded" {
		kind = fault.KindTransient
	}
	return fault.New(kind, "backend %s: %s", b.descriptor.ID, apiErr.Message)
}

func descriptorFromConfig(cfg *config.BackendConfig) Descriptor {
	return Descriptor{
		ID:                 cfg.ID,
		Type:               cfg.Type,
		Modality:           Modality(cfg.Modality),
		Model:              cfg.Model,
		Capabilities:       cfg.Capabilities,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		PriorityWeight:     cfg.PriorityWeight,
		CostPerImage:       cfg.CostPerImage,
		Enabled:            cfg.IsEnabled(),
	}
}

var _ ModelBackend = (*OpenAIBackend)(nil)
