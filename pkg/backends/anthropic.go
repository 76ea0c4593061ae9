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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/httpclient"
)

const (
	defaultAnthropicHost    = "https://api.anthropic.com"
	anthropicAPIVersion     = "2023-06-01"
	anthropicDefaultMaxToks = 4096
)

// AnthropicBackend serves Claude text completion via the Messages API.
// It is text-only; image requests are rejected.
type AnthropicBackend struct {
	descriptor Descriptor
	apiKey     string
	host       string
	httpClient *httpclient.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicBackend(cfg *config.BackendConfig) (*AnthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backend %s: api key is required", cfg.ID)
	}

	host := cfg.Host
	if host == "" {
		host = defaultAnthropicHost
	}

	return &AnthropicBackend{
		descriptor: descriptorFromConfig(cfg),
		apiKey:     cfg.APIKey,
		host:       host,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelaySeconds)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseAnthropicHeaders),
		),
	}, nil
}

func (b *AnthropicBackend) Describe() Descriptor {
	return b.descriptor
}

func (b *AnthropicBackend) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = anthropicDefaultMaxToks
	}

	prompt := req.Prompt
	if req.JSONOutput {
		// The Messages API has no response_format; steer via prompt.
		prompt += "\n\nRespond with a single JSON object and nothing else."
	}

	body := anthropicRequest{
		Model:       b.descriptor.Model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: req.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "backend %s: failed to encode request", b.descriptor.ID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "backend %s: failed to build request", b.descriptor.ID)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapProviderError(b.descriptor.ID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapProviderError(b.descriptor.ID, err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fault.Wrap(fault.KindTransient, err, "backend %s: malformed response", b.descriptor.ID)
	}
	if parsed.Error != nil {
		kind := fault.KindProviderPermanent
		if parsed.Error.Type == "overloaded_error" || parsed.Error.Type == "api_error" {
			kind = fault.KindTransient
		}
		return nil, fault.New(kind, "backend %s: %s", b.descriptor.ID, parsed.Error.Message)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fault.New(fault.KindTransient, "backend %s: empty completion", b.descriptor.ID)
	}

	return &TextResult{
		Text:             text,
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
	}, nil
}

func (b *AnthropicBackend) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	return nil, fault.New(fault.KindProviderPermanent, "backend %s does not generate images", b.descriptor.ID)
}

var _ ModelBackend = (*AnthropicBackend)(nil)
