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
	defaultFluxHost  = "https://api.bfl.ai"
	fluxPollInterval = 500 * time.Millisecond
)

// FluxBackend serves FLUX image generation via the Black Forest Labs
// async API: submit a task, poll until ready, download the sample.
// It is image-only; text requests are rejected.
type FluxBackend struct {
	descriptor Descriptor
	apiKey     string
	host       string
	httpClient *httpclient.Client

	pollInterval time.Duration
}

type fluxSubmitRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type fluxSubmitResponse struct {
	ID         string `json:"id"`
	PollingURL string `json:"polling_url"`
}

type fluxPollResponse struct {
	Status string `json:"status"`
	Result struct {
		Sample string `json:"sample"`
	} `json:"result"`
}

func NewFluxBackend(cfg *config.BackendConfig) (*FluxBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backend %s: api key is required", cfg.ID)
	}

	host := cfg.Host
	if host == "" {
		host = defaultFluxHost
	}

	return &FluxBackend{
		descriptor: descriptorFromConfig(cfg),
		apiKey:     cfg.APIKey,
		host:       host,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelaySeconds)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseRetryAfterHeader),
		),
		pollInterval: fluxPollInterval,
	}, nil
}

func (b *FluxBackend) Describe() Descriptor {
	return b.descriptor
}

func (b *FluxBackend) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	return nil, fault.New(fault.KindProviderPermanent, "backend %s does not generate text", b.descriptor.ID)
}

func (b *FluxBackend) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	submitted, err := b.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	sampleURL, err := b.poll(ctx, submitted.PollingURL)
	if err != nil {
		return nil, err
	}

	data, mimeType, err := b.download(ctx, sampleURL)
	if err != nil {
		return nil, err
	}

	return &ImageResult{
		Data:     data,
		MIMEType: mimeType,
		Width:    req.Width,
		Height:   req.Height,
		Cost:     b.descriptor.CostPerImage,
	}, nil
}

func (b *FluxBackend) submit(ctx context.Context, req ImageRequest) (*fluxSubmitResponse, error) {
	payload, err := json.Marshal(fluxSubmitRequest{
		Prompt: req.Prompt,
		Width:  req.Width,
		Height: req.Height,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "backend %s: failed to encode request", b.descriptor.ID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.host+"/v1/"+b.descriptor.Model, bytes.NewReader(payload))
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "backend %s: failed to build request", b.descriptor.ID)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-key", b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapProviderError(b.descriptor.ID, err)
	}
	defer resp.Body.Close()

	var parsed fluxSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fault.Wrap(fault.KindTransient, err, "backend %s: malformed submit response", b.descriptor.ID)
	}
	if parsed.PollingURL == "" {
		return nil, fault.New(fault.KindTransient, "backend %s: submit returned no polling url", b.descriptor.ID)
	}
	return &parsed, nil
}

func (b *FluxBackend) poll(ctx context.Context, pollingURL string) (string, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", wrapProviderError(b.descriptor.ID, ctx.Err())
		case <-ticker.C:
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pollingURL, nil)
		if err != nil {
			return "", fault.Wrap(fault.KindInternal, err, "backend %s: failed to build poll request", b.descriptor.ID)
		}
		httpReq.Header.Set("x-key", b.apiKey)

		resp, err := b.httpClient.Do(httpReq)
		if err != nil {
			return "", wrapProviderError(b.descriptor.ID, err)
		}

		var parsed fluxPollResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if decodeErr != nil {
			return "", fault.Wrap(fault.KindTransient, decodeErr, "backend %s: malformed poll response", b.descriptor.ID)
		}

		switch parsed.Status {
		case "Ready":
			return parsed.Result.Sample, nil
		case "Pending", "Request Accepted":
			continue
		case "Content Moderated", "Request Moderated":
			return "", fault.New(fault.KindProviderPermanent, "backend %s: prompt rejected by moderation", b.descriptor.ID)
		default:
			return "", fault.New(fault.KindTransient, "backend %s: generation failed with status %q", b.descriptor.ID, parsed.Status)
		}
	}
}

func (b *FluxBackend) download(ctx context.Context, sampleURL string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, sampleURL, nil)
	if err != nil {
		return nil, "", fault.Wrap(fault.KindInternal, err, "backend %s: failed to build download request", b.descriptor.ID)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", wrapProviderError(b.descriptor.ID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", wrapProviderError(b.descriptor.ID, err)
	}
	if len(data) == 0 {
		return nil, "", fault.New(fault.KindTransient, "backend %s: empty sample download", b.descriptor.ID)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

var _ ModelBackend = (*FluxBackend)(nil)
