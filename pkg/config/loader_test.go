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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
logging:
  level: debug

backends:
  - id: openai-text
    type: openai
    modality: text
    model: gpt-4o
    api_key: ${OPENAI_API_KEY}
    rate_limit_per_minute: 30
  - id: imagen
    type: imagen
    modality: image
    model: imagen-3
    api_key: test-key
    capabilities: [transparent_background]

pipeline:
  primary_text_model: gpt-4o
  quality_threshold: 0.8

storage:
  blob_store: memory
  case_store: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	cfg, loader, err := LoadFile(context.Background(), writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	defer loader.Close()

	if len(cfg.Backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(cfg.Backends))
	}
	if cfg.Backends[0].APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: %q", cfg.Backends[0].APIKey)
	}
	if cfg.Backends[1].Capabilities[0] != "transparent_background" {
		t.Errorf("capabilities = %v", cfg.Backends[1].Capabilities)
	}
	if cfg.Pipeline.QualityThreshold != 0.8 {
		t.Errorf("QualityThreshold = %v, want 0.8", cfg.Pipeline.QualityThreshold)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, loader, err := LoadFile(context.Background(), writeConfig(t, `
backends:
  - id: mock-text
    type: mock
    modality: text
    model: mock-model
`))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	defer loader.Close()

	p := cfg.Pipeline
	if p.StageRetryBudget != 2 {
		t.Errorf("StageRetryBudget = %d, want 2", p.StageRetryBudget)
	}
	if p.LogoRetryBudget != 2 {
		t.Errorf("LogoRetryBudget = %d, want 2", p.LogoRetryBudget)
	}
	if p.StageDeadlineSeconds != 120 {
		t.Errorf("StageDeadlineSeconds = %d, want 120", p.StageDeadlineSeconds)
	}
	if p.QualityThreshold != 0.7 {
		t.Errorf("QualityThreshold = %v, want 0.7", p.QualityThreshold)
	}
	if p.MinContrastRatio != 4.5 {
		t.Errorf("MinContrastRatio = %v, want 4.5", p.MinContrastRatio)
	}
	if p.LogoConcepts != 3 || p.LogoVariations != 3 {
		t.Errorf("logo fan-out = %dx%d, want 3x3", p.LogoConcepts, p.LogoVariations)
	}
	if len(p.ImageModelPriority) == 0 || p.ImageModelPriority[0] != "gpt-4o" {
		t.Errorf("ImageModelPriority = %v", p.ImageModelPriority)
	}
	if cfg.Backends[0].RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute default = %d, want 60", cfg.Backends[0].RateLimitPerMinute)
	}
	if cfg.Storage.BlobStore != "memory" || cfg.Storage.CaseStore != "memory" {
		t.Errorf("storage defaults = %s/%s", cfg.Storage.BlobStore, cfg.Storage.CaseStore)
	}
}

func TestLoadFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"duplicate backend id",
			`
backends:
  - id: a
    type: mock
    modality: text
  - id: a
    type: mock
    modality: text
`,
		},
		{
			"unknown backend type",
			`
backends:
  - id: a
    type: carrier-pigeon
    modality: text
`,
		},
		{
			"bad modality",
			`
backends:
  - id: a
    type: mock
    modality: audio
`,
		},
		{
			"threshold out of range",
			`
backends:
  - id: a
    type: mock
    modality: text
pipeline:
  quality_threshold: 1.5
`,
		},
		{
			"disk blob store without path",
			`
backends:
  - id: a
    type: mock
    modality: text
storage:
  blob_store: disk
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadFile(context.Background(), writeConfig(t, tt.content))
			if err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("BF_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"${BF_TEST_VAR}", "value"},
		{"$BF_TEST_VAR", "value"},
		{"prefix-${BF_TEST_VAR}", "prefix-value"},
		{"${BF_UNSET_VAR:-fallback}", "fallback"},
		{"${BF_TEST_VAR:-fallback}", "value"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := expandEnvString(tt.in); got != tt.want {
			t.Errorf("expandEnvString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
