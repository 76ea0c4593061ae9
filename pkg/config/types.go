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

// Package config provides configuration types and loading for the
// branding pipeline. Pipeline tunables (budgets, thresholds, priority
// lists) can be swapped at runtime via hot reload; the backend
// registry itself only changes on an explicit reload step.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging"`
	Backends []BackendConfig `yaml:"backends"`
	Pipeline PipelineConfig  `yaml:"pipeline"`
	Storage  StorageConfig   `yaml:"storage"`
}

// LoggingConfig configures the slog-based logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// BackendConfig describes one model backend registry entry. Order in
// the config file is registry insertion order and breaks priority ties.
type BackendConfig struct {
	ID                 string   `yaml:"id"`
	Type               string   `yaml:"type"`     // openai, anthropic, gemini, imagen, flux
	Modality           string   `yaml:"modality"` // text, image
	Model              string   `yaml:"model"`
	APIKey             string   `yaml:"api_key"`
	Host               string   `yaml:"host"`
	Capabilities       []string `yaml:"capabilities"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	PriorityWeight     int      `yaml:"priority_weight"`
	CostPerImage       float64  `yaml:"cost_per_image"`
	Enabled            *bool    `yaml:"enabled"`
	TimeoutSeconds     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"max_retries"`
	RetryDelaySeconds  int      `yaml:"retry_delay"`
}

// IsEnabled treats a missing enabled flag as true.
func (b *BackendConfig) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// PipelineConfig holds the coordinator and dispatcher tunables.
type PipelineConfig struct {
	PrimaryTextModel       string   `yaml:"primary_text_model"`
	ImageModelPriority     []string `yaml:"image_model_priority"`
	StageRetryBudget       int      `yaml:"stage_retry_budget"`
	LogoRetryBudget        int      `yaml:"logo_retry_budget"`
	StageDeadlineSeconds   int      `yaml:"stage_deadline_seconds"`
	QualityThreshold       float64  `yaml:"quality_threshold"`
	MinContrastRatio       float64  `yaml:"min_contrast_ratio"`
	MaxColours             int      `yaml:"max_colours"`
	MinResolution          int      `yaml:"min_resolution"`
	LogoConcepts           int      `yaml:"logo_concepts"`
	LogoVariations         int      `yaml:"logo_variations"`
	PerCallTimeoutSeconds  int      `yaml:"per_call_timeout_seconds"`
	InsufficientDataRetry  int      `yaml:"insufficient_data_retry"`
	ResearchMinCompetitors int      `yaml:"research_min_competitors"`
}

// StorageConfig selects the blob and case store implementations.
type StorageConfig struct {
	BlobStore string `yaml:"blob_store"` // memory, disk
	BlobPath  string `yaml:"blob_path"`
	CaseStore string `yaml:"case_store"` // memory, sqlite
	CasePath  string `yaml:"case_path"`
}

// SetDefaults applies defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "simple"
	}

	for i := range c.Backends {
		b := &c.Backends[i]
		if b.TimeoutSeconds == 0 {
			b.TimeoutSeconds = 60
		}
		if b.MaxRetries == 0 {
			b.MaxRetries = 2
		}
		if b.RetryDelaySeconds == 0 {
			b.RetryDelaySeconds = 1
		}
		if b.RateLimitPerMinute == 0 {
			b.RateLimitPerMinute = 60
		}
	}

	p := &c.Pipeline
	if p.StageRetryBudget == 0 {
		p.StageRetryBudget = 2
	}
	if p.LogoRetryBudget == 0 {
		p.LogoRetryBudget = 2
	}
	if p.StageDeadlineSeconds == 0 {
		p.StageDeadlineSeconds = 120
	}
	if p.QualityThreshold == 0 {
		p.QualityThreshold = 0.7
	}
	if p.MinContrastRatio == 0 {
		p.MinContrastRatio = 4.5
	}
	if p.MaxColours == 0 {
		p.MaxColours = 5
	}
	if p.MinResolution == 0 {
		p.MinResolution = 512
	}
	if p.LogoConcepts == 0 {
		p.LogoConcepts = 3
	}
	if p.LogoVariations == 0 {
		p.LogoVariations = 3
	}
	if p.PerCallTimeoutSeconds == 0 {
		p.PerCallTimeoutSeconds = 60
	}
	if p.InsufficientDataRetry == 0 {
		p.InsufficientDataRetry = 1
	}
	if p.ResearchMinCompetitors == 0 {
		p.ResearchMinCompetitors = 3
	}
	if len(p.ImageModelPriority) == 0 {
		// Documented fallback order for logo generation.
		p.ImageModelPriority = []string{"gpt-4o", "imagen-3", "flux-1.1-pro", "gemini-2.0-flash"}
	}

	if c.Storage.BlobStore == "" {
		c.Storage.BlobStore = "memory"
	}
	if c.Storage.CaseStore == "" {
		c.Storage.CaseStore = "memory"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i := range c.Backends {
		b := &c.Backends[i]
		if b.ID == "" {
			return fmt.Errorf("backend %d: id is required", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("backend %q: duplicate id", b.ID)
		}
		seen[b.ID] = true

		switch b.Type {
		case "openai", "anthropic", "gemini", "imagen", "flux", "mock":
		default:
			return fmt.Errorf("backend %q: unsupported type %q", b.ID, b.Type)
		}

		switch b.Modality {
		case "text", "image":
		default:
			return fmt.Errorf("backend %q: modality must be text or image, got %q", b.ID, b.Modality)
		}

		if b.RateLimitPerMinute < 0 {
			return fmt.Errorf("backend %q: rate_limit_per_minute cannot be negative", b.ID)
		}
	}

	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 1 {
		return fmt.Errorf("pipeline: quality_threshold must be in [0,1], got %v", c.Pipeline.QualityThreshold)
	}

	switch c.Storage.BlobStore {
	case "memory":
	case "disk":
		if c.Storage.BlobPath == "" {
			return fmt.Errorf("storage: blob_path is required for disk blob store")
		}
	default:
		return fmt.Errorf("storage: unsupported blob_store %q", c.Storage.BlobStore)
	}

	switch c.Storage.CaseStore {
	case "memory":
	case "sqlite":
		if c.Storage.CasePath == "" {
			return fmt.Errorf("storage: case_path is required for sqlite case store")
		}
	default:
		return fmt.Errorf("storage: unsupported case_store %q", c.Storage.CaseStore)
	}

	return nil
}

// BackendByID returns the backend config with the given id.
func (c *Config) BackendByID(id string) (*BackendConfig, bool) {
	for i := range c.Backends {
		if c.Backends[i].ID == id {
			return &c.Backends[i], true
		}
	}
	return nil, false
}

// String renders a short summary for logging.
func (c *Config) String() string {
	ids := make([]string, 0, len(c.Backends))
	for i := range c.Backends {
		ids = append(ids, c.Backends[i].ID)
	}
	return fmt.Sprintf("backends=[%s] text=%s", strings.Join(ids, ","), c.Pipeline.PrimaryTextModel)
}
