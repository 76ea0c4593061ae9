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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brandforge/brandforge/pkg/pipeline"
)

// intakeFile is the on-disk intake shape. Reference images are given
// as file paths and loaded into the intake as blobs.
type intakeFile struct {
	BusinessName        string   `yaml:"business_name"`
	BusinessDescription string   `yaml:"business_description"`
	TargetAudience      string   `yaml:"target_audience"`
	Industry            string   `yaml:"industry"`
	StyleKeywords       []string `yaml:"style_keywords"`
	ReferenceImages     []string `yaml:"reference_images"`
}

func loadIntake(path string) (pipeline.Intake, error) {
	var intake pipeline.Intake

	data, err := os.ReadFile(path)
	if err != nil {
		return intake, fmt.Errorf("failed to read intake file: %w", err)
	}

	var raw intakeFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return intake, fmt.Errorf("failed to parse intake file: %w", err)
	}

	intake = pipeline.Intake{
		BusinessName:        raw.BusinessName,
		BusinessDescription: raw.BusinessDescription,
		TargetAudience:      raw.TargetAudience,
		Industry:            raw.Industry,
		StyleKeywords:       raw.StyleKeywords,
	}

	baseDir := filepath.Dir(path)
	for _, refPath := range raw.ReferenceImages {
		if !filepath.IsAbs(refPath) {
			refPath = filepath.Join(baseDir, refPath)
		}
		blob, err := os.ReadFile(refPath)
		if err != nil {
			return intake, fmt.Errorf("failed to read reference image %s: %w", refPath, err)
		}
		intake.ReferenceImages = append(intake.ReferenceImages, pipeline.ReferenceImage{
			Name:     filepath.Base(refPath),
			MIMEType: referenceMIME(refPath),
			Data:     blob,
		})
	}

	return intake, nil
}

func referenceMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
