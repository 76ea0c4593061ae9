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

package pipeline

import (
	"strings"

	"github.com/brandforge/brandforge/pkg/fault"
)

const (
	// MaxStyleKeywords bounds the intake keyword set.
	MaxStyleKeywords = 20

	// MaxReferenceImageSize bounds each uploaded reference blob.
	MaxReferenceImageSize = 10 << 20 // 10 MB
)

var allowedReferenceMIMEs = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// ReferenceImage is one client-supplied reference blob. The raw bytes
// are held only until the visual direction stage has extracted its
// features.
type ReferenceImage struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Intake is the immutable client submission that seeds a case.
type Intake struct {
	BusinessName        string           `json:"business_name"`
	BusinessDescription string           `json:"business_description"`
	TargetAudience      string           `json:"target_audience"`
	Industry            string           `json:"industry"`
	StyleKeywords       []string         `json:"style_keywords"`
	ReferenceImages     []ReferenceImage `json:"reference_images,omitempty"`
}

// Validate checks the intake's preconditions. All text fields are
// required; keywords are a bounded set; reference images must carry a
// supported MIME type and stay under the size cap.
func (in *Intake) Validate() *fault.Error {
	required := map[string]string{
		"business_name":        in.BusinessName,
		"business_description": in.BusinessDescription,
		"target_audience":      in.TargetAudience,
		"industry":             in.Industry,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fault.New(fault.KindInvalidInput, "intake field %s is required", field)
		}
	}

	if len(in.StyleKeywords) > MaxStyleKeywords {
		return fault.New(fault.KindInvalidInput,
			"too many style keywords: %d (max %d)", len(in.StyleKeywords), MaxStyleKeywords)
	}
	seen := make(map[string]bool, len(in.StyleKeywords))
	for _, kw := range in.StyleKeywords {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" {
			return fault.New(fault.KindInvalidInput, "style keywords cannot be empty")
		}
		if seen[normalized] {
			return fault.New(fault.KindInvalidInput, "duplicate style keyword %q", kw)
		}
		seen[normalized] = true
	}

	for i, ref := range in.ReferenceImages {
		if !allowedReferenceMIMEs[ref.MIMEType] {
			return fault.New(fault.KindInvalidInput,
				"reference image %d: unsupported format %q", i, ref.MIMEType)
		}
		if len(ref.Data) == 0 {
			return fault.New(fault.KindInvalidInput, "reference image %d is empty", i)
		}
		if len(ref.Data) > MaxReferenceImageSize {
			return fault.New(fault.KindInvalidInput,
				"reference image %d exceeds %d bytes", i, MaxReferenceImageSize)
		}
	}

	return nil
}

// DropReferenceData releases reference image bytes once their features
// have been extracted. Metadata stays for the record.
func (in *Intake) DropReferenceData() {
	for i := range in.ReferenceImages {
		in.ReferenceImages[i].Data = nil
	}
}
