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

package agents

import (
	"encoding/json"
	"strings"

	"github.com/brandforge/brandforge/pkg/fault"
)

// decodeModelJSON parses a model completion into out. Models
// occasionally wrap JSON in code fences or prose; the parser strips
// fences and falls back to the outermost object.
func decodeModelJSON(text string, out any) error {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if i := strings.LastIndex(cleaned, "```"); i >= 0 {
			cleaned = cleaned[:i]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fault.New(fault.KindInsufficientData, "model returned no parseable JSON")
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err != nil {
		return fault.Wrap(fault.KindInsufficientData, err, "model returned malformed JSON")
	}
	return nil
}

// nonEmpty filters blank strings from a list, trimming whitespace.
func nonEmpty(items []string) []string {
	var kept []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			kept = append(kept, s)
		}
	}
	return kept
}
