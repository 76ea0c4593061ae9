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
	"reflect"
	"testing"

	"github.com/brandforge/brandforge/pkg/fault"
)

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"name": "acme"}`,
			want:  "acme",
		},
		{
			name:  "json fence",
			input: "```json\n{\"name\": \"acme\"}\n```",
			want:  "acme",
		},
		{
			name:  "bare fence",
			input: "```\n{\"name\": \"acme\"}\n```",
			want:  "acme",
		},
		{
			name:  "prose wrapped",
			input: "Here is the result you asked for:\n{\"name\": \"acme\"}\nLet me know if you need changes.",
			want:  "acme",
		},
		{
			name:  "leading whitespace",
			input: "\n\n  {\"name\": \"acme\"}  ",
			want:  "acme",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out payload
			if err := decodeModelJSON(tt.input, &out); err != nil {
				t.Fatalf("decodeModelJSON() error = %v", err)
			}
			if out.Name != tt.want {
				t.Errorf("Name = %q, want %q", out.Name, tt.want)
			}
		})
	}
}

func TestDecodeModelJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no json at all", input: "I am sorry, I cannot help with that."},
		{name: "empty", input: ""},
		{name: "malformed object", input: `{"name": `},
		{name: "unbalanced braces", input: "prose { still prose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]any
			err := decodeModelJSON(tt.input, &out)
			if err == nil {
				t.Fatal("expected an error")
			}
			if fault.KindOf(err) != fault.KindInsufficientData {
				t.Errorf("KindOf() = %v, want insufficient_data", fault.KindOf(err))
			}
		})
	}
}

func TestNonEmpty(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "all blank", input: []string{"", "   ", "\t"}, want: nil},
		{
			name:  "trims and filters",
			input: []string{" keep ", "", "also"},
			want:  []string{"keep", "also"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nonEmpty(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("nonEmpty(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
