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

package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind_Retryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindTransient, true},
		{KindStageTimeout, true},
		{KindAllBackendsFailed, true},
		{KindInsufficientData, true},
		{KindInvalidInput, false},
		{KindProviderPermanent, false},
		{KindQualityGateFailed, false},
		{KindCancelled, false},
		{KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_Terminal(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindInvalidInput, true},
		{KindCancelled, true},
		{KindInternal, true},
		{KindTransient, false},
		{KindProviderPermanent, false},
		{KindAllBackendsFailed, false},
		{KindQualityGateFailed, false},
		{KindInsufficientData, false},
		{KindStageTimeout, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(KindTransient, "backend %s timed out", "openai")
	if err.Kind != KindTransient {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTransient)
	}
	if err.Message != "backend openai timed out" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Err != nil {
		t.Error("New() should not wrap an underlying error")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(KindTransient, inner, "dial failed")

	if !errors.Is(err, inner) {
		t.Error("wrapped error should match with errors.Is")
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"direct fault", New(KindCancelled, "stopped"), KindCancelled},
		{"wrapped fault", fmt.Errorf("outer: %w", New(KindStageTimeout, "slow")), KindStageTimeout},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	fe, ok := As(New(KindInvalidInput, "missing name"))
	if !ok {
		t.Error("As() should recognize a fault")
	}
	if fe.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, want %v", fe.Kind, KindInvalidInput)
	}

	fe, ok = As(errors.New("plain"))
	if ok {
		t.Error("As() should report false for a non-fault")
	}
	if fe.Kind != KindInternal {
		t.Errorf("non-fault should be classified internal, got %v", fe.Kind)
	}
}

func TestError_Diagnostics(t *testing.T) {
	err := New(KindAllBackendsFailed, "no backend could serve the request")
	err.Diagnostics = []BackendDiagnostic{
		{BackendID: "openai-images", Kind: KindTransient, Message: "502"},
		{BackendID: "imagen", Kind: KindProviderPermanent, Message: "auth"},
	}

	fe, _ := As(err)
	if len(fe.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(fe.Diagnostics))
	}
	if fe.Diagnostics[0].BackendID != "openai-images" {
		t.Errorf("unexpected diagnostic order: %v", fe.Diagnostics)
	}
}
