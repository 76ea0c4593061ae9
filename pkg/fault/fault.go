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

// Package fault defines the behavioral error taxonomy shared by the
// coordinator, the stage agents, and the model dispatcher. Agents and
// the dispatcher report what happened; the coordinator alone decides
// whether a failure is retried or fatal.
package fault

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure by how the coordinator should react to it,
// not by where it came from.
type Kind string

const (
	// KindInvalidInput means the intake or a prior artifact violates the
	// stage's preconditions. Fatal.
	KindInvalidInput Kind = "invalid_input"

	// KindTransient covers timeouts, 5xx responses, rate limits, and
	// network resets. Retried within the stage budget.
	KindTransient Kind = "transient"

	// KindProviderPermanent covers auth failures, content-policy
	// rejections, and malformed requests. The offending backend is
	// skipped for the current request; the fallback chain continues.
	KindProviderPermanent Kind = "provider_permanent"

	// KindAllBackendsFailed means the dispatcher exhausted its chain.
	KindAllBackendsFailed Kind = "all_backends_failed"

	// KindQualityGateFailed means the validator rejected every candidate.
	KindQualityGateFailed Kind = "quality_gate_failed"

	// KindInsufficientData means an agent could not meet its minimum
	// output contract. Retried once, then fatal.
	KindInsufficientData Kind = "insufficient_data"

	// KindStageTimeout means the per-stage deadline elapsed. Treated as
	// transient.
	KindStageTimeout Kind = "stage_timeout"

	// KindCancelled means the case was cancelled externally. Terminal.
	KindCancelled Kind = "cancelled"

	// KindInternal means an invariant of the core was violated. Fatal.
	KindInternal Kind = "internal"
)

// BackendDiagnostic records the outcome of one backend attempt inside a
// dispatcher request. A fault of kind all_backends_failed carries one
// diagnostic per backend tried.
type BackendDiagnostic struct {
	BackendID string        `json:"backend_id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Error is the structured failure crossing component boundaries.
type Error struct {
	Kind        Kind                `json:"kind"`
	Message     string              `json:"message"`
	Diagnostics []BackendDiagnostic `json:"diagnostics,omitempty"`
	Err         error               `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a fault with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault that preserves the underlying error for
// errors.Is/As chains.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error, unwrapping as needed.
// Non-fault errors are classified as internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// As unwraps err into a *Error, or wraps it as internal when it is not
// one. The second return reports whether err already was a fault.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return Wrap(KindInternal, err, "unclassified error"), false
}

// Retryable reports whether the coordinator may retry a stage that
// failed with this kind, budget permitting.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransient, KindStageTimeout, KindAllBackendsFailed, KindInsufficientData:
		return true
	default:
		return false
	}
}

// Terminal reports whether the kind ends the case immediately,
// regardless of remaining budget.
func (k Kind) Terminal() bool {
	switch k {
	case KindInvalidInput, KindCancelled, KindInternal:
		return true
	default:
		return false
	}
}
