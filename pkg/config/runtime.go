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
	"sync/atomic"
	"time"
)

// Runtime holds the hot-reloadable pipeline tunables. Readers take a
// consistent snapshot; a config reload swaps the whole snapshot
// atomically. The backend registry is intentionally not part of this:
// rebuilding backends requires an explicit reload step.
type Runtime struct {
	current atomic.Pointer[PipelineConfig]
}

// NewRuntime creates a Runtime seeded from cfg.
func NewRuntime(cfg *Config) *Runtime {
	r := &Runtime{}
	snapshot := cfg.Pipeline
	r.current.Store(&snapshot)
	return r
}

// Pipeline returns the current tunables snapshot. The returned value
// must not be mutated.
func (r *Runtime) Pipeline() *PipelineConfig {
	return r.current.Load()
}

// Apply swaps in the tunables from a freshly loaded config.
func (r *Runtime) Apply(cfg *Config) {
	snapshot := cfg.Pipeline
	r.current.Store(&snapshot)
}

// StageDeadline returns the per-stage deadline as a duration.
func (r *Runtime) StageDeadline() time.Duration {
	return time.Duration(r.Pipeline().StageDeadlineSeconds) * time.Second
}

// PerCallTimeout returns the per-call timeout as a duration.
func (r *Runtime) PerCallTimeout() time.Duration {
	return time.Duration(r.Pipeline().PerCallTimeoutSeconds) * time.Second
}
