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

// Package brandforge is a multi-agent branding pipeline.
//
// BrandForge turns a raw client brief into a delivered brand identity:
// a coordinator drives a case through six sequential stage agents
// (discovery, research, visual direction, logo generation, brand
// system, asset generation), dispatching model calls across configured
// provider backends with fallback and per-backend rate limiting, and
// gating generated logos on a quality validator.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/brandforge/brandforge/cmd/brandforge@latest
//
// Configure the backends:
//
//	backends:
//	  - id: "gpt-4o-text"
//	    type: "openai"
//	    modality: "text"
//	    model: "gpt-4o"
//	    api_key: "${OPENAI_API_KEY}"
//
// Run a case:
//
//	brandforge run --config config.yaml --intake brief.yaml
//
// # Using as Go Library
//
// Import the packages directly:
//
//	import (
//	    "github.com/brandforge/brandforge/pkg/agents"
//	    "github.com/brandforge/brandforge/pkg/coordinator"
//	    "github.com/brandforge/brandforge/pkg/config"
//	)
//
// # Architecture
//
// The coordinator is the sole writer of case state:
//
//	Intake → Coordinator → Stage Agents → Dispatcher → Model Backends
//
// Agents return proposed artifacts; the coordinator persists them,
// applies the retry policy and enforces the logo quality gate. Case
// history is append-only, and a case can be rewound to any completed
// stage for revision.
package brandforge
