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

package backends

import (
	"fmt"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/registry"
)

// Registry holds the configured backends in configuration order.
// Insertion order matters: the dispatcher uses it to break priority
// ties deterministically.
type Registry struct {
	*registry.BaseRegistry[ModelBackend]
}

func NewRegistry() *Registry {
	return &Registry{
		BaseRegistry: registry.NewBaseRegistry[ModelBackend](),
	}
}

// RegistryFromConfig builds and registers one backend per config
// entry, preserving file order.
func RegistryFromConfig(cfgs []config.BackendConfig) (*Registry, error) {
	r := NewRegistry()
	for i := range cfgs {
		backend, err := NewFromConfig(&cfgs[i])
		if err != nil {
			return nil, err
		}
		if err := r.Register(cfgs[i].ID, backend); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewFromConfig instantiates the provider named by the config entry.
func NewFromConfig(cfg *config.BackendConfig) (ModelBackend, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAIBackend(cfg)
	case "anthropic":
		return NewAnthropicBackend(cfg)
	case "gemini", "imagen":
		return NewGeminiBackend(cfg)
	case "flux":
		return NewFluxBackend(cfg)
	case "mock":
		return NewMockBackend(cfg), nil
	default:
		return nil, fmt.Errorf("backend %s: unsupported type %q", cfg.ID, cfg.Type)
	}
}
