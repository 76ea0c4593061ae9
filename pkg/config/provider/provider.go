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

// Package provider defines the config source abstraction.
package provider

import (
	"context"
)

// Type identifies the config source type.
type Type string

const (
	TypeFile   Type = "file"
	TypeStatic Type = "static"
)

// Provider abstracts config sources.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Type returns the provider type for logging/debugging.
	Type() Type

	// Load reads raw config bytes from the source.
	Load(ctx context.Context) ([]byte, error)

	// Watch returns a channel that receives a value whenever the source
	// changes, or nil when watching is unsupported.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources.
	Close() error
}

// StaticProvider serves fixed bytes; used in tests and for embedded
// defaults.
type StaticProvider struct {
	Data []byte
}

func (p *StaticProvider) Type() Type {
	return TypeStatic
}

func (p *StaticProvider) Load(ctx context.Context) ([]byte, error) {
	return p.Data, nil
}

func (p *StaticProvider) Watch(ctx context.Context) (<-chan struct{}, error) {
	return nil, nil
}

func (p *StaticProvider) Close() error {
	return nil
}

var _ Provider = (*StaticProvider)(nil)
