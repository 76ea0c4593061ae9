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
	"context"
	"sync"
	"sync/atomic"

	"github.com/brandforge/brandforge/pkg/config"
	"github.com/brandforge/brandforge/pkg/fault"
)

// MockBackend is a scriptable in-process backend for tests and local
// dry runs.
type MockBackend struct {
	descriptor Descriptor

	mu       sync.Mutex
	TextFn   func(ctx context.Context, req TextRequest) (*TextResult, error)
	ImageFn  func(ctx context.Context, req ImageRequest) (*ImageResult, error)
	textCnt  atomic.Int64
	imageCnt atomic.Int64
}

func NewMockBackend(cfg *config.BackendConfig) *MockBackend {
	return &MockBackend{descriptor: descriptorFromConfig(cfg)}
}

// NewMockBackendWithDescriptor builds a mock straight from routing
// metadata, bypassing configuration.
func NewMockBackendWithDescriptor(d Descriptor) *MockBackend {
	return &MockBackend{descriptor: d}
}

func (b *MockBackend) Describe() Descriptor {
	return b.descriptor
}

func (b *MockBackend) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	b.textCnt.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, wrapProviderError(b.descriptor.ID, err)
	}

	b.mu.Lock()
	fn := b.TextFn
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &TextResult{Text: "{}"}, nil
}

func (b *MockBackend) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	b.imageCnt.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, wrapProviderError(b.descriptor.ID, err)
	}

	b.mu.Lock()
	fn := b.ImageFn
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return nil, fault.New(fault.KindProviderPermanent, "backend %s: no image script configured", b.descriptor.ID)
}

// SetTextFn replaces the scripted text handler.
func (b *MockBackend) SetTextFn(fn func(ctx context.Context, req TextRequest) (*TextResult, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TextFn = fn
}

// SetImageFn replaces the scripted image handler.
func (b *MockBackend) SetImageFn(fn func(ctx context.Context, req ImageRequest) (*ImageResult, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ImageFn = fn
}

// TextCalls returns how many text requests the mock has seen.
func (b *MockBackend) TextCalls() int {
	return int(b.textCnt.Load())
}

// ImageCalls returns how many image requests the mock has seen.
func (b *MockBackend) ImageCalls() int {
	return int(b.imageCnt.Load())
}

var _ ModelBackend = (*MockBackend)(nil)
