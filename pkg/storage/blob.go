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

// Package storage provides the blob and case persistence collaborators
// the coordinator writes through. Image bytes live in the blob store
// and travel through the case record as opaque handles.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BlobStore stores opaque binary blobs by handle.
type BlobStore interface {
	PutBlob(ctx context.Context, key string, data []byte, mimeType string) (handle string, err error)
	GetBlob(ctx context.Context, handle string) ([]byte, string, error)
	DeleteBlob(ctx context.Context, handle string) error
}

type memoryBlob struct {
	data     []byte
	mimeType string
}

// MemoryBlobStore keeps blobs in process memory.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string]memoryBlob),
	}
}

func (s *MemoryBlobStore) PutBlob(ctx context.Context, key string, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("blob data cannot be empty")
	}

	handle := key + "/" + uuid.NewString()

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[handle] = memoryBlob{data: stored, mimeType: mimeType}

	return handle, nil
}

func (s *MemoryBlobStore) GetBlob(ctx context.Context, handle string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[handle]
	if !ok {
		return nil, "", fmt.Errorf("blob %q not found", handle)
	}

	data := make([]byte, len(blob.data))
	copy(data, blob.data)
	return data, blob.mimeType, nil
}

func (s *MemoryBlobStore) DeleteBlob(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[handle]; !ok {
		return fmt.Errorf("blob %q not found", handle)
	}
	delete(s.blobs, handle)
	return nil
}

// Len returns the number of stored blobs (for tests).
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// DiskBlobStore writes blobs under a root directory. The handle
// encodes the relative path; MIME type is kept in a sidecar extension.
type DiskBlobStore struct {
	root string
}

func NewDiskBlobStore(root string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskBlobStore{root: root}, nil
}

func (s *DiskBlobStore) PutBlob(ctx context.Context, key string, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("blob data cannot be empty")
	}

	handle := filepath.Join(sanitizeKey(key), uuid.NewString()+extensionFor(mimeType))
	path := filepath.Join(s.root, handle)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	// Write-then-rename keeps partially written blobs invisible.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}

	return handle, nil
}

func (s *DiskBlobStore) GetBlob(ctx context.Context, handle string) ([]byte, string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, handle))
	if err != nil {
		return nil, "", fmt.Errorf("blob %q not found: %w", handle, err)
	}
	return data, mimeFor(filepath.Ext(handle)), nil
}

func (s *DiskBlobStore) DeleteBlob(ctx context.Context, handle string) error {
	if err := os.Remove(filepath.Join(s.root, handle)); err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", handle, err)
	}
	return nil
}

func sanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "..", "")
	key = strings.Trim(key, "/")
	if key == "" {
		key = "blobs"
	}
	return key
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}

func mimeFor(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

var (
	_ BlobStore = (*MemoryBlobStore)(nil)
	_ BlobStore = (*DiskBlobStore)(nil)
)
