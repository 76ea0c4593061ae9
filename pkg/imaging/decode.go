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

// Package imaging holds the deterministic pixel work of the pipeline:
// decoding, pixel sampling, palette clustering, and the derived asset
// transforms. Nothing here calls a model.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/webp"
)

// Decode parses image bytes. The MIME type is consulted first; when it
// is missing or wrong the sniffing decoder gets a chance.
func Decode(data []byte, mimeType string) (image.Image, error) {
	switch mimeType {
	case "image/png":
		if img, err := png.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	case "image/jpeg":
		if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	case "image/webp":
		if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (%s): %w", mimeType, err)
	}
	return img, nil
}

// EncodePNG renders an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
