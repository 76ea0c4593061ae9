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

package imaging

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestScale(t *testing.T) {
	img := solidImage(100, 50, color.RGBA{10, 20, 30, 255})
	scaled := Scale(img, 40, 20)

	b := scaled.Bounds()
	if b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("scaled size = %dx%d, want 40x20", b.Dx(), b.Dy())
	}
}

func TestPadToAspect_Wide(t *testing.T) {
	img := solidImage(100, 100, color.RGBA{255, 0, 0, 255})
	padded := PadToAspect(img, 3, 1)

	b := padded.Bounds()
	if b.Dx() != 300 || b.Dy() != 100 {
		t.Fatalf("padded size = %dx%d, want 300x100", b.Dx(), b.Dy())
	}

	// Source pixels are centered.
	if _, _, _, a := padded.At(150, 50).RGBA(); a == 0 {
		t.Error("center should hold the source image")
	}
	// The letterbox margins stay transparent.
	if _, _, _, a := padded.At(10, 50).RGBA(); a != 0 {
		t.Error("left margin should be transparent")
	}
	if _, _, _, a := padded.At(290, 50).RGBA(); a != 0 {
		t.Error("right margin should be transparent")
	}
}

func TestPadToAspect_Tall(t *testing.T) {
	img := solidImage(100, 100, color.RGBA{0, 255, 0, 255})
	padded := PadToAspect(img, 2, 3)

	b := padded.Bounds()
	if b.Dx() != 100 || b.Dy() != 150 {
		t.Fatalf("padded size = %dx%d, want 100x150", b.Dx(), b.Dy())
	}
	if _, _, _, a := padded.At(50, 5).RGBA(); a != 0 {
		t.Error("top margin should be transparent")
	}
}

func TestPadToAspect_AlreadyMatching(t *testing.T) {
	img := solidImage(200, 100, color.RGBA{1, 2, 3, 255})
	padded := PadToAspect(img, 2, 1)

	b := padded.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("matching aspect should be unchanged, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestMonochrome(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{200, 50, 100, 255})
	mono := Monochrome(img)

	r, g, b, a := mono.At(5, 5).RGBA()
	if r != g || g != b {
		t.Errorf("monochrome pixel has distinct channels: %d %d %d", r, g, b)
	}
	if a == 0 {
		t.Error("alpha should be preserved")
	}
}

func TestMonochrome_PreservesTransparency(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	mono := Monochrome(img)
	if _, _, _, a := mono.At(0, 0).RGBA(); a != 0 {
		t.Error("transparent pixels should stay transparent")
	}
}

func TestFavicon(t *testing.T) {
	img := solidImage(300, 100, color.RGBA{255, 255, 0, 255})
	fav := Favicon(img, 64)

	b := fav.Bounds()
	if b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("favicon size = %dx%d, want 64x64", b.Dx(), b.Dy())
	}

	// Zero size falls back to the default.
	fav = Favicon(img, 0)
	if fav.Bounds().Dx() != 64 {
		t.Errorf("default favicon size = %d, want 64", fav.Bounds().Dx())
	}
}

func TestDecode_EncodePNG(t *testing.T) {
	img := solidImage(8, 8, color.RGBA{12, 34, 56, 255})

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}

	decoded, err := Decode(data, "image/png")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("decoded width = %d, want 8", decoded.Bounds().Dx())
	}

	// Wrong MIME type falls back to sniffing.
	if _, err := Decode(data, "image/jpeg"); err != nil {
		t.Errorf("Decode() with wrong mime should sniff, got %v", err)
	}

	if _, err := Decode([]byte("not an image"), "image/png"); err == nil {
		t.Error("expected error for garbage bytes")
	}
}
