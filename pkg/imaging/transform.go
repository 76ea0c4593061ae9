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

	"golang.org/x/image/draw"
)

// Scale resamples the image to the given size with Catmull-Rom
// interpolation.
func Scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// PadToAspect letterboxes the image onto a transparent canvas of the
// given aspect ratio without cropping or distorting it.
func PadToAspect(img image.Image, aspectW, aspectH int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	canvasW, canvasH := w, h
	if w*aspectH < h*aspectW {
		canvasW = h * aspectW / aspectH
	} else {
		canvasH = w * aspectH / aspectW
	}

	dst := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	offset := image.Pt((canvasW-w)/2, (canvasH-h)/2)
	draw.Draw(dst, bounds.Add(offset.Sub(bounds.Min)), img, bounds.Min, draw.Over)
	return dst
}

// Monochrome converts the image to grayscale, preserving alpha.
func Monochrome(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			// Rec. 601 luma weights.
			l := (299*r + 587*g + 114*b) / 1000
			dst.Set(x, y, color.RGBA64{uint16(l), uint16(l), uint16(l), uint16(a)})
		}
	}
	return dst
}

// Favicon scales the image down to a small square rendition.
func Favicon(img image.Image, size int) image.Image {
	if size <= 0 {
		size = 64
	}
	return Scale(PadToAspect(img, 1, 1), size, size)
}
