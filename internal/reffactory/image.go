// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package reffactory

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// previewSize bounds the resampled preview image's longest side. A
// real renderer would keep the source resolution and let the GPU
// backend sample it; this reference factory only ever backs tests, so
// it resamples down to keep test fixtures small, the way the
// teacher's load/ttf.go resamples glyphs into a fixed atlas size
// (teacher, now removed after extraction — see DESIGN.md).
const previewSize = 64

// decodedImage is the rive.RenderImage this factory produces: a
// resampled, decoded bitmap plus its original bounds.
type decodedImage struct {
	Preview      *image.RGBA
	OriginalSize image.Point
}

func decodeImage(data []byte) (*decodedImage, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reffactory: decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := 1.0
	if w > h && w > previewSize {
		scale = float64(previewSize) / float64(w)
	} else if h >= w && h > previewSize {
		scale = float64(previewSize) / float64(h)
	}
	dstW, dstH := int(float64(w)*scale), int(float64(h)*scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	return &decodedImage{Preview: dst, OriginalSize: image.Point{X: w, Y: h}}, nil
}
