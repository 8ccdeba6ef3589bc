// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import "testing"

func TestTranslatePointerNoneIsIdentityPlusOrigin(t *testing.T) {
	screen := AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	artboard := AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	got := TestingTranslatePointer(Vec2D{X: 25, Y: 25}, FitNone, Alignment{0, 0}, screen, artboard)
	want := Vec2D{X: 25, Y: 25}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTranslatePointerContainCentersAndScales(t *testing.T) {
	// A 200x100 screen fitting a 100x100 artboard, contained: scale is
	// min(2, 1) = 1, centered horizontally leaving 50px on each side.
	screen := AABB{MinX: 0, MinY: 0, MaxX: 200, MaxY: 100}
	artboard := AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	got := TestingTranslatePointer(Vec2D{X: 50, Y: 0}, FitContain, AlignCenter, screen, artboard)
	want := Vec2D{X: 0, Y: 0}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTranslatePointerScaleDownNeverUpscales(t *testing.T) {
	// A 400x400 screen for a 100x100 artboard: contain would scale 4x,
	// but scale-down clamps to 1x, so the artboard sits centered at its
	// native size with a large margin.
	screen := AABB{MinX: 0, MinY: 0, MaxX: 400, MaxY: 400}
	artboard := AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	got := TestingTranslatePointer(Vec2D{X: 150, Y: 150}, FitScaleDown, AlignCenter, screen, artboard)
	want := Vec2D{X: 0, Y: 0}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTranslatePointerDegenerateBoundsReturnsZero(t *testing.T) {
	screen := AABB{MinX: 0, MinY: 0, MaxX: 0, MaxY: 100}
	artboard := AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	got := TestingTranslatePointer(Vec2D{X: 1, Y: 1}, FitContain, AlignCenter, screen, artboard)
	if got != (Vec2D{}) {
		t.Fatalf("expected zero vector for a degenerate screen box, got %+v", got)
	}
}
