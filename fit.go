// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// fit.go is 2D-only geometry: a point, an axis-aligned box, and the
// fit/alignment transform pointer events are put through before they
// reach a state machine (spec.md §4.5 "Pointer translation"). The
// teacher's math/lin package (see DESIGN.md) is a full 3D vector/
// matrix/quaternion library built for a 3D renderer; keeping it would
// drag in ~3000 lines with no user beyond this one 2D transform, so
// this file is written fresh, in the same plain-struct-with-value-
// receiver style lin.V3/lin.V4 use, scaled down to what a 2D fit
// actually needs.

// Vec2D is a 2D point or vector.
type Vec2D struct {
	X, Y float32
}

// AABB is an axis-aligned bounding box in some coordinate space.
type AABB struct {
	MinX, MinY, MaxX, MaxY float32
}

func (b AABB) Width() float32  { return b.MaxX - b.MinX }
func (b AABB) Height() float32 { return b.MaxY - b.MinY }

// Fit describes how an artboard is scaled/positioned within the
// screen bounds it is drawn into, mirroring the alignment rule the
// scene layer itself uses.
type Fit uint8

const (
	FitContain Fit = iota
	FitCover
	FitFill
	FitFitWidth
	FitFitHeight
	FitNone
	FitScaleDown
)

// Alignment anchors the artboard within the fitted area once scaled.
// 0,0 is top-left, 0.5,0.5 is center, 1,1 is bottom-right.
type Alignment struct {
	X, Y float32
}

var AlignCenter = Alignment{0.5, 0.5}

// translatePointer converts a pointer position in screen space into
// artboard-local space, given the fit/alignment rule, the screen
// bounds the artboard is drawn into, and the artboard's own bounds.
// It is a pure function of its inputs so it can be exercised directly
// by the testing hooks in spec.md §4.6.
func translatePointer(screenPos Vec2D, fit Fit, align Alignment, screenBounds, artboardBounds AABB) Vec2D {
	sw, sh := screenBounds.Width(), screenBounds.Height()
	aw, ah := artboardBounds.Width(), artboardBounds.Height()
	if sw == 0 || sh == 0 || aw == 0 || ah == 0 {
		return Vec2D{}
	}

	scaleX, scaleY := sw/aw, sh/ah
	switch fit {
	case FitContain, FitScaleDown:
		s := minFloat32(scaleX, scaleY)
		if fit == FitScaleDown && s > 1 {
			s = 1
		}
		scaleX, scaleY = s, s
	case FitCover:
		s := maxFloat32(scaleX, scaleY)
		scaleX, scaleY = s, s
	case FitFill:
		// scaleX, scaleY stand as computed: independent axis scaling.
	case FitFitWidth:
		scaleY = scaleX
	case FitFitHeight:
		scaleX = scaleY
	case FitNone:
		scaleX, scaleY = 1, 1
	}

	fittedW, fittedH := aw*scaleX, ah*scaleY
	originX := screenBounds.MinX + (sw-fittedW)*align.X
	originY := screenBounds.MinY + (sh-fittedH)*align.Y

	localX := (screenPos.X-originX)/scaleX + artboardBounds.MinX
	localY := (screenPos.Y-originY)/scaleY + artboardBounds.MinY
	return Vec2D{X: localX, Y: localY}
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxFloat32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
