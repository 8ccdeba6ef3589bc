// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// handles.go defines the opaque, category-distinct identifiers the
// producer hands out for every resource kind the command core tracks.
//
// Unlike the teacher's entity ids (see eid.go in the example pack),
// handles here are never recycled: once a counter hands out N, N is
// never handed out again, even after the resource it named is deleted.
// Spec requires this so a caller holding a stale handle always gets a
// deterministic "dead handle" diagnostic rather than colliding with an
// unrelated, later resource.

// FileHandle identifies a loaded .riv file on the server.
type FileHandle uint64

// ArtboardHandle identifies an instantiated artboard.
type ArtboardHandle uint64

// StateMachineHandle identifies an instantiated state machine.
type StateMachineHandle uint64

// ViewModelInstanceHandle identifies a view-model instance binding.
type ViewModelInstanceHandle uint64

// RenderImageHandle identifies a decoded or externally supplied image.
type RenderImageHandle uint64

// AudioSourceHandle identifies a decoded or externally supplied audio source.
type AudioSourceHandle uint64

// FontHandle identifies a decoded or externally supplied font.
type FontHandle uint64

// DrawKey identifies a per-frame draw callback slot.
type DrawKey uint64

// Null handle values. The zero value of every handle category is
// reserved and is never allocated by a counter.
const (
	NullFileHandle              FileHandle              = 0
	NullArtboardHandle          ArtboardHandle          = 0
	NullStateMachineHandle      StateMachineHandle      = 0
	NullViewModelInstanceHandle ViewModelInstanceHandle = 0
	NullRenderImageHandle       RenderImageHandle       = 0
	NullAudioSourceHandle       AudioSourceHandle       = 0
	NullFontHandle              FontHandle              = 0
	NullDrawKey                 DrawKey                 = 0
)

// handleCounter hands out one 64-bit value per call, starting at 1, and
// never repeats. Callers are expected to hold the command mutex while
// calling next, per spec: "Allocation happens under the command mutex
// so handles are totally ordered with the commands that first
// reference them."
type handleCounter uint64

// next returns the next handle value for this category. It is not safe
// for concurrent use; callers must serialize access externally.
func (c *handleCounter) next() uint64 {
	*c++
	return uint64(*c)
}
