// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// message.go defines the Message tag enum the server writes into the
// reply POD stream (spec.md §4.5 "Reply messages"). Like command.go,
// a handful of tags carry a discriminant field instead of spawning one
// tag per spec-named message where the payload shape is identical.

type messageTag uint8

const (
	msgFileLoaded messageTag = iota
	msgFileDeleted
	msgFileError
	msgArtboardsListed
	msgViewModelsListed
	msgViewModelInstanceNamesListed
	msgViewModelPropertiesListed
	msgViewModelEnumsListed

	msgArtboardDeleted
	msgArtboardError
	msgStateMachinesListed
	msgDefaultViewModelInfoReceived

	msgStateMachineDeleted
	msgStateMachineError
	msgStateMachineSettled

	msgViewModelDeleted
	msgViewModelInstanceError
	msgViewModelDataReceived
	msgViewModelListSizeReceived

	msgRenderImageDecoded
	msgFontDecoded
	msgAudioSourceDecoded
	msgRenderImageDeleted
	msgFontDeleted
	msgAudioSourceDeleted
	msgAssetError

	// msgLoopBreak is the messageLoopBreak sentinel processMessages
	// appends to the tail before draining (spec.md §4.4
	// "processMessages"); never reused for anything else.
	msgLoopBreak
)

// handleCategory names a handle category; listener registrations and
// reply routing are keyed by it.
type handleCategory uint8

const (
	categoryFile handleCategory = iota
	categoryArtboard
	categoryStateMachine
	categoryViewModelInstance
	categoryRenderImage
	categoryAudioSource
	categoryFont
	categoryDrawKey
)

// errorMessageTag returns the *Error message tag scoped to category,
// so server dispatch code can post "one category-scoped error" (spec.md
// §7 "Dead-handle") from a single helper regardless of which recording
// method failed.
func errorMessageTag(cat handleCategory) messageTag {
	switch cat {
	case categoryFile:
		return msgFileError
	case categoryArtboard:
		return msgArtboardError
	case categoryStateMachine:
		return msgStateMachineError
	case categoryViewModelInstance:
		return msgViewModelInstanceError
	case categoryRenderImage, categoryAudioSource, categoryFont:
		return msgAssetError
	default:
		return msgAssetError
	}
}

