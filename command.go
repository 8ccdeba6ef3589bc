// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// command.go defines the Command tag enum and the small discriminant
// enums that let one tag cover a family of spec.md §4.4 operations
// (e.g. one setViewModelProperty command carries a DataType field
// rather than spawning eight near-identical tags). Every spec.md
// recording method still gets its own distinctly named Go method in
// queue.go; this file only fixes the wire-level vocabulary those
// methods write into the POD stream.

// commandTag is the first POD field of every command record.
type commandTag uint8

const (
	cmdLoadFile commandTag = iota
	cmdDeleteFile
	cmdDeleteArtboard
	cmdDeleteStateMachine
	cmdDeleteViewModelInstance
	cmdDeleteImage
	cmdDeleteAudio
	cmdDeleteFont
	cmdInstantiateArtboardNamed
	cmdInstantiateStateMachineNamed
	cmdInstantiateViewModelInstance
	cmdReferenceNestedViewModel
	cmdListOp
	cmdSetViewModelProperty
	cmdRequestViewModelProperty
	cmdSubscribeViewModelProperty
	cmdUnsubscribeViewModelProperty
	cmdFireViewModelTrigger
	cmdBindViewModelInstance
	cmdAdvanceStateMachine
	cmdPointerEvent
	// cmdDraw carries its DrawKey inline; draw-key *allocation* itself
	// (CreateDrawKey) never reaches the wire — spec.md §4.4 describes it
	// as a pure "allocate under lock" operation with no server-visible
	// effect, so there is deliberately no cmdCreateDrawKey tag.
	cmdDraw
	cmdRunOnce
	cmdRequestMetadata
	cmdAssetOp
	cmdDisconnect
	// cmdLoopBreak is the testing-only break-out sentinel (spec.md §9
	// "Break-out sentinel"); it is never reused for anything else.
	cmdLoopBreak
)

// requestID is the caller-supplied correlation token threaded through
// to the matching reply message. Zero means "no correlation token";
// replies are still posted for it. A cascaded child delete always
// posts requestID 0 regardless of what the originating delete carried.
type requestID uint64

// viewModelInstanceSource discriminates the three instantiate-view-
// model-instance recording methods (spec.md §4.4).
type viewModelInstanceSource uint8

const (
	vmSrcDefault viewModelInstanceSource = iota
	vmSrcBlank
	vmSrcNamed
)

// vmTarget discriminates whether an instantiate call names an
// artboard (use its associated view model) or a view-model name
// directly.
type vmTarget uint8

const (
	vmTargetArtboard vmTarget = iota
	vmTargetViewModelName
)

// listOpKind discriminates the four list-mutation recording methods
// and ReferenceListViewModelInstance.
type listOpKind uint8

const (
	listOpInsert listOpKind = iota
	listOpRemove
	listOpAppend
	listOpSwap
	listOpReference
)

// pointerEventKind discriminates the four pointer recording methods.
type pointerEventKind uint8

const (
	pointerEventDown pointerEventKind = iota
	pointerEventUp
	pointerEventMove
	pointerEventExit
)

// metadataKind discriminates the seven metadata-probe recording
// methods (spec.md §4.4 "requestArtboardNames / ...").
type metadataKind uint8

const (
	metaArtboardNames metadataKind = iota
	metaViewModelNames
	metaViewModelInstanceNames
	metaViewModelPropertyDefinitions
	metaViewModelEnums
	metaStateMachineNames
	metaDefaultViewModelInfo
)

// assetCategory discriminates image/audio/font for the asset-op tag.
type assetCategory uint8

const (
	assetCategoryImage assetCategory = iota
	assetCategoryAudio
	assetCategoryFont
)

// assetOpKind discriminates add-external / decode / add-global /
// remove-global for the asset-op tag.
type assetOpKind uint8

const (
	assetOpAddExternal assetOpKind = iota
	assetOpDecode
	assetOpAddGlobal
	assetOpRemoveGlobal
)
