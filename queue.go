// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import "sync"

// queue.go is the producer-side recording surface, spec.md §4.4 in
// full. Every exported method here is one of the spec's named
// recording operations: it takes the command mutex, allocates any
// handle it returns, appends a tag plus POD fields, pushes any side-car
// payload, signals the command condition variable, and releases the
// mutex — in that order, matching the teacher's single-writer-then-
// notify shape in the old channel-based machine/msg split (see
// DESIGN.md), generalised here to a mutex+condvar because the wire
// contract (tag-dictated layout, no length prefix) needs a byte-level
// stream rather than a channel of typed values.
//
// Side-car payloads that are themselves in-process Go values (file
// asset loaders, draw/run-once callbacks) travel through cmdRefs as `any` rather than through one
// C++-style ObjectStream<T> per concrete type: this is a single
// process, so there is no serialisation boundary to preserve type
// identity across, and a single side-car of `any` keeps the call sites
// uniform. Byte vectors and strings keep their own typed streams
// because almost every recording method touches one of those two.

// RunOnceCallback is a one-shot callback scheduled in recording order
// (spec.md §4.4 "runOnce").
type RunOnceCallback func()

// DrawCallback renders into r. Only the most recently recorded
// callback for a given DrawKey survives to the next drain (spec.md
// §4.5 "Draw coalescing").
type DrawCallback func(r Renderer)

// CommandQueue is the thread-safe producer-side recorder. All methods
// except CreateDrawKey must be called from the single producer thread
// that also calls ProcessMessages (spec.md §5).
type CommandQueue struct {
	cmdMu   sync.Mutex
	cmdCond *sync.Cond
	cmdPod  podStream
	cmdBytes   objectStream[[]byte]
	cmdStrings objectStream[string]
	cmdRefs    objectStream[any]

	msgMu      sync.Mutex
	msgPod     podStream
	msgStrings objectStream[string]
	msgRefs    objectStream[any]

	listeners *listenerRegistry

	fileCounter        handleCounter
	artboardCounter    handleCounter
	stateMachineCounter handleCounter
	vmInstanceCounter  handleCounter
	renderImageCounter handleCounter
	audioSourceCounter handleCounter
	fontCounter        handleCounter
	drawKeyCounter     handleCounter
}

// NewCommandQueue constructs an empty queue ready for recording, using
// DefaultConfig's buffer sizing.
func NewCommandQueue() *CommandQueue {
	return NewCommandQueueWithConfig(DefaultConfig())
}

// NewCommandQueueWithConfig constructs an empty queue, pre-sizing its
// command/message byte buffers per cfg.PODStreamInitialCapacity to
// avoid early reallocation on a queue expected to carry heavy traffic.
func NewCommandQueueWithConfig(cfg Config) *CommandQueue {
	q := &CommandQueue{listeners: newListenerRegistry()}
	q.cmdCond = sync.NewCond(&q.cmdMu)
	if cfg.PODStreamInitialCapacity > 0 {
		q.cmdPod.buf = make([]byte, 0, cfg.PODStreamInitialCapacity)
		q.msgPod.buf = make([]byte, 0, cfg.PODStreamInitialCapacity)
	}
	return q
}

// ---- generic recording helpers -------------------------------------------

// beginCommand locks the command mutex and writes tag; callers append
// further fields and side-car pushes, then call q.endCommand.
func (q *CommandQueue) beginCommand(tag commandTag) {
	q.cmdMu.Lock()
	podWriteUint8(&q.cmdPod, uint8(tag))
}

func (q *CommandQueue) endCommand() {
	q.cmdCond.Signal()
	q.cmdMu.Unlock()
}

func writeReqID(s *podStream, id requestID) { podWriteUint64(s, uint64(id)) }

// recordDelete covers deleteFile/Artboard/StateMachine/ViewModelInstance/
// Image/Audio/Font: a delete on a null or already-deleted handle is
// recorded unconditionally and is a server-side no-op (spec.md §4.4).
func recordDelete[H ~uint64](q *CommandQueue, tag commandTag, h H, reqID requestID) {
	q.beginCommand(tag)
	podWriteHandle(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.endCommand()
}

func (q *CommandQueue) DeleteFile(h FileHandle, reqID requestID) {
	recordDelete(q, cmdDeleteFile, h, reqID)
}
func (q *CommandQueue) DeleteArtboard(h ArtboardHandle, reqID requestID) {
	recordDelete(q, cmdDeleteArtboard, h, reqID)
}
func (q *CommandQueue) DeleteStateMachine(h StateMachineHandle, reqID requestID) {
	recordDelete(q, cmdDeleteStateMachine, h, reqID)
}
func (q *CommandQueue) DeleteViewModelInstance(h ViewModelInstanceHandle, reqID requestID) {
	recordDelete(q, cmdDeleteViewModelInstance, h, reqID)
}
func (q *CommandQueue) DeleteImage(h RenderImageHandle, reqID requestID) {
	recordDelete(q, cmdDeleteImage, h, reqID)
}
func (q *CommandQueue) DeleteAudio(h AudioSourceHandle, reqID requestID) {
	recordDelete(q, cmdDeleteAudio, h, reqID)
}
func (q *CommandQueue) DeleteFont(h FontHandle, reqID requestID) {
	recordDelete(q, cmdDeleteFont, h, reqID)
}

// ---- file / artboard / state machine instantiation -----------------------

// LoadFile records a loadFile command. loader may be nil ("use
// whatever the file embeds"). An empty name elsewhere in this API
// denotes "default"; loadFile itself has no name argument.
func (q *CommandQueue) LoadFile(bytes []byte, loader FileAssetLoader, l *Listener, reqID requestID) FileHandle {
	q.beginCommand(cmdLoadFile)
	h := FileHandle(q.fileCounter.next())
	q.listeners.register(categoryFile, uint64(h), l)
	podWriteHandle(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.cmdBytes.push(bytes)
	q.cmdRefs.push(loader)
	q.endCommand()
	return h
}

// InstantiateArtboardNamed records an instantiateArtboardNamed
// command. name == "" denotes the file's default artboard.
func (q *CommandQueue) InstantiateArtboardNamed(file FileHandle, name string, l *Listener, reqID requestID) ArtboardHandle {
	q.beginCommand(cmdInstantiateArtboardNamed)
	h := ArtboardHandle(q.artboardCounter.next())
	q.listeners.register(categoryArtboard, uint64(h), l)
	podWriteHandle(&q.cmdPod, file)
	podWriteHandle(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(name)
	q.endCommand()
	return h
}

// InstantiateStateMachineNamed records an instantiateStateMachineNamed
// command. name == "" denotes the artboard's default state machine.
func (q *CommandQueue) InstantiateStateMachineNamed(artboard ArtboardHandle, name string, l *Listener, reqID requestID) StateMachineHandle {
	q.beginCommand(cmdInstantiateStateMachineNamed)
	h := StateMachineHandle(q.stateMachineCounter.next())
	q.listeners.register(categoryStateMachine, uint64(h), l)
	podWriteHandle(&q.cmdPod, artboard)
	podWriteHandle(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(name)
	q.endCommand()
	return h
}

// recordInstantiateViewModelInstance writes the common wire shape behind all four
// instantiate-view-model-instance recording methods below.
func (q *CommandQueue) recordInstantiateViewModelInstance(
	src viewModelInstanceSource,
	target vmTarget,
	file FileHandle,
	artboard ArtboardHandle,
	viewModelName, instanceName string,
	l *Listener,
	reqID requestID,
) ViewModelInstanceHandle {
	q.beginCommand(cmdInstantiateViewModelInstance)
	h := ViewModelInstanceHandle(q.vmInstanceCounter.next())
	q.listeners.register(categoryViewModelInstance, uint64(h), l)
	podWriteUint8(&q.cmdPod, uint8(src))
	podWriteUint8(&q.cmdPod, uint8(target))
	podWriteHandle(&q.cmdPod, file)
	podWriteHandle(&q.cmdPod, artboard)
	podWriteHandle(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(viewModelName)
	q.cmdStrings.push(instanceName)
	q.endCommand()
	return h
}

// InstantiateDefaultViewModelInstanceForArtboard instantiates the
// default instance of the view model associated with artboard, which
// must have been created from file.
func (q *CommandQueue) InstantiateDefaultViewModelInstanceForArtboard(file FileHandle, artboard ArtboardHandle, l *Listener, reqID requestID) ViewModelInstanceHandle {
	return q.recordInstantiateViewModelInstance(vmSrcDefault, vmTargetArtboard, file, artboard, "", "", l, reqID)
}

// InstantiateDefaultViewModelInstanceForViewModel instantiates the
// default instance of the named view model defined in file.
func (q *CommandQueue) InstantiateDefaultViewModelInstanceForViewModel(file FileHandle, viewModelName string, l *Listener, reqID requestID) ViewModelInstanceHandle {
	return q.recordInstantiateViewModelInstance(vmSrcDefault, vmTargetViewModelName, file, NullArtboardHandle, viewModelName, "", l, reqID)
}

// InstantiateBlankViewModelInstance instantiates a blank (all
// defaults, no nested bindings) instance of the named view model
// defined in file.
func (q *CommandQueue) InstantiateBlankViewModelInstance(file FileHandle, viewModelName string, l *Listener, reqID requestID) ViewModelInstanceHandle {
	return q.recordInstantiateViewModelInstance(vmSrcBlank, vmTargetViewModelName, file, NullArtboardHandle, viewModelName, "", l, reqID)
}

// InstantiateNamedViewModelInstance instantiates the instanceName
// instance of the named view model defined in file.
func (q *CommandQueue) InstantiateNamedViewModelInstance(file FileHandle, viewModelName, instanceName string, l *Listener, reqID requestID) ViewModelInstanceHandle {
	return q.recordInstantiateViewModelInstance(vmSrcNamed, vmTargetViewModelName, file, NullArtboardHandle, viewModelName, instanceName, l, reqID)
}

// ---- view-model references and list mutation -----------------------------

func (q *CommandQueue) recordListOp(kind listOpKind, parent ViewModelInstanceHandle, path string, index, index2 int, child ViewModelInstanceHandle, reqID requestID) {
	q.beginCommand(cmdListOp)
	podWriteUint8(&q.cmdPod, uint8(kind))
	podWriteHandle(&q.cmdPod, parent)
	podWriteUint64(&q.cmdPod, uint64(index))
	podWriteUint64(&q.cmdPod, uint64(index2))
	podWriteHandle(&q.cmdPod, child)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(path)
	q.endCommand()
}

// ReferenceNestedViewModelInstance attaches child at the nested,
// non-list property path on parent.
func (q *CommandQueue) ReferenceNestedViewModelInstance(parent ViewModelInstanceHandle, path string, child ViewModelInstanceHandle, reqID requestID) {
	q.beginCommand(cmdReferenceNestedViewModel)
	podWriteHandle(&q.cmdPod, parent)
	podWriteHandle(&q.cmdPod, child)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(path)
	q.endCommand()
}

// SetViewModelInstanceNestedViewModel is an alias spec.md §4.4 lists
// alongside the scalar setters; it records the same nested-reference
// command as ReferenceNestedViewModelInstance.
func (q *CommandQueue) SetViewModelInstanceNestedViewModel(parent ViewModelInstanceHandle, path string, child ViewModelInstanceHandle, reqID requestID) {
	q.ReferenceNestedViewModelInstance(parent, path, child, reqID)
}

// ReferenceListViewModelInstance attaches child at list index i of
// the list property at path, replacing whatever is already there.
func (q *CommandQueue) ReferenceListViewModelInstance(parent ViewModelInstanceHandle, path string, i int, child ViewModelInstanceHandle, reqID requestID) {
	q.recordListOp(listOpReference, parent, path, i, 0, child, reqID)
}

func (q *CommandQueue) ListInsertViewModelInstance(parent ViewModelInstanceHandle, path string, i int, child ViewModelInstanceHandle, reqID requestID) {
	q.recordListOp(listOpInsert, parent, path, i, 0, child, reqID)
}

func (q *CommandQueue) ListRemoveViewModelInstance(parent ViewModelInstanceHandle, path string, i int, reqID requestID) {
	q.recordListOp(listOpRemove, parent, path, i, 0, NullViewModelInstanceHandle, reqID)
}

func (q *CommandQueue) ListAppendViewModelInstance(parent ViewModelInstanceHandle, path string, child ViewModelInstanceHandle, reqID requestID) {
	q.recordListOp(listOpAppend, parent, path, 0, 0, child, reqID)
}

func (q *CommandQueue) ListSwapViewModelInstance(parent ViewModelInstanceHandle, path string, i, j int, reqID requestID) {
	q.recordListOp(listOpSwap, parent, path, i, j, NullViewModelInstanceHandle, reqID)
}

// ---- typed property setters -----------------------------------------------

func (q *CommandQueue) beginSet(h ViewModelInstanceHandle, path string, dt DataType, reqID requestID) {
	q.beginCommand(cmdSetViewModelProperty)
	podWriteHandle(&q.cmdPod, h)
	podWriteUint8(&q.cmdPod, uint8(dt))
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(path)
}

func (q *CommandQueue) SetViewModelInstanceBool(h ViewModelInstanceHandle, path string, v bool, reqID requestID) {
	q.beginSet(h, path, DataTypeBool, reqID)
	podWriteBool(&q.cmdPod, v)
	q.endCommand()
}

func (q *CommandQueue) SetViewModelInstanceNumber(h ViewModelInstanceHandle, path string, v float32, reqID requestID) {
	q.beginSet(h, path, DataTypeNumber, reqID)
	podWriteFloat32(&q.cmdPod, v)
	q.endCommand()
}

func (q *CommandQueue) SetViewModelInstanceColor(h ViewModelInstanceHandle, path string, v uint32, reqID requestID) {
	q.beginSet(h, path, DataTypeColor, reqID)
	podWriteUint32(&q.cmdPod, v)
	q.endCommand()
}

func (q *CommandQueue) SetViewModelInstanceString(h ViewModelInstanceHandle, path string, v string, reqID requestID) {
	q.beginSet(h, path, DataTypeString, reqID)
	q.cmdStrings.push(v)
	q.endCommand()
}

func (q *CommandQueue) SetViewModelInstanceEnum(h ViewModelInstanceHandle, path string, v string, reqID requestID) {
	q.beginSet(h, path, DataTypeEnum, reqID)
	q.cmdStrings.push(v)
	q.endCommand()
}

func (q *CommandQueue) SetViewModelInstanceImage(h ViewModelInstanceHandle, path string, img RenderImageHandle, reqID requestID) {
	q.beginSet(h, path, DataTypeImage, reqID)
	podWriteHandle(&q.cmdPod, img)
	q.endCommand()
}

func (q *CommandQueue) SetViewModelInstanceArtboard(h ViewModelInstanceHandle, path string, artboard ArtboardHandle, reqID requestID) {
	q.beginSet(h, path, DataTypeArtboard, reqID)
	podWriteHandle(&q.cmdPod, artboard)
	q.endCommand()
}

// ---- typed property requests -----------------------------------------------

func (q *CommandQueue) recordRequest(h ViewModelInstanceHandle, path string, dt DataType, reqID requestID) {
	q.beginCommand(cmdRequestViewModelProperty)
	podWriteHandle(&q.cmdPod, h)
	podWriteUint8(&q.cmdPod, uint8(dt))
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(path)
	q.endCommand()
}

func (q *CommandQueue) RequestViewModelInstanceBool(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.recordRequest(h, path, DataTypeBool, reqID)
}
func (q *CommandQueue) RequestViewModelInstanceNumber(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.recordRequest(h, path, DataTypeNumber, reqID)
}
func (q *CommandQueue) RequestViewModelInstanceColor(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.recordRequest(h, path, DataTypeColor, reqID)
}
func (q *CommandQueue) RequestViewModelInstanceString(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.recordRequest(h, path, DataTypeString, reqID)
}
func (q *CommandQueue) RequestViewModelInstanceEnum(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.recordRequest(h, path, DataTypeEnum, reqID)
}
func (q *CommandQueue) RequestViewModelInstanceListSize(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.recordRequest(h, path, DataTypeList, reqID)
}

// ---- subscriptions ---------------------------------------------------------

func (q *CommandQueue) SubscribeToViewModelProperty(h ViewModelInstanceHandle, path string, dt DataType) {
	q.beginCommand(cmdSubscribeViewModelProperty)
	podWriteHandle(&q.cmdPod, h)
	podWriteUint8(&q.cmdPod, uint8(dt))
	q.cmdStrings.push(path)
	q.endCommand()
}

func (q *CommandQueue) UnsubscribeToViewModelProperty(h ViewModelInstanceHandle, path string, dt DataType) {
	q.beginCommand(cmdUnsubscribeViewModelProperty)
	podWriteHandle(&q.cmdPod, h)
	podWriteUint8(&q.cmdPod, uint8(dt))
	q.cmdStrings.push(path)
	q.endCommand()
}

// ---- triggers, binding, advance, pointer events ---------------------------

func (q *CommandQueue) FireViewModelTrigger(h ViewModelInstanceHandle, path string, reqID requestID) {
	q.beginCommand(cmdFireViewModelTrigger)
	podWriteHandle(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(path)
	q.endCommand()
}

func (q *CommandQueue) BindViewModelInstance(sm StateMachineHandle, vm ViewModelInstanceHandle, reqID requestID) {
	q.beginCommand(cmdBindViewModelInstance)
	podWriteHandle(&q.cmdPod, sm)
	podWriteHandle(&q.cmdPod, vm)
	writeReqID(&q.cmdPod, reqID)
	q.endCommand()
}

func (q *CommandQueue) AdvanceStateMachine(sm StateMachineHandle, dt float32, reqID requestID) {
	q.beginCommand(cmdAdvanceStateMachine)
	podWriteHandle(&q.cmdPod, sm)
	podWriteFloat32(&q.cmdPod, dt)
	writeReqID(&q.cmdPod, reqID)
	q.endCommand()
}

// PointerEvent bundles the geometry a pointer recording method needs
// to translate screen space into artboard space on the server.
type PointerEvent struct {
	Position       Vec2D
	Fit            Fit
	Alignment      Alignment
	ScreenBounds   AABB
	ArtboardBounds AABB
}

func (q *CommandQueue) recordPointerEvent(kind pointerEventKind, sm StateMachineHandle, ev PointerEvent) {
	q.beginCommand(cmdPointerEvent)
	podWriteUint8(&q.cmdPod, uint8(kind))
	podWriteHandle(&q.cmdPod, sm)
	podWriteFloat32(&q.cmdPod, ev.Position.X)
	podWriteFloat32(&q.cmdPod, ev.Position.Y)
	podWriteUint8(&q.cmdPod, uint8(ev.Fit))
	podWriteFloat32(&q.cmdPod, ev.Alignment.X)
	podWriteFloat32(&q.cmdPod, ev.Alignment.Y)
	podWriteFloat32(&q.cmdPod, ev.ScreenBounds.MinX)
	podWriteFloat32(&q.cmdPod, ev.ScreenBounds.MinY)
	podWriteFloat32(&q.cmdPod, ev.ScreenBounds.MaxX)
	podWriteFloat32(&q.cmdPod, ev.ScreenBounds.MaxY)
	podWriteFloat32(&q.cmdPod, ev.ArtboardBounds.MinX)
	podWriteFloat32(&q.cmdPod, ev.ArtboardBounds.MinY)
	podWriteFloat32(&q.cmdPod, ev.ArtboardBounds.MaxX)
	podWriteFloat32(&q.cmdPod, ev.ArtboardBounds.MaxY)
	q.endCommand()
}

func (q *CommandQueue) PointerDown(sm StateMachineHandle, ev PointerEvent) { q.recordPointerEvent(pointerEventDown, sm, ev) }
func (q *CommandQueue) PointerUp(sm StateMachineHandle, ev PointerEvent)   { q.recordPointerEvent(pointerEventUp, sm, ev) }
func (q *CommandQueue) PointerMove(sm StateMachineHandle, ev PointerEvent) { q.recordPointerEvent(pointerEventMove, sm, ev) }
func (q *CommandQueue) PointerExit(sm StateMachineHandle, ev PointerEvent) { q.recordPointerEvent(pointerEventExit, sm, ev) }

// ---- draw keys, draw, run-once --------------------------------------------

// CreateDrawKey allocates a new draw key. Unlike every other recording
// method, this may be called from any thread: it only ever touches the
// command mutex and the draw-key counter (spec.md §5).
func (q *CommandQueue) CreateDrawKey() DrawKey {
	q.cmdMu.Lock()
	defer q.cmdMu.Unlock()
	return DrawKey(q.drawKeyCounter.next())
}

// Draw overwrites the pending callback for key; only the last Draw
// recorded for a given key since the previous drain survives to it.
func (q *CommandQueue) Draw(key DrawKey, cb DrawCallback) {
	q.beginCommand(cmdDraw)
	podWriteHandle(&q.cmdPod, key)
	q.cmdRefs.push(cb)
	q.endCommand()
}

// RunOnce schedules cb to run once, in recording order relative to
// other commands.
func (q *CommandQueue) RunOnce(cb RunOnceCallback) {
	q.beginCommand(cmdRunOnce)
	q.cmdRefs.push(cb)
	q.endCommand()
}

// ---- metadata probes --------------------------------------------------------

func (q *CommandQueue) recordMetadataRequest(kind metadataKind, file FileHandle, artboard ArtboardHandle, name string, reqID requestID) {
	q.beginCommand(cmdRequestMetadata)
	podWriteUint8(&q.cmdPod, uint8(kind))
	podWriteHandle(&q.cmdPod, file)
	podWriteHandle(&q.cmdPod, artboard)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(name)
	q.endCommand()
}

func (q *CommandQueue) RequestArtboardNames(file FileHandle, reqID requestID) {
	q.recordMetadataRequest(metaArtboardNames, file, NullArtboardHandle, "", reqID)
}
func (q *CommandQueue) RequestViewModelNames(file FileHandle, reqID requestID) {
	q.recordMetadataRequest(metaViewModelNames, file, NullArtboardHandle, "", reqID)
}
func (q *CommandQueue) RequestViewModelInstanceNames(file FileHandle, viewModelName string, reqID requestID) {
	q.recordMetadataRequest(metaViewModelInstanceNames, file, NullArtboardHandle, viewModelName, reqID)
}
func (q *CommandQueue) RequestViewModelPropertyDefinitions(file FileHandle, viewModelName string, reqID requestID) {
	q.recordMetadataRequest(metaViewModelPropertyDefinitions, file, NullArtboardHandle, viewModelName, reqID)
}
func (q *CommandQueue) RequestViewModelEnums(file FileHandle, reqID requestID) {
	q.recordMetadataRequest(metaViewModelEnums, file, NullArtboardHandle, "", reqID)
}
func (q *CommandQueue) RequestStateMachineNames(artboard ArtboardHandle, reqID requestID) {
	q.recordMetadataRequest(metaStateMachineNames, NullFileHandle, artboard, "", reqID)
}
func (q *CommandQueue) RequestDefaultViewModelInfo(artboard ArtboardHandle, reqID requestID) {
	q.recordMetadataRequest(metaDefaultViewModelInfo, NullFileHandle, artboard, "", reqID)
}

// ---- asset management -------------------------------------------------------

func (q *CommandQueue) recordAssetOp(cat assetCategory, op assetOpKind, name string, bytes []byte, existing uint64, l *Listener, reqID requestID) uint64 {
	q.beginCommand(cmdAssetOp)
	podWriteUint8(&q.cmdPod, uint8(cat))
	podWriteUint8(&q.cmdPod, uint8(op))
	var h uint64
	switch op {
	case assetOpAddExternal, assetOpDecode:
		switch cat {
		case assetCategoryImage:
			h = q.renderImageCounter.next()
			q.listeners.register(categoryRenderImage, h, l)
		case assetCategoryAudio:
			h = q.audioSourceCounter.next()
			q.listeners.register(categoryAudioSource, h, l)
		case assetCategoryFont:
			h = q.fontCounter.next()
			q.listeners.register(categoryFont, h, l)
		}
	default:
		h = existing
	}
	podWriteUint64(&q.cmdPod, h)
	writeReqID(&q.cmdPod, reqID)
	q.cmdStrings.push(name)
	q.cmdBytes.push(bytes)
	q.endCommand()
	return h
}

func (q *CommandQueue) AddExternalImage(name string, bytes []byte, l *Listener, reqID requestID) RenderImageHandle {
	return RenderImageHandle(q.recordAssetOp(assetCategoryImage, assetOpAddExternal, name, bytes, 0, l, reqID))
}
func (q *CommandQueue) AddExternalAudio(name string, bytes []byte, l *Listener, reqID requestID) AudioSourceHandle {
	return AudioSourceHandle(q.recordAssetOp(assetCategoryAudio, assetOpAddExternal, name, bytes, 0, l, reqID))
}
func (q *CommandQueue) AddExternalFont(name string, bytes []byte, l *Listener, reqID requestID) FontHandle {
	return FontHandle(q.recordAssetOp(assetCategoryFont, assetOpAddExternal, name, bytes, 0, l, reqID))
}
func (q *CommandQueue) DecodeImage(bytes []byte, l *Listener, reqID requestID) RenderImageHandle {
	return RenderImageHandle(q.recordAssetOp(assetCategoryImage, assetOpDecode, "", bytes, 0, l, reqID))
}
func (q *CommandQueue) DecodeAudio(bytes []byte, l *Listener, reqID requestID) AudioSourceHandle {
	return AudioSourceHandle(q.recordAssetOp(assetCategoryAudio, assetOpDecode, "", bytes, 0, l, reqID))
}
func (q *CommandQueue) DecodeFont(bytes []byte, l *Listener, reqID requestID) FontHandle {
	return FontHandle(q.recordAssetOp(assetCategoryFont, assetOpDecode, "", bytes, 0, l, reqID))
}

// AddGlobalImageAsset registers handle under name in the server's
// global image-asset map; a decode-failed handle is a silent no-op
// (spec.md §9 Open Questions).
func (q *CommandQueue) AddGlobalImageAsset(name string, handle RenderImageHandle) {
	q.recordAssetOp(assetCategoryImage, assetOpAddGlobal, name, nil, uint64(handle), nil, 0)
}
func (q *CommandQueue) RemoveGlobalImageAsset(name string) {
	q.recordAssetOp(assetCategoryImage, assetOpRemoveGlobal, name, nil, 0, nil, 0)
}
func (q *CommandQueue) AddGlobalAudioAsset(name string, handle AudioSourceHandle) {
	q.recordAssetOp(assetCategoryAudio, assetOpAddGlobal, name, nil, uint64(handle), nil, 0)
}
func (q *CommandQueue) RemoveGlobalAudioAsset(name string) {
	q.recordAssetOp(assetCategoryAudio, assetOpRemoveGlobal, name, nil, 0, nil, 0)
}
func (q *CommandQueue) AddGlobalFontAsset(name string, handle FontHandle) {
	q.recordAssetOp(assetCategoryFont, assetOpAddGlobal, name, nil, uint64(handle), nil, 0)
}
func (q *CommandQueue) RemoveGlobalFontAsset(name string) {
	q.recordAssetOp(assetCategoryFont, assetOpRemoveGlobal, name, nil, 0, nil, 0)
}

// ---- global listeners, disconnect, testing --------------------------------

// SetGlobalListener installs l as the single global listener for
// category, receiving every event of that category in addition to any
// per-handle listener (spec.md §3 "Listener registry").
func (q *CommandQueue) SetGlobalListener(category handleCategory, l *Listener) {
	q.listeners.registerGlobal(category, l)
}

// Disconnect records the terminal command. Once drained, the server
// latches its disconnected flag and stops executing commands (spec.md
// §4.4 "Disconnect semantics").
func (q *CommandQueue) Disconnect() {
	q.beginCommand(cmdDisconnect)
	q.endCommand()
}

// TestingCommandLoopBreak records the break-out sentinel used only by
// tests to pin drain-boundary behavior (spec.md §4.5).
func (q *CommandQueue) TestingCommandLoopBreak() {
	q.beginCommand(cmdLoopBreak)
	q.endCommand()
}

// ---- message delivery -------------------------------------------------------

// ProcessMessages delivers every message the server has posted since
// the last call, in order, to the matching per-handle and global
// listeners. It must be called only from the producer thread.
//
// It first appends a messageLoopBreak sentinel to the tail under the
// message mutex so messages posted concurrently with this call are not
// delivered until the next call, then pops and dispatches messages
// FIFO, releasing the message mutex around each dispatch so a listener
// callback that records new commands cannot deadlock (spec.md §4.4
// "processMessages").
func (q *CommandQueue) ProcessMessages() {
	q.msgMu.Lock()
	podWriteUint8(&q.msgPod, uint8(msgLoopBreak))
	q.msgMu.Unlock()

	for {
		q.msgMu.Lock()
		msg, isSentinel := q.popMessageLocked()
		q.msgMu.Unlock()
		if isSentinel {
			return
		}
		q.deliver(msg)
	}
}

// popMessageLocked must be called with msgMu held. It pops one message
// record (or the sentinel) from the reply stream.
func (q *CommandQueue) popMessageLocked() (Message, bool) {
	tag := messageTag(podReadUint8(&q.msgPod))
	if tag == msgLoopBreak {
		return Message{}, true
	}
	return q.decodeMessage(tag), false
}

func (q *CommandQueue) deliver(msg Message) {
	cat := categoryForMessage(msg)
	perHandle, global := q.listeners.lookup(cat, handleForMessage(msg))
	if isTerminalDelete(msg.Tag) {
		q.listeners.unregister(cat, handleForMessage(msg))
	}
	dispatch(perHandle, cat, msg)
	dispatch(global, cat, msg)
}

func isTerminalDelete(tag messageTag) bool {
	switch tag {
	case msgFileDeleted, msgArtboardDeleted, msgStateMachineDeleted, msgViewModelDeleted,
		msgRenderImageDeleted, msgAudioSourceDeleted, msgFontDeleted:
		return true
	default:
		return false
	}
}

func handleForMessage(msg Message) uint64 {
	switch {
	case msg.File != 0:
		return uint64(msg.File)
	case msg.Artboard != 0:
		return uint64(msg.Artboard)
	case msg.StateMachine != 0:
		return uint64(msg.StateMachine)
	case msg.ViewModel != 0:
		return uint64(msg.ViewModel)
	case msg.RenderImage != 0:
		return uint64(msg.RenderImage)
	case msg.AudioSource != 0:
		return uint64(msg.AudioSource)
	case msg.Font != 0:
		return uint64(msg.Font)
	default:
		return 0
	}
}

// categoryForMessage routes msg to the registry category its listener
// was registered under. msgAssetError is shared across all three asset
// categories (errorMessageTag has no single category to scope a decode
// failure to), so it routes by inspecting which asset handle field is
// actually populated rather than by tag alone.
func categoryForMessage(msg Message) handleCategory {
	if msg.Tag == msgAssetError {
		switch {
		case msg.RenderImage != 0:
			return categoryRenderImage
		case msg.AudioSource != 0:
			return categoryAudioSource
		case msg.Font != 0:
			return categoryFont
		default:
			return categoryRenderImage
		}
	}
	switch msg.Tag {
	case msgFileLoaded, msgFileDeleted, msgFileError, msgArtboardsListed, msgViewModelsListed,
		msgViewModelInstanceNamesListed, msgViewModelPropertiesListed, msgViewModelEnumsListed:
		return categoryFile
	case msgArtboardDeleted, msgArtboardError, msgStateMachinesListed, msgDefaultViewModelInfoReceived:
		return categoryArtboard
	case msgStateMachineDeleted, msgStateMachineError, msgStateMachineSettled:
		return categoryStateMachine
	case msgViewModelDeleted, msgViewModelInstanceError, msgViewModelDataReceived, msgViewModelListSizeReceived:
		return categoryViewModelInstance
	case msgRenderImageDecoded, msgRenderImageDeleted:
		return categoryRenderImage
	case msgAudioSourceDecoded, msgAudioSourceDeleted:
		return categoryAudioSource
	case msgFontDecoded, msgFontDeleted:
		return categoryFont
	default:
		return categoryFile
	}
}

// decodeMessage reads the tag-specific fields for tag; it must be
// called with msgMu held and tag already popped.
func (q *CommandQueue) decodeMessage(tag messageTag) Message {
	msg := Message{Tag: tag}
	switch tag {
	case msgFileLoaded, msgFileDeleted:
		msg.File = podReadHandle[FileHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgFileError:
		msg.File = podReadHandle[FileHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
	case msgArtboardsListed, msgViewModelsListed:
		msg.File = podReadHandle[FileHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Names = q.msgRefs.pop().([]string)
	case msgViewModelInstanceNamesListed:
		msg.File = podReadHandle[FileHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
		msg.Names = q.msgRefs.pop().([]string)
	case msgViewModelPropertiesListed:
		msg.File = podReadHandle[FileHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
		msg.Props = q.msgRefs.pop().([]PropertyData)
	case msgViewModelEnumsListed:
		msg.File = podReadHandle[FileHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Enums = q.msgRefs.pop().([]ViewModelEnum)
	case msgArtboardDeleted:
		msg.Artboard = podReadHandle[ArtboardHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgArtboardError:
		msg.Artboard = podReadHandle[ArtboardHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
	case msgStateMachinesListed:
		msg.Artboard = podReadHandle[ArtboardHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Names = q.msgRefs.pop().([]string)
	case msgDefaultViewModelInfoReceived:
		msg.Artboard = podReadHandle[ArtboardHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
		msg.Names = []string{q.msgStrings.pop()}
	case msgStateMachineDeleted, msgStateMachineSettled:
		msg.StateMachine = podReadHandle[StateMachineHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgStateMachineError:
		msg.StateMachine = podReadHandle[StateMachineHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
	case msgViewModelDeleted:
		msg.ViewModel = podReadHandle[ViewModelInstanceHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgViewModelInstanceError:
		msg.ViewModel = podReadHandle[ViewModelInstanceHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
	case msgViewModelDataReceived:
		msg.ViewModel = podReadHandle[ViewModelInstanceHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Data = q.msgRefs.pop().(ViewModelInstanceData)
	case msgViewModelListSizeReceived:
		msg.ViewModel = podReadHandle[ViewModelInstanceHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
		msg.Size = int(podReadUint64(&q.msgPod))
	case msgRenderImageDecoded, msgRenderImageDeleted:
		msg.RenderImage = podReadHandle[RenderImageHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgFontDecoded, msgFontDeleted:
		msg.Font = podReadHandle[FontHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgAudioSourceDecoded, msgAudioSourceDeleted:
		msg.AudioSource = podReadHandle[AudioSourceHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
	case msgAssetError:
		msg.RenderImage = podReadHandle[RenderImageHandle](&q.msgPod)
		msg.AudioSource = podReadHandle[AudioSourceHandle](&q.msgPod)
		msg.Font = podReadHandle[FontHandle](&q.msgPod)
		msg.RequestID = requestID(podReadUint64(&q.msgPod))
		msg.Text = q.msgStrings.pop()
	}
	return msg
}
