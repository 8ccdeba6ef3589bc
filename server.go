// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import (
	"fmt"
	"log/slog"
	"os"
)

// server.go is the consumer-side drain/dispatch engine, spec.md §4.5
// in full: it owns every server-side resource map, runs the three
// drain-loop shapes, executes each command against the collaborator
// interfaces from collaborators.go, tracks parent/child handles for
// dependency-cascade deletion, coalesces per-key draw callbacks,
// diffs subscriptions, and posts reply messages.
//
// Grounded on the teacher's app.go dispose-cascade walk and frame.go's
// reused-draw-list pattern (see DESIGN.md); diverges from both in that
// this server reads its work from a byte-tagged stream rather than a
// typed channel, for the same wire-contract reason queue.go diverges.

// CommandServer drains a CommandQueue's command stream and executes it
// against factory. Only the single consumer thread that constructs a
// CommandServer may call its drain methods (spec.md §5).
type CommandServer struct {
	queue   *CommandQueue
	factory Factory
	log     *slog.Logger

	files         map[FileHandle]LoadedFile
	artboards     map[ArtboardHandle]ArtboardInstance
	stateMachines map[StateMachineHandle]StateMachineInstance
	vmInstances   map[ViewModelInstanceHandle]ViewModelInstance

	artboardsByFile         map[FileHandle][]ArtboardHandle
	stateMachinesByArtboard map[ArtboardHandle][]StateMachineHandle
	vmBoundToStateMachine   map[StateMachineHandle]ViewModelInstanceHandle
	fileOfArtboard          map[ArtboardHandle]FileHandle
	artboardOfStateMachine  map[StateMachineHandle]ArtboardHandle

	images map[RenderImageHandle]RenderImage
	audio  map[AudioSourceHandle]AudioSource
	fonts  map[FontHandle]Font

	globalImages map[string]RenderImageHandle
	globalAudio  map[string]AudioSourceHandle
	globalFonts  map[string]FontHandle

	drawSlots map[DrawKey]DrawCallback

	subscriptions map[subscriptionKey]ViewModelInstanceData

	settled map[StateMachineHandle]bool

	disconnected bool
}

// parseLogLevel maps Config.LogLevel's string vocabulary onto slog's
// level type, defaulting to warn for an empty or unrecognized value.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

type subscriptionKey struct {
	handle ViewModelInstanceHandle
	path   string
	dt     DataType
}

// NewCommandServer constructs a server draining queue's command stream
// and posting into its message stream, using factory to produce
// decoded assets and loaded files, logging at DefaultConfig's level.
func NewCommandServer(queue *CommandQueue, factory Factory) *CommandServer {
	return NewCommandServerWithConfig(queue, factory, DefaultConfig())
}

// NewCommandServerWithConfig is NewCommandServer with an explicit
// Config, honoring cfg.LogLevel for recovered-panic logging and
// cfg.SubscriptionDiffBufferSize as the subscriptions map's initial
// bucket hint.
func NewCommandServerWithConfig(queue *CommandQueue, factory Factory, cfg Config) *CommandServer {
	return &CommandServer{
		queue:                   queue,
		factory:                 factory,
		log:                     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})),
		files:                   make(map[FileHandle]LoadedFile),
		artboards:               make(map[ArtboardHandle]ArtboardInstance),
		stateMachines:           make(map[StateMachineHandle]StateMachineInstance),
		vmInstances:             make(map[ViewModelInstanceHandle]ViewModelInstance),
		artboardsByFile:         make(map[FileHandle][]ArtboardHandle),
		stateMachinesByArtboard: make(map[ArtboardHandle][]StateMachineHandle),
		vmBoundToStateMachine:   make(map[StateMachineHandle]ViewModelInstanceHandle),
		fileOfArtboard:          make(map[ArtboardHandle]FileHandle),
		artboardOfStateMachine:  make(map[StateMachineHandle]ArtboardHandle),
		images:                  make(map[RenderImageHandle]RenderImage),
		audio:                   make(map[AudioSourceHandle]AudioSource),
		fonts:                   make(map[FontHandle]Font),
		globalImages:            make(map[string]RenderImageHandle),
		globalAudio:             make(map[string]AudioSourceHandle),
		globalFonts:             make(map[string]FontHandle),
		drawSlots:               make(map[DrawKey]DrawCallback),
		subscriptions:           make(map[subscriptionKey]ViewModelInstanceData, cfg.SubscriptionDiffBufferSize),
		settled:                 make(map[StateMachineHandle]bool),
	}
}

// decodedCommand holds every field any command tag might populate,
// read once while the command mutex is held so execution can proceed
// lock-free (spec.md §4.5 "lock → read → unlock → execute").
type decodedCommand struct {
	tag commandTag

	file     FileHandle
	artboard ArtboardHandle
	sm       StateMachineHandle
	vm       ViewModelInstanceHandle
	vm2      ViewModelInstanceHandle
	image    RenderImageHandle

	reqID requestID

	u8a, u8b uint8
	i1, i2   int
	f1       float32

	name, name2, path string
	bytes             []byte
	ref               any

	pointerEv PointerEvent
}

// PollMessages drains every currently queued command without
// blocking. It returns false iff a disconnect was seen (this call or
// an earlier one).
func (s *CommandServer) PollMessages() bool {
	if s.disconnected {
		return false
	}
	for {
		cmd, ok := s.readOneCommand()
		if !ok {
			break
		}
		if cmd.tag == cmdLoopBreak {
			break
		}
		if cmd.tag == cmdDisconnect {
			s.disconnected = true
			break
		}
		s.execute(cmd)
	}
	s.flushDrawSlots()
	s.flushSubscriptions()
	return !s.disconnected
}

// readOneCommand locks the command mutex, peeks/pops one command tag
// and its fields, and unlocks. ok is false when the stream is empty.
func (s *CommandServer) readOneCommand() (decodedCommand, bool) {
	q := s.queue
	q.cmdMu.Lock()
	defer q.cmdMu.Unlock()
	if q.cmdPod.empty() {
		return decodedCommand{}, false
	}
	tag := commandTag(podReadUint8(&q.cmdPod))
	if tag == cmdLoopBreak || tag == cmdDisconnect {
		return decodedCommand{tag: tag}, true
	}
	return s.decodeCommandLocked(tag), true
}

// WaitMessages blocks on the command condition variable while the
// command stream is empty, then returns PollMessages.
func (s *CommandServer) WaitMessages() bool {
	q := s.queue
	q.cmdMu.Lock()
	for q.cmdPod.empty() && !s.disconnected {
		q.cmdCond.Wait()
	}
	q.cmdMu.Unlock()
	return s.PollMessages()
}

// ServeUntilDisconnect calls WaitMessages until it returns false.
func (s *CommandServer) ServeUntilDisconnect() {
	for s.WaitMessages() {
	}
}

// decodeCommandLocked reads tag's fields and detaches any side-car
// payload. Caller must hold q.cmdMu.
func (s *CommandServer) decodeCommandLocked(tag commandTag) decodedCommand {
	q := s.queue
	c := decodedCommand{tag: tag}
	switch tag {
	case cmdDeleteFile:
		c.file = podReadHandle[FileHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
	case cmdDeleteArtboard:
		c.artboard = podReadHandle[ArtboardHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
	case cmdDeleteStateMachine:
		c.sm = podReadHandle[StateMachineHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
	case cmdDeleteViewModelInstance:
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
	case cmdDeleteImage:
		c.image = podReadHandle[RenderImageHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
	case cmdDeleteAudio:
		c.i1 = int(podReadHandle[AudioSourceHandle](&q.cmdPod))
		c.reqID = requestID(podReadUint64(&q.cmdPod))
	case cmdDeleteFont:
		c.i1 = int(podReadHandle[FontHandle](&q.cmdPod))
		c.reqID = requestID(podReadUint64(&q.cmdPod))

	case cmdLoadFile:
		c.file = podReadHandle[FileHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.bytes = q.cmdBytes.pop()
		c.ref = q.cmdRefs.pop()

	case cmdInstantiateArtboardNamed:
		c.file = podReadHandle[FileHandle](&q.cmdPod)
		c.artboard = podReadHandle[ArtboardHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.name = q.cmdStrings.pop()

	case cmdInstantiateStateMachineNamed:
		c.artboard = podReadHandle[ArtboardHandle](&q.cmdPod)
		c.sm = podReadHandle[StateMachineHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.name = q.cmdStrings.pop()

	case cmdInstantiateViewModelInstance:
		c.u8a = podReadUint8(&q.cmdPod)
		c.u8b = podReadUint8(&q.cmdPod)
		c.file = podReadHandle[FileHandle](&q.cmdPod)
		c.artboard = podReadHandle[ArtboardHandle](&q.cmdPod)
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.name = q.cmdStrings.pop()
		c.name2 = q.cmdStrings.pop()

	case cmdReferenceNestedViewModel:
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.vm2 = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.path = q.cmdStrings.pop()

	case cmdListOp:
		c.u8a = podReadUint8(&q.cmdPod)
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.i1 = int(podReadUint64(&q.cmdPod))
		c.i2 = int(podReadUint64(&q.cmdPod))
		c.vm2 = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.path = q.cmdStrings.pop()

	case cmdSetViewModelProperty:
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.u8a = podReadUint8(&q.cmdPod) // DataType
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.path = q.cmdStrings.pop()
		switch DataType(c.u8a) {
		case DataTypeBool:
			if podReadBool(&q.cmdPod) {
				c.i1 = 1
			}
		case DataTypeNumber:
			c.f1 = podReadFloat32(&q.cmdPod)
		case DataTypeColor:
			c.i1 = int(podReadUint32(&q.cmdPod))
		case DataTypeString, DataTypeEnum:
			c.name2 = q.cmdStrings.pop()
		case DataTypeImage:
			c.image = podReadHandle[RenderImageHandle](&q.cmdPod)
		case DataTypeArtboard:
			c.artboard = podReadHandle[ArtboardHandle](&q.cmdPod)
		}

	case cmdRequestViewModelProperty:
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.u8a = podReadUint8(&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.path = q.cmdStrings.pop()

	case cmdSubscribeViewModelProperty, cmdUnsubscribeViewModelProperty:
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.u8a = podReadUint8(&q.cmdPod)
		c.path = q.cmdStrings.pop()

	case cmdFireViewModelTrigger:
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.path = q.cmdStrings.pop()

	case cmdBindViewModelInstance:
		c.sm = podReadHandle[StateMachineHandle](&q.cmdPod)
		c.vm = podReadHandle[ViewModelInstanceHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))

	case cmdAdvanceStateMachine:
		c.sm = podReadHandle[StateMachineHandle](&q.cmdPod)
		c.f1 = podReadFloat32(&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))

	case cmdPointerEvent:
		c.u8a = podReadUint8(&q.cmdPod)
		c.sm = podReadHandle[StateMachineHandle](&q.cmdPod)
		var ev PointerEvent
		ev.Position.X = podReadFloat32(&q.cmdPod)
		ev.Position.Y = podReadFloat32(&q.cmdPod)
		ev.Fit = Fit(podReadUint8(&q.cmdPod))
		ev.Alignment.X = podReadFloat32(&q.cmdPod)
		ev.Alignment.Y = podReadFloat32(&q.cmdPod)
		ev.ScreenBounds.MinX = podReadFloat32(&q.cmdPod)
		ev.ScreenBounds.MinY = podReadFloat32(&q.cmdPod)
		ev.ScreenBounds.MaxX = podReadFloat32(&q.cmdPod)
		ev.ScreenBounds.MaxY = podReadFloat32(&q.cmdPod)
		ev.ArtboardBounds.MinX = podReadFloat32(&q.cmdPod)
		ev.ArtboardBounds.MinY = podReadFloat32(&q.cmdPod)
		ev.ArtboardBounds.MaxX = podReadFloat32(&q.cmdPod)
		ev.ArtboardBounds.MaxY = podReadFloat32(&q.cmdPod)
		c.pointerEv = ev

	case cmdDraw:
		c.i1 = int(podReadHandle[DrawKey](&q.cmdPod))
		c.ref = q.cmdRefs.pop()

	case cmdRunOnce:
		c.ref = q.cmdRefs.pop()

	case cmdRequestMetadata:
		c.u8a = podReadUint8(&q.cmdPod)
		c.file = podReadHandle[FileHandle](&q.cmdPod)
		c.artboard = podReadHandle[ArtboardHandle](&q.cmdPod)
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.name = q.cmdStrings.pop()

	case cmdAssetOp:
		c.u8a = podReadUint8(&q.cmdPod) // category
		c.u8b = podReadUint8(&q.cmdPod) // op
		c.i1 = int(podReadUint64(&q.cmdPod))
		c.reqID = requestID(podReadUint64(&q.cmdPod))
		c.name = q.cmdStrings.pop()
		c.bytes = q.cmdBytes.pop()
	}
	return c
}

// execute runs cmd against collaborator state. It must never be
// called while q.cmdMu is held (spec.md §4.5).
func (s *CommandServer) execute(c decodedCommand) {
	switch c.tag {
	case cmdDeleteFile:
		s.execDeleteFile(c)
	case cmdDeleteArtboard:
		s.execDeleteArtboard(c.artboard, c.reqID)
	case cmdDeleteStateMachine:
		s.execDeleteStateMachine(c.sm, c.reqID)
	case cmdDeleteViewModelInstance:
		s.execDeleteViewModelInstance(c.vm, c.reqID)
	case cmdDeleteImage:
		s.execDeleteAsset(categoryRenderImage, uint64(c.image), c.reqID)
	case cmdDeleteAudio:
		s.execDeleteAsset(categoryAudioSource, uint64(c.i1), c.reqID)
	case cmdDeleteFont:
		s.execDeleteAsset(categoryFont, uint64(c.i1), c.reqID)
	case cmdLoadFile:
		s.execLoadFile(c)
	case cmdInstantiateArtboardNamed:
		s.execInstantiateArtboardNamed(c)
	case cmdInstantiateStateMachineNamed:
		s.execInstantiateStateMachineNamed(c)
	case cmdInstantiateViewModelInstance:
		s.execInstantiateViewModelInstance(c)
	case cmdReferenceNestedViewModel:
		s.execReferenceNestedViewModel(c)
	case cmdListOp:
		s.execListOp(c)
	case cmdSetViewModelProperty:
		s.execSetViewModelProperty(c)
	case cmdRequestViewModelProperty:
		s.execRequestViewModelProperty(c)
	case cmdSubscribeViewModelProperty:
		s.execSubscribe(c)
	case cmdUnsubscribeViewModelProperty:
		s.execUnsubscribe(c)
	case cmdFireViewModelTrigger:
		s.execFireTrigger(c)
	case cmdBindViewModelInstance:
		s.execBindViewModel(c)
	case cmdAdvanceStateMachine:
		s.execAdvance(c)
	case cmdPointerEvent:
		s.execPointerEvent(c)
	case cmdDraw:
		s.drawSlots[DrawKey(c.i1)] = c.ref.(DrawCallback)
	case cmdRunOnce:
		s.runCallback(c.ref.(RunOnceCallback))
	case cmdRequestMetadata:
		s.execRequestMetadata(c)
	case cmdAssetOp:
		s.execAssetOp(c)
	}
}

// runCallback invokes a user callback, catching and logging a panic
// rather than letting it unwind through the drain loop (spec.md §7:
// "A callback that throws is outside the contract; implementations
// may catch-and-log but need not" — this server does, matching the
// teacher's general preference for resilient long-running loops).
func (s *CommandServer) runCallback(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("rive: callback panicked", "recovered", r)
		}
	}()
	cb()
}

// flushDrawSlots invokes each pending draw callback exactly once and
// clears the map, ending the drain's draw-coalescing pass (spec.md
// §4.5 "Draw coalescing").
func (s *CommandServer) flushDrawSlots() {
	if len(s.drawSlots) == 0 {
		return
	}
	for key, cb := range s.drawSlots {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("rive: draw callback panicked", "key", key, "recovered", r)
				}
			}()
			cb(nil)
		}()
		delete(s.drawSlots, key)
	}
}

// postMessage writes msg into the reply stream under the message
// mutex. Its field order mirrors (*CommandQueue).decodeMessage exactly.
func (s *CommandServer) postMessage(msg Message) {
	q := s.queue
	q.msgMu.Lock()
	defer q.msgMu.Unlock()
	podWriteUint8(&q.msgPod, uint8(msg.Tag))
	switch msg.Tag {
	case msgFileLoaded, msgFileDeleted:
		podWriteHandle(&q.msgPod, msg.File)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgFileError:
		podWriteHandle(&q.msgPod, msg.File)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
	case msgArtboardsListed, msgViewModelsListed:
		podWriteHandle(&q.msgPod, msg.File)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgRefs.push(msg.Names)
	case msgViewModelInstanceNamesListed:
		podWriteHandle(&q.msgPod, msg.File)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
		q.msgRefs.push(msg.Names)
	case msgViewModelPropertiesListed:
		podWriteHandle(&q.msgPod, msg.File)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
		q.msgRefs.push(msg.Props)
	case msgViewModelEnumsListed:
		podWriteHandle(&q.msgPod, msg.File)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgRefs.push(msg.Enums)
	case msgArtboardDeleted:
		podWriteHandle(&q.msgPod, msg.Artboard)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgArtboardError:
		podWriteHandle(&q.msgPod, msg.Artboard)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
	case msgStateMachinesListed:
		podWriteHandle(&q.msgPod, msg.Artboard)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgRefs.push(msg.Names)
	case msgDefaultViewModelInfoReceived:
		podWriteHandle(&q.msgPod, msg.Artboard)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
		instanceName := ""
		if len(msg.Names) > 0 {
			instanceName = msg.Names[0]
		}
		q.msgStrings.push(instanceName)
	case msgStateMachineDeleted, msgStateMachineSettled:
		podWriteHandle(&q.msgPod, msg.StateMachine)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgStateMachineError:
		podWriteHandle(&q.msgPod, msg.StateMachine)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
	case msgViewModelDeleted:
		podWriteHandle(&q.msgPod, msg.ViewModel)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgViewModelInstanceError:
		podWriteHandle(&q.msgPod, msg.ViewModel)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
	case msgViewModelDataReceived:
		podWriteHandle(&q.msgPod, msg.ViewModel)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgRefs.push(msg.Data)
	case msgViewModelListSizeReceived:
		podWriteHandle(&q.msgPod, msg.ViewModel)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
		podWriteUint64(&q.msgPod, uint64(msg.Size))
	case msgRenderImageDecoded, msgRenderImageDeleted:
		podWriteHandle(&q.msgPod, msg.RenderImage)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgFontDecoded, msgFontDeleted:
		podWriteHandle(&q.msgPod, msg.Font)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgAudioSourceDecoded, msgAudioSourceDeleted:
		podWriteHandle(&q.msgPod, msg.AudioSource)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
	case msgAssetError:
		podWriteHandle(&q.msgPod, msg.RenderImage)
		podWriteHandle(&q.msgPod, msg.AudioSource)
		podWriteHandle(&q.msgPod, msg.Font)
		podWriteUint64(&q.msgPod, uint64(msg.RequestID))
		q.msgStrings.push(msg.Text)
	}
}

func (s *CommandServer) postError(cat handleCategory, reqID requestID, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	msg := Message{Tag: errorMessageTag(cat), RequestID: reqID, Text: text}
	s.postMessage(msg)
}
