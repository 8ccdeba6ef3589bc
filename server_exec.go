// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// server_exec.go holds CommandServer's per-tag execution logic:
// dependency-cascade deletion, instantiation against the Factory/
// LoadedFile/ArtboardInstance collaborators, view-model property
// get/set/subscribe, triggers, binding, advance/settlement, pointer
// dispatch, metadata probes, and asset management (spec.md §4.5).

func removeHandle[H comparable](s []H, h H) []H {
	for i, v := range s {
		if v == h {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// ---- deletion cascade -------------------------------------------------------

func (s *CommandServer) execDeleteFile(c decodedCommand) {
	if _, ok := s.files[c.file]; !ok {
		return
	}
	delete(s.files, c.file)
	children := s.artboardsByFile[c.file]
	delete(s.artboardsByFile, c.file)
	for _, ab := range children {
		s.cascadeDeleteArtboard(ab, 0)
	}
	s.postMessage(Message{Tag: msgFileDeleted, File: c.file, RequestID: c.reqID})
}

func (s *CommandServer) execDeleteArtboard(artboard ArtboardHandle, reqID requestID) {
	if _, ok := s.artboards[artboard]; !ok {
		return
	}
	if file, ok := s.fileOfArtboard[artboard]; ok {
		s.artboardsByFile[file] = removeHandle(s.artboardsByFile[file], artboard)
	}
	s.cascadeDeleteArtboard(artboard, reqID)
}

// cascadeDeleteArtboard removes artboard and everything derived from
// it, posting artboardDeleted with reqID (0 for cascaded calls).
func (s *CommandServer) cascadeDeleteArtboard(artboard ArtboardHandle, reqID requestID) {
	if _, ok := s.artboards[artboard]; !ok {
		return
	}
	delete(s.artboards, artboard)
	delete(s.fileOfArtboard, artboard)
	sms := s.stateMachinesByArtboard[artboard]
	delete(s.stateMachinesByArtboard, artboard)
	for _, sm := range sms {
		s.cascadeDeleteStateMachine(sm, 0)
	}
	s.postMessage(Message{Tag: msgArtboardDeleted, Artboard: artboard, RequestID: reqID})
}

func (s *CommandServer) execDeleteStateMachine(sm StateMachineHandle, reqID requestID) {
	if _, ok := s.stateMachines[sm]; !ok {
		return
	}
	if ab, ok := s.artboardOfStateMachine[sm]; ok {
		s.stateMachinesByArtboard[ab] = removeHandle(s.stateMachinesByArtboard[ab], sm)
	}
	s.cascadeDeleteStateMachine(sm, reqID)
}

// cascadeDeleteStateMachine removes sm and the view-model binding it
// owns (not the view-model instance itself), posting
// stateMachineDeleted with reqID.
func (s *CommandServer) cascadeDeleteStateMachine(sm StateMachineHandle, reqID requestID) {
	if _, ok := s.stateMachines[sm]; !ok {
		return
	}
	delete(s.stateMachines, sm)
	delete(s.artboardOfStateMachine, sm)
	delete(s.vmBoundToStateMachine, sm)
	delete(s.settled, sm)
	s.postMessage(Message{Tag: msgStateMachineDeleted, StateMachine: sm, RequestID: reqID})
}

func (s *CommandServer) execDeleteViewModelInstance(vm ViewModelInstanceHandle, reqID requestID) {
	if _, ok := s.vmInstances[vm]; !ok {
		return
	}
	delete(s.vmInstances, vm)
	for sm, bound := range s.vmBoundToStateMachine {
		if bound == vm {
			delete(s.vmBoundToStateMachine, sm)
		}
	}
	for key := range s.subscriptions {
		if key.handle == vm {
			delete(s.subscriptions, key)
		}
	}
	s.postMessage(Message{Tag: msgViewModelDeleted, ViewModel: vm, RequestID: reqID})
}

func (s *CommandServer) execDeleteAsset(cat handleCategory, handle uint64, reqID requestID) {
	switch cat {
	case categoryRenderImage:
		h := RenderImageHandle(handle)
		if _, ok := s.images[h]; !ok {
			return
		}
		delete(s.images, h)
		for name, v := range s.globalImages {
			if v == h {
				delete(s.globalImages, name)
			}
		}
		s.postMessage(Message{Tag: msgRenderImageDeleted, RenderImage: h, RequestID: reqID})
	case categoryAudioSource:
		h := AudioSourceHandle(handle)
		if _, ok := s.audio[h]; !ok {
			return
		}
		delete(s.audio, h)
		for name, v := range s.globalAudio {
			if v == h {
				delete(s.globalAudio, name)
			}
		}
		s.postMessage(Message{Tag: msgAudioSourceDeleted, AudioSource: h, RequestID: reqID})
	case categoryFont:
		h := FontHandle(handle)
		if _, ok := s.fonts[h]; !ok {
			return
		}
		delete(s.fonts, h)
		for name, v := range s.globalFonts {
			if v == h {
				delete(s.globalFonts, name)
			}
		}
		s.postMessage(Message{Tag: msgFontDeleted, Font: h, RequestID: reqID})
	}
}

// ---- instantiation -----------------------------------------------------------

func (s *CommandServer) execLoadFile(c decodedCommand) {
	loader, _ := c.ref.(FileAssetLoader)
	lf, err := s.factory.LoadFile(c.bytes, loader)
	if err != nil {
		s.postMessage(Message{Tag: msgFileError, File: c.file, RequestID: c.reqID, Text: err.Error()})
		return
	}
	s.files[c.file] = lf
	s.postMessage(Message{Tag: msgFileLoaded, File: c.file, RequestID: c.reqID})
}

func (s *CommandServer) execInstantiateArtboardNamed(c decodedCommand) {
	lf, ok := s.files[c.file]
	if !ok {
		s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
		return
	}
	var (
		ab    ArtboardInstance
		found bool
	)
	if c.name == "" {
		ab, found = lf.ArtboardDefault()
	} else {
		ab, found = lf.ArtboardNamed(c.name)
	}
	if !found {
		// Name miss: c.artboard is left unresolved (spec.md §7 "Name /
		// path miss"); the server posts an error only when it is used.
		return
	}
	s.artboards[c.artboard] = ab
	s.fileOfArtboard[c.artboard] = c.file
	s.artboardsByFile[c.file] = append(s.artboardsByFile[c.file], c.artboard)
}

func (s *CommandServer) execInstantiateStateMachineNamed(c decodedCommand) {
	ab, ok := s.artboards[c.artboard]
	if !ok {
		s.postError(categoryArtboard, c.reqID, "artboard handle %d is not live", c.artboard)
		return
	}
	var (
		sm    StateMachineInstance
		found bool
	)
	if c.name == "" {
		sm, found = ab.DefaultStateMachine()
	} else {
		sm, found = ab.StateMachineNamed(c.name)
	}
	if !found {
		return
	}
	s.stateMachines[c.sm] = sm
	s.artboardOfStateMachine[c.sm] = c.artboard
	s.stateMachinesByArtboard[c.artboard] = append(s.stateMachinesByArtboard[c.artboard], c.sm)
}

func (s *CommandServer) execInstantiateViewModelInstance(c decodedCommand) {
	lf, ok := s.files[c.file]
	if !ok {
		s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
		return
	}

	var (
		vm    ViewModelInstance
		found bool
	)
	switch vmTarget(c.u8b) {
	case vmTargetArtboard:
		ab, abOK := s.artboards[c.artboard]
		if !abOK {
			s.postError(categoryArtboard, c.reqID, "artboard handle %d is not live", c.artboard)
			return
		}
		vm, found = ab.DefaultViewModelInstance()
	case vmTargetViewModelName:
		switch viewModelInstanceSource(c.u8a) {
		case vmSrcBlank:
			vm, found = lf.ViewModelInstanceNamed(c.name, "", true)
		case vmSrcDefault:
			if c.name != "" {
				vm, found = lf.ViewModelInstanceNamed(c.name, "", false)
			} else {
				vm, found = lf.DefaultViewModelInstance()
			}
		case vmSrcNamed:
			vm, found = lf.ViewModelInstanceNamed(c.name, c.name2, false)
		}
	}
	if !found {
		return
	}
	s.vmInstances[c.vm] = vm
}

// ---- view-model references and list mutation ---------------------------------

func (s *CommandServer) execReferenceNestedViewModel(c decodedCommand) {
	parent, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm)
		return
	}
	child, ok := s.vmInstances[c.vm2]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm2)
		return
	}
	if !parent.ReferenceNestedViewModel(c.path, child) {
		s.postError(categoryViewModelInstance, c.reqID, "no such nested view model property %q", c.path)
	}
}

func (s *CommandServer) execListOp(c decodedCommand) {
	parent, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm)
		return
	}
	kind := listOpKind(c.u8a)
	var ok2 bool
	switch kind {
	case listOpReference, listOpInsert:
		child, childOK := s.vmInstances[c.vm2]
		if !childOK {
			s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm2)
			return
		}
		if kind == listOpReference {
			ok2 = parent.ReferenceListViewModel(c.path, c.i1, child)
		} else {
			ok2 = parent.ListInsert(c.path, c.i1, child)
		}
	case listOpAppend:
		child, childOK := s.vmInstances[c.vm2]
		if !childOK {
			s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm2)
			return
		}
		ok2 = parent.ListAppend(c.path, child)
	case listOpRemove:
		ok2 = parent.ListRemove(c.path, c.i1)
	case listOpSwap:
		ok2 = parent.ListSwap(c.path, c.i1, c.i2)
	}
	if !ok2 {
		s.postError(categoryViewModelInstance, c.reqID, "list operation failed on %q (out of range or wrong type)", c.path)
	}
}

// ---- typed property set/request/subscribe -------------------------------------

func (s *CommandServer) execSetViewModelProperty(c decodedCommand) {
	vm, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm)
		return
	}
	var ok2 bool
	switch DataType(c.u8a) {
	case DataTypeBool:
		ok2 = vm.SetBool(c.path, c.i1 != 0)
	case DataTypeNumber:
		ok2 = vm.SetNumber(c.path, c.f1)
	case DataTypeColor:
		ok2 = vm.SetColor(c.path, uint32(c.i1))
	case DataTypeString:
		ok2 = vm.SetString(c.path, c.name2)
	case DataTypeEnum:
		ok2 = vm.SetEnum(c.path, c.name2)
	case DataTypeImage:
		img, imgOK := s.images[c.image]
		if !imgOK {
			s.postError(categoryViewModelInstance, c.reqID, "render image handle %d is not live", c.image)
			return
		}
		ok2 = vm.SetImage(c.path, c.image, img)
	case DataTypeArtboard:
		ab, abOK := s.artboards[c.artboard]
		if !abOK {
			s.postError(categoryViewModelInstance, c.reqID, "artboard handle %d is not live", c.artboard)
			return
		}
		ok2 = vm.SetArtboard(c.path, ab)
	}
	if !ok2 {
		s.postError(categoryViewModelInstance, c.reqID, "type mismatch or missing path %q", c.path)
	}
}

func (s *CommandServer) execRequestViewModelProperty(c decodedCommand) {
	vm, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm)
		return
	}
	dt := DataType(c.u8a)
	if dt == DataTypeList {
		size, sizeOK := vm.ListSize(c.path)
		if !sizeOK {
			s.postError(categoryViewModelInstance, c.reqID, "no such list property %q", c.path)
			return
		}
		s.postMessage(Message{Tag: msgViewModelListSizeReceived, ViewModel: c.vm, RequestID: c.reqID, Text: c.path, Size: size})
		return
	}
	data, dataOK := s.readViewModelProperty(vm, c.path, dt)
	if !dataOK {
		s.postError(categoryViewModelInstance, c.reqID, "no such property %q of type %s", c.path, dt)
		return
	}
	s.postMessage(Message{Tag: msgViewModelDataReceived, ViewModel: c.vm, RequestID: c.reqID, Data: data})
}

// readViewModelProperty reads the current value of path as dt. Used
// by both RequestViewModelProperty and the subscription-diff pass.
func (s *CommandServer) readViewModelProperty(vm ViewModelInstance, path string, dt DataType) (ViewModelInstanceData, bool) {
	switch dt {
	case DataTypeBool:
		v, actual, ok := vm.GetBool(path)
		return ViewModelInstanceData{Property: PropertyData{Type: actual, Name: path}, Bool: v}, ok
	case DataTypeNumber:
		v, actual, ok := vm.GetNumber(path)
		return ViewModelInstanceData{Property: PropertyData{Type: actual, Name: path}, Number: v}, ok
	case DataTypeColor:
		v, actual, ok := vm.GetColor(path)
		return ViewModelInstanceData{Property: PropertyData{Type: actual, Name: path}, Color: v}, ok
	case DataTypeString:
		v, actual, ok := vm.GetString(path)
		return ViewModelInstanceData{Property: PropertyData{Type: actual, Name: path}, String: v}, ok
	case DataTypeEnum:
		v, actual, ok := vm.GetEnum(path)
		return ViewModelInstanceData{Property: PropertyData{Type: actual, Name: path}, String: v}, ok
	default:
		return ViewModelInstanceData{}, false
	}
}

func (s *CommandServer) execSubscribe(c decodedCommand) {
	vm, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, 0, "view model instance handle %d is not live", c.vm)
		return
	}
	dt := DataType(c.u8a)
	data, dataOK := s.readViewModelProperty(vm, c.path, dt)
	if !dataOK {
		s.postError(categoryViewModelInstance, 0, "no such property %q of type %s", c.path, dt)
		return
	}
	s.subscriptions[subscriptionKey{c.vm, c.path, dt}] = data
}

func (s *CommandServer) execUnsubscribe(c decodedCommand) {
	// Unsubscribing a non-existent subscription is silent (spec.md
	// §4.5 "Subscriptions").
	delete(s.subscriptions, subscriptionKey{c.vm, c.path, DataType(c.u8a)})
}

// flushSubscriptions emits one viewModelDataReceived per subscription
// whose value changed since the last drain (spec.md §4.5
// "Subscriptions").
func (s *CommandServer) flushSubscriptions() {
	for key, last := range s.subscriptions {
		vm, ok := s.vmInstances[key.handle]
		if !ok {
			continue
		}
		current, dataOK := s.readViewModelProperty(vm, key.path, key.dt)
		if !dataOK || current.Equal(last) {
			continue
		}
		s.subscriptions[key] = current
		s.postMessage(Message{Tag: msgViewModelDataReceived, ViewModel: key.handle, Data: current})
	}
}

func (s *CommandServer) execFireTrigger(c decodedCommand) {
	vm, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm)
		return
	}
	if !vm.FireTrigger(c.path) {
		s.postError(categoryViewModelInstance, c.reqID, "no such trigger %q", c.path)
	}
}

// ---- binding, advance, pointer dispatch ----------------------------------------

func (s *CommandServer) execBindViewModel(c decodedCommand) {
	sm, ok := s.stateMachines[c.sm]
	if !ok {
		s.postError(categoryStateMachine, c.reqID, "state machine handle %d is not live", c.sm)
		return
	}
	vm, ok := s.vmInstances[c.vm]
	if !ok {
		s.postError(categoryViewModelInstance, c.reqID, "view model instance handle %d is not live", c.vm)
		return
	}
	sm.BindViewModel(vm)
	s.vmBoundToStateMachine[c.sm] = c.vm
}

func (s *CommandServer) execAdvance(c decodedCommand) {
	sm, ok := s.stateMachines[c.sm]
	if !ok {
		s.postError(categoryStateMachine, c.reqID, "state machine handle %d is not live", c.sm)
		return
	}
	wasSettled := s.settled[c.sm]
	nowSettled := sm.AdvanceAndApply(c.f1)
	s.settled[c.sm] = nowSettled
	if nowSettled && !wasSettled {
		s.postMessage(Message{Tag: msgStateMachineSettled, StateMachine: c.sm, RequestID: c.reqID})
	}
}

func (s *CommandServer) execPointerEvent(c decodedCommand) {
	sm, ok := s.stateMachines[c.sm]
	if !ok {
		s.postError(categoryStateMachine, 0, "state machine handle %d is not live", c.sm)
		return
	}
	ev := c.pointerEv
	local := translatePointer(ev.Position, ev.Fit, ev.Alignment, ev.ScreenBounds, ev.ArtboardBounds)
	switch pointerEventKind(c.u8a) {
	case pointerEventDown:
		sm.PointerDown(local)
	case pointerEventUp:
		sm.PointerUp(local)
	case pointerEventMove:
		sm.PointerMove(local)
	case pointerEventExit:
		sm.PointerExit(local)
	}
}

// ---- metadata probes ----------------------------------------------------------

func (s *CommandServer) execRequestMetadata(c decodedCommand) {
	switch metadataKind(c.u8a) {
	case metaArtboardNames:
		lf, ok := s.files[c.file]
		if !ok {
			s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
			return
		}
		s.postMessage(Message{Tag: msgArtboardsListed, File: c.file, RequestID: c.reqID, Names: lf.ArtboardNames()})
	case metaViewModelNames:
		lf, ok := s.files[c.file]
		if !ok {
			s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
			return
		}
		s.postMessage(Message{Tag: msgViewModelsListed, File: c.file, RequestID: c.reqID, Names: lf.ViewModelNames()})
	case metaViewModelInstanceNames:
		lf, ok := s.files[c.file]
		if !ok {
			s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
			return
		}
		names, found := lf.ViewModelInstanceNames(c.name)
		if !found {
			s.postError(categoryFile, c.reqID, "no such view model %q", c.name)
			return
		}
		s.postMessage(Message{Tag: msgViewModelInstanceNamesListed, File: c.file, RequestID: c.reqID, Text: c.name, Names: names})
	case metaViewModelPropertyDefinitions:
		lf, ok := s.files[c.file]
		if !ok {
			s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
			return
		}
		props, found := lf.ViewModelPropertyDefinitions(c.name)
		if !found {
			s.postError(categoryFile, c.reqID, "no such view model %q", c.name)
			return
		}
		s.postMessage(Message{Tag: msgViewModelPropertiesListed, File: c.file, RequestID: c.reqID, Text: c.name, Props: props})
	case metaViewModelEnums:
		lf, ok := s.files[c.file]
		if !ok {
			s.postError(categoryFile, c.reqID, "loadFile handle %d is not live", c.file)
			return
		}
		s.postMessage(Message{Tag: msgViewModelEnumsListed, File: c.file, RequestID: c.reqID, Enums: lf.ViewModelEnums()})
	case metaStateMachineNames:
		ab, ok := s.artboards[c.artboard]
		if !ok {
			s.postError(categoryArtboard, c.reqID, "artboard handle %d is not live", c.artboard)
			return
		}
		s.postMessage(Message{Tag: msgStateMachinesListed, Artboard: c.artboard, RequestID: c.reqID, Names: ab.StateMachineNames()})
	case metaDefaultViewModelInfo:
		ab, ok := s.artboards[c.artboard]
		if !ok {
			s.postError(categoryArtboard, c.reqID, "artboard handle %d is not live", c.artboard)
			return
		}
		vmName, instanceName, found := ab.DefaultViewModelInfo()
		if !found {
			s.postError(categoryArtboard, c.reqID, "artboard %d has no default view model", c.artboard)
			return
		}
		s.postMessage(Message{Tag: msgDefaultViewModelInfoReceived, Artboard: c.artboard, RequestID: c.reqID, Text: vmName, Names: []string{instanceName}})
	}
}

// ---- asset management -----------------------------------------------------------

func (s *CommandServer) execAssetOp(c decodedCommand) {
	cat := assetCategory(c.u8a)
	op := assetOpKind(c.u8b)
	switch op {
	case assetOpAddExternal:
		s.decodeAndStoreAsset(cat, uint64(c.i1), c.bytes, c.reqID)
	case assetOpDecode:
		s.decodeAndStoreAsset(cat, uint64(c.i1), c.bytes, c.reqID)
	case assetOpAddGlobal:
		s.addGlobalAsset(cat, c.name, uint64(c.i1))
	case assetOpRemoveGlobal:
		s.removeGlobalAsset(cat, c.name)
	}
}

func (s *CommandServer) decodeAndStoreAsset(cat assetCategory, handle uint64, bytes []byte, reqID requestID) {
	switch cat {
	case assetCategoryImage:
		img, err := s.factory.DecodeImage(bytes)
		if err != nil {
			s.postMessage(Message{Tag: msgAssetError, RenderImage: RenderImageHandle(handle), RequestID: reqID, Text: err.Error()})
			return
		}
		s.images[RenderImageHandle(handle)] = img
		s.postMessage(Message{Tag: msgRenderImageDecoded, RenderImage: RenderImageHandle(handle), RequestID: reqID})
	case assetCategoryAudio:
		a, err := s.factory.DecodeAudio(bytes)
		if err != nil {
			s.postMessage(Message{Tag: msgAssetError, AudioSource: AudioSourceHandle(handle), RequestID: reqID, Text: err.Error()})
			return
		}
		s.audio[AudioSourceHandle(handle)] = a
		s.postMessage(Message{Tag: msgAudioSourceDecoded, AudioSource: AudioSourceHandle(handle), RequestID: reqID})
	case assetCategoryFont:
		f, err := s.factory.DecodeFont(bytes)
		if err != nil {
			s.postMessage(Message{Tag: msgAssetError, Font: FontHandle(handle), RequestID: reqID, Text: err.Error()})
			return
		}
		s.fonts[FontHandle(handle)] = f
		s.postMessage(Message{Tag: msgFontDecoded, Font: FontHandle(handle), RequestID: reqID})
	}
}

// addGlobalAsset registers handle under name. A decode-failed handle
// (absent from the resource map) is a silent no-op, per the original
// tests cited in spec.md §9 Open Questions.
func (s *CommandServer) addGlobalAsset(cat assetCategory, name string, handle uint64) {
	switch cat {
	case assetCategoryImage:
		if _, ok := s.images[RenderImageHandle(handle)]; !ok {
			return
		}
		s.globalImages[name] = RenderImageHandle(handle)
	case assetCategoryAudio:
		if _, ok := s.audio[AudioSourceHandle(handle)]; !ok {
			return
		}
		s.globalAudio[name] = AudioSourceHandle(handle)
	case assetCategoryFont:
		if _, ok := s.fonts[FontHandle(handle)]; !ok {
			return
		}
		s.globalFonts[name] = FontHandle(handle)
	}
}

func (s *CommandServer) removeGlobalAsset(cat assetCategory, name string) {
	switch cat {
	case assetCategoryImage:
		delete(s.globalImages, name)
	case assetCategoryAudio:
		delete(s.globalAudio, name)
	case assetCategoryFont:
		delete(s.globalFonts, name)
	}
}
