// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// collaborators.go declares, for documentary purposes only, the
// contracts the command core depends on without implementing (spec.md
// §6). GPU backends, bitmap/audio/font decoders, text shaping, and the
// scene graph all live behind these interfaces in a real deployment;
// this module only ever calls through them.

// Factory produces render images, fonts, audio sources, and render
// paths/paints from bytes, and loads files. Provided once to a
// CommandServer at construction.
type Factory interface {
	LoadFile(rivBytes []byte, loader FileAssetLoader) (LoadedFile, error)
	DecodeImage(bytes []byte) (RenderImage, error)
	DecodeFont(bytes []byte) (Font, error)
	DecodeAudio(bytes []byte) (AudioSource, error)
}

// FileAssetLoader resolves out-of-band assets referenced by a .riv
// file (fonts, images, audio) that were not embedded at export time.
// A nil loader means "use whatever the file embeds."
type FileAssetLoader interface {
	// LoadContents is called by the scene layer during LoadFile when it
	// encounters a referenced-but-not-embedded asset.
	LoadContents(name string) ([]byte, bool)
}

// LoadedFile is a parsed .riv file, able to enumerate and instantiate
// the artboards and view models it contains.
type LoadedFile interface {
	ArtboardDefault() (ArtboardInstance, bool)
	ArtboardNamed(name string) (ArtboardInstance, bool)
	ArtboardNames() []string
	ViewModelNames() []string
	ViewModelInstanceNames(viewModelName string) ([]string, bool)
	ViewModelPropertyDefinitions(viewModelName string) ([]PropertyData, bool)
	ViewModelEnums() []ViewModelEnum

	// DefaultViewModelInstance builds the default view-model instance
	// for the file (used when no artboard/view-model name is given).
	DefaultViewModelInstance() (ViewModelInstance, bool)
	// ViewModelInstanceNamed builds the instanceName instance of a view
	// model (instanceName == "" selects its default instance), or a
	// blank instance when blank is true.
	ViewModelInstanceNamed(viewModelName, instanceName string, blank bool) (ViewModelInstance, bool)
}

// ArtboardInstance is an opaque, instantiated artboard.
type ArtboardInstance interface {
	Name() string
	Bounds() AABB
	DefaultStateMachine() (StateMachineInstance, bool)
	StateMachineNamed(name string) (StateMachineInstance, bool)
	StateMachineNames() []string
	DefaultViewModelInfo() (viewModelName, instanceName string, ok bool)
	DefaultViewModelInstance() (ViewModelInstance, bool)
	Draw(r Renderer)
}

// StateMachineInstance is an opaque, instantiated state machine.
type StateMachineInstance interface {
	Name() string
	// AdvanceAndApply advances the state machine by dt and reports
	// whether it is now settled (spec.md §4.5 "StateMachine settlement").
	AdvanceAndApply(dt float32) (settled bool)
	PointerDown(artboardPos Vec2D)
	PointerUp(artboardPos Vec2D)
	PointerMove(artboardPos Vec2D)
	PointerExit(artboardPos Vec2D)
	BindViewModel(instance ViewModelInstance)
}

// ViewModelInstance is an opaque view-model binding, addressed by
// slash-separated property paths parsed fresh on every call (spec.md
// §9 Design Notes: "Implementations should not attempt to tokenise at
// record time; the server parses them fresh").
type ViewModelInstance interface {
	GetBool(path string) (bool, DataType, bool)
	SetBool(path string, v bool) bool
	GetNumber(path string) (float32, DataType, bool)
	SetNumber(path string, v float32) bool
	GetColor(path string) (uint32, DataType, bool)
	SetColor(path string, v uint32) bool
	GetString(path string) (string, DataType, bool)
	SetString(path string, v string) bool
	GetEnum(path string) (string, DataType, bool)
	SetEnum(path string, v string) bool
	SetImage(path string, v RenderImageHandle, img RenderImage) bool
	SetArtboard(path string, v ArtboardInstance) bool
	FireTrigger(path string) bool

	// ReferenceNestedViewModel attaches an existing view-model instance
	// at a nested (non-list) property path.
	ReferenceNestedViewModel(path string, child ViewModelInstance) bool
	// ListSize returns the length of the list property at path.
	ListSize(path string) (int, bool)
	// ReferenceListViewModel attaches an existing view-model instance at
	// list index i of the list property at path.
	ReferenceListViewModel(path string, i int, child ViewModelInstance) bool
	ListInsert(path string, i int, child ViewModelInstance) bool
	ListRemove(path string, i int) bool
	ListAppend(path string, child ViewModelInstance) bool
	ListSwap(path string, i, j int) bool
}

// Renderer, RenderPath, and RenderPaint are opaque GPU-backend handles
// produced by a Factory and consumed by ArtboardInstance.Draw.
type Renderer interface{}
type RenderPath interface{}
type RenderPaint interface{}

// RenderImage is an opaque decoded image, referenced by handle.
type RenderImage interface{}

// Font is an opaque decoded font, referenced by handle.
type Font interface{}

// AudioSource is an opaque decoded audio asset, referenced by handle.
type AudioSource interface{}
