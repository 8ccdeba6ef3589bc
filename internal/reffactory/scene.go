// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package reffactory

import (
	"strings"

	rive "github.com/rive-app/rive-runtime"
)

// scene.go is a minimal in-memory stand-in for the real scene graph
// (rive.ArtboardInstance / rive.StateMachineInstance /
// rive.ViewModelInstance), which spec.md §1 treats as an opaque
// external collaborator. There is no real .riv parser in this module
// (by design — it's out of scope), so this reference factory resolves
// a handful of named fixtures built directly as Go values instead of
// parsing bytes, purely so this module's own tests have a live
// collaborator to exercise.

// property is one flat view-model property slot.
type property struct {
	dt     rive.DataType
	b      bool
	number float32
	color  uint32
	str    string
}

// viewModelInstance is a flat (non-nested) fake rive.ViewModelInstance.
// Property paths are looked up directly by name; nested/list paths are
// not modeled since no fixture below needs them.
type viewModelInstance struct {
	props map[string]*property
}

func newViewModelInstance(defs map[string]rive.DataType) *viewModelInstance {
	vm := &viewModelInstance{props: make(map[string]*property, len(defs))}
	for name, dt := range defs {
		vm.props[name] = &property{dt: dt}
	}
	return vm
}

func (vm *viewModelInstance) get(path string) (*property, bool) {
	p, ok := vm.props[path]
	return p, ok
}

func (vm *viewModelInstance) GetBool(path string) (bool, rive.DataType, bool) {
	p, ok := vm.get(path)
	if !ok {
		return false, rive.DataTypeNone, false
	}
	return p.b, p.dt, p.dt == rive.DataTypeBool
}

func (vm *viewModelInstance) SetBool(path string, v bool) bool {
	p, ok := vm.get(path)
	if !ok || p.dt != rive.DataTypeBool {
		return false
	}
	p.b = v
	return true
}

func (vm *viewModelInstance) GetNumber(path string) (float32, rive.DataType, bool) {
	p, ok := vm.get(path)
	if !ok {
		return 0, rive.DataTypeNone, false
	}
	return p.number, p.dt, p.dt == rive.DataTypeNumber
}

func (vm *viewModelInstance) SetNumber(path string, v float32) bool {
	p, ok := vm.get(path)
	if !ok || p.dt != rive.DataTypeNumber {
		return false
	}
	p.number = v
	return true
}

func (vm *viewModelInstance) GetColor(path string) (uint32, rive.DataType, bool) {
	p, ok := vm.get(path)
	if !ok {
		return 0, rive.DataTypeNone, false
	}
	return p.color, p.dt, p.dt == rive.DataTypeColor
}

func (vm *viewModelInstance) SetColor(path string, v uint32) bool {
	p, ok := vm.get(path)
	if !ok || p.dt != rive.DataTypeColor {
		return false
	}
	p.color = v
	return true
}

func (vm *viewModelInstance) GetString(path string) (string, rive.DataType, bool) {
	p, ok := vm.get(path)
	if !ok {
		return "", rive.DataTypeNone, false
	}
	return p.str, p.dt, p.dt == rive.DataTypeString
}

func (vm *viewModelInstance) SetString(path string, v string) bool {
	p, ok := vm.get(path)
	if !ok || p.dt != rive.DataTypeString {
		return false
	}
	p.str = v
	return true
}

func (vm *viewModelInstance) GetEnum(path string) (string, rive.DataType, bool) {
	p, ok := vm.get(path)
	if !ok {
		return "", rive.DataTypeNone, false
	}
	return p.str, p.dt, p.dt == rive.DataTypeEnum
}

func (vm *viewModelInstance) SetEnum(path string, v string) bool {
	p, ok := vm.get(path)
	if !ok || p.dt != rive.DataTypeEnum {
		return false
	}
	p.str = v
	return true
}

func (vm *viewModelInstance) SetImage(path string, handle rive.RenderImageHandle, img rive.RenderImage) bool {
	p, ok := vm.get(path)
	return ok && p.dt == rive.DataTypeImage
}

func (vm *viewModelInstance) SetArtboard(path string, artboard rive.ArtboardInstance) bool {
	p, ok := vm.get(path)
	return ok && p.dt == rive.DataTypeArtboard
}

func (vm *viewModelInstance) FireTrigger(path string) bool {
	p, ok := vm.get(path)
	return ok && p.dt == rive.DataTypeTrigger
}

func (vm *viewModelInstance) ReferenceNestedViewModel(path string, child rive.ViewModelInstance) bool {
	return false
}

func (vm *viewModelInstance) ListSize(path string) (int, bool) { return 0, false }

func (vm *viewModelInstance) ReferenceListViewModel(path string, i int, child rive.ViewModelInstance) bool {
	return false
}

func (vm *viewModelInstance) ListInsert(path string, i int, child rive.ViewModelInstance) bool {
	return false
}

func (vm *viewModelInstance) ListRemove(path string, i int) bool { return false }

func (vm *viewModelInstance) ListAppend(path string, child rive.ViewModelInstance) bool {
	return false
}

func (vm *viewModelInstance) ListSwap(path string, i, j int) bool { return false }

// stateMachine is a fake rive.StateMachineInstance. settleAfter bounds
// how many non-zero-dt advances it takes to reach settled; a dt of 0
// never advances progress (used to "prime" per spec.md §9).
type stateMachine struct {
	name        string
	progress    int
	settleAfter int
	bound       *viewModelInstance
	boolPath    string
}

func (sm *stateMachine) Name() string { return sm.name }

func (sm *stateMachine) AdvanceAndApply(dt float32) bool {
	if dt > 0 {
		sm.progress++
	}
	return sm.progress >= sm.settleAfter
}

func (sm *stateMachine) PointerDown(pos rive.Vec2D) {
	if sm.bound != nil && sm.boolPath != "" {
		if p, ok := sm.bound.get(sm.boolPath); ok && !p.b {
			p.b = true
		}
	}
}

func (sm *stateMachine) PointerUp(pos rive.Vec2D) {
	if sm.bound != nil && sm.boolPath != "" {
		if p, ok := sm.bound.get(sm.boolPath); ok && p.b {
			p.b = false
		}
	}
}

func (sm *stateMachine) PointerMove(pos rive.Vec2D) {}
func (sm *stateMachine) PointerExit(pos rive.Vec2D) {}

func (sm *stateMachine) BindViewModel(instance rive.ViewModelInstance) {
	vm, _ := instance.(*viewModelInstance)
	sm.bound = vm
}

// artboard is a fake rive.ArtboardInstance.
type artboard struct {
	name           string
	bounds         rive.AABB
	stateMachines  map[string]*stateMachine
	defaultSM      string
	viewModelName  string
	instanceName   string
	buildViewModel func() *viewModelInstance
}

func (a *artboard) Name() string        { return a.name }
func (a *artboard) Bounds() rive.AABB   { return a.bounds }
func (a *artboard) Draw(r rive.Renderer) {}

func (a *artboard) DefaultStateMachine() (rive.StateMachineInstance, bool) {
	return a.StateMachineNamed(a.defaultSM)
}

func (a *artboard) StateMachineNamed(name string) (rive.StateMachineInstance, bool) {
	sm, ok := a.stateMachines[name]
	if !ok {
		return nil, false
	}
	return sm, true
}

func (a *artboard) StateMachineNames() []string {
	names := make([]string, 0, len(a.stateMachines))
	for n := range a.stateMachines {
		names = append(names, n)
	}
	return names
}

func (a *artboard) DefaultViewModelInfo() (string, string, bool) {
	if a.viewModelName == "" {
		return "", "", false
	}
	return a.viewModelName, a.instanceName, true
}

func (a *artboard) DefaultViewModelInstance() (rive.ViewModelInstance, bool) {
	if a.buildViewModel == nil {
		return nil, false
	}
	return a.buildViewModel(), true
}

// file is a fake rive.LoadedFile.
type file struct {
	artboards        map[string]*artboard
	defaultArtboard  string
	viewModelDefs    map[string]map[string]rive.DataType
	viewModelOrder   []string
	enums            []rive.ViewModelEnum
	buildViewModel   func(viewModelName string) *viewModelInstance
}

func (f *file) ArtboardDefault() (rive.ArtboardInstance, bool) {
	return f.ArtboardNamed(f.defaultArtboard)
}

func (f *file) ArtboardNamed(name string) (rive.ArtboardInstance, bool) {
	a, ok := f.artboards[name]
	if !ok {
		return nil, false
	}
	return a, true
}

func (f *file) ArtboardNames() []string {
	names := make([]string, 0, len(f.artboards))
	for n := range f.artboards {
		names = append(names, n)
	}
	return names
}

func (f *file) ViewModelNames() []string {
	return append([]string(nil), f.viewModelOrder...)
}

func (f *file) ViewModelInstanceNames(viewModelName string) ([]string, bool) {
	if _, ok := f.viewModelDefs[viewModelName]; !ok {
		return nil, false
	}
	return []string{"Default"}, true
}

func (f *file) ViewModelPropertyDefinitions(viewModelName string) ([]rive.PropertyData, bool) {
	defs, ok := f.viewModelDefs[viewModelName]
	if !ok {
		return nil, false
	}
	out := make([]rive.PropertyData, 0, len(defs))
	for name, dt := range defs {
		out = append(out, rive.PropertyData{Type: dt, Name: name})
	}
	return out, true
}

func (f *file) ViewModelEnums() []rive.ViewModelEnum {
	return append([]rive.ViewModelEnum(nil), f.enums...)
}

func (f *file) DefaultViewModelInstance() (rive.ViewModelInstance, bool) {
	if len(f.viewModelOrder) == 0 {
		return nil, false
	}
	return f.buildViewModel(f.viewModelOrder[0]), true
}

func (f *file) ViewModelInstanceNamed(viewModelName, instanceName string, blank bool) (rive.ViewModelInstance, bool) {
	if _, ok := f.viewModelDefs[viewModelName]; !ok {
		return nil, false
	}
	if !blank && instanceName != "" && !strings.EqualFold(instanceName, "default") {
		return nil, false
	}
	return f.buildViewModel(viewModelName), true
}
