// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package reffactory

import rive "github.com/rive-app/rive-runtime"

// fixtures maps a fixture name (the literal bytes LoadFile is called
// with, in this module's own tests) to a constructor for a fresh file
// instance. Three fixtures cover the seed scenarios.
var fixtures = map[string]func() *file{
	"two_artboards.riv":        buildTwoArtboards,
	"pointer_events.riv":       buildPointerEvents,
	"data_bind_test_cmdq.riv":  buildDataBindTest,
}

// buildTwoArtboards backs seed scenario 1: artboards "One" and "Two"
// exist; "Three" does not.
func buildTwoArtboards() *file {
	mk := func(name string) *artboard {
		return &artboard{
			name:          name,
			bounds:        rive.AABB{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
			stateMachines: map[string]*stateMachine{},
		}
	}
	return &file{
		artboards: map[string]*artboard{
			"One": mk("One"),
			"Two": mk("Two"),
		},
		defaultArtboard: "One",
		viewModelDefs:   map[string]map[string]rive.DataType{},
	}
}

// buildPointerEvents backs seed scenario 3: a default artboard with a
// default state machine bound to a view-model instance carrying a
// single boolean property, "isDown", which the state machine flips on
// pointer down/up the way a button's hit region would.
func buildPointerEvents() *file {
	defs := map[string]rive.DataType{"isDown": rive.DataTypeBool}
	buildVM := func() *viewModelInstance { return newViewModelInstance(defs) }

	sm := &stateMachine{name: "State Machine 1", settleAfter: 0, boolPath: "isDown"}
	ab := &artboard{
		name:           "Artboard",
		bounds:         rive.AABB{MinX: 0, MinY: 0, MaxX: 850, MaxY: 850},
		stateMachines:  map[string]*stateMachine{"State Machine 1": sm},
		defaultSM:      "State Machine 1",
		viewModelName:  "Button View Model",
		instanceName:   "",
		buildViewModel: buildVM,
	}

	return &file{
		artboards:       map[string]*artboard{"Artboard": ab},
		defaultArtboard: "Artboard",
		viewModelDefs:   map[string]map[string]rive.DataType{"Button View Model": defs},
		viewModelOrder:  []string{"Button View Model"},
		buildViewModel:  func(string) *viewModelInstance { return buildVM() },
	}
}

// buildDataBindTest backs seed scenario 4: a default view model whose
// only property is a settable/gettable number, "Test Num".
func buildDataBindTest() *file {
	defs := map[string]rive.DataType{"Test Num": rive.DataTypeNumber}
	return &file{
		artboards:       map[string]*artboard{},
		defaultArtboard: "",
		viewModelDefs:   map[string]map[string]rive.DataType{"Data Bind Test": defs},
		viewModelOrder:  []string{"Data Bind Test"},
		buildViewModel: func(name string) *viewModelInstance {
			return newViewModelInstance(defs)
		},
	}
}
