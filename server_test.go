// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import (
	"testing"

	"github.com/rive-app/rive-runtime/internal/reffactory"
)

// settleAfterN is a minimal StateMachineInstance fake that settles
// once it has received n non-zero-dt advances, used to pin down the
// exact advance that triggers stateMachineSettled without depending
// on the reference factory's own fixture timing.
type settleAfterN struct {
	n       int
	advance int
}

func (s *settleAfterN) Name() string { return "settleAfterN" }
func (s *settleAfterN) AdvanceAndApply(dt float32) bool {
	if dt > 0 {
		s.advance++
	}
	return s.advance >= s.n
}
func (s *settleAfterN) PointerDown(Vec2D)              {}
func (s *settleAfterN) PointerUp(Vec2D)                {}
func (s *settleAfterN) PointerMove(Vec2D)              {}
func (s *settleAfterN) PointerExit(Vec2D)              {}
func (s *settleAfterN) BindViewModel(ViewModelInstance) {}

// newTestPair builds a queue/server pair backed by the reference
// factory, the way a single-threaded test drives the producer and
// consumer from the same goroutine: record, then PollMessages, then
// ProcessMessages.
func newTestPair() (*CommandQueue, *CommandServer) {
	q := NewCommandQueue()
	s := NewCommandServer(q, reffactory.New())
	return q, s
}

// Seed scenario 1 (spec.md §8): load two_artboards.riv, instantiate
// "One", "Two", "Three". The first two resolve, "Three" does not, and
// deleting the file cascades to exactly the two live artboards.
func TestScenarioTwoArtboardsCascadeDelete(t *testing.T) {
	q, s := newTestPair()

	var fileEvents []Message
	fileListener := &Listener{OnFileEvent: func(m Message) { fileEvents = append(fileEvents, m) }}
	file := q.LoadFile([]byte("two_artboards.riv"), nil, fileListener, 1)
	s.PollMessages()
	q.ProcessMessages()

	var artboardEvents []Message
	abListener := &Listener{OnArtboardEvent: func(m Message) { artboardEvents = append(artboardEvents, m) }}
	one := q.InstantiateArtboardNamed(file, "One", abListener, 2)
	two := q.InstantiateArtboardNamed(file, "Two", abListener, 3)
	three := q.InstantiateArtboardNamed(file, "Three", abListener, 4)
	s.PollMessages()
	q.ProcessMessages()

	if s.TestingArtboardCount() != 2 {
		t.Fatalf("expected 2 live artboards, got %d", s.TestingArtboardCount())
	}

	// "Three" never resolved; using it now must post exactly one error.
	q.RequestStateMachineNames(three, 5)
	s.PollMessages()
	q.ProcessMessages()
	errs := 0
	for _, m := range artboardEvents {
		if m.Tag == msgArtboardError {
			errs++
		}
	}
	if errs != 1 {
		t.Fatalf("expected exactly one artboardError for the unresolved handle, got %d", errs)
	}

	q.DeleteFile(file, 6)
	s.PollMessages()
	q.ProcessMessages()

	if s.TestingFileCount() != 0 || s.TestingArtboardCount() != 0 {
		t.Fatalf("expected file and artboard cascade to fully clear")
	}
	deleted := 0
	for _, m := range artboardEvents {
		if m.Tag == msgArtboardDeleted {
			deleted++
		}
	}
	if deleted != 2 {
		t.Fatalf("expected two artboardDeleted messages, got %d", deleted)
	}
	_ = one
	_ = two
}

// Seed scenario 2 (spec.md §8): draw(k, f1) then draw(k, f2) before any
// drain; after one drain, only f2 has fired.
func TestScenarioDrawCoalescing(t *testing.T) {
	q, s := newTestPair()
	key := q.CreateDrawKey()

	var calls []string
	q.Draw(key, func(Renderer) { calls = append(calls, "f1") })
	q.Draw(key, func(Renderer) { calls = append(calls, "f2") })
	s.PollMessages()

	if len(calls) != 1 || calls[0] != "f2" {
		t.Fatalf("expected exactly one call to f2, got %v", calls)
	}
}

// Seed scenario 3 (spec.md §8): prime with a zero advance, then
// pointerDown twice and pointerUp once; the bound boolean must not
// double-toggle across the repeated down.
func TestScenarioPointerEventsToggleOnce(t *testing.T) {
	q, s := newTestPair()

	file := q.LoadFile([]byte("pointer_events.riv"), nil, nil, 0)
	s.PollMessages()
	q.ProcessMessages()

	artboard := q.InstantiateArtboardNamed(file, "", nil, 0)
	sm := q.InstantiateStateMachineNamed(artboard, "", nil, 0)
	vm := q.InstantiateDefaultViewModelInstanceForArtboard(file, artboard, nil, 0)
	q.BindViewModelInstance(sm, vm, 0)
	s.PollMessages()

	q.AdvanceStateMachine(sm, 0, 0) // prime
	s.PollMessages()

	ev := PointerEvent{
		Position:       Vec2D{X: 425, Y: 425},
		Fit:            FitNone,
		Alignment:      AlignCenter,
		ScreenBounds:   AABB{MinX: 0, MinY: 0, MaxX: 850, MaxY: 850},
		ArtboardBounds: AABB{MinX: 0, MinY: 0, MaxX: 850, MaxY: 850},
	}
	q.PointerDown(sm, ev)
	q.PointerDown(sm, ev)
	q.RequestViewModelInstanceBool(vm, "isDown", 98)
	q.PointerUp(sm, ev)
	s.PollMessages()

	q.RequestViewModelInstanceBool(vm, "isDown", 99)
	s.PollMessages()

	var got, afterDowns *Message
	q.SetGlobalListener(categoryViewModelInstance, &Listener{OnViewModelEvent: func(m Message) {
		cp := m
		switch m.RequestID {
		case 98:
			afterDowns = &cp
		case 99:
			got = &cp
		}
	}})
	q.ProcessMessages()
	if afterDowns == nil || afterDowns.Data.Bool != true {
		t.Fatalf("expected isDown to be true after two pointer downs (toggled once), got %v", afterDowns)
	}
	if got == nil {
		t.Fatalf("expected a viewModelDataReceived reply for the bool request")
	}
	if got.Data.Bool != false {
		t.Fatalf("expected isDown to settle back to false after down,down,up — got %v", got.Data.Bool)
	}
}

// Seed scenario 4 (spec.md §8): subscribe, set, drain + processMessages
// yields exactly one viewModelDataReceived; re-draining without a
// further set yields no additional callback.
func TestScenarioSubscriptionChangeOnly(t *testing.T) {
	q, s := newTestPair()

	file := q.LoadFile([]byte("data_bind_test_cmdq.riv"), nil, nil, 0)
	s.PollMessages()
	q.ProcessMessages()

	vm := q.InstantiateDefaultViewModelInstanceForViewModel(file, "Data Bind Test", nil, 0)
	s.PollMessages()

	var received []Message
	q.SetGlobalListener(categoryViewModelInstance, &Listener{OnViewModelEvent: func(m Message) {
		if m.Tag == msgViewModelDataReceived {
			received = append(received, m)
		}
	}})

	q.SubscribeToViewModelProperty(vm, "Test Num", DataTypeNumber)
	s.PollMessages()
	q.ProcessMessages()
	received = nil // the initial subscribe snapshot does not itself fire a callback

	q.SetViewModelInstanceNumber(vm, "Test Num", 10, 0)
	s.PollMessages()
	q.ProcessMessages()

	if len(received) != 1 || received[0].Data.Number != 10 {
		t.Fatalf("expected exactly one viewModelDataReceived with value 10, got %v", received)
	}

	received = nil
	s.PollMessages()
	q.ProcessMessages()
	if len(received) != 0 {
		t.Fatalf("expected no additional callbacks without a further set, got %v", received)
	}
}

// Seed scenario 5 (spec.md §8): advance a state machine with dt=10
// three times; exactly one stateMachineSettled fires, carrying the
// third advance's requestId.
func TestScenarioStateMachineSettlesOnThirdAdvance(t *testing.T) {
	q, s := newTestPair()

	file := q.LoadFile([]byte("pointer_events.riv"), nil, nil, 0)
	s.PollMessages()
	q.ProcessMessages()
	artboard := q.InstantiateArtboardNamed(file, "", nil, 0)
	sm := q.InstantiateStateMachineNamed(artboard, "", nil, 0)
	s.PollMessages()

	// Override the fixture's zero-settleAfter default by swapping in a
	// state machine that settles after 3 non-zero advances, matching
	// the scenario text exactly.
	s.stateMachines[sm] = &settleAfterN{n: 3}

	var settled []Message
	q.SetGlobalListener(categoryStateMachine, &Listener{OnStateMachineEvent: func(m Message) {
		if m.Tag == msgStateMachineSettled {
			settled = append(settled, m)
		}
	}})

	q.AdvanceStateMachine(sm, 10, 101)
	q.AdvanceStateMachine(sm, 10, 102)
	q.AdvanceStateMachine(sm, 10, 103)
	s.PollMessages()
	q.ProcessMessages()

	if len(settled) != 1 {
		t.Fatalf("expected exactly one stateMachineSettled, got %d", len(settled))
	}
	if settled[0].RequestID != 103 {
		t.Fatalf("expected the settled message to carry the third advance's requestId, got %d", settled[0].RequestID)
	}
}

// Seed scenario 6 (spec.md §8): setting a property with the wrong type
// yields exactly one viewModelInstanceError and leaves the prior value
// unchanged.
func TestScenarioWrongTypeSetYieldsOneError(t *testing.T) {
	q, s := newTestPair()

	file := q.LoadFile([]byte("data_bind_test_cmdq.riv"), nil, nil, 0)
	s.PollMessages()
	q.ProcessMessages()
	vm := q.InstantiateDefaultViewModelInstanceForViewModel(file, "Data Bind Test", nil, 0)
	s.PollMessages()

	q.SetViewModelInstanceNumber(vm, "Test Num", 42, 0)
	s.PollMessages()

	var errs []Message
	q.SetGlobalListener(categoryViewModelInstance, &Listener{OnViewModelEvent: func(m Message) {
		if m.Tag == msgViewModelInstanceError {
			errs = append(errs, m)
		}
	}})

	// "Blah" does not exist on this view model at all, let alone as a
	// bool — a representative "wrong type" failure the fixture can
	// actually produce without a nested schema.
	q.SetViewModelInstanceBool(vm, "Blah", true, 0)
	s.PollMessages()
	q.ProcessMessages()

	if len(errs) != 1 {
		t.Fatalf("expected exactly one viewModelInstanceError, got %d", len(errs))
	}

	q.RequestViewModelInstanceNumber(vm, "Test Num", 55)
	s.PollMessages()
	var got *Message
	q.SetGlobalListener(categoryViewModelInstance, &Listener{OnViewModelEvent: func(m Message) {
		if m.RequestID == 55 {
			cp := m
			got = &cp
		}
	}})
	q.ProcessMessages()
	if got == nil || got.Data.Number != 42 {
		t.Fatalf("expected Test Num to remain 42 after the failed set, got %v", got)
	}
}

// Disconnect terminality: once a disconnect is drained, PollMessages
// returns false and no further commands execute.
func TestDisconnectTerminality(t *testing.T) {
	q, s := newTestPair()
	q.Disconnect()
	if ok := s.PollMessages(); ok {
		t.Fatalf("expected PollMessages to return false after disconnect")
	}

	file := q.LoadFile([]byte("two_artboards.riv"), nil, nil, 0)
	if ok := s.PollMessages(); ok {
		t.Fatalf("expected PollMessages to keep returning false after disconnect")
	}
	if s.TestingFileCount() != 0 {
		t.Fatalf("expected commands recorded after disconnect to never execute")
	}
	_ = file
}

// A decode failure must reach the listener registered under the
// asset's own category (categoryRenderImage here), not silently
// dispatch through OnFileEvent.
func TestDecodeImageErrorRoutesToAssetListener(t *testing.T) {
	q, s := newTestPair()

	var assetFired, fileFired bool
	q.SetGlobalListener(categoryFile, &Listener{OnFileEvent: func(Message) { fileFired = true }})
	l := &Listener{OnAssetEvent: func(m Message) {
		if m.Tag == msgAssetError {
			assetFired = true
		}
	}}

	q.DecodeImage([]byte("not a real image"), l, 7)
	s.PollMessages()
	q.ProcessMessages()

	if !assetFired {
		t.Fatalf("expected the per-handle asset listener to receive msgAssetError")
	}
	if fileFired {
		t.Fatalf("decode failure must not be misrouted to the file category's listener")
	}
}

// Dependency cascade also covers state machines nested under an
// artboard: deleting the artboard must cascade-delete its state
// machines too.
func TestArtboardDeleteCascadesStateMachine(t *testing.T) {
	q, s := newTestPair()
	file := q.LoadFile([]byte("pointer_events.riv"), nil, nil, 0)
	s.PollMessages()
	q.ProcessMessages()
	artboard := q.InstantiateArtboardNamed(file, "", nil, 0)
	q.InstantiateStateMachineNamed(artboard, "", nil, 0)
	s.PollMessages()

	if s.TestingStateMachineCount() != 1 {
		t.Fatalf("expected one live state machine before delete")
	}
	q.DeleteArtboard(artboard, 0)
	s.PollMessages()
	if s.TestingStateMachineCount() != 0 {
		t.Fatalf("expected the artboard delete to cascade to its state machine")
	}
}
