// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import "testing"

func TestListenerRegistryRegisterAndLookup(t *testing.T) {
	r := newListenerRegistry()
	var got Message
	l := &Listener{OnFileEvent: func(m Message) { got = m }}
	r.register(categoryFile, 7, l)

	perHandle, global := r.lookup(categoryFile, 7)
	if perHandle != l {
		t.Fatalf("expected to find the registered listener")
	}
	if global != nil {
		t.Fatalf("expected no global listener registered")
	}
	dispatch(perHandle, categoryFile, Message{Tag: msgFileLoaded, File: 7})
	if got.File != 7 {
		t.Fatalf("dispatch did not invoke OnFileEvent")
	}
}

func TestListenerRegistryRegisterNullHandleIsNoop(t *testing.T) {
	r := newListenerRegistry()
	l := &Listener{}
	r.register(categoryFile, 0, l)
	perHandle, _ := r.lookup(categoryFile, 0)
	if perHandle != nil {
		t.Fatalf("registering against the null handle must be a no-op")
	}
}

func TestListenerRegistryGlobalReceivesAlongsidePerHandle(t *testing.T) {
	r := newListenerRegistry()
	var perHandleSeen, globalSeen bool
	per := &Listener{OnArtboardEvent: func(Message) { perHandleSeen = true }}
	glob := &Listener{OnArtboardEvent: func(Message) { globalSeen = true }}
	r.register(categoryArtboard, 3, per)
	r.registerGlobal(categoryArtboard, glob)

	perHandle, global := r.lookup(categoryArtboard, 3)
	dispatch(perHandle, categoryArtboard, Message{})
	dispatch(global, categoryArtboard, Message{})
	if !perHandleSeen || !globalSeen {
		t.Fatalf("expected both the per-handle and global listener to be invoked")
	}
}

func TestListenerRegistryUnregisterRemovesPerHandleOnly(t *testing.T) {
	r := newListenerRegistry()
	per := &Listener{}
	glob := &Listener{}
	r.register(categoryFont, 9, per)
	r.registerGlobal(categoryFont, glob)
	r.unregister(categoryFont, 9)

	perHandle, global := r.lookup(categoryFont, 9)
	if perHandle != nil {
		t.Fatalf("expected the per-handle registration to be gone")
	}
	if global != glob {
		t.Fatalf("unregister must not touch the global listener")
	}
}

func TestListenerRegistryMoveTransfersRegistration(t *testing.T) {
	r := newListenerRegistry()
	l := &Listener{}
	r.register(categoryStateMachine, 1, l)
	r.move(categoryStateMachine, 1, 2)

	if old, _ := r.lookup(categoryStateMachine, 1); old != nil {
		t.Fatalf("expected the old handle's registration to be gone after move")
	}
	if moved, _ := r.lookup(categoryStateMachine, 2); moved != l {
		t.Fatalf("expected the listener to be registered under the new handle")
	}
}

func TestListenerRegistryMoveOfUnregisteredHandleIsNoop(t *testing.T) {
	r := newListenerRegistry()
	r.move(categoryStateMachine, 100, 200)
	if l, _ := r.lookup(categoryStateMachine, 200); l != nil {
		t.Fatalf("moving a handle with no registration must not create one")
	}
}

func TestDispatchCategoryRouting(t *testing.T) {
	var fired string
	l := &Listener{
		OnFileEvent:         func(Message) { fired = "file" },
		OnArtboardEvent:     func(Message) { fired = "artboard" },
		OnStateMachineEvent: func(Message) { fired = "stateMachine" },
		OnViewModelEvent:    func(Message) { fired = "viewModel" },
		OnAssetEvent:        func(Message) { fired = "asset" },
	}
	cases := []struct {
		cat  handleCategory
		want string
	}{
		{categoryFile, "file"},
		{categoryArtboard, "artboard"},
		{categoryStateMachine, "stateMachine"},
		{categoryViewModelInstance, "viewModel"},
		{categoryRenderImage, "asset"},
		{categoryAudioSource, "asset"},
		{categoryFont, "asset"},
	}
	for _, c := range cases {
		fired = ""
		dispatch(l, c.cat, Message{})
		if fired != c.want {
			t.Errorf("category %v: got %q, want %q", c.cat, fired, c.want)
		}
	}
}
