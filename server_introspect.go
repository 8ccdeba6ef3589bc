// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// server_introspect.go exposes the testing-only introspection surface
// spec.md §4.6 calls for. Nothing here widens the production contract:
// real callers only ever see effects through listener messages.

// TestingSubscriptions returns a snapshot of the current subscription
// set: (handle, path, DataType) -> last-observed value.
func (s *CommandServer) TestingSubscriptions() map[subscriptionKey]ViewModelInstanceData {
	out := make(map[subscriptionKey]ViewModelInstanceData, len(s.subscriptions))
	for k, v := range s.subscriptions {
		out[k] = v
	}
	return out
}

// TestingDrawSlots returns a snapshot of the current per-key pending
// draw callback map (callbacks themselves are opaque function values).
func (s *CommandServer) TestingDrawSlots() map[DrawKey]DrawCallback {
	out := make(map[DrawKey]DrawCallback, len(s.drawSlots))
	for k, v := range s.drawSlots {
		out[k] = v
	}
	return out
}

// TestingGlobalImageAssets, TestingGlobalAudioAssets, and
// TestingGlobalFontAssets return snapshots of the cached global asset
// maps.
func (s *CommandServer) TestingGlobalImageAssets() map[string]RenderImageHandle {
	out := make(map[string]RenderImageHandle, len(s.globalImages))
	for k, v := range s.globalImages {
		out[k] = v
	}
	return out
}

func (s *CommandServer) TestingGlobalAudioAssets() map[string]AudioSourceHandle {
	out := make(map[string]AudioSourceHandle, len(s.globalAudio))
	for k, v := range s.globalAudio {
		out[k] = v
	}
	return out
}

func (s *CommandServer) TestingGlobalFontAssets() map[string]FontHandle {
	out := make(map[string]FontHandle, len(s.globalFonts))
	for k, v := range s.globalFonts {
		out[k] = v
	}
	return out
}

// TestingTranslatePointer exposes the pure pointer-translation
// function so tests can pin it directly against a fit and bounds,
// without recording a pointer event through a live state machine.
func TestingTranslatePointer(screenPos Vec2D, fit Fit, align Alignment, screenBounds, artboardBounds AABB) Vec2D {
	return translatePointer(screenPos, fit, align, screenBounds, artboardBounds)
}

// TestingFileCount, TestingArtboardCount, and TestingStateMachineCount
// report live resource counts, useful for asserting cascade-delete
// results without needing listener plumbing in a test.
func (s *CommandServer) TestingFileCount() int         { return len(s.files) }
func (s *CommandServer) TestingArtboardCount() int     { return len(s.artboards) }
func (s *CommandServer) TestingStateMachineCount() int { return len(s.stateMachines) }
func (s *CommandServer) TestingViewModelInstanceCount() int { return len(s.vmInstances) }
