// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

// Package reffactory is a reference implementation of rive.Factory
// used only by this module's own tests. It decodes real PNG/JPEG
// bytes (stdlib image/png, image/jpeg) and real WAV bytes (adapted
// from the teacher's load/wav.go — see DESIGN.md), and resolves a
// handful of named in-memory scene fixtures in place of real .riv
// parsing, which is out of scope for the command-queue core (spec.md
// §1 "Out of scope: ... The scene graph").
//
// Nothing in the rive package imports this package; it exists purely
// so command_queue_test-style scenarios have something concrete to
// drive.
package reffactory

import (
	"fmt"

	rive "github.com/rive-app/rive-runtime"
)

// Factory implements rive.Factory.
type Factory struct{}

// New returns a ready-to-use reference Factory.
func New() *Factory { return &Factory{} }

// LoadFile resolves rivBytes against the fixture registry in
// fixtures.go. Unknown content is a decode failure, matching spec.md
// §7 "Decode failure" for a malformed .riv file.
func (f *Factory) LoadFile(rivBytes []byte, loader rive.FileAssetLoader) (rive.LoadedFile, error) {
	name := string(rivBytes)
	build, ok := fixtures[name]
	if !ok {
		return nil, fmt.Errorf("reffactory: unrecognized fixture %q", name)
	}
	return build(), nil
}

func (f *Factory) DecodeImage(bytes []byte) (rive.RenderImage, error) {
	return decodeImage(bytes)
}

func (f *Factory) DecodeFont(bytes []byte) (rive.Font, error) {
	return decodeFont(bytes)
}

func (f *Factory) DecodeAudio(bytes []byte) (rive.AudioSource, error) {
	return decodeWav(bytes)
}
