// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package reffactory

import "fmt"

// decodedFont is the rive.Font this factory produces. Text shaping
// and atlas generation are explicitly out of scope (spec.md §1 "Out
// of scope: Text shaping, font loading, RawText") — unlike images and
// audio, there is no SPEC_FULL component that consumes glyph layout,
// so this reference factory only validates the bytes look like a font
// and wraps them, rather than porting the teacher's full
// opentype/atlas pipeline (load/ttf.go, now removed — see DESIGN.md).
type decodedFont struct {
	Bytes []byte
}

// recognized sfnt magic numbers: TrueType, OpenType/CFF, and the
// legacy 'true'/'typ1' Apple tags.
var sfntMagics = [][4]byte{
	{0x00, 0x01, 0x00, 0x00},
	{'O', 'T', 'T', 'O'},
	{'t', 'r', 'u', 'e'},
	{'t', 'y', 'p', '1'},
}

func decodeFont(data []byte) (*decodedFont, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("reffactory: font data too short: %d bytes", len(data))
	}
	var magic [4]byte
	copy(magic[:], data[:4])
	for _, m := range sfntMagics {
		if magic == m {
			return &decodedFont{Bytes: data}, nil
		}
	}
	return nil, fmt.Errorf("reffactory: unrecognized font magic %x", magic)
}
