// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package reffactory

import (
	"encoding/binary"
	"fmt"
)

// wavHeader mirrors the teacher's load/wav.go wavHeader (teacher, now
// removed after extraction — see DESIGN.md): the canonical 44-byte
// PCM WAVE header.
type wavHeader struct {
	RiffID      [4]byte
	FileSize    uint32
	WaveID      [4]byte
	Fmt         [4]byte
	FmtSize     uint32
	AudioFormat uint16
	Channels    uint16
	Frequency   uint32
	ByteRate    uint32
	BlockAlign  uint16
	SampleBits  uint16
	DataID      [4]byte
	DataSize    uint32
}

const wavHeaderSize = 44

// decodedAudio is the rive.AudioSource this factory produces.
type decodedAudio struct {
	Channels   uint16
	Frequency  uint32
	SampleBits uint16
	Data       []byte
}

func decodeWav(data []byte) (*decodedAudio, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("reffactory: wav data too short: %d bytes", len(data))
	}
	var hdr wavHeader
	hdr.RiffID = [4]byte(data[0:4])
	hdr.FileSize = binary.LittleEndian.Uint32(data[4:8])
	hdr.WaveID = [4]byte(data[8:12])
	hdr.Fmt = [4]byte(data[12:16])
	hdr.FmtSize = binary.LittleEndian.Uint32(data[16:20])
	hdr.AudioFormat = binary.LittleEndian.Uint16(data[20:22])
	hdr.Channels = binary.LittleEndian.Uint16(data[22:24])
	hdr.Frequency = binary.LittleEndian.Uint32(data[24:28])
	hdr.ByteRate = binary.LittleEndian.Uint32(data[28:32])
	hdr.BlockAlign = binary.LittleEndian.Uint16(data[32:34])
	hdr.SampleBits = binary.LittleEndian.Uint16(data[34:36])
	hdr.DataID = [4]byte(data[36:40])
	hdr.DataSize = binary.LittleEndian.Uint32(data[40:44])

	if string(hdr.RiffID[:]) != "RIFF" || string(hdr.WaveID[:]) != "WAVE" {
		return nil, fmt.Errorf("reffactory: not a WAVE file")
	}

	available := uint32(len(data) - wavHeaderSize)
	n := hdr.DataSize
	if n > available {
		n = available
	}
	audioData := make([]byte, n)
	copy(audioData, data[wavHeaderSize:wavHeaderSize+int(n)])

	return &decodedAudio{
		Channels:   hdr.Channels,
		Frequency:  hdr.Frequency,
		SampleBits: hdr.SampleBits,
		Data:       audioData,
	}, nil
}
