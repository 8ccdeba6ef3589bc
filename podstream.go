// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// podstream.go is the Go analogue of rive's PODStream
// (original_source/include/rive/object_stream.hpp): a FIFO of
// fixed-width, trivially-copyable records stored as raw bytes. Unlike
// the C++ original, which reinterpret_casts whatever POD struct it's
// given, Go has no portable reinterpret-cast, so every record width is
// written and read through encoding/binary with an explicit helper
// function per type below. Ordering is the protocol: there is no
// length prefix, and the tag-dictated call sequence on one side must
// match the other exactly.

import (
	"encoding/binary"
	"fmt"
	"math"
)

// podCompactThreshold bounds how much already-read prefix a stream
// tolerates before it rebases its backing array. Kept small since
// streams are drained promptly; this just stops an idle queue from
// holding an ever-growing consumed prefix in memory.
const podCompactThreshold = 4096

// podStream is an appendable, front-poppable buffer of bytes. Reads
// and writes are amortised O(1): append grows the tail, popFront
// advances a read offset and only copies the live suffix once the
// consumed prefix becomes a significant fraction of the buffer.
type podStream struct {
	buf []byte
	off int
}

// empty reports whether there are unread bytes remaining.
func (s *podStream) empty() bool { return len(s.buf)-s.off == 0 }

// len returns the number of unread bytes.
func (s *podStream) len() int { return len(s.buf) - s.off }

func (s *podStream) append(p []byte) {
	s.buf = append(s.buf, p...)
}

// popFront removes and returns the next n bytes. Reading past the end
// of the stream is a programming error: the command/message protocol
// is tag-dictated, so a correct drain never asks for more than is
// there. As in the C++ original, this is not a recoverable runtime
// condition.
func (s *podStream) popFront(n int) []byte {
	if s.len() < n {
		panic(fmt.Sprintf("rive: podStream read past end: have %d want %d", s.len(), n))
	}
	// Copy out before compacting: compact's copy(s.buf, s.buf[s.off:])
	// can overlap and overwrite this exact window once off crosses
	// podCompactThreshold, corrupting the value out from under the
	// caller before it's decoded.
	p := make([]byte, n)
	copy(p, s.buf[s.off:s.off+n])
	s.off += n
	s.compact()
	return p
}

func (s *podStream) compact() {
	if s.off < podCompactThreshold || s.off*2 < len(s.buf) {
		return
	}
	n := copy(s.buf, s.buf[s.off:])
	s.buf = s.buf[:n]
	s.off = 0
}

// Typed write helpers. Each writes a fixed number of bytes in
// little-endian order; endianness is process-local, matching spec's
// "no cross-process use" guarantee.

func podWriteUint8(s *podStream, v uint8) { s.append([]byte{v}) }

func podWriteBool(s *podStream, v bool) {
	if v {
		podWriteUint8(s, 1)
	} else {
		podWriteUint8(s, 0)
	}
}

func podWriteUint32(s *podStream, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.append(b[:])
}

func podWriteUint64(s *podStream, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.append(b[:])
}

func podWriteFloat32(s *podStream, v float32) {
	podWriteUint32(s, math.Float32bits(v))
}

// podWriteHandle writes any ~uint64 handle newtype.
func podWriteHandle[H ~uint64](s *podStream, h H) { podWriteUint64(s, uint64(h)) }

func podReadUint8(s *podStream) uint8 { return s.popFront(1)[0] }

func podReadBool(s *podStream) bool { return podReadUint8(s) != 0 }

func podReadUint32(s *podStream) uint32 {
	return binary.LittleEndian.Uint32(s.popFront(4))
}

func podReadUint64(s *podStream) uint64 {
	return binary.LittleEndian.Uint64(s.popFront(8))
}

func podReadFloat32(s *podStream) float32 {
	return math.Float32frombits(podReadUint32(s))
}

func podReadHandle[H ~uint64](s *podStream) H { return H(podReadUint64(s)) }
