// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import (
	"encoding/binary"
	"testing"
)

func TestPodStreamRoundTripMixedWidths(t *testing.T) {
	s := &podStream{}
	podWriteUint8(s, 7)
	podWriteBool(s, true)
	podWriteUint32(s, 0xdeadbeef)
	podWriteFloat32(s, 3.5)
	podWriteHandle(s, FileHandle(42))
	podWriteUint64(s, 1<<40)

	if got := podReadUint8(s); got != 7 {
		t.Errorf("uint8 = %d, want 7", got)
	}
	if got := podReadBool(s); !got {
		t.Errorf("bool = %v, want true", got)
	}
	if got := podReadUint32(s); got != 0xdeadbeef {
		t.Errorf("uint32 = %x, want deadbeef", got)
	}
	if got := podReadFloat32(s); got != 3.5 {
		t.Errorf("float32 = %v, want 3.5", got)
	}
	if got := podReadHandle[FileHandle](s); got != 42 {
		t.Errorf("handle = %d, want 42", got)
	}
	if got := podReadUint64(s); got != 1<<40 {
		t.Errorf("uint64 = %d, want %d", got, uint64(1)<<40)
	}
	if !s.empty() {
		t.Errorf("stream not empty after reading everything written, len=%d", s.len())
	}
}

func TestPodStreamFIFOOrder(t *testing.T) {
	s := &podStream{}
	for i := uint32(0); i < 1000; i++ {
		podWriteUint32(s, i)
	}
	for i := uint32(0); i < 1000; i++ {
		if got := podReadUint32(s); got != i {
			t.Fatalf("record %d: got %d", i, got)
		}
	}
	if !s.empty() {
		t.Error("expected stream to be empty")
	}
}

func TestPodStreamCompactsReadPrefix(t *testing.T) {
	s := &podStream{}
	// Push well past the compaction threshold, popping as we go so the
	// consumed prefix triggers a rebase and the backing array doesn't
	// grow without bound.
	for i := 0; i < 100000; i++ {
		podWriteUint64(s, uint64(i))
		podReadUint64(s)
	}
	if !s.empty() {
		t.Fatal("expected empty stream")
	}
	if cap(s.buf) > podCompactThreshold*4 {
		t.Errorf("backing array grew unbounded: cap=%d", cap(s.buf))
	}
}

// TestPodStreamPopFrontSurvivesCompaction reproduces the exact window
// in which compact's copy(s.buf, s.buf[s.off:]) can overlap the bytes
// popFront already returned: s.off at the threshold, and the unread
// suffix long enough that the post-pop compaction condition
// (off*2 >= len(buf)) still triggers but the destination region
// [0, len(buf)-off) overlaps the just-returned [off-n, off) window. A
// popFront that returns an alias into s.buf instead of a copy would
// have its value overwritten by compact before the caller decodes it.
func TestPodStreamPopFrontSurvivesCompaction(t *testing.T) {
	const off = podCompactThreshold
	const n = 8
	// len(buf) must satisfy 2*off+n < len(buf) <= 2*off+2n for the
	// overlap: pick the midpoint of that window.
	const bufLen = 2*off + n + n/2

	s := &podStream{buf: make([]byte, bufLen), off: off}
	const want = uint64(0x1122334455667788)
	binary.LittleEndian.PutUint64(s.buf[off:off+n], want)
	// Fill the region compact would overlap the returned window with,
	// so a clobber is detectable rather than accidentally matching.
	for i := bufLen - n/2; i < bufLen; i++ {
		s.buf[i] = 0xff
	}

	got := podReadUint64(s)
	if got != want {
		t.Fatalf("popFront result corrupted by compact: got %#x, want %#x", got, want)
	}
}

func TestPodStreamOverReadPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading past end of stream")
		}
	}()
	s := &podStream{}
	podReadUint8(s)
}
