// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// objectstream.go is the Go analogue of rive's ObjectStream<T>
// (original_source/include/rive/object_stream.hpp): a FIFO of
// move-only values of a single type, aligned one-to-one with the POD
// records that reference them by position. Used as the side-car for
// byte-vector payloads, owned strings, and one-shot/draw callbacks
// (spec.md §4.2).
//
// Go has no move semantics, so "move-only" here means "the pusher
// gives up its reference by convention": Pop zeroes the slot it
// returns so a lingering backing array doesn't keep large payloads
// alive past their single read.

// objectStreamCompactThreshold mirrors podCompactThreshold's role but
// for the number of already-popped slots, not bytes.
const objectStreamCompactThreshold = 256

// objectStream is a FIFO of T, typically instantiated per side-car
// concern (e.g. objectStream[[]byte] for file bytes, objectStream[string]
// for names).
type objectStream[T any] struct {
	items []T
	off   int
}

func (s *objectStream[T]) empty() bool { return len(s.items)-s.off == 0 }

func (s *objectStream[T]) push(v T) {
	s.items = append(s.items, v)
}

// pop removes and returns the oldest unread value. Popping an empty
// stream is a programming error: the protocol guarantees a side-car
// pop is only ever issued immediately after reading the POD record
// that announces it.
func (s *objectStream[T]) pop() T {
	if s.empty() {
		panic("rive: objectStream pop from empty stream")
	}
	v := s.items[s.off]
	var zero T
	s.items[s.off] = zero // drop the reference so GC can reclaim it.
	s.off++
	s.compact()
	return v
}

func (s *objectStream[T]) compact() {
	if s.off < objectStreamCompactThreshold || s.off*2 < len(s.items) {
		return
	}
	n := copy(s.items, s.items[s.off:])
	s.items = s.items[:n]
	s.off = 0
}
