// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import "math"

// SequenceHandle generates the strictly increasing sequence numbers
// stamped on outgoing chunks (Part 6, 6.7.2.4). It comes in a legacy and a
// non-legacy flavor that differ only in the range they wrap within:
// non-legacy sequence numbers use the full uint32 range, legacy ones
// reserve the top 1024 values and never use zero.
type SequenceHandle struct {
	isLegacy bool
	current  uint32
}

// NewSequenceHandle creates a handle starting at its minimum value: 1 for
// legacy, 0 otherwise.
func NewSequenceHandle(isLegacy bool) *SequenceHandle {
	h := &SequenceHandle{isLegacy: isLegacy}
	h.current = h.MinValue()
	return h
}

// NewSequenceHandleAt creates a handle already positioned at value,
// reduced modulo MaxValue the way the reference implementation does for
// resuming a handle from a known wire value.
func NewSequenceHandleAt(isLegacy bool, value uint32) *SequenceHandle {
	h := &SequenceHandle{isLegacy: isLegacy}
	h.current = value % h.MaxValue()
	return h
}

// MaxValue returns the largest value this handle can hold before
// wrapping.
func (h *SequenceHandle) MaxValue() uint32 {
	if h.isLegacy {
		return math.MaxUint32 - 1024
	}
	return math.MaxUint32
}

// MinValue returns the smallest value this handle can hold.
func (h *SequenceHandle) MinValue() uint32 {
	if h.isLegacy {
		return 1
	}
	return 0
}

// IsLegacy reports whether h uses the legacy numbering range.
func (h *SequenceHandle) IsLegacy() bool {
	return h.isLegacy
}

// SetIsLegacy switches the numbering range in place, wrapping the current
// value into the new range if it no longer fits.
func (h *SequenceHandle) SetIsLegacy(isLegacy bool) {
	h.isLegacy = isLegacy
	if h.current > h.MaxValue() {
		h.current = h.MinValue() + (h.current - h.MaxValue() - 1)
	}
}

// Current returns the next sequence number that will be stamped on a
// chunk; it does not consume it.
func (h *SequenceHandle) Current() uint32 {
	return h.current
}

// Set overwrites the current value directly, e.g. when resuming a
// sequence number negotiated out of band.
func (h *SequenceHandle) Set(value uint32) {
	h.current = value
}

// Increment advances the handle by value, wrapping around MaxValue back
// to MinValue exactly as the reference sequence-number handle does.
func (h *SequenceHandle) Increment(value uint32) {
	remaining := h.MaxValue() - h.current
	if remaining < value {
		h.current = h.MinValue() + value - remaining - 1
	} else {
		h.current += value
	}
}
